// Package capture turns freshly captured media into stored records.
//
// An Intake stamps a Capture with an identifier, creation time, expiry taken
// from the current retention setting, a resolution label and a thumbnail,
// then hands the finished record to the media repository.
package capture
