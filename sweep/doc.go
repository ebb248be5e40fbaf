// Package sweep deletes expired media on a schedule.
//
// A Sweeper runs one sweep as soon as it starts and another on every tick
// of its interval. A failed sweep is logged and counted; the next tick tries
// again. Sweeps are idempotent, so overlapping sweepers in the same process
// never double count a deletion.
package sweep
