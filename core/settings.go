// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import "time"

// Resolution is a capture resolution preset. It is informational on stored
// records and drives the capture layer's requested stream size.
type Resolution string

const (
	Resolution4K    Resolution = "4k"
	Resolution1080p Resolution = "1080p"
	Resolution720p  Resolution = "720p"
	Resolution480p  Resolution = "480p"

	// DefaultResolution is used when settings or records do not name one.
	DefaultResolution = Resolution1080p
)

// DefaultRetentionHours is the retention window applied when no settings exist.
const DefaultRetentionHours = 24

var resolutionDimensions = map[Resolution][2]int{
	Resolution4K:    {3840, 2160},
	Resolution1080p: {1920, 1080},
	Resolution720p:  {1280, 720},
	Resolution480p:  {854, 480},
}

// ParseResolution converts a preset name into a Resolution.
func ParseResolution(s string) (Resolution, error) {
	r := Resolution(s)
	if _, ok := resolutionDimensions[r]; !ok {
		return "", ErrInvalidResolution
	}
	return r, nil
}

// Valid reports whether r is a known preset.
func (r Resolution) Valid() bool {
	_, ok := resolutionDimensions[r]
	return ok
}

// Dimensions returns the preset's pixel width and height, or zeros for an
// unknown preset.
func (r Resolution) Dimensions() (width, height int) {
	d := resolutionDimensions[r]
	return d[0], d[1]
}

// AppSettings is the single global configuration record.
type AppSettings struct {
	Resolution            Resolution
	DefaultRetentionHours int
}

// DefaultSettings returns the settings reported when none have been stored.
func DefaultSettings() AppSettings {
	return AppSettings{
		Resolution:            DefaultResolution,
		DefaultRetentionHours: DefaultRetentionHours,
	}
}

// RetentionWindow returns how long newly captured media is kept.
func (s AppSettings) RetentionWindow() time.Duration {
	return time.Duration(s.DefaultRetentionHours) * time.Hour
}

// ExpiryFor returns the expiry date of media captured at createdAt.
func (s AppSettings) ExpiryFor(createdAt time.Time) time.Time {
	return createdAt.Add(s.RetentionWindow())
}
