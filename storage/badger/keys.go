package badger

import "strings"

// Key prefixes for the logical collections
const (
	mediaPrefix          = "media:"
	settingsPrefix       = "settings:"
	metaPrefix           = "meta:"
	metaSchemaKey        = metaPrefix + "schema"
	metaNameKey          = metaPrefix + "name"
	metaCollectionPrefix = metaPrefix + "collection:"

	// legacyVideosPrefix belongs to the schema that stored clips in their own collection.
	legacyVideosPrefix = "videos:"

	mediaCollection    = "media"
	settingsCollection = "settings"
	settingsSingleton  = "global"
)

// makeMediaKey generates a key for a media record by ID.
// Format: media:<id>
func makeMediaKey(id string) []byte {
	return []byte(mediaPrefix + id)
}

// mediaIDFromKey extracts the record ID from a media key.
func mediaIDFromKey(key []byte) string {
	return strings.TrimPrefix(string(key), mediaPrefix)
}

// makeSettingsKey generates the key of the settings singleton.
func makeSettingsKey() []byte {
	return []byte(settingsPrefix + settingsSingleton)
}

// makeCollectionKey generates the marker key registering a collection.
// Format: meta:collection:<name>
func makeCollectionKey(name string) []byte {
	return []byte(metaCollectionPrefix + name)
}
