package redis

import "strings"

const (
	// KeyPrefix is prepended to every key written by the store
	KeyPrefix = "minichannels:"
	// userSegment separates per-user keys from shared ones
	userSegment = "user:"
)

// SharedKey returns the Redis key for data shared by every user.
func SharedKey(name string) string {
	return KeyPrefix + name
}

// UserKey returns the Redis key for one user's copy of name.
func UserKey(userID, name string) string {
	return KeyPrefix + userSegment + userID + ":" + name
}

// IsUserKey reports whether a full Redis key belongs to a user namespace.
func IsUserKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix+userSegment)
}
