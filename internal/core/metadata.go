package core

import (
	"reflect"
	"strings"

	"physics-datasets/internal/types"
)

const (
	lockKeyPrefix = "__"
	lockKeySuffix = "__lock__"
)

// LockKey returns the metadata control key that pins the given field.
func LockKey(field string) string {
	return lockKeyPrefix + field + lockKeySuffix
}

// IsLockKey reports whether a metadata key is itself a lock-control key.
func IsLockKey(key string) bool {
	return strings.HasPrefix(key, lockKeyPrefix) &&
		strings.HasSuffix(key, lockKeySuffix) &&
		len(key) > len(lockKeyPrefix)+len(lockKeySuffix)
}

func isLocked(md types.Metadata, field string) bool {
	locked, _ := md[LockKey(field)].(bool)
	return locked
}

// MergeMetadata merges incoming metadata into a copy of the stored
// metadata, honoring per-field locks.
//
// Lock-control keys themselves always apply, so a write can set or clear a
// lock at any time. Every other key applies only while its lock is not
// true in the stored metadata. The result is that a locked field keeps its
// stored value across any number of automated re-imports until the lock is
// explicitly unset.
func MergeMetadata(existing, incoming types.Metadata) types.Metadata {
	merged := make(types.Metadata, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		if IsLockKey(k) {
			merged[k] = v
			continue
		}
		if isLocked(existing, k) {
			continue
		}
		merged[k] = v
	}
	return merged
}

// FilterEmpty strips keys whose value is an empty string, nil, or an empty
// list, keeping the stored blob free of noise regardless of lock state.
func FilterEmpty(md types.Metadata) types.Metadata {
	filtered := make(types.Metadata, len(md))
	for k, v := range md {
		if isEmptyValue(v) {
			continue
		}
		filtered[k] = v
	}
	return filtered
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	}
	// Typed slices arrive here when records were built in code rather
	// than decoded from JSON.
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice && rv.Len() == 0
}
