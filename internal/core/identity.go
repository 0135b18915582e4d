package core

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DeriveDatasetID produces the stable identifier for a dataset from its
// logical name and resolved reference-entity foreign keys.
//
// Foreign-key entries are sorted by column name, rendered as decimal
// strings with "0" standing in for null, and joined with commas behind the
// name. The canonical string is hashed with UUIDv5 under a namespace
// derived from the configured namespace string, so identical logical data
// always yields the same identifier regardless of process, host, or time.
//
// Changing the namespace string is the only sanctioned way to invalidate
// previously derived identifiers and must be treated as a breaking change.
func DeriveDatasetID(namespace string, name string, foreignKeys map[string]*int64) uuid.UUID {
	ns := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(namespace))

	keys := make([]string, 0, len(foreignKeys))
	for k := range foreignKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := foreignKeys[k]; v != nil {
			parts = append(parts, strconv.FormatInt(*v, 10))
		} else {
			parts = append(parts, "0")
		}
	}

	// The name is always followed by the comma-joined key values, even
	// when there are none, so the no-references case canonicalizes to
	// "name," rather than bare "name".
	return uuid.NewSHA1(ns, []byte(name+","+strings.Join(parts, ",")))
}

// FallbackDatasetName synthesizes a name for a record that arrived without
// one. The timestamp plus a short random suffix keeps repeated unnamed
// imports from colliding on the same identifier.
func FallbackDatasetName(now time.Time, idx int) string {
	name := "unnamed_dataset_" + now.Format("20060102_150405") + "_" + uuid.NewString()[:8] + "_" + strconv.Itoa(idx)
	log.Warn().Int("index", idx).Str("name", name).Msg("record has no process name, using fallback")
	return name
}
