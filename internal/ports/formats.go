package ports

import "physics-datasets/internal/types"

// CollectionFormat recognizes and parses one top-level input shape into
// dataset records. Detect must be cheap and side-effect free; Parse is only
// called after Detect reported a match.
type CollectionFormat interface {
	Name() string
	Detect(root map[string]any) bool
	Parse(root map[string]any) ([]types.DatasetRecord, error)
}

// FormatRegistry is an ordered list of collection formats. The first format
// whose Detect matches wins. No match is a recognized skip condition for
// the importer, not an error.
//
// The registry is a plain value handed to the importer, so callers compose
// their own without global registration state.
type FormatRegistry struct {
	formats []CollectionFormat
}

// NewFormatRegistry builds a registry evaluating formats in the given order.
func NewFormatRegistry(formats ...CollectionFormat) FormatRegistry {
	return FormatRegistry{formats: append([]CollectionFormat(nil), formats...)}
}

// Register appends a format behind the existing ones.
func (r *FormatRegistry) Register(f CollectionFormat) {
	r.formats = append(r.formats, f)
}

// Detect returns the first matching format, or false when no registered
// format recognizes the shape. A panicking or misbehaving Detect on one
// format must not mask later formats, so each candidate is consulted in
// order.
func (r FormatRegistry) Detect(root map[string]any) (CollectionFormat, bool) {
	for _, f := range r.formats {
		if f.Detect(root) {
			return f, true
		}
	}
	return nil, false
}
