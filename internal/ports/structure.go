package ports

// StructureOverridePort loads operator-maintained overrides of the
// category -> table mapping. Overrides take precedence over both schema
// discovery and the plural naming convention.
type StructureOverridePort interface {
	LoadOverrides(path string) (map[string]string, error)
}
