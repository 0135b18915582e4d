package types

// DefaultNavigationOrder is the reference-category order used when the
// configuration does not override it. Accelerator must precede detector:
// detector rows are scoped by their owning accelerator when one resolves.
var DefaultNavigationOrder = []string{"accelerator", "stage", "campaign", "detector", "file_type"}

const (
	DefaultMainTable = "datasets"
	DefaultBatchSize = 100

	// DefaultNamespace seeds the deterministic identifier namespace.
	// Bumping the version suffix invalidates every previously derived
	// identifier and is a breaking schema-migration event.
	DefaultNamespace = "physics_datasets.v01"
)

// ImportConfig carries the import-engine settings the CLI and API layers
// resolve from flags, environment, and config file.
type ImportConfig struct {
	MainTable       string
	BatchSize       int
	Namespace       string
	NavigationOrder []string
}

// Normalize fills zero values with project defaults.
func (c ImportConfig) Normalize() ImportConfig {
	if c.MainTable == "" {
		c.MainTable = DefaultMainTable
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.NavigationOrder == nil {
		c.NavigationOrder = append([]string(nil), DefaultNavigationOrder...)
	}
	return c
}

// Editor identifies the acting user for manually attributed writes. A nil
// editor means an automated import with no attribution bookkeeping.
type Editor struct {
	Name string
}
