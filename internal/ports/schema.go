package ports

import "context"

// SchemaDiscoveryPort inspects the relational schema around the main table
// and reports which reference tables its foreign keys point at.
//
// The resolver uses discovery opportunistically: a failure here degrades
// the navigation structure to naming convention alone, it never aborts an
// import.
type SchemaDiscoveryPort interface {
	// NavigationTables returns category key -> table name for every
	// reference table reachable from mainTable's foreign keys.
	NavigationTables(ctx context.Context, q Querier, mainTable string) (map[string]string, error)
}
