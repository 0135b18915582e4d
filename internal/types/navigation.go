package types

// NavigationEntity describes how one reference category maps onto the
// relational schema: which table holds its rows, which record field names
// it, and which foreign-key column the main table uses to point at it.
type NavigationEntity struct {
	Key              string
	Table            string
	Field            string
	ForeignKeyColumn string
}

// NavigationStructure is the per-run mapping of reference categories in
// configured order. An empty structure means reference resolution is
// skipped entirely, not that the import fails.
type NavigationStructure []NavigationEntity

func (s NavigationStructure) Empty() bool { return len(s) == 0 }

// Lookup returns the entry for the given category key.
func (s NavigationStructure) Lookup(key string) (NavigationEntity, bool) {
	for _, e := range s {
		if e.Key == key {
			return e, true
		}
	}
	return NavigationEntity{}, false
}

// ForeignKeyColumns lists the main-table foreign-key columns in structure
// order.
func (s NavigationStructure) ForeignKeyColumns() []string {
	cols := make([]string, 0, len(s))
	for _, e := range s {
		cols = append(cols, e.ForeignKeyColumn)
	}
	return cols
}

// BatchCache maps category key -> reference name -> resolved identifier.
// One cache lives for exactly one batch transaction attempt.
type BatchCache map[string]map[string]int64
