package adapters

import (
	"context"
	"strings"

	"physics-datasets/internal/ports"
)

// navigationTablesSQL walks the foreign keys declared on the main table
// and reports, per FK column, the table the constraint references.
const navigationTablesSQL = `
SELECT kcu.column_name, ccu.table_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name
 AND tc.table_schema = kcu.table_schema
JOIN information_schema.constraint_column_usage ccu
  ON tc.constraint_name = ccu.constraint_name
 AND tc.table_schema = ccu.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
  AND tc.table_name = $1`

// InformationSchemaDiscovery discovers navigation tables from the foreign
// keys of the main table via information_schema.
type InformationSchemaDiscovery struct{}

func NewInformationSchemaDiscovery() InformationSchemaDiscovery {
	return InformationSchemaDiscovery{}
}

// NavigationTables maps each reference category to its table, deriving the
// category key from the foreign-key column name by trimming the _id
// suffix (accelerator_id -> accelerator).
func (d InformationSchemaDiscovery) NavigationTables(ctx context.Context, q ports.Querier, mainTable string) (map[string]string, error) {
	rows, err := q.Query(ctx, navigationTablesSQL, mainTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := map[string]string{}
	for rows.Next() {
		var column, table string
		if err := rows.Scan(&column, &table); err != nil {
			return nil, err
		}
		key := strings.TrimSuffix(column, "_id")
		if key == column || key == "" {
			continue
		}
		tables[key] = table
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tables, nil
}
