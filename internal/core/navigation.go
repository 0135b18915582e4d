package core

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"physics-datasets/internal/ports"
	"physics-datasets/internal/types"
)

// NavigationResolver maps reference categories onto their tables and
// resolves or creates the reference rows datasets point at.
type NavigationResolver struct {
	DB        ports.DatabasePort
	Discovery ports.SchemaDiscoveryPort

	// Overrides pins category -> table mappings ahead of discovery and
	// convention. Loaded from the structure override file when configured.
	Overrides map[string]string
}

func NewNavigationResolver(db ports.DatabasePort, discovery ports.SchemaDiscoveryPort, overrides map[string]string) NavigationResolver {
	return NavigationResolver{DB: db, Discovery: discovery, Overrides: overrides}
}

// BuildStructure derives the navigation structure for one import run. Table
// names prefer an explicit override, then a table discovered from the
// schema's foreign keys, then the plural of the category key. Discovery
// failure degrades to convention; an empty configured order yields an
// empty structure and callers skip reference resolution entirely.
func (r NavigationResolver) BuildStructure(ctx context.Context, q ports.Querier, cfg types.ImportConfig) types.NavigationStructure {
	if len(cfg.NavigationOrder) == 0 {
		return nil
	}

	var discovered map[string]string
	if r.Discovery != nil {
		tables, err := r.Discovery.NavigationTables(ctx, q, cfg.MainTable)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("main_table", cfg.MainTable).
				Msg("schema discovery failed, falling back to naming convention")
		} else {
			discovered = tables
		}
	}

	structure := make(types.NavigationStructure, 0, len(cfg.NavigationOrder))
	for _, key := range cfg.NavigationOrder {
		table := key + "s"
		if t, ok := discovered[key]; ok && t != "" {
			table = t
		}
		if t, ok := r.Overrides[key]; ok && t != "" {
			table = t
		}
		structure = append(structure, types.NavigationEntity{
			Key:              key,
			Table:            table,
			Field:            key,
			ForeignKeyColumn: key + "_id",
		})
	}
	return structure
}

// ResolveBatch resolves every distinct reference name used across the
// batch exactly once and returns the resulting cache. Repeated names in a
// large batch cost a single lookup or create per table, not one per
// record.
//
// Categories resolve in structure order, so accelerators exist before
// detectors; a detector row is scoped by the accelerator named on the
// first record that carried the detector, when that record named one.
func (r NavigationResolver) ResolveBatch(ctx context.Context, q ports.Querier, batch []types.DatasetRecord, structure types.NavigationStructure) (types.BatchCache, error) {
	if structure.Empty() {
		return types.BatchCache{}, nil
	}

	names := map[string]map[string]struct{}{}
	detectorOwner := map[string]string{}
	for _, record := range batch {
		for _, entity := range structure {
			name := strings.TrimSpace(record.NavigationField(entity.Field))
			if name == "" {
				continue
			}
			if names[entity.Key] == nil {
				names[entity.Key] = map[string]struct{}{}
			}
			names[entity.Key][name] = struct{}{}
			if entity.Key == "detector" {
				if owner := strings.TrimSpace(record.Accelerator); owner != "" {
					if _, seen := detectorOwner[name]; !seen {
						detectorOwner[name] = owner
					}
				}
			}
		}
	}

	cache := types.BatchCache{}
	for _, entity := range structure {
		set := names[entity.Key]
		if len(set) == 0 {
			continue
		}
		cache[entity.Key] = make(map[string]int64, len(set))
		for _, name := range sortedNames(set) {
			var extra map[string]int64
			if entity.Key == "detector" {
				if owner, ok := detectorOwner[name]; ok {
					if id, ok := cache["accelerator"][owner]; ok {
						extra = map[string]int64{"accelerator_id": id}
					}
				}
			}
			id, err := r.GetOrCreateEntity(ctx, q, entity.Table, name, extra)
			if err != nil {
				return nil, err
			}
			cache[entity.Key][name] = id
		}
	}
	return cache, nil
}

// ResolveRecord resolves reference entities for a single record, used by
// the individual fallback path where no batch cache exists. A resolution
// failure degrades to null foreign keys for the remaining categories
// instead of failing the record.
func (r NavigationResolver) ResolveRecord(ctx context.Context, q ports.Querier, record types.DatasetRecord, structure types.NavigationStructure) map[string]*int64 {
	foreignKeys := make(map[string]*int64, len(structure))
	for _, entity := range structure {
		foreignKeys[entity.ForeignKeyColumn] = nil
	}
	if structure.Empty() {
		log.Ctx(ctx).Warn().Msg("no navigation structure available, skipping reference resolution")
		return foreignKeys
	}

	for _, entity := range structure {
		name := strings.TrimSpace(record.NavigationField(entity.Field))
		if name == "" {
			continue
		}
		var extra map[string]int64
		if entity.Key == "detector" {
			if accel := foreignKeys["accelerator_id"]; accel != nil {
				extra = map[string]int64{"accelerator_id": *accel}
			}
		}
		id, err := r.GetOrCreateEntity(ctx, q, entity.Table, name, extra)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("table", entity.Table).Str("name", name).
				Msg("could not resolve reference entity, storing null foreign keys for the rest")
			break
		}
		value := id
		foreignKeys[entity.ForeignKeyColumn] = &value
	}
	return foreignKeys
}

// GetOrCreateEntity looks a reference row up by case-insensitive name and
// creates it when absent. A unique violation raised by a concurrent
// creator is recovered by re-querying; only a re-query that still finds
// nothing surfaces as an error.
func (r NavigationResolver) GetOrCreateEntity(ctx context.Context, q ports.Querier, table, name string, extra map[string]int64) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("reference entity name is required")
	}

	idColumn := entityIDColumn(table)
	selectSQL := "SELECT " + idColumn + " FROM " + table + " WHERE name ILIKE $1"

	var id int64
	err := q.QueryRow(ctx, selectSQL, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ports.ErrNoRows) {
		return 0, err
	}

	columns := []string{"name"}
	args := []any{name}
	for _, col := range sortedKeys(extra) {
		columns = append(columns, col)
		args = append(args, extra[col])
	}
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	insertSQL := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" +
		strings.Join(placeholders, ", ") + ") RETURNING " + idColumn

	err = q.QueryRow(ctx, insertSQL, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if r.DB != nil && r.DB.IsUniqueViolation(err) {
		// Another writer created the row between our lookup and insert.
		if requery := q.QueryRow(ctx, selectSQL, name).Scan(&id); requery == nil {
			return id, nil
		}
		return 0, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("entity vanished after unique conflict in " + table).
			WithCause(err)
	}
	return 0, err
}

func entityIDColumn(table string) string {
	return strings.TrimSuffix(table, "s") + "_id"
}

func sortedNames(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]int64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
