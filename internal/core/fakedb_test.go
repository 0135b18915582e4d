package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"physics-datasets/internal/ports"
	"physics-datasets/internal/types"
)

// fakeDB is an in-memory stand-in for the Postgres adapter. It interprets
// the statement shapes the import engine emits: reference lookups and
// inserts, the metadata pre-read, and the main-table upsert. Transactions
// snapshot state on begin and restore it on rollback.
type fakeDB struct {
	refs     map[string]map[string]refRow // table -> lower(name) -> row
	datasets map[string]datasetRow        // uuid -> row
	nextID   int64

	lookups map[string]int // reference lookups per table
	inserts map[string]int // reference inserts per table

	// failUpsert poisons dataset names: persisting them errors every time.
	failUpsert map[string]error

	// failRef makes every lookup against a reference table error.
	failRef map[string]error

	// raceOn simulates a concurrent creator: the insert for lower(name)
	// in the table both creates the row and reports a unique violation.
	raceOn map[string]bool

	snapshot *fakeSnapshot
}

type refRow struct {
	id    int64
	name  string
	extra map[string]int64
}

type datasetRow struct {
	name     string
	metadata types.Metadata
	fks      map[string]*int64
	editedBy string
}

type fakeSnapshot struct {
	refs     map[string]map[string]refRow
	datasets map[string]datasetRow
	nextID   int64
}

type uniqueViolationError struct{ table, name string }

func (e uniqueViolationError) Error() string {
	return fmt.Sprintf("duplicate key value violates unique constraint on %s (%s)", e.table, e.name)
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		refs:       map[string]map[string]refRow{},
		datasets:   map[string]datasetRow{},
		lookups:    map[string]int{},
		inserts:    map[string]int{},
		failUpsert: map[string]error{},
		failRef:    map[string]error{},
		raceOn:     map[string]bool{},
	}
}

func (db *fakeDB) Acquire(context.Context) (ports.Conn, error) { return fakeConn{db: db}, nil }

func (db *fakeDB) IsUniqueViolation(err error) bool {
	var uv uniqueViolationError
	return errors.As(err, &uv)
}

func (db *fakeDB) Close() {}

func (db *fakeDB) datasetByName(name string) (datasetRow, bool) {
	for _, row := range db.datasets {
		if row.name == name {
			return row, true
		}
	}
	return datasetRow{}, false
}

func (db *fakeDB) takeSnapshot() {
	snap := &fakeSnapshot{
		refs:     map[string]map[string]refRow{},
		datasets: map[string]datasetRow{},
		nextID:   db.nextID,
	}
	for table, rows := range db.refs {
		copied := map[string]refRow{}
		for k, v := range rows {
			copied[k] = v
		}
		snap.refs[table] = copied
	}
	for k, v := range db.datasets {
		snap.datasets[k] = v
	}
	db.snapshot = snap
}

func (db *fakeDB) restoreSnapshot() {
	if db.snapshot == nil {
		return
	}
	db.refs = db.snapshot.refs
	db.datasets = db.snapshot.datasets
	db.nextID = db.snapshot.nextID
	db.snapshot = nil
}

type fakeConn struct{ db *fakeDB }

func (c fakeConn) Exec(ctx context.Context, sql string, args ...any) error {
	return c.db.exec(sql, args)
}

func (c fakeConn) Query(ctx context.Context, sql string, args ...any) (ports.Rows, error) {
	return nil, fmt.Errorf("unsupported query: %s", sql)
}

func (c fakeConn) QueryRow(ctx context.Context, sql string, args ...any) ports.Row {
	return c.db.queryRow(sql, args)
}

func (c fakeConn) Begin(context.Context) (ports.Tx, error) {
	c.db.takeSnapshot()
	return &fakeTx{db: c.db}, nil
}

func (c fakeConn) Release() {}

type fakeTx struct {
	db   *fakeDB
	done bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) error {
	return t.db.exec(sql, args)
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (ports.Rows, error) {
	return nil, fmt.Errorf("unsupported query: %s", sql)
}

func (t *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) ports.Row {
	return t.db.queryRow(sql, args)
}

func (t *fakeTx) Commit(context.Context) error {
	t.done = true
	t.db.snapshot = nil
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.db.restoreSnapshot()
	return nil
}

func (db *fakeDB) queryRow(sql string, args []any) ports.Row {
	switch {
	case strings.Contains(sql, "ILIKE"):
		table := tableAfter(sql, "FROM ")
		db.lookups[table]++
		if err := db.failRef[table]; err != nil {
			return fakeRow{err: err}
		}
		name, _ := args[0].(string)
		if row, ok := db.refs[table][strings.ToLower(name)]; ok {
			return fakeRow{values: []any{row.id}}
		}
		return fakeRow{err: ports.ErrNoRows}

	case strings.HasPrefix(sql, "INSERT INTO") && strings.Contains(sql, "RETURNING"):
		table := tableAfter(sql, "INSERT INTO ")
		db.inserts[table]++
		columns := columnList(sql)
		name, _ := args[0].(string)
		key := strings.ToLower(name)
		if _, exists := db.refs[table][key]; exists {
			return fakeRow{err: uniqueViolationError{table: table, name: name}}
		}
		extra := map[string]int64{}
		for i, col := range columns[1:] {
			if v, ok := args[i+1].(int64); ok {
				extra[col] = v
			}
		}
		db.nextID++
		row := refRow{id: db.nextID, name: name, extra: extra}
		if db.refs[table] == nil {
			db.refs[table] = map[string]refRow{}
		}
		db.refs[table][key] = row
		if db.raceOn[table+"/"+key] {
			return fakeRow{err: uniqueViolationError{table: table, name: name}}
		}
		return fakeRow{values: []any{row.id}}

	case strings.Contains(sql, "SELECT metadata FROM"):
		id, _ := args[0].(string)
		row, ok := db.datasets[id]
		if !ok {
			return fakeRow{err: ports.ErrNoRows}
		}
		blob, err := json.Marshal(row.metadata)
		if err != nil {
			return fakeRow{err: err}
		}
		return fakeRow{values: []any{blob}}
	}
	return fakeRow{err: fmt.Errorf("unsupported statement: %s", sql)}
}

// exec handles the main-table upsert. Lock semantics mirror the compiled
// CASE clauses: a column keeps its stored value while the stored metadata
// marks it locked.
func (db *fakeDB) exec(sql string, args []any) error {
	if !strings.Contains(sql, "ON CONFLICT (uuid)") {
		return fmt.Errorf("unsupported statement: %s", sql)
	}

	columns := columnList(sql)
	id, _ := args[0].(string)
	name, _ := args[1].(string)
	blob, _ := args[2].([]byte)

	if err := db.failUpsert[name]; err != nil {
		return err
	}

	var metadata types.Metadata
	if err := json.Unmarshal(blob, &metadata); err != nil {
		return err
	}
	incoming := datasetRow{name: name, metadata: metadata, fks: map[string]*int64{}}
	for i, col := range columns[3:] {
		v, _ := args[i+3].(*int64)
		incoming.fks[col] = v
	}
	attributed := len(args) == len(columns)+1
	if attributed {
		incoming.editedBy, _ = args[len(args)-1].(string)
	}

	existing, exists := db.datasets[id]
	if !exists {
		db.datasets[id] = incoming
		return nil
	}

	locked := func(col string) bool {
		v, _ := existing.metadata["__"+col+"__lock__"].(bool)
		return v
	}
	merged := datasetRow{
		name:     existing.name,
		metadata: existing.metadata,
		fks:      map[string]*int64{},
		editedBy: existing.editedBy,
	}
	for col, v := range existing.fks {
		merged.fks[col] = v
	}
	anyUnlocked := false
	if !locked("name") {
		merged.name = incoming.name
		anyUnlocked = true
	}
	if !locked("metadata") {
		merged.metadata = incoming.metadata
		anyUnlocked = true
	}
	for col, v := range incoming.fks {
		if !locked(col) {
			merged.fks[col] = v
			anyUnlocked = true
		}
	}
	if attributed && anyUnlocked {
		merged.editedBy = incoming.editedBy
	}
	db.datasets[id] = merged
	return nil
}

func tableAfter(sql, marker string) string {
	rest := sql[strings.Index(sql, marker)+len(marker):]
	if i := strings.IndexAny(rest, " ("); i >= 0 {
		return strings.TrimSpace(rest[:i])
	}
	return rest
}

func columnList(sql string) []string {
	open := strings.Index(sql, "(")
	closing := strings.Index(sql, ")")
	parts := strings.Split(sql[open+1:closing], ",")
	columns := make([]string, 0, len(parts))
	for _, p := range parts {
		columns = append(columns, strings.TrimSpace(p))
	}
	return columns
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if i >= len(r.values) {
			break
		}
		switch target := d.(type) {
		case *int64:
			*target = r.values[i].(int64)
		case *[]byte:
			*target = r.values[i].([]byte)
		case *string:
			*target = r.values[i].(string)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

// fakeDiscovery satisfies the schema-discovery port with canned results.
type fakeDiscovery struct {
	tables map[string]string
	err    error
}

func (d fakeDiscovery) NavigationTables(context.Context, ports.Querier, string) (map[string]string, error) {
	return d.tables, d.err
}
