package core

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"physics-datasets/internal/ports"
	"physics-datasets/internal/types"
)

// DatasetRow is the main-table row shape the upsert compiler persists.
type DatasetRow struct {
	ID          uuid.UUID
	Name        string
	Metadata    types.Metadata
	ForeignKeys map[string]*int64
}

// UpsertCompiler builds and executes the lock-aware insert-or-update
// statement for the main table. Statement errors propagate unmodified;
// retry policy belongs to the orchestrator.
type UpsertCompiler struct {
	Table string
}

func NewUpsertCompiler(table string) UpsertCompiler {
	return UpsertCompiler{Table: table}
}

// Persist merges the row's metadata against any stored record and issues
// the upsert. The identifier is the conflict key; every other column only
// takes the incoming value while its lock-control key is not true in the
// stored metadata.
func (c UpsertCompiler) Persist(ctx context.Context, q ports.Querier, row DatasetRow, editor *types.Editor) error {
	metadata, err := c.mergedMetadata(ctx, q, row)
	if err != nil {
		return err
	}
	blob, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	columns := []string{"uuid", "name", "metadata"}
	args := []any{row.ID.String(), row.Name, blob}
	for _, col := range sortedFKColumns(row.ForeignKeys) {
		columns = append(columns, col)
		args = append(args, row.ForeignKeys[col])
	}
	if editor != nil {
		args = append(args, editor.Name)
	}

	return q.Exec(ctx, c.CompileSQL(columns, editor != nil), args...)
}

// CompileSQL renders the upsert statement for the given column list. The
// first column must be the identifier. When attributed is true the editor
// name arrives as the parameter after the column values and the
// last-edited bookkeeping only refreshes while at least one column is
// still unlocked.
func (c UpsertCompiler) CompileSQL(columns []string, attributed bool) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}

	var sets []string
	var unlocked []string
	for _, col := range columns[1:] {
		check := c.lockCheck(col)
		sets = append(sets, col+" = CASE WHEN "+check+" THEN "+c.Table+"."+col+" ELSE EXCLUDED."+col+" END")
		unlocked = append(unlocked, "NOT "+check)
	}
	sets = append(sets, "updated_at = NOW()")

	if attributed && len(unlocked) > 0 {
		anyUnlocked := strings.Join(unlocked, " OR ")
		editorParam := "$" + strconv.Itoa(len(columns)+1)
		sets = append(sets,
			"last_edited_at = CASE WHEN ("+anyUnlocked+") THEN NOW() ELSE "+c.Table+".last_edited_at END",
			"edited_by_name = CASE WHEN ("+anyUnlocked+") THEN "+editorParam+" ELSE "+c.Table+".edited_by_name END",
		)
	}

	return "INSERT INTO " + c.Table + " (" + strings.Join(columns, ", ") + ") VALUES (" +
		strings.Join(placeholders, ", ") + ") ON CONFLICT (uuid) DO UPDATE SET " +
		strings.Join(sets, ", ")
}

func (c UpsertCompiler) lockCheck(column string) string {
	return "COALESCE((" + c.Table + ".metadata->'" + LockKey(column) + "')::boolean, false)"
}

func (c UpsertCompiler) mergedMetadata(ctx context.Context, q ports.Querier, row DatasetRow) (types.Metadata, error) {
	var raw []byte
	err := q.QueryRow(ctx, "SELECT metadata FROM "+c.Table+" WHERE uuid = $1", row.ID.String()).Scan(&raw)
	switch {
	case errors.Is(err, ports.ErrNoRows):
		return FilterEmpty(row.Metadata), nil
	case err != nil:
		return nil, err
	}

	existing := types.Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &existing); err != nil {
			return nil, err
		}
	}
	return FilterEmpty(MergeMetadata(existing, row.Metadata)), nil
}

func sortedFKColumns(foreignKeys map[string]*int64) []string {
	cols := make([]string, 0, len(foreignKeys))
	for col := range foreignKeys {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
