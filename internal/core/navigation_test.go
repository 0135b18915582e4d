package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"physics-datasets/internal/ports"
	"physics-datasets/internal/types"
)

func testConfig(order ...string) types.ImportConfig {
	cfg := types.ImportConfig{MainTable: "datasets"}
	if len(order) > 0 {
		cfg.NavigationOrder = order
	}
	return cfg.Normalize()
}

func acquire(t *testing.T, db *fakeDB) ports.Conn {
	t.Helper()
	conn, err := db.Acquire(t.Context())
	require.NoError(t, err)
	return conn
}

func TestBuildStructure(t *testing.T) {
	db := newFakeDB()
	ctx := t.Context()
	conn := acquire(t, db)

	tests := []struct {
		name      string
		discovery fakeDiscovery
		overrides map[string]string
		order     []string
		wantTable map[string]string
	}{
		{
			name:      "convention only",
			order:     []string{"accelerator", "stage"},
			wantTable: map[string]string{"accelerator": "accelerators", "stage": "stages"},
		},
		{
			name:      "discovered table wins over convention",
			discovery: fakeDiscovery{tables: map[string]string{"file_type": "file_types_v2"}},
			order:     []string{"file_type"},
			wantTable: map[string]string{"file_type": "file_types_v2"},
		},
		{
			name:      "override wins over discovery",
			discovery: fakeDiscovery{tables: map[string]string{"campaign": "campaigns"}},
			overrides: map[string]string{"campaign": "production_campaigns"},
			order:     []string{"campaign"},
			wantTable: map[string]string{"campaign": "production_campaigns"},
		},
		{
			name:      "discovery failure degrades to convention",
			discovery: fakeDiscovery{err: errors.New("information_schema unavailable")},
			order:     []string{"detector"},
			wantTable: map[string]string{"detector": "detectors"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewNavigationResolver(db, tc.discovery, tc.overrides)
			structure := resolver.BuildStructure(ctx, conn, testConfig(tc.order...))
			require.Len(t, structure, len(tc.order))
			for _, entity := range structure {
				require.Equal(t, tc.wantTable[entity.Key], entity.Table)
				require.Equal(t, entity.Key, entity.Field)
				require.Equal(t, entity.Key+"_id", entity.ForeignKeyColumn)
			}
		})
	}
}

func TestBuildStructureEmptyOrder(t *testing.T) {
	db := newFakeDB()
	resolver := NewNavigationResolver(db, fakeDiscovery{}, nil)

	structure := resolver.BuildStructure(t.Context(), acquire(t, db), types.ImportConfig{
		MainTable:       "datasets",
		NavigationOrder: []string{},
	})
	require.True(t, structure.Empty())
}

func TestGetOrCreateEntity(t *testing.T) {
	db := newFakeDB()
	resolver := NewNavigationResolver(db, fakeDiscovery{}, nil)
	ctx := t.Context()
	conn := acquire(t, db)

	created, err := resolver.GetOrCreateEntity(ctx, conn, "accelerators", "FCC-ee", nil)
	require.NoError(t, err)

	// Lookup is case-insensitive, so the differently cased name resolves
	// to the same row instead of creating a duplicate.
	found, err := resolver.GetOrCreateEntity(ctx, conn, "accelerators", "fcc-EE", nil)
	require.NoError(t, err)
	require.Equal(t, created, found)
	require.Equal(t, 1, db.inserts["accelerators"])
}

func TestGetOrCreateEntityRecoversCreateRace(t *testing.T) {
	db := newFakeDB()
	db.raceOn["stages/sim"] = true
	resolver := NewNavigationResolver(db, fakeDiscovery{}, nil)

	id, err := resolver.GetOrCreateEntity(t.Context(), acquire(t, db), "stages", "sim", nil)
	require.NoError(t, err, "unique violation from a concurrent creator must be recovered")
	require.NotZero(t, id)
}

func TestGetOrCreateEntityBlankName(t *testing.T) {
	db := newFakeDB()
	resolver := NewNavigationResolver(db, fakeDiscovery{}, nil)

	_, err := resolver.GetOrCreateEntity(t.Context(), acquire(t, db), "stages", "  ", nil)
	require.Error(t, err)
}

func TestResolveBatchDeduplicatesNames(t *testing.T) {
	db := newFakeDB()
	resolver := NewNavigationResolver(db, fakeDiscovery{}, nil)
	structure := resolver.BuildStructure(t.Context(), acquire(t, db), testConfig("accelerator"))

	accelerators := []string{"FCC-ee", "FCC-hh", "FCC-eh"}
	batch := make([]types.DatasetRecord, 50)
	for i := range batch {
		batch[i] = types.DatasetRecord{
			ProcessName: "proc",
			Accelerator: accelerators[i%len(accelerators)],
		}
	}

	cache, err := resolver.ResolveBatch(t.Context(), acquire(t, db), batch, structure)
	require.NoError(t, err)
	require.Len(t, cache["accelerator"], 3)
	require.Equal(t, 3, db.lookups["accelerators"], "each distinct name resolves once per batch")
	require.Equal(t, 3, db.inserts["accelerators"])
}

func TestResolveBatchScopesDetectorByAccelerator(t *testing.T) {
	db := newFakeDB()
	resolver := NewNavigationResolver(db, fakeDiscovery{}, nil)
	conn := acquire(t, db)
	structure := resolver.BuildStructure(t.Context(), conn, testConfig("accelerator", "detector"))

	batch := []types.DatasetRecord{
		{ProcessName: "a", Accelerator: "FCC-ee", Detector: "IDEA"},
		{ProcessName: "b", Detector: "Orphan"},
	}
	cache, err := resolver.ResolveBatch(t.Context(), conn, batch, structure)
	require.NoError(t, err)

	accelID := cache["accelerator"]["FCC-ee"]
	require.Equal(t, map[string]int64{"accelerator_id": accelID}, db.refs["detectors"]["idea"].extra)
	require.Empty(t, db.refs["detectors"]["orphan"].extra, "detector without accelerator is created unscoped")
}

func TestResolveRecordDegradesOnFailure(t *testing.T) {
	db := newFakeDB()
	db.failRef["accelerators"] = errors.New("connection reset")
	resolver := NewNavigationResolver(db, fakeDiscovery{}, nil)
	conn := acquire(t, db)
	structure := resolver.BuildStructure(t.Context(), conn, testConfig("accelerator", "stage"))

	record := types.DatasetRecord{ProcessName: "p", Accelerator: "FCC-ee", Stage: "sim"}
	foreignKeys := resolver.ResolveRecord(t.Context(), conn, record, structure)

	// The record survives with null references rather than failing.
	require.Nil(t, foreignKeys["accelerator_id"])
	require.Nil(t, foreignKeys["stage_id"])
}

func TestResolveRecordEmptyStructure(t *testing.T) {
	db := newFakeDB()
	resolver := NewNavigationResolver(db, fakeDiscovery{}, nil)

	foreignKeys := resolver.ResolveRecord(t.Context(), acquire(t, db), types.DatasetRecord{ProcessName: "p"}, nil)
	require.Empty(t, foreignKeys)
}
