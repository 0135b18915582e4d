// Package testutil provides shared helpers for the integration test
// packages.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// WriteCollection marshals a dataset collection to a temp JSON file and
// returns its path. The file lives in the test's temp dir and is cleaned
// up automatically.
func WriteCollection(t *testing.T, processes []map[string]any) string {
	t.Helper()
	blob, err := json.Marshal(map[string]any{"processes": processes})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "collection.json")
	require.NoError(t, os.WriteFile(path, blob, 0o644))
	return path
}
