package app

import (
	"context"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"physics-datasets/internal/core"
	"physics-datasets/internal/types"
)

type ImportRequest struct {
	// Path names a JSON file to import; Raw takes precedence when set so
	// API callers can hand bytes over directly.
	Path string
	Raw  []byte

	Config        types.ImportConfig
	StructureFile string

	// Editor attributes the write to an acting user; empty means an
	// automated import.
	Editor string
}

type ImportResult struct {
	Processed int64
	Failed    int64
}

// Import runs the full pipeline: read input, detect format, and upsert the
// collection in batches. The result carries aggregate counts even when the
// failure threshold turned the operation into a hard failure.
func (s Service) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	raw := req.Raw
	if len(raw) == 0 {
		path := strings.TrimSpace(req.Path)
		if path == "" {
			return ImportResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("import input path is required")
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return ImportResult{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("import input file not found").
				WithCause(err)
		}
		raw = data
	}

	overrides, err := s.structureOverrides(req.StructureFile)
	if err != nil {
		return ImportResult{}, err
	}

	resolver := core.NewNavigationResolver(s.DB, s.Discovery, overrides)
	importer := core.NewImporter(s.DB, resolver, req.Config)
	if s.Clock != nil {
		importer.Clock = s.Clock
	}

	var editor *types.Editor
	if name := strings.TrimSpace(req.Editor); name != "" {
		editor = &types.Editor{Name: name}
	}

	stats, err := importer.ImportRaw(ctx, raw, s.Formats, editor)
	return ImportResult{Processed: stats.Processed(), Failed: stats.Failed()}, err
}

func (s Service) structureOverrides(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	return s.Overrides.LoadOverrides(path)
}
