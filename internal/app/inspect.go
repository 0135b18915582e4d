package app

import (
	"context"

	"physics-datasets/internal/core"
	"physics-datasets/internal/types"
)

type InspectRequest struct {
	Config        types.ImportConfig
	StructureFile string
}

type InspectResult struct {
	MainTable string
	Structure types.NavigationStructure
}

// Inspect reports the navigation structure an import run would operate
// over: configured category order combined with schema discovery and any
// override file.
func (s Service) Inspect(ctx context.Context, req InspectRequest) (InspectResult, error) {
	overrides, err := s.structureOverrides(req.StructureFile)
	if err != nil {
		return InspectResult{}, err
	}

	conn, err := s.DB.Acquire(ctx)
	if err != nil {
		return InspectResult{}, err
	}
	defer conn.Release()

	cfg := req.Config.Normalize()
	resolver := core.NewNavigationResolver(s.DB, s.Discovery, overrides)
	return InspectResult{
		MainTable: cfg.MainTable,
		Structure: resolver.BuildStructure(ctx, conn, cfg),
	}, nil
}
