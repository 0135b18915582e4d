package app

import (
	"time"

	"physics-datasets/internal/adapters"
	"physics-datasets/internal/ports"
)

// Service wires the import engine's ports together for the CLI and any
// future API surface. The database port is injected because opening it
// needs a DSN and a context; everything else defaults to the production
// adapters.
type Service struct {
	DB        ports.DatabasePort
	Discovery ports.SchemaDiscoveryPort
	Overrides ports.StructureOverridePort
	Formats   ports.FormatRegistry
	Clock     func() time.Time
}

func NewService(db ports.DatabasePort) Service {
	return Service{
		DB:        db,
		Discovery: adapters.NewInformationSchemaDiscovery(),
		Overrides: adapters.NewStructureFileAdapter(),
		Formats:   adapters.DefaultFormats(),
		Clock:     time.Now,
	}
}
