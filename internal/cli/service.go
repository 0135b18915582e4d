package cli

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"

	"physics-datasets/internal/adapters"
	"physics-datasets/internal/app"
)

// openService opens the database pool and builds the application service.
// The returned close function must be called once the command finishes.
func openService(ctx context.Context, cmd *cobra.Command, dsn string) (app.Service, func(), error) {
	resolved := resolveString(cmd, dsn, "dsn", "dsn")
	if resolved == "" {
		return app.Service{}, nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("database dsn is required")
	}
	db, err := adapters.NewPgxDatabase(ctx, resolved)
	if err != nil {
		return app.Service{}, nil, err
	}
	return app.NewService(db), db.Close, nil
}
