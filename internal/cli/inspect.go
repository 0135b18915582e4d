package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"physics-datasets/internal/app"
	"physics-datasets/internal/types"
)

type inspectOptions struct {
	DSN           string
	MainTable     string
	StructureFile string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the resolved navigation structure for the main table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Postgres connection string")
	cmd.Flags().StringVar(&opts.MainTable, "main-table", types.DefaultMainTable, "Main dataset table name")
	cmd.Flags().StringVar(&opts.StructureFile, "structure-file", "", "Navigation structure override file")
	_ = viper.BindPFlag("dsn", cmd.Flags().Lookup("dsn"))
	_ = viper.BindPFlag("main_table", cmd.Flags().Lookup("main-table"))
	_ = viper.BindPFlag("structure_file", cmd.Flags().Lookup("structure-file"))
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts inspectOptions) error {
	service, closeDB, err := openService(ctx, cmd, opts.DSN)
	if err != nil {
		return err
	}
	defer closeDB()

	result, err := service.Inspect(ctx, app.InspectRequest{
		Config: types.ImportConfig{
			MainTable:       resolveString(cmd, opts.MainTable, "main_table", "main-table"),
			NavigationOrder: navigationOrder(),
		},
		StructureFile: resolveString(cmd, opts.StructureFile, "structure_file", "structure-file"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("main table: %s\n", result.MainTable)
	for _, entity := range result.Structure {
		fmt.Printf("  %-12s table=%-20s fk=%s\n", entity.Key, entity.Table, entity.ForeignKeyColumn)
	}
	return nil
}
