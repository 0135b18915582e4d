package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"physics-datasets/internal/app"
	"physics-datasets/internal/types"
)

type importOptions struct {
	DSN           string
	MainTable     string
	BatchSize     int
	Namespace     string
	StructureFile string
	Editor        string
}

func newImportCommand() *cobra.Command {
	opts := importOptions{}
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a dataset collection into the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Postgres connection string")
	cmd.Flags().StringVar(&opts.MainTable, "main-table", types.DefaultMainTable, "Main dataset table name")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", types.DefaultBatchSize, "Records per batch transaction")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", types.DefaultNamespace, "Identifier namespace version string")
	cmd.Flags().StringVar(&opts.StructureFile, "structure-file", "", "Navigation structure override file")
	cmd.Flags().StringVar(&opts.Editor, "editor", "", "Acting user for attributed writes")
	_ = viper.BindPFlag("dsn", cmd.Flags().Lookup("dsn"))
	_ = viper.BindPFlag("main_table", cmd.Flags().Lookup("main-table"))
	_ = viper.BindPFlag("batch_size", cmd.Flags().Lookup("batch-size"))
	_ = viper.BindPFlag("uuid_namespace", cmd.Flags().Lookup("namespace"))
	_ = viper.BindPFlag("structure_file", cmd.Flags().Lookup("structure-file"))
	_ = viper.BindPFlag("editor", cmd.Flags().Lookup("editor"))
	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, opts importOptions, path string) error {
	service, closeDB, err := openService(ctx, cmd, opts.DSN)
	if err != nil {
		return err
	}
	defer closeDB()

	result, err := service.Import(ctx, app.ImportRequest{
		Path:          path,
		Config:        buildImportConfig(cmd, opts),
		StructureFile: resolveString(cmd, opts.StructureFile, "structure_file", "structure-file"),
		Editor:        resolveString(cmd, opts.Editor, "editor", "editor"),
	})
	if err != nil {
		fmt.Printf("import failed after %d processed, %d failed: %s\n", result.Processed, result.Failed, errorMessage(err))
		return err
	}
	fmt.Printf("imported: %d processed, %d failed\n", result.Processed, result.Failed)
	return nil
}

func buildImportConfig(cmd *cobra.Command, opts importOptions) types.ImportConfig {
	return types.ImportConfig{
		MainTable:       resolveString(cmd, opts.MainTable, "main_table", "main-table"),
		BatchSize:       resolveInt(cmd, opts.BatchSize, "batch_size", "batch-size"),
		Namespace:       resolveString(cmd, opts.Namespace, "uuid_namespace", "namespace"),
		NavigationOrder: navigationOrder(),
	}
}

// navigationOrder is config/env only; there is no flag for it because the
// category order is a schema property, not a per-run choice.
func navigationOrder() []string {
	if order := viper.GetStringSlice("navigation_order"); len(order) > 0 {
		return order
	}
	return nil
}
