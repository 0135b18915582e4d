package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"physics-datasets/internal/app"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file.json>",
		Short: "Parse an input file without touching the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
	return cmd
}

func runValidate(cmd *cobra.Command, path string) error {
	// Validate is a pure parse; no database port is needed.
	service := app.NewService(nil)
	result, err := service.Validate(cmd.Context(), app.ValidateRequest{Path: path})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if result.Skipped {
		fmt.Fprintln(out, "no registered format matches this file; import would skip it")
		return nil
	}
	fmt.Fprintf(out, "format %s: %d records\n", result.Format, result.Records)
	for _, name := range result.Names {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

func resolveInt(cmd *cobra.Command, value int, key string, flagName string) int {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetInt(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
