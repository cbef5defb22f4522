package commands

import (
	"fmt"
	"log/slog"

	"soldera/internal/services"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <path/to/results.json>",
	Short: "Loads a {\"results\": [...]} document into the database in one transaction.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		importer, err := services.NewImportService(env.results, env.logs)
		if err != nil {
			return err
		}

		summary, err := importer.ImportFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		slog.Info("import finished", "path", args[0], "created", summary.Created, "skipped", summary.Skipped)
		fmt.Fprintf(cmd.OutOrStdout(), "created=%d skipped=%d\n", summary.Created, summary.Skipped)
		return nil
	},
}
