package commands

import (
	"fmt"
	"time"

	"soldera/internal/services"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(discoverCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Runs one discovery and ingestion of the latest results in the foreground.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		discovery, err := services.NewDiscoveryService(env.cfg.Discovery, nil)
		if err != nil {
			return err
		}
		xlsx, err := services.NewXlsxService(env.cfg.Discovery.TempDir)
		if err != nil {
			return err
		}
		ingestion, err := services.NewIngestionService(discovery, xlsx, env.results, env.logs)
		if err != nil {
			return err
		}

		t1 := time.Now()
		outcome, err := ingestion.Run(cmd.Context(), nil)
		if err != nil {
			return fmt.Errorf("%s: %w", services.ErrorKind(err), err)
		}

		if outcome.Created() {
			fmt.Fprintf(cmd.OutOrStdout(), "created batch=%d md5=%s in %s\n", outcome.BatchID, outcome.ContentHash, time.Since(t1).Round(time.Millisecond))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "skipped md5=%s\n", outcome.ContentHash)
		return nil
	},
}
