package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/UserUpload/internal/config"
	"github.com/JonMunkholm/UserUpload/internal/core"
	"github.com/JonMunkholm/UserUpload/internal/database"
	"github.com/spf13/cobra"
)

var ingestFlags struct {
	noProgress bool
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Validate a CSV file and insert its rows",
	Long: `Archive, parse, validate and insert one CSV file with the header name,email,age.

The file is rejected as a whole if any cell contains a character outside
letters, digits, whitespace and , . @ _ -. Rows are inserted in one
transaction; on any database error nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestFlags.noProgress, "no-progress", false, "Do not show a progress bar")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	return withPool(cmd, func(ctx context.Context, cfg *config.Config, pool *database.Pool) error {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctx, cancel := context.WithTimeout(ctx, cfg.Upload.Timeout)
		defer cancel()
		ctx = core.ContextWithOrigin(ctx, core.Origin{Channel: "cli"})

		inserter := database.NewInserter(pool)
		out := cmd.OutOrStdout()

		var res core.IngestResult
		if !ingestFlags.noProgress && isInteractive() {
			res = runWithProgress(ctx, out, path, func(ctx context.Context, progress core.ProgressFunc) core.IngestResult {
				return newIngestor(cfg, inserter, core.WithProgress(progress)).Ingest(ctx, path)
			})
		} else {
			res = newIngestor(cfg, inserter).Ingest(ctx, path)
		}

		renderResult(out, res)
		if getVerboseFlag(cmd) {
			renderPoolStatus(cmd.ErrOrStderr(), pool.Status())
		}

		if !res.OK() {
			return &ExitError{Code: OutcomeExitCode(res.Outcome), Err: res.Err}
		}
		return nil
	})
}
