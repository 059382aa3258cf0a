package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/UserUpload/internal/config"
	"github.com/JonMunkholm/UserUpload/internal/database"
	"github.com/JonMunkholm/UserUpload/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Serve the stored users page and the upload API.

  GET  /            HTML table of stored users
  GET  /api/users   stored users as JSON
  GET  /api/pool    connection pool status
  POST /api/ingest  multipart upload, field "file"`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	return withPool(cmd, func(ctx context.Context, cfg *config.Config, pool *database.Pool) error {
		inserter := database.NewInserter(pool)
		if err := inserter.EnsureTable(ctx); err != nil {
			return err
		}

		server := web.NewServer(cfg, newIngestor(cfg, inserter), database.NewUsers(pool), pool)

		// Graceful shutdown
		sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-sigCtx.Done():
		}

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for in-flight inserts to commit or roll back
		if status := pool.Status(); status.Active > 0 {
			slog.Info("waiting for database work to finish", "active", status.Active)
			if err := pool.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("database work did not finish in time", "error", err)
			}
		}

		return <-errCh
	})
}
