package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/UserUpload/internal/config"
	"github.com/JonMunkholm/UserUpload/internal/database"
	"github.com/spf13/cobra"
)

// resetTimeout is the maximum duration for the reset operation.
const resetTimeout = 30 * time.Second

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the users table if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd, func(ctx context.Context, cfg *config.Config, pool *database.Pool) error {
			if err := database.NewInserter(pool).EnsureTable(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ users table ready"))
			return nil
		})
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPool(cmd, func(ctx context.Context, cfg *config.Config, pool *database.Pool) error {
			n, err := database.NewUsers(pool).Count(ctx)
			if err != nil {
				return err
			}
			// Bare number on stdout for scripts
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		})
	},
}

var resetFlags struct {
	yes bool
}

var errResetNotConfirmed = errors.New("refusing to delete all users without --yes")

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored user",
	Long:  "Truncate the users table and restart id numbering. This cannot be undone.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetFlags.yes {
			return errResetNotConfirmed
		}
		return withPool(cmd, func(ctx context.Context, cfg *config.Config, pool *database.Pool) error {
			ctx, cancel := context.WithTimeout(ctx, resetTimeout)
			defer cancel()

			if err := database.NewUsers(pool).Reset(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ users table emptied"))
			return nil
		})
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetFlags.yes, "yes", false, "Confirm deleting all users")

	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(resetCmd)
}
