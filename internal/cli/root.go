// Package cli implements the uploader command line.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "uploader",
	Short: "Validate CSV user files and load them into Postgres",
	Long: `uploader ingests CSV files of users (name,email,age) into a Postgres table.

Every cell must match a strict allow-list before anything is written, and each
file is inserted in a single transaction: either every row lands or none do.
A timestamped copy of each file is kept in the archive directory.

Configuration comes from defaults, an optional YAML file (--config), a .env
file (--env-file) and the environment, later sources winning.

Exit Codes:
  0  - Success
  1  - General error
  2  - File rejected (missing, not CSV, too large, malformed)
  3  - Validation failed (disallowed characters or invalid values)
  4  - Store failed (database error, pool exhausted)
  10 - Invalid configuration
  11 - Database connection failed
  64 - CLI usage error
  70 - Panic`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and prints any error not already reported.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		var exitErr *ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file (ignored if missing)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
