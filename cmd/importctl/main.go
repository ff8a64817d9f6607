// Package main provides the importctl entry point.
// importctl runs post imports against the database without the HTTP server
// and helps authors check a spreadsheet's headers before uploading it.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/JonMunkholm/postimport/internal/core"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Global flags.
var (
	outputFormat string
)

// newRootCommand builds the command tree.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "importctl",
		Short: "Bulk post import tool",
		Long: `importctl imports spreadsheet rows as scheduled social media posts.

Configuration is read from the environment (and a .env file if present),
using the same variables as the server: DATABASE_URL, IMPORT_TIMEZONE,
IMPORT_ALIASES_FILE, LOG_LEVEL and friends.

COMMON WORKFLOWS:
  Check a file:    importctl inspect posts.xlsx
  Import a file:   importctl import posts.xlsx --tenant <uuid> --actor <uuid>
  Header aliases:  importctl aliases
  Prepare the DB:  importctl schema | psql "$DATABASE_URL"`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")

	root.AddCommand(
		newImportCommand(),
		newInspectCommand(),
		newAliasesCommand(),
		newNormalizeCommand(),
		newSchemaCommand(),
	)
	return root
}

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		var ue *core.UserError
		if errors.As(err, &ue) {
			fmt.Fprintln(os.Stderr, "Error:", core.FormatUserError(ue.Technical))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// userError keeps the technical error reachable for errors.Is while
// giving known failures their support code.
func userError(op string, err error) error {
	if core.IsUserFacing(err) {
		return core.NewUserError(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
