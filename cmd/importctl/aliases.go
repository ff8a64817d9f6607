package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/postimport/internal/core"
	"github.com/JonMunkholm/postimport/internal/store"
)

func newAliasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "Print the header alias table",
		Long: `Print the accepted header spellings for every post field as YAML.

The output is a valid alias file: save it, edit it, and point
IMPORT_ALIASES_FILE at it to customize the table.

Examples:
  importctl aliases > aliases.yaml
  importctl aliases --aliases ./aliases.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			aliases, err := core.LoadAliases(aliasesFile)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(aliases)
		},
	}
	addAliasesFlag(cmd)
	return cmd
}

func newNormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <header>...",
		Short: "Show the normalized form of header text",
		Long: `Print the normalized key of each argument, as used for header matching.

Two headers match when their normalized keys are equal.

Examples:
  importctl normalize "Tipo de Mídia" "MEDIA_TYPE"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aliases, err := core.LoadAliases(aliasesFile)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, arg := range args {
				field := "-"
				if f, ok := aliases.FieldFor(arg); ok {
					field = string(f)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", arg, core.NormalizeHeader(arg), field)
			}
			return nil
		},
	}
	addAliasesFlag(cmd)
	return cmd
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the database schema",
		Long: `Print the SQL that creates the tables used by imports.

The statements are idempotent.

Examples:
  importctl schema | psql "$DATABASE_URL"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(store.Schema()))
			return err
		},
	}
}
