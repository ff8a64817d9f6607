package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/postimport/internal/core"
)

// Flags shared by commands that read the alias table.
var (
	aliasesFile string
)

// ColumnReport describes how one spreadsheet header will be read.
type ColumnReport struct {
	Header string     `json:"header" yaml:"header"`
	Field  core.Field `json:"field,omitempty" yaml:"field,omitempty"`
}

// InspectReport summarizes a spreadsheet without touching the database.
type InspectReport struct {
	File    string         `json:"file" yaml:"file"`
	Rows    int            `json:"rows" yaml:"rows"`
	Columns []ColumnReport `json:"columns" yaml:"columns"`
	Missing []core.Field   `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show how a spreadsheet's columns will be read",
		Long: `Parse a spreadsheet and report which post field each header maps to.

Nothing is written. Headers that match no alias are ignored on import.
A file without a client column will fail on every row.

Examples:
  importctl inspect posts.xlsx
  importctl inspect posts.csv --aliases ./aliases.yaml -o json`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}
	addAliasesFlag(cmd)
	return cmd
}

func addAliasesFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&aliasesFile, "aliases", os.Getenv("IMPORT_ALIASES_FILE"), "YAML alias file merged over the defaults")
}

func runInspect(cmd *cobra.Command, args []string) error {
	aliases, err := core.LoadAliases(aliasesFile)
	if err != nil {
		return err
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	rows, err := core.ParseFile(filepath.Base(path), data)
	if err != nil {
		return userError("inspect", err)
	}

	report := inspectRows(filepath.Base(path), rows, aliases)
	return writeInspect(cmd.OutOrStdout(), report)
}

// inspectRows collects headers in first-seen order and maps them to fields.
func inspectRows(file string, rows []core.ParsedRow, aliases core.AliasConfig) InspectReport {
	report := InspectReport{File: file, Rows: len(rows)}

	seen := make(map[string]bool)
	found := make(map[core.Field]bool)
	for _, row := range rows {
		for _, c := range row.Cells {
			if seen[c.Header] {
				continue
			}
			seen[c.Header] = true
			col := ColumnReport{Header: c.Header}
			if f, ok := aliases.FieldFor(c.Header); ok {
				col.Field = f
				found[f] = true
			}
			report.Columns = append(report.Columns, col)
		}
	}
	for _, f := range core.AllFields {
		if !found[f] {
			report.Missing = append(report.Missing, f)
		}
	}
	return report
}

func writeInspect(w io.Writer, report InspectReport) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		return yaml.NewEncoder(w).Encode(report)
	}

	fmt.Fprintf(w, "%s: %d data rows\n\n", report.File, report.Rows)
	fmt.Fprintf(w, "%-30s %s\n", "HEADER", "FIELD")
	for _, c := range report.Columns {
		field := string(c.Field)
		if field == "" {
			field = "(ignored)"
		}
		fmt.Fprintf(w, "%-30s %s\n", c.Header, field)
	}
	if len(report.Missing) > 0 {
		fmt.Fprintln(w)
		for _, f := range report.Missing {
			if f == core.FieldClient {
				fmt.Fprintf(w, "missing: %s (every row will fail)\n", f)
				continue
			}
			fmt.Fprintf(w, "missing: %s\n", f)
		}
	}
	return nil
}
