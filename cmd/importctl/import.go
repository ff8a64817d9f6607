package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/postimport/internal/config"
	"github.com/JonMunkholm/postimport/internal/core"
	"github.com/JonMunkholm/postimport/internal/logging"
	"github.com/JonMunkholm/postimport/internal/store"
)

// Import command flags.
var (
	importTenant  string
	importActor   string
	importMigrate bool
)

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a spreadsheet of posts",
		Long: `Import every data row of an XLSX or CSV file as a post for one tenant.

Rows are processed independently: a bad row is reported and the rest of the
file still imports. The command exits non-zero only when the file itself is
rejected (unreadable, empty, too large) or the database is unavailable.

Examples:
  importctl import posts.xlsx --tenant 2b0c... --actor 9d41...
  importctl import march.csv --tenant 2b0c... --actor 9d41... -o json`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().StringVar(&importTenant, "tenant", "", "Tenant ID that will own the posts (required)")
	cmd.Flags().StringVar(&importActor, "actor", "", "User ID recorded as the posts' creator (required)")
	cmd.Flags().BoolVar(&importMigrate, "migrate", false, "Apply the schema before importing")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	tenantID, err := uuid.Parse(importTenant)
	if err != nil {
		return fmt.Errorf("invalid --tenant: %w", err)
	}
	actorID, err := uuid.Parse(importActor)
	if err != nil {
		return fmt.Errorf("invalid --actor: %w", err)
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := config.LoadTool()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	posts := store.New(pool)
	if importMigrate {
		if err := posts.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	opts, err := core.OptionsFromConfig(&cfg.Import)
	if err != nil {
		return err
	}
	service, err := core.NewService(posts, opts)
	if err != nil {
		return err
	}

	logger.Debug("importing file", "file", path, "bytes", len(data))
	report, err := service.ImportFile(ctx, core.ImportRequest{
		TenantID: tenantID,
		ActorID:  actorID,
		Filename: filepath.Base(path),
		Data:     data,
	})
	if err != nil {
		return userError("import", err)
	}
	return writeReport(cmd.OutOrStdout(), report)
}

func writeReport(w io.Writer, report *core.ImportReport) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		return yaml.NewEncoder(w).Encode(report)
	}

	fmt.Fprintf(w, "Imported:  %d\n", report.SuccessCount)
	fmt.Fprintf(w, "Failed:    %d\n", report.FailedCount)
	fmt.Fprintf(w, "Warnings:  %d\n", report.WarningCount)
	if len(report.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s\n", e.Message)
		}
	}
	return nil
}
