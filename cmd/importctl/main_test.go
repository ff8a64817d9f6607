package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/postimport/internal/core"
)

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("IMPORT_ALIASES_FILE", "")
	outputFormat = "text"

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAliasesCommand(t *testing.T) {
	out, err := run(t, "aliases")
	if err != nil {
		t.Fatalf("aliases: %v", err)
	}
	var got map[core.Field][]string
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if len(got[core.FieldClient]) != 2 || got[core.FieldClient][0] != "Cliente" {
		t.Errorf("client aliases = %v", got[core.FieldClient])
	}
}

func TestAliasesCommand_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	if err := os.WriteFile(path, []byte("client: [Customer]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "aliases", "--aliases", path)
	if err != nil {
		t.Fatalf("aliases: %v", err)
	}
	if !strings.Contains(out, "client: [Customer]") {
		t.Errorf("output = %s", out)
	}
}

func TestNormalizeCommand(t *testing.T) {
	out, err := run(t, "normalize", "Tipo de Mídia", "Orçamento")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "Tipo de Mídia\ttipodemidia\tmedia_type" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "Orçamento\torcamento\t-" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestInspectCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.csv")
	body := "Cliente;Data;Orçamento\nAcme;01/03/2025;10\nGlobex;;\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "inspect", path, "-o", "json")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var report InspectReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if report.Rows != 2 || len(report.Columns) != 3 {
		t.Fatalf("report = %+v", report)
	}
	if report.Columns[0].Field != core.FieldClient || report.Columns[2].Field != "" {
		t.Errorf("columns = %+v", report.Columns)
	}
	for _, f := range report.Missing {
		if f == core.FieldClient || f == core.FieldDate {
			t.Errorf("%s reported missing", f)
		}
	}
}

func TestInspectCommand_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("Cliente,Data\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "inspect", path); err == nil {
		t.Error("expected error for header-only file")
	}
}

func TestInspectRows_TextWarnsMissingClient(t *testing.T) {
	rows := []core.ParsedRow{{Number: 2, Cells: []core.Cell{{Header: "Data"}}}}
	report := inspectRows("x.csv", rows, core.DefaultAliases())

	outputFormat = "text"
	var buf bytes.Buffer
	if err := writeInspect(&buf, report); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "missing: client (every row will fail)") {
		t.Errorf("output = %s", buf.String())
	}
}

func TestSchemaCommand(t *testing.T) {
	out, err := run(t, "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(out, "CREATE TABLE IF NOT EXISTS posts") {
		t.Errorf("schema output missing posts table:\n%s", out)
	}
}

func TestImportCommand_RequiresFlags(t *testing.T) {
	if _, err := run(t, "import", "posts.csv"); err == nil {
		t.Error("expected error without --tenant and --actor")
	}
}

func TestImportCommand_InvalidTenant(t *testing.T) {
	_, err := run(t, "import", "posts.csv", "--tenant", "nope", "--actor", "nope")
	if err == nil || !strings.Contains(err.Error(), "--tenant") {
		t.Errorf("err = %v", err)
	}
}

func TestWriteReport_Text(t *testing.T) {
	report := &core.ImportReport{
		SuccessCount: 2,
		FailedCount:  1,
		WarningCount: 1,
		Errors:       []core.RowError{{Row: 3, Message: `Row 3: client "Nope" not found. Known clients: Acme`}},
	}
	outputFormat = "text"
	var buf bytes.Buffer
	if err := writeReport(&buf, report); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Imported:  2", "Failed:    1", "Warnings:  1", "Row 3: client"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectCommand_UserFacingError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("Cliente,Data\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "inspect", path)
	var ue *core.UserError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v (%T), want *core.UserError", err, err)
	}
	if !errors.Is(err, core.ErrEmptySpreadsheet) {
		t.Errorf("err = %v, want it to wrap ErrEmptySpreadsheet", err)
	}
	if ue.User.Code != "FILE005" {
		t.Errorf("code = %q, want FILE005", ue.User.Code)
	}
}

func TestUserError(t *testing.T) {
	var ue *core.UserError
	if err := userError("import", core.ErrFileTooLarge); !errors.As(err, &ue) {
		t.Errorf("known error not mapped: %v", err)
	}

	plain := errors.New("disk on fire")
	err := userError("import", plain)
	if errors.As(err, &ue) {
		t.Errorf("unknown error mapped to UserError: %v", err)
	}
	if !errors.Is(err, plain) || err.Error() != "import: disk on fire" {
		t.Errorf("err = %v", err)
	}
}
