package core

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestDecodePayload(t *testing.T) {
	want := "Cliente\nAcme\n"
	std := base64.StdEncoding.EncodeToString([]byte(want))
	raw := base64.RawStdEncoding.EncodeToString([]byte(want))

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"standard", std, false},
		{"unpadded", raw, false},
		{"data url", "data:application/vnd.openxmlformats-officedocument.spreadsheetml.sheet;base64," + std, false},
		{"surrounding whitespace", "  " + std + "\n", false},
		{"empty", "", true},
		{"data url without body", "data:text/csv;base64,", true},
		{"not base64", "%%%", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePayload(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEncoding) {
					t.Errorf("err = %v, want ErrInvalidEncoding", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePayload: %v", err)
			}
			if string(got) != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestParseSpreadsheet_CSV(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantRows  int
		wantFirst int
		wantCell  string
	}{
		{
			name:      "comma separated",
			data:      "Cliente,Data\nAcme,45717\n",
			wantRows:  1,
			wantFirst: 2,
			wantCell:  "Acme",
		},
		{
			name:      "semicolon separated",
			data:      "Cliente;Data;Assunto\nAcme;01/03/2025;Olá, mundo\n",
			wantRows:  1,
			wantFirst: 2,
			wantCell:  "Acme",
		},
		{
			name:      "byte order mark",
			data:      "\xEF\xBB\xBFCliente\nAcme\n",
			wantRows:  1,
			wantFirst: 2,
			wantCell:  "Acme",
		},
		{
			name:      "blank rows still count",
			data:      "Cliente\n,\nAcme\n\nGlobex\n",
			wantRows:  2,
			wantFirst: 3,
			wantCell:  "Acme",
		},
		{
			name:      "leading blank lines before header",
			data:      ",\nCliente\nAcme\n",
			wantRows:  1,
			wantFirst: 3,
			wantCell:  "Acme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := parseSpreadsheet("posts.csv", []byte(tt.data))
			if err != nil {
				t.Fatalf("parseSpreadsheet: %v", err)
			}
			if len(rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d", len(rows), tt.wantRows)
			}
			if rows[0].Number != tt.wantFirst {
				t.Errorf("first row number = %d, want %d", rows[0].Number, tt.wantFirst)
			}
			if got := rows[0].lookupText([]string{"Cliente"}); got != tt.wantCell {
				t.Errorf("Cliente = %q, want %q", got, tt.wantCell)
			}
		})
	}
}

func TestParseSpreadsheet_ShortRowsAndBlankHeaders(t *testing.T) {
	rows, err := parseSpreadsheet("p.csv", []byte("Cliente,,Data\nAcme\n"))
	if err != nil {
		t.Fatalf("parseSpreadsheet: %v", err)
	}
	if len(rows[0].Cells) != 2 {
		t.Errorf("cells = %+v, want 2 (blank header skipped)", rows[0].Cells)
	}
	if _, ok := rows[0].Lookup([]string{"Data"}); ok {
		t.Error("missing trailing cell should be absent")
	}
}

func TestParseSpreadsheet_InvalidUTF8(t *testing.T) {
	rows, err := parseSpreadsheet("p.csv", []byte("Cliente\nAc\xffme\n"))
	if err != nil {
		t.Fatalf("parseSpreadsheet: %v", err)
	}
	if got := rows[0].lookupText([]string{"Cliente"}); got != "Ac\uFFFDme" {
		t.Errorf("Cliente = %q", got)
	}
}

func TestParseSpreadsheet_XLSXSniffedWithoutExtension(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetCellValue(sheet, "A1", "Client")
	_ = f.SetCellValue(sheet, "A2", "Acme")
	_ = f.SetCellValue(sheet, "B1", "Date")
	_ = f.SetCellValue(sheet, "B2", 45717)
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	rows, err := parseSpreadsheet("upload", buf.Bytes())
	if err != nil {
		t.Fatalf("parseSpreadsheet: %v", err)
	}
	v, ok := rows[0].Lookup([]string{"Date"})
	if !ok || !v.Numeric || v.Number != 45717 {
		t.Errorf("Date = %+v, want serial 45717", v)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		data     []byte
		want     sheetFormat
	}{
		{"a.xlsx", nil, formatXLSX},
		{"A.XLSM", nil, formatXLSX},
		{"a.csv", nil, formatCSV},
		{"a.txt", nil, formatCSV},
		{"a.xls", []byte("Cliente\n"), formatUnknown},
		{"blob", []byte("PK\x03\x04rest"), formatXLSX},
		{"blob", []byte("Cliente,Data\n"), formatCSV},
		{"blob", []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1}, formatUnknown},
	}
	for _, tt := range tests {
		if got := detectFormat(tt.filename, tt.data); got != tt.want {
			t.Errorf("detectFormat(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestParseSpreadsheet_CSVRowNumbersFollowLines(t *testing.T) {
	data := "Cliente,Conteúdo\nAcme,\"two\nlines\"\n\nGlobex,x\n"
	rows, err := parseSpreadsheet("p.csv", []byte(data))
	if err != nil {
		t.Fatalf("parseSpreadsheet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	// A quoted newline stays inside one row; the blank line is row 3.
	if rows[0].Number != 2 || rows[1].Number != 4 {
		t.Errorf("row numbers = %d, %d; want 2, 4", rows[0].Number, rows[1].Number)
	}
}
