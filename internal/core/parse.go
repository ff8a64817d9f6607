package core

// parse.go decodes the uploaded payload and turns it into ParsedRows.
//
// Only one layout is accepted: a header row followed by data rows. XLSX
// workbooks are read from their first sheet with raw cell values, so date
// cells arrive as serial numbers; CSV files are sanitized to UTF-8 first.

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// sheetFormat identifies the container format of an upload.
type sheetFormat int

const (
	formatUnknown sheetFormat = iota
	formatXLSX
	formatCSV
)

// zipMagic starts every XLSX file (they are zip archives).
var zipMagic = []byte("PK\x03\x04")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodePayload decodes a base64 file body. A "data:...;base64," prefix,
// as produced by browser file readers, is tolerated.
func DecodePayload(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.Index(encoded, ","); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	if encoded == "" {
		return nil, fmt.Errorf("%w: no content", ErrInvalidEncoding)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Some clients strip padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
	}
	return data, nil
}

// detectFormat picks the parser from the filename, falling back to content.
func detectFormat(filename string, data []byte) sheetFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return formatXLSX
	case ".csv", ".txt":
		return formatCSV
	case ".xls":
		return formatUnknown
	}
	if bytes.HasPrefix(data, zipMagic) {
		return formatXLSX
	}
	if utf8.Valid(data) || bytes.HasPrefix(data, utf8BOM) {
		return formatCSV
	}
	return formatUnknown
}

// ParseFile reads a raw spreadsheet without importing it.
func ParseFile(filename string, data []byte) ([]ParsedRow, error) {
	return parseSpreadsheet(filename, data)
}

// parseSpreadsheet reads the header row and data rows of a file.
// A file with no data rows returns ErrEmptySpreadsheet.
func parseSpreadsheet(filename string, data []byte) ([]ParsedRow, error) {
	if len(data) == 0 {
		return nil, ErrEmptySpreadsheet
	}

	var records [][]string
	var err error
	switch detectFormat(filename, data) {
	case formatXLSX:
		records, err = readXLSX(data)
	case formatCSV:
		records, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableSpreadsheet, err)
	}

	return buildRows(records)
}

// buildRows pairs every data row with the header row. Blank rows are
// skipped but still count toward row numbers, so reported numbers match
// what the author sees in the spreadsheet.
func buildRows(records [][]string) ([]ParsedRow, error) {
	headerIdx := -1
	for i, rec := range records {
		if !isEmptyRow(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptySpreadsheet
	}

	header := records[headerIdx]
	rows := make([]ParsedRow, 0, len(records)-headerIdx-1)
	for i, rec := range records[headerIdx+1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := ParsedRow{
			Number: headerIdx + i + 2,
			Cells:  make([]Cell, 0, len(header)),
		}
		for col, h := range header {
			if strings.TrimSpace(h) == "" {
				continue
			}
			var raw string
			if col < len(rec) {
				raw = rec[col]
			}
			row.Cells = append(row.Cells, Cell{Header: h, Value: NewCellValue(raw)})
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptySpreadsheet
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(sanitizeUTF8(data), utf8BOM)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = sniffDelimiter(data)

	// encoding/csv drops blank lines; put them back as empty records so
	// row numbers line up with what a spreadsheet app shows.
	var records [][]string
	nextLine := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		start, _ := r.FieldPos(0)
		for ; nextLine < start; nextLine++ {
			records = append(records, nil)
		}
		last := len(rec) - 1
		end, _ := r.FieldPos(last)
		nextLine = end + strings.Count(rec[last], "\n") + 1
		records = append(records, rec)
	}
}

// sniffDelimiter picks ';' for locales whose spreadsheet apps export
// semicolon-separated files, based on the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
