package core

// convert.go turns spreadsheet cells into typed post fields.
//
// These functions handle the messy reality of hand-maintained spreadsheets:
//   - Dates stored as spreadsheet serials (days since 1899-12-30)
//   - Dates typed as text in US, day-first or ISO order
//   - Excel formula prefixes (="value") and stray quotes
//
// The ToPg* helpers return pgtype values with Valid=false for empty input,
// letting the store write NULLs.

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// serialEpoch is day zero of spreadsheet date serials.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxSerial is 9999-12-31, the last date spreadsheets can represent.
const maxSerial = 2958465

const msPerDay = 86_400_000

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would land more than this many years in the future
// are moved to the previous century.
var TwoDigitYearPivot = 20

var (
	zonedLayouts = []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		time.RFC1123Z,
		time.RFC1123,
	}
	isoLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
		"2006.01.02",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 Jan 2006",
		"2 January 2006",
		"20060102",
	}
	monthFirstLayouts = []string{
		"1/2/2006 15:04:05", "1/2/2006 15:04",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
	}
	dayFirstLayouts = []string{
		"2/1/2006 15:04:05", "2/1/2006 15:04",
		"2/1/2006", "02/01/2006", "2-1-2006", "02-01-2006", "2.1.2006", "02.01.2006",
	}
	monthFirstShortLayouts = []string{"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06"}
	dayFirstShortLayouts   = []string{"2/1/06", "02/01/06", "2-1-06", "2.1.06", "02.01.06"}
)

// DateParser converts cell values into timestamps.
type DateParser struct {
	// Location is applied to text dates that carry no zone.
	Location *time.Location
	// DayFirst reads "03/01/2025" as 3 January instead of 1 March.
	DayFirst bool
}

// defaultDateParser reads zone-less dates as UTC, month first.
var defaultDateParser = DateParser{Location: time.UTC}

// CoerceDate converts a spreadsheet date into a timestamp using the default parser.
// It returns false, never an error, when raw is blank or unparsable.
func CoerceDate(raw CellValue) (time.Time, bool) {
	return defaultDateParser.Coerce(raw)
}

// Coerce converts a serial number or a date string into a timestamp.
func (p DateParser) Coerce(raw CellValue) (time.Time, bool) {
	if raw.IsBlank() {
		return time.Time{}, false
	}
	if raw.Numeric {
		if t, ok := FromSerial(raw.Number); ok {
			return t, true
		}
	}
	return p.ParseText(raw.String())
}

// FromSerial converts a spreadsheet serial date: epoch + serial * 86,400,000 ms.
// Fractions carry the time of day.
func FromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial <= 0 || serial > maxSerial {
		return time.Time{}, false
	}
	ms := int64(math.Round(serial * msPerDay))
	return time.UnixMilli(serialEpoch.UnixMilli() + ms).UTC(), true
}

// ParseText parses a typed date in any of the supported layouts.
func (p DateParser) ParseText(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	long, short := monthFirstLayouts, monthFirstShortLayouts
	if p.DayFirst {
		long, short = dayFirstLayouts, dayFirstShortLayouts
	}

	for _, layouts := range [][]string{isoLayouts, long} {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, loc); err == nil {
				return t, true
			}
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range short {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgTimestamptz converts a coerced date to pgtype.Timestamptz.
func ToPgTimestamptz(t time.Time, ok bool) pgtype.Timestamptz {
	if !ok {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// ToPgUUID converts an optional id to pgtype.UUID.
// Returns invalid for uuid.Nil.
func ToPgUUID(id uuid.UUID) pgtype.UUID {
	if id == uuid.Nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: id, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if len(s) >= 3 && strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
