package core

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Store is the tenant data store the importer reads lookups from and writes posts to.
// Implementations must filter every read by tenant id.
type Store interface {
	LoadLookups(ctx context.Context, tenantID uuid.UUID) (LookupData, error)
	InsertPost(ctx context.Context, rec CandidateRecord) (uuid.UUID, error)
}

// AuditStore is implemented by stores that keep a log of completed batches.
// The service checks for it after every batch; a write failure is logged and
// does not change the report.
type AuditStore interface {
	RecordImport(ctx context.Context, entry ImportAudit) error
}

// ImportAudit is one audit log entry for a completed batch.
type ImportAudit struct {
	ImportID  string
	TenantID  uuid.UUID
	ActorID   uuid.UUID
	Filename  string
	Success   int
	Failed    int
	Warnings  int
	Duration  time.Duration
	IPAddress string
	UserAgent string
}

// Client is a tenant's customer account.
type Client struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
}

// Company belongs to exactly one client.
type Company struct {
	ID       uuid.UUID `db:"id"`
	ClientID uuid.UUID `db:"client_id"`
	Name     string    `db:"name"`
}

// Channel is a publishing destination (e.g. a social network profile).
type Channel struct {
	ID   uuid.UUID `db:"id"`
	Name string    `db:"name"`
	Key  string    `db:"key"` // machine key: "instagram", "linkedin"
}

// LookupData is the raw tenant-filtered result of Store.LoadLookups.
type LookupData struct {
	Clients   []Client
	Companies []Company
	Channels  []Channel
}

// MediaType is the canonical media type of a post.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaCarousel MediaType = "carousel"
	MediaText     MediaType = "text"
)

// Responsibility says who produces the post.
type Responsibility string

const (
	ResponsibilityAgency Responsibility = "agency"
	ResponsibilityClient Responsibility = "client"
)

// ImportRequest is one import call. It is never persisted.
type ImportRequest struct {
	TenantID uuid.UUID
	ActorID  uuid.UUID
	Filename string
	Data     []byte
}

// CellValue is an untyped spreadsheet scalar: text, number, or empty.
type CellValue struct {
	Text    string
	Number  float64
	Numeric bool
}

// NewCellValue builds a CellValue from raw cell text, detecting numbers.
func NewCellValue(raw string) CellValue {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CellValue{}
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return CellValue{Text: raw, Number: n, Numeric: true}
	}
	return CellValue{Text: raw}
}

// IsBlank reports whether the cell holds no usable value.
func (v CellValue) IsBlank() bool {
	return !v.Numeric && strings.TrimSpace(v.Text) == ""
}

// String returns the cell as text.
func (v CellValue) String() string {
	if v.Text == "" && v.Numeric {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return strings.TrimSpace(v.Text)
}

// Cell is one header/value pair of a ParsedRow.
type Cell struct {
	Header string
	Value  CellValue
}

// ParsedRow is one data row with its cells in original column order.
type ParsedRow struct {
	Number int // 1-based spreadsheet row (header is row 1)
	Cells  []Cell
}

// CandidateRecord is a fully resolved post ready to insert.
type CandidateRecord struct {
	TenantID       uuid.UUID
	ClientID       uuid.UUID
	CompanyID      pgtype.UUID
	ChannelID      pgtype.UUID
	Title          pgtype.Text
	Content        pgtype.Text
	PublishAt      pgtype.Timestamptz
	MediaType      pgtype.Text
	Responsibility Responsibility
	Theme          pgtype.Text
	Insights       pgtype.Text
	CreatedBy      uuid.UUID
}

// RowWarning is a degraded condition on a row that still produced a post.
type RowWarning struct {
	Field   Field
	Value   string
	Message string
}

// RowOutcome is the tagged result of processing one row.
// A zero Message means success.
type RowOutcome struct {
	Row      int
	Message  string
	PostID   uuid.UUID
	Warnings []RowWarning
}

// Failed reports whether the row was rejected.
func (o RowOutcome) Failed() bool {
	return o.Message != ""
}

// RowError is one itemized row failure in an ImportReport.
type RowError struct {
	Row     int    `json:"row" yaml:"row"`
	Message string `json:"message" yaml:"message"`
}

// ImportReport aggregates the outcomes of one batch.
type ImportReport struct {
	SuccessCount int        `json:"success" yaml:"success"`
	FailedCount  int        `json:"failed" yaml:"failed"`
	WarningCount int        `json:"warnings" yaml:"warnings"`
	Errors       []RowError `json:"errors" yaml:"errors"`

	ImportID string        `json:"-" yaml:"-"`
	Filename string        `json:"-" yaml:"-"`
	Duration time.Duration `json:"-" yaml:"-"`
}

// TotalRows returns the number of rows that produced an outcome.
func (r *ImportReport) TotalRows() int {
	return r.SuccessCount + r.FailedCount
}

// add folds one row outcome into the report.
func (r *ImportReport) add(o RowOutcome) {
	if o.Failed() {
		r.FailedCount++
		r.Errors = append(r.Errors, RowError{Row: o.Row, Message: o.Message})
		return
	}
	r.SuccessCount++
	r.WarningCount += len(o.Warnings)
}
