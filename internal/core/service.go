package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/postimport/internal/config"
	"github.com/JonMunkholm/postimport/internal/logging"
	"github.com/JonMunkholm/postimport/internal/metrics"
	"github.com/google/uuid"
)

// DefaultMaxFileSize is the decoded size limit when Options leaves it unset.
const DefaultMaxFileSize int64 = 10 << 20

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	Aliases           AliasConfig
	Location          *time.Location
	DayFirst          bool
	MaxFileSize       int64
	MaxConcurrent     int
	MaxWait           time.Duration
	KnownClientsLimit int
}

// OptionsFromConfig builds Options from the IMPORT_* settings,
// loading the alias override file when one is configured.
func OptionsFromConfig(cfg *config.ImportConfig) (Options, error) {
	aliases, err := LoadAliases(cfg.AliasesFile)
	if err != nil {
		return Options{}, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, fmt.Errorf("import timezone: %w", err)
	}
	return Options{
		Aliases:           aliases,
		Location:          loc,
		DayFirst:          cfg.DayFirstDates,
		MaxFileSize:       cfg.MaxFileSize,
		MaxConcurrent:     cfg.MaxConcurrent,
		MaxWait:           cfg.MaxWaitTime,
		KnownClientsLimit: cfg.KnownClientsLimit,
	}, nil
}

// Service provides the import pipeline: decode, parse, resolve, insert, report.
type Service struct {
	store             Store
	aliases           AliasConfig
	dates             DateParser
	limiter           *ImportLimiter
	maxFileSize       int64
	knownClientsLimit int
}

// NewService creates a new Service writing to store.
func NewService(store Store, opts Options) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("new service: nil store")
	}

	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultAliases()
	}
	if err := aliases.Validate(); err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	known := opts.KnownClientsLimit
	if known <= 0 {
		known = KnownClientsLimit
	}

	return &Service{
		store:             store,
		aliases:           aliases,
		dates:             DateParser{Location: loc, DayFirst: opts.DayFirst},
		limiter:           NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		maxFileSize:       maxSize,
		knownClientsLimit: known,
	}, nil
}

// Aliases returns the header aliases in use.
func (s *Service) Aliases() AliasConfig {
	return s.aliases
}

// LimiterStatus reports how many batches are running.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// ActiveImports returns the number of batches currently running.
func (s *Service) ActiveImports() int {
	return s.limiter.ActiveCount()
}

// WaitForImports blocks until running batches finish or ctx is done.
// Used during graceful shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ImportBatch imports a base64-encoded spreadsheet for one tenant.
//
// It returns an error only when the whole batch cannot be processed:
// bad encoding, an empty or unreadable file, or unreachable lookups.
// Row problems are reported in the ImportReport.
func (s *Service) ImportBatch(ctx context.Context, encoded, filename string, tenantID, actorID uuid.UUID) (*ImportReport, error) {
	if tenantID == uuid.Nil || actorID == uuid.Nil {
		err := fmt.Errorf("%w: tenant and actor are required", ErrInvalidRequest)
		metrics.ObserveRejected(MapError(err).Code)
		return nil, err
	}

	data, err := DecodePayload(encoded)
	if err != nil {
		metrics.ObserveRejected(MapError(err).Code)
		return nil, err
	}

	return s.ImportFile(ctx, ImportRequest{
		TenantID: tenantID,
		ActorID:  actorID,
		Filename: filename,
		Data:     data,
	})
}

// ImportFile imports already-decoded spreadsheet bytes.
func (s *Service) ImportFile(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	report, err := s.importFile(ctx, req)
	if err != nil {
		metrics.ObserveRejected(MapError(err).Code)
		return nil, err
	}
	metrics.ObserveBatch(report.SuccessCount, report.FailedCount, report.WarningCount, report.Duration)
	return report, nil
}

func (s *Service) importFile(ctx context.Context, req ImportRequest) (*ImportReport, error) {
	start := time.Now()
	importID := uuid.NewString()
	logger := logging.ForImport(ctx, importID, req.TenantID, req.Filename)

	if req.TenantID == uuid.Nil || req.ActorID == uuid.Nil {
		return nil, fmt.Errorf("%w: tenant and actor are required", ErrInvalidRequest)
	}
	if int64(len(req.Data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, len(req.Data), s.maxFileSize)
	}

	release, err := s.limiter.Acquire(ctx, req.TenantID)
	if err != nil {
		logger.Warn("import rejected: no free slot", "error", err)
		return nil, err
	}
	defer release()

	rows, err := parseSpreadsheet(req.Filename, req.Data)
	if err != nil {
		logger.Warn("import rejected: spreadsheet", "error", err)
		return nil, err
	}

	data, err := s.store.LoadLookups(ctx, req.TenantID)
	if err != nil {
		logger.Error("import rejected: lookups", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLookupUnavailable, err)
	}
	lookups := NewLookups(data)

	logger.Info("import started",
		"rows", len(rows),
		"clients", lookups.ClientCount(),
		"bytes", len(req.Data),
		"actor_id", req.ActorID.String(),
		"ip", GetIPAddressFromContext(ctx),
		"user_agent", GetUserAgentFromContext(ctx),
	)

	// Rows already inserted stay inserted if the caller goes away.
	batchCtx := context.WithoutCancel(ctx)
	rc := rowContext{tenantID: req.TenantID, actorID: req.ActorID, lookups: lookups}

	report := &ImportReport{
		Errors:   []RowError{},
		ImportID: importID,
		Filename: req.Filename,
	}
	for _, row := range rows {
		outcome := s.processRow(batchCtx, rc, row)
		if outcome.Failed() {
			logger.Warn("row failed", "row", outcome.Row, "message", outcome.Message)
		} else {
			for _, w := range outcome.Warnings {
				logger.Info("row warning",
					"row", outcome.Row,
					"field", string(w.Field),
					"value", w.Value,
					"message", w.Message,
				)
			}
		}
		report.add(outcome)
	}
	report.Duration = time.Since(start)

	logger.Info("import completed",
		"success", report.SuccessCount,
		"failed", report.FailedCount,
		"warnings", report.WarningCount,
		"duration", report.Duration,
	)

	if audit, ok := s.store.(AuditStore); ok {
		entry := ImportAudit{
			ImportID:  importID,
			TenantID:  req.TenantID,
			ActorID:   req.ActorID,
			Filename:  req.Filename,
			Success:   report.SuccessCount,
			Failed:    report.FailedCount,
			Warnings:  report.WarningCount,
			Duration:  report.Duration,
			IPAddress: GetIPAddressFromContext(ctx),
			UserAgent: GetUserAgentFromContext(ctx),
		}
		if err := audit.RecordImport(batchCtx, entry); err != nil {
			logger.Warn("audit entry not recorded", "error", err)
		}
	}
	return report, nil
}
