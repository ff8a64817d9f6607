// Package store implements core.Store on PostgreSQL.
package store

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/JonMunkholm/postimport/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const (
	listClientsSQL = `SELECT id, name FROM clients WHERE tenant_id = $1 ORDER BY name`

	listCompaniesSQL = `SELECT id, client_id, name FROM companies WHERE tenant_id = $1 ORDER BY name`

	listChannelsSQL = `SELECT id, name, key FROM channels WHERE tenant_id = $1 ORDER BY name`

	insertPostSQL = `
INSERT INTO posts (
    tenant_id, client_id, company_id, channel_id, title, content,
    publish_at, media_type, responsibility, theme, insights, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`

	insertAuditSQL = `
INSERT INTO import_audit (
    import_id, tenant_id, actor_id, filename, success, failed, warnings,
    duration_ms, ip_address, user_agent
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
)

// Postgres reads tenant lookups and writes imported posts.
type Postgres struct {
	db DBTX
}

// New creates a store on top of a pool, connection or transaction.
func New(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema creates the tables the importer needs if they are missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Schema returns the embedded reference DDL.
func Schema() string {
	return schemaSQL
}

// LoadLookups reads every client, company and channel of one tenant.
func (p *Postgres) LoadLookups(ctx context.Context, tenantID uuid.UUID) (core.LookupData, error) {
	var data core.LookupData
	var err error

	if data.Clients, err = queryAll[core.Client](ctx, p.db, listClientsSQL, tenantID); err != nil {
		return core.LookupData{}, fmt.Errorf("load clients: %w", err)
	}
	if data.Companies, err = queryAll[core.Company](ctx, p.db, listCompaniesSQL, tenantID); err != nil {
		return core.LookupData{}, fmt.Errorf("load companies: %w", err)
	}
	if data.Channels, err = queryAll[core.Channel](ctx, p.db, listChannelsSQL, tenantID); err != nil {
		return core.LookupData{}, fmt.Errorf("load channels: %w", err)
	}
	return data, nil
}

// InsertPost writes one post and returns its id.
func (p *Postgres) InsertPost(ctx context.Context, rec core.CandidateRecord) (uuid.UUID, error) {
	var id uuid.UUID
	err := p.db.QueryRow(ctx, insertPostSQL, insertArgs(rec)...).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

// insertArgs lists rec's values in insertPostSQL parameter order.
func insertArgs(rec core.CandidateRecord) []any {
	return []any{
		rec.TenantID,
		rec.ClientID,
		rec.CompanyID,
		rec.ChannelID,
		rec.Title,
		rec.Content,
		rec.PublishAt,
		rec.MediaType,
		string(rec.Responsibility),
		rec.Theme,
		rec.Insights,
		rec.CreatedBy,
	}
}

// RecordImport writes the audit entry of a completed batch.
func (p *Postgres) RecordImport(ctx context.Context, entry core.ImportAudit) error {
	if _, err := p.db.Exec(ctx, insertAuditSQL, auditArgs(entry)...); err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

func auditArgs(entry core.ImportAudit) []any {
	return []any{
		entry.ImportID,
		entry.TenantID,
		entry.ActorID,
		entry.Filename,
		entry.Success,
		entry.Failed,
		entry.Warnings,
		entry.Duration.Milliseconds(),
		core.ToPgText(entry.IPAddress),
		core.ToPgText(entry.UserAgent),
	}
}

func queryAll[T any](ctx context.Context, db DBTX, sql string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}
