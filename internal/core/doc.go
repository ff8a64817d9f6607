// Package core provides the business logic for spreadsheet post imports.
//
// The package holds all domain logic independent of any transport layer.
// The HTTP handlers in internal/web and the importctl CLI both drive it
// through [Service].
//
// # Pipeline
//
// One call to [Service.ImportBatch] or [Service.ImportFile] runs:
//
//  1. Decode the base64 payload ([DecodePayload]) and enforce the size limit
//  2. Parse the first sheet of an XLSX file, or a CSV file, into [ParsedRow]s
//  3. Load the tenant's clients, companies and channels once ([Store.LoadLookups])
//  4. Resolve and insert each row independently
//  5. Fold the row outcomes into an [ImportReport]
//  6. Record an [ImportAudit] when the store also implements [AuditStore]
//
// A failed row never stops the batch. Only whole-batch problems (bad
// encoding, empty or unreadable files, unreachable lookups, a full import
// limiter) are returned as errors.
//
// # Headers
//
// Columns are matched by normalized header text: accents, case, spaces and
// punctuation are ignored, so "Tipo de Mídia" and "TIPO_DE_MIDIA" are the
// same header. Each canonical [Field] has an ordered alias list
// ([DefaultAliases]) that can be overridden from YAML ([LoadAliases]).
//
// # Row Outcomes
//
// A row fails when its client is missing, unknown or ambiguous, or when the
// insert fails. Unresolved companies and channels, unreadable dates and
// unknown media types degrade to empty values and are counted as warnings.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE006: File errors (size, encoding, format, empty)
//   - IMP001-IMP002: Import errors (lookups unavailable, too many imports)
//   - REQ001, AUTH001, RATE001: Request, authentication and rate limit errors
//   - DB001-DB006: Database errors (duplicates, constraints, connections, timeouts)
package core
