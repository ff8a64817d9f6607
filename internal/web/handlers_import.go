package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/JonMunkholm/postimport/internal/core"
	"github.com/JonMunkholm/postimport/internal/web/templates"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var errRateLimited = errors.New("rate limit exceeded")

// multipartOverhead is headroom for form fields and part headers.
const multipartOverhead = 1 << 20

// importRequest is the JSON body of POST /api/imports.
type importRequest struct {
	File     string `json:"file"` // base64, optionally as a data: URL
	Filename string `json:"filename"`
	TenantID string `json:"tenantId"`
}

// handleImport imports a base64-encoded spreadsheet sent as JSON.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	actorID, ok := core.ActorFromContext(r.Context())
	if !ok {
		s.respondError(w, r, core.ErrUnauthenticated)
		return
	}

	// base64 inflates by 4/3.
	limit := s.cfg.Import.MaxFileSize/3*4 + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, fmt.Errorf("%w: request body over %d bytes", core.ErrFileTooLarge, tooBig.Limit))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}
	if strings.TrimSpace(req.File) == "" {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	tenantID, err := parseTenant(req.TenantID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.ImportBatch(ctx, req.File, req.Filename, tenantID, actorID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondReport(w, r, report)
}

// handleImportUpload imports a spreadsheet sent as multipart/form-data
// with fields "file" and "tenantId".
func (s *Server) handleImportUpload(w http.ResponseWriter, r *http.Request) {
	actorID, ok := core.ActorFromContext(r.Context())
	if !ok {
		s.respondError(w, r, core.ErrUnauthenticated)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, fmt.Errorf("%w: upload over %d bytes", core.ErrFileTooLarge, tooBig.Limit))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrInvalidRequest, err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	tenantID, err := parseTenant(r.FormValue("tenantId"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrUnreadableSpreadsheet, err))
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	report, err := s.service.ImportFile(ctx, core.ImportRequest{
		TenantID: tenantID,
		ActorID:  actorID,
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondReport(w, r, report)
}

// respondReport writes a processed batch with 200, even when every row failed.
func (s *Server) respondReport(w http.ResponseWriter, r *http.Request, report *core.ImportReport) {
	if isHTMX(r) || wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.ImportReport(report).Render(r.Context(), w); err != nil {
			s.respondError(w, r, err)
		}
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// handleImportStatus reports running batches.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.LimiterStatus())
}

// handleAliases returns the active header aliases as YAML, ready to edit
// and feed back through IMPORT_ALIASES_FILE.
func (s *Server) handleAliases(w http.ResponseWriter, r *http.Request) {
	out, err := yaml.Marshal(s.service.Aliases())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	})
}

func parseTenant(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: tenantId must be a UUID", core.ErrInvalidRequest)
	}
	return id, nil
}

// extractHost strips the port from a RemoteAddr.
func extractHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
