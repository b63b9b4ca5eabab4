package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/genefryaustin-source/cui-inspector/internal/analysis"
	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/vault"
)

// vaultService defines the vault operations needed by VaultHandler.
type vaultService interface {
	ListRecentInspections(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, limit int) ([]domain.Inspection, error)
	ListEvidence(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, inspectionID uuid.UUID) ([]domain.EvidenceFile, error)
	GetObject(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, inspectionID, evidenceID uuid.UUID) (domain.EvidenceFile, []byte, error)
	AttachEvidence(ctx context.Context, actor domain.Principal, input vault.AttachInput) (domain.EvidenceFile, error)
	CompareInspections(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, a, b uuid.UUID) ([]analysis.Delta, error)
	SearchTextIndex(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID, query string, limit int) ([]domain.TextIndexEntry, error)
	VerifyVault(ctx context.Context, actor domain.Principal, tenantID *uuid.UUID) (vault.VerifyReport, error)
	ExportManifest(ctx context.Context, actor domain.Principal, input vault.ExportInput) (vault.ExportResult, error)
	ListAuditEvents(ctx context.Context, actor domain.Principal, q vault.AuditQuery) ([]domain.AuditEvent, error)
}

// VaultHandler serves inspection, evidence, integrity, export and audit endpoints.
type VaultHandler struct {
	svc       vaultService
	log       *slog.Logger
	maxUpload int64
}

// NewVaultHandler creates a VaultHandler.
func NewVaultHandler(svc vaultService, logger *slog.Logger, maxUpload int64) *VaultHandler {
	return &VaultHandler{svc: svc, log: logger.With("handler", "vault"), maxUpload: maxUpload}
}

func tenantQuery(r *http.Request) (*uuid.UUID, error) {
	return optionalUUID("tenant_id", r.URL.Query().Get("tenant_id"))
}

// ListInspections handles GET /api/v1/inspections?tenant_id&limit.
func (h *VaultHandler) ListInspections(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantQuery(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	list, err := h.svc.ListRecentInspections(r.Context(), actor(r), tenantID, limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	out := make([]inspectionResponse, len(list))
	for i, in := range list {
		out[i] = toInspection(in)
	}
	writeJSON(w, http.StatusOK, out)
}

// ListEvidence handles GET /api/v1/inspections/{id}/evidence.
func (h *VaultHandler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	tenantID, err := tenantQuery(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	files, err := h.svc.ListEvidence(r.Context(), actor(r), tenantID, id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEvidenceList(files))
}

// DownloadEvidence handles GET /api/v1/inspections/{id}/evidence/{evidence_id}.
func (h *VaultHandler) DownloadEvidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	evidenceID, err := pathUUID(r, "evidence_id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	tenantID, err := tenantQuery(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	ev, data, err := h.svc.GetObject(r.Context(), actor(r), tenantID, id, evidenceID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeAttachment(w, ev.Filename, "application/octet-stream", ev.SHA256, data)
}

// AttachEvidence handles POST /api/v1/inspections/{id}/evidence (multipart: file, kind, tenant_id).
func (h *VaultHandler) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		handleError(h.log, w, r, domain.NewValidationError("body", "invalid multipart form"))
		return
	}
	tenantID, err := optionalUUID("tenant_id", r.FormValue("tenant_id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	fh, err := singleFile(r, "file")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	file, err := readPart(fh)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	kind := domain.EvidenceKind(r.FormValue("kind"))
	if kind == "" {
		kind = domain.EvidenceKindAttachment
	}
	ev, err := h.svc.AttachEvidence(r.Context(), actor(r), vault.AttachInput{
		TenantID:     tenantID,
		InspectionID: id,
		Kind:         kind,
		Filename:     file.Name,
		Data:         file.Data,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEvidence(ev))
}

// Compare handles GET /api/v1/inspections/compare?a&b.
func (h *VaultHandler) Compare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, err := parseUUID("a", q.Get("a"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	b, err := parseUUID("b", q.Get("b"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	tenantID, err := tenantQuery(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	rows, err := h.svc.CompareInspections(r.Context(), actor(r), tenantID, a, b)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"a": a, "b": b, "rows": rows})
}

// Search handles GET /api/v1/search?q&limit.
func (h *VaultHandler) Search(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantQuery(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	entries, err := h.svc.SearchTextIndex(r.Context(), actor(r), tenantID, r.URL.Query().Get("q"), limit)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	out := make([]indexEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toIndexEntry(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// Verify handles POST /api/v1/vault/verify?tenant_id. A vault with
// mismatched or missing objects still returns 200; the report carries the
// per-row status.
func (h *VaultHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantQuery(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	report, err := h.svc.VerifyVault(r.Context(), actor(r), tenantID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if report.Rows == nil {
		report.Rows = []vault.VerifyRow{}
	}
	writeJSON(w, http.StatusOK, report)
}

type exportRequest struct {
	TenantID       *uuid.UUID  `json:"tenant_id"`
	InspectionIDs  []uuid.UUID `json:"inspection_ids"`
	IncludeObjects bool        `json:"include_objects"`
}

// Export handles POST /api/v1/export and responds with the manifest ZIP.
func (h *VaultHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	res, err := h.svc.ExportManifest(r.Context(), actor(r), vault.ExportInput{
		TenantID:       req.TenantID,
		InspectionIDs:  req.InspectionIDs,
		IncludeObjects: req.IncludeObjects,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.Header().Set("X-Inspection-Id", res.Inspection.ID.String())
	writeAttachment(w, vault.ManifestFilename, "application/zip", "", res.Archive)
}

// Audit handles GET /api/v1/audit?tenant_id&event_type&limit.
func (h *VaultHandler) Audit(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantQuery(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	q := vault.AuditQuery{TenantID: tenantID, Limit: limit}
	if raw := r.URL.Query().Get("event_type"); raw != "" {
		et := domain.AuditEventType(raw)
		q.EventType = &et
	}
	events, err := h.svc.ListAuditEvents(r.Context(), actor(r), q)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	out := make([]auditEventResponse, len(events))
	for i, ev := range events {
		out[i] = toAuditEvent(ev)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeAttachment(w http.ResponseWriter, filename, contentType, digest string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if digest != "" {
		w.Header().Set("X-Content-SHA256", digest)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
