package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
	"github.com/genefryaustin-source/cui-inspector/internal/service/inspect"
)

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// scanService defines the scan operations needed by ScanHandler.
type scanService interface {
	Analyze(text, rulesetName string) (domain.Findings, error)
	Rulesets() []string
	ScanDocument(ctx context.Context, actor domain.Principal, input inspect.ScanInput) (inspect.ScanResult, error)
	ScanText(ctx context.Context, actor domain.Principal, input inspect.TextInput) (inspect.ScanResult, error)
	BulkScan(ctx context.Context, actor domain.Principal, input inspect.BulkInput) (inspect.BulkResult, error)
}

// ScanHandler serves analysis and scan endpoints.
type ScanHandler struct {
	svc       scanService
	log       *slog.Logger
	maxUpload int64
}

// NewScanHandler creates a ScanHandler. maxUpload bounds a whole request body.
func NewScanHandler(svc scanService, logger *slog.Logger, maxUpload int64) *ScanHandler {
	return &ScanHandler{svc: svc, log: logger.With("handler", "scan"), maxUpload: maxUpload}
}

type analyzeRequest struct {
	Text    string `json:"text"`
	Ruleset string `json:"ruleset"`
}

// Analyze handles POST /api/v1/analyze. Nothing is persisted.
func (h *ScanHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	f, err := h.svc.Analyze(req.Text, req.Ruleset)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Rulesets handles GET /api/v1/rulesets.
func (h *ScanHandler) Rulesets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"rulesets": h.svc.Rulesets()})
}

// Scan handles POST /api/v1/scans (multipart: file, ruleset, tenant_id).
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		handleError(h.log, w, r, err)
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

	res, err := h.svc.ScanDocument(r.Context(), actor(r), inspect.ScanInput{
		TenantID: tenantID,
		Filename: file.Name,
		Data:     file.Data,
		MIME:     file.MIME,
		Ruleset:  r.FormValue("ruleset"),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScan(res))
}

type scanTextRequest struct {
	Text     string `json:"text"`
	Ruleset  string `json:"ruleset"`
	TenantID string `json:"tenant_id"`
	Label    string `json:"label"`
}

// ScanText handles POST /api/v1/scans/text.
func (h *ScanHandler) ScanText(w http.ResponseWriter, r *http.Request) {
	var req scanTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	tenantID, err := optionalUUID("tenant_id", req.TenantID)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	res, err := h.svc.ScanText(r.Context(), actor(r), inspect.TextInput{
		TenantID: tenantID,
		Text:     req.Text,
		Ruleset:  req.Ruleset,
		Label:    req.Label,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScan(res))
}

type bulkResponse struct {
	Inspection inspectionResponse `json:"inspection"`
	Documents  []scanResponse     `json:"documents"`
	Failed     int                `json:"failed"`
}

// Bulk handles POST /api/v1/scans/bulk (multipart: files, ruleset, tenant_id).
func (h *ScanHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	tenantID, err := optionalUUID("tenant_id", r.FormValue("tenant_id"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		handleError(h.log, w, r, domain.NewValidationError("files", "at least one file required"))
		return
	}
	files := make([]inspect.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readPart(fh)
		if err != nil {
			handleError(h.log, w, r, err)
			return
		}
		files = append(files, f)
	}

	res, err := h.svc.BulkScan(r.Context(), actor(r), inspect.BulkInput{
		TenantID: tenantID,
		Files:    files,
		Ruleset:  r.FormValue("ruleset"),
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := bulkResponse{Inspection: toInspection(res.Inspection), Failed: res.Failed}
	for _, d := range res.Documents {
		out.Documents = append(out.Documents, toScan(d))
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *ScanHandler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.NewValidationError("body", "upload exceeds size limit")
		}
		return domain.NewValidationError("body", "invalid multipart form")
	}
	return nil
}

func singleFile(r *http.Request, field string) (*multipart.FileHeader, error) {
	headers := r.MultipartForm.File[field]
	if len(headers) != 1 {
		return nil, domain.NewValidationError(field, "exactly one file required")
	}
	return headers[0], nil
}

func readPart(fh *multipart.FileHeader) (inspect.File, error) {
	f, err := fh.Open()
	if err != nil {
		return inspect.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return inspect.File{}, err
	}
	return inspect.File{Name: fh.Filename, Data: data, MIME: fh.Header.Get("Content-Type")}, nil
}

func toScan(res inspect.ScanResult) scanResponse {
	out := scanResponse{
		Version:        toVersion(res.Version),
		VersionCreated: res.VersionCreated,
		Inspection:     toInspection(res.Inspection),
		Findings:       res.Findings,
		Evidence:       toEvidenceList(res.Evidence),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}
