package gateway

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/SebastienMelki/linededup/internal/dedup"
	"github.com/SebastienMelki/linededup/internal/events"
	"github.com/SebastienMelki/linededup/internal/observability"
)

// Handler serves the upload form, the result page, downloads and the JSON
// API.
type Handler struct {
	svc      *DedupService
	renderer *TemplateRenderer
	limit    dedup.SizeLimit
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewHandler creates a handler. metrics may be nil.
func NewHandler(svc *DedupService, renderer *TemplateRenderer, limit dedup.SizeLimit, metrics *observability.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:      svc,
		renderer: renderer,
		limit:    limit,
		metrics:  metrics,
		logger:   logger.With("component", "handler"),
	}
}

// Index serves the upload form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index.html", RenderData{
		Title: "Upload",
		Data:  IndexPage{MaxUploadBytes: int64(h.limit)},
	})
}

// Upload handles a multipart upload. Only the first part is considered: it
// must carry a filename ending in ".txt" and its content is streamed through
// the ingestor.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	part, err := firstPart(r)
	if err != nil {
		h.reject(w, r, err)
		return
	}
	defer part.Close()

	filename := part.FileName()
	if !strings.HasSuffix(filename, ".txt") {
		h.reject(w, r, fmt.Errorf("%w: %q", ErrNotTxtFile, filename))
		return
	}

	resp, err := h.svc.Clean(r.Context(), CleanRequest{
		Source:   events.SourceUpload,
		Filename: filename,
		Body:     part,
	})
	if err != nil {
		h.reject(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "result.html", RenderData{
		Title: "Result",
		Data: ResultPage{
			Filename: filename,
			Content:  resp.Result.Text(),
			Count:    resp.Result.Count,
			Repeat:   resp.Result.Repeat,
		},
	})
}

// firstPart returns the first part of a multipart body. A body that is not
// multipart or has no parts yields dedup.ErrNoPayload.
func firstPart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dedup.ErrNoPayload, err)
	}
	part, err := mr.NextPart()
	if err != nil {
		if isTooLarge(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", dedup.ErrNoPayload, err)
	}
	return part, nil
}

// Download echoes the "content" form field back as cleaned.txt.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Debug("download form unreadable", "error", err)
		http.Error(w, msgDownload, http.StatusBadRequest)
		return
	}
	values, ok := r.PostForm["content"]
	if !ok || len(values) == 0 {
		http.Error(w, msgDownload, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="cleaned.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, values[0])
}

// errorResponse is the JSON body of a rejected API request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// APIDedup deduplicates the raw request body and answers with JSON.
func (h *Handler) APIDedup(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Clean(r.Context(), CleanRequest{
		Source: events.SourceAPI,
		Body:   r.Body,
	})
	if err != nil {
		rej := classify(err)
		h.countRejection(r, rej)
		writeJSON(w, rej.status, errorResponse{Error: rej.message, Code: rej.code})
		return
	}

	writeJSON(w, http.StatusOK, resp.Result)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, err error) {
	rej := classify(err)
	h.countRejection(r, rej)
	if rej.status >= 500 {
		h.logger.Error("upload failed", "error", err, "request_id", GetRequestID(r.Context()))
	} else {
		h.logger.Debug("upload rejected", "code", rej.code, "error", err)
	}
	http.Error(w, rej.message, rej.status)
}

func (h *Handler) countRejection(r *http.Request, rej rejection) {
	if h.metrics == nil {
		return
	}
	h.metrics.UploadsRejected.Add(r.Context(), 1,
		otelmetric.WithAttributes(attribute.String("reason", rej.code)))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data RenderData) {
	if err := h.renderer.Render(w, status, name, data); err != nil {
		h.logger.Error("failed to render page",
			"template", name,
			"error", err,
			"request_id", GetRequestID(r.Context()),
		)
		http.Error(w, msgInternal, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
