package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "github.com/Imdraks/faxcloud-analyzer/internal/errors"
	mw "github.com/Imdraks/faxcloud-analyzer/internal/middleware"
	"github.com/Imdraks/faxcloud-analyzer/internal/services"
	"github.com/Imdraks/faxcloud-analyzer/internal/storage"
	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// multipartMemory is the part of an upload kept in memory before the
// multipart reader spills to disk
const multipartMemory = 8 << 20

const maxReportIDLength = 64

type reportIDKey struct{}

var exportContentTypes = map[domain.ReportFormat]string{
	domain.ReportFormatCSV:  "text/csv; charset=utf-8",
	domain.ReportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	domain.ReportFormatJSON: "application/json",
}

// ReportHandler handles report HTTP requests with RFC 7807 errors
type ReportHandler struct {
	service        ReportServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	query          *mw.QueryParamValidator
	maxUploadBytes int64
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "report_handler")),
		errorHandler:   errorHandler,
		query:          mw.NewQueryParamValidator(logger, errorHandler),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(mw.ContentTypeValidator("multipart/form-data")).Post("/", h.Upload)
	r.Get("/", h.List)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.ReportCtx)
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Get("/entries", h.Entries)
		r.Get("/export", h.Export)
	})

	return r
}

// ReportCtx validates the report ID path parameter
func (h *ReportHandler) ReportCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" || len(id) > maxReportIDLength {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "Invalid report identifier"))
			return
		}
		ctx := context.WithValue(r.Context(), reportIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func reportID(r *http.Request) string {
	id, _ := r.Context().Value(reportIDKey{}).(string)
	return id
}

// Upload handles POST /api/reports
func (h *ReportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, tooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A fax log export must be sent in the 'file' field"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	h.logger.InfoContext(r.Context(), "analyzing upload",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file_name", header.Filename),
		slog.Int64("size", header.Size),
	)

	report, err := h.service.Analyze(r.Context(), services.UploadRequest{
		FileName:    header.Filename,
		Data:        data,
		ContractID:  r.FormValue("contract_id"),
		PeriodStart: r.FormValue("period_start"),
		PeriodEnd:   r.FormValue("period_end"),
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/reports/"+report.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, report)
}

// List handles GET /api/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, storage.MaxListLimit, storage.DefaultListLimit)
	if !ok {
		return
	}
	offset, ok := h.query.ValidateInt(w, r, "offset", 0, 1_000_000, 0)
	if !ok {
		return
	}

	summaries, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"reports": summaries,
		"count":   len(summaries),
		"limit":   limit,
		"offset":  offset,
	})
}

// Get handles GET /api/reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Get(r.Context(), reportID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// Delete handles DELETE /api/reports/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), reportID(r)); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// Entries handles GET /api/reports/{id}/entries
func (h *ReportHandler) Entries(w http.ResponseWriter, r *http.Request) {
	status, ok := h.query.ValidateEnum(w, r, "status", []string{"valid", "invalid"}, "")
	if !ok {
		return
	}
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, services.MaxEntryLimit, services.DefaultEntryLimit)
	if !ok {
		return
	}
	offset, ok := h.query.ValidateInt(w, r, "offset", 0, 10_000_000, 0)
	if !ok {
		return
	}

	page, err := h.service.Entries(r.Context(), reportID(r), services.EntryFilter{
		Status: status,
		User:   r.URL.Query().Get("user"),
		Kind:   r.URL.Query().Get("kind"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// Export handles GET /api/reports/{id}/export
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	format, ok := h.query.ValidateEnum(w, r, "format",
		[]string{string(domain.ReportFormatCSV), string(domain.ReportFormatXLSX), string(domain.ReportFormatJSON)},
		string(domain.ReportFormatCSV))
	if !ok {
		return
	}
	reportFormat := domain.ReportFormat(format)

	report, err := h.service.Get(r.Context(), reportID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Rendered in memory so a failure still yields a problem response
	var buf bytes.Buffer
	if err := h.service.Render(report, reportFormat, &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", exportContentTypes[reportFormat])
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, services.ExportFileName(report, reportFormat)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed",
			slog.String("report_id", report.ID),
			slog.String("error", err.Error()))
	}
}
