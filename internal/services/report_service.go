package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Imdraks/faxcloud-analyzer/internal/dataprocessing"
	"github.com/Imdraks/faxcloud-analyzer/internal/exporter"
	"github.com/Imdraks/faxcloud-analyzer/internal/infrastructure"
	"github.com/Imdraks/faxcloud-analyzer/internal/storage"
	ws "github.com/Imdraks/faxcloud-analyzer/internal/websocket"
	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

const (
	DefaultEntryLimit = 100
	MaxEntryLimit     = 1000
)

// WebSocketHub receives report events
type WebSocketHub interface {
	Broadcast(messageType string, data interface{})
}

// UploadRequest is one file submitted for analysis
type UploadRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	Data        []byte `json:"-"`
	ContractID  string `json:"contract_id" validate:"omitempty,max=64,printascii"`
	PeriodStart string `json:"period_start" validate:"omitempty,datetime=2006-01-02"`
	PeriodEnd   string `json:"period_end" validate:"omitempty,datetime=2006-01-02"`
}

// EntryFilter selects analyzed entries of a report
type EntryFilter struct {
	Status string `json:"status" validate:"omitempty,oneof=valid invalid"`
	User   string `json:"user" validate:"max=255"`
	Kind   string `json:"kind"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}

// EntryPage is a filtered window of report entries. Total counts every
// match before paging.
type EntryPage struct {
	ReportID string                 `json:"report_id"`
	Total    int                    `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
	Entries  []domain.AnalyzedEntry `json:"entries"`
}

// BatchResult is the outcome of one file in AnalyzeFiles
type BatchResult struct {
	Path   string
	Report *domain.StoredReport
	Err    error
}

// ReportService runs analyses and manages stored reports
type ReportService struct {
	analyzer *dataprocessing.Analyzer
	store    storage.ReportStore
	hub      WebSocketHub
	csv      *exporter.CSVWriter
	xlsx     *exporter.XLSXWriter
	validate *validator.Validate
	tracer   trace.Tracer
	metrics  *infrastructure.AnalysisMetrics
	logger   *slog.Logger
}

// ReportServiceOption configures a ReportService
type ReportServiceOption func(*ReportService)

// WithTracer sets the tracer used for analysis spans
func WithTracer(tracer trace.Tracer) ReportServiceOption {
	return func(s *ReportService) {
		s.tracer = tracer
	}
}

// WithMetrics records analysis runs on metrics
func WithMetrics(metrics *infrastructure.AnalysisMetrics) ReportServiceOption {
	return func(s *ReportService) {
		s.metrics = metrics
	}
}

// NewReportService creates a report service. hub may be nil when nobody
// listens for events.
func NewReportService(analyzer *dataprocessing.Analyzer, store storage.ReportStore, hub WebSocketHub, logger *slog.Logger, opts ...ReportServiceOption) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = noopHub{}
	}

	s := &ReportService{
		analyzer: analyzer,
		store:    store,
		hub:      hub,
		csv:      exporter.NewCSVWriter("", logger),
		xlsx:     exporter.NewXLSXWriter(),
		validate: newValidator(),
		tracer:   otel.Tracer(infrastructure.InstrumentationName),
		logger:   logger.With(slog.String("service", "report")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DetectFormat picks the source format from the file extension
func DetectFormat(fileName string) (domain.ReportFormat, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return domain.ReportFormatCSV, nil
	case ".xlsx":
		return domain.ReportFormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Checksum fingerprints an uploaded file
func Checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Analyze runs the engine over an uploaded file, stores the report and
// announces it.
func (s *ReportService) Analyze(ctx context.Context, req UploadRequest) (*domain.StoredReport, error) {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return nil, fmt.Errorf("invalid upload: %w", err)
	}
	if req.PeriodStart != "" && req.PeriodEnd != "" && req.PeriodEnd < req.PeriodStart {
		return nil, fmt.Errorf("%w: period_end is before period_start", ErrInvalidInput)
	}
	if len(req.Data) == 0 {
		return nil, ErrEmptyUpload
	}
	format, err := DetectFormat(req.FileName)
	if err != nil {
		return nil, err
	}

	fileName := filepath.Base(req.FileName)
	ctx, span := s.tracer.Start(ctx, "report.analyze",
		trace.WithAttributes(
			attribute.String("file.name", fileName),
			attribute.String("file.format", string(format)),
			attribute.Int("file.size", len(req.Data)),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := s.run(format, req.Data)
	duration := time.Since(start)

	if err != nil {
		s.metrics.RecordRun(ctx, string(format), int64(len(req.Data)), nil, duration, err)
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "analysis failed",
			slog.String("file_name", fileName),
			slog.String("error", err.Error()))
		s.hub.Broadcast(ws.TypeAnalysisError, map[string]interface{}{
			"file_name": fileName,
			"error":     err.Error(),
		})
		return nil, fmt.Errorf("analyze %s: %w", fileName, err)
	}
	s.metrics.RecordRun(ctx, string(format), int64(len(req.Data)), &result.Statistics, duration, nil)

	report := domain.NewStoredReport(result, fileName, format)
	report.Checksum = Checksum(req.Data)
	report.ContractID = req.ContractID
	report.PeriodStart = req.PeriodStart
	report.PeriodEnd = req.PeriodEnd

	id, err := s.store.Save(ctx, report)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("save report: %w", err)
	}
	report.ID = id
	span.SetAttributes(
		attribute.String("report.id", id),
		attribute.Int("report.total", report.Statistics.Total),
		attribute.Int("report.errors", report.Statistics.Errors),
	)

	s.logger.InfoContext(ctx, "report created",
		slog.String("report_id", id),
		slog.String("run_id", report.RunID),
		slog.String("file_name", fileName),
		slog.Int("total", report.Statistics.Total),
		slog.Int("errors", report.Statistics.Errors),
		slog.Int("success_rate_percent", report.Statistics.SuccessRatePercent),
		slog.Duration("duration", duration))

	s.hub.Broadcast(ws.TypeReportCreated, report.Summary())
	return report, nil
}

func (s *ReportService) run(format domain.ReportFormat, data []byte) (domain.AnalysisResult, error) {
	switch format {
	case domain.ReportFormatXLSX:
		return s.analyzer.AnalyzeXLSX(bytes.NewReader(data), "")
	default:
		return s.analyzer.AnalyzeCSV(bytes.NewReader(data))
	}
}

// AnalyzeFiles analyzes local files with at most workers runs in flight.
// Per-file failures are reported in the results; the returned error is
// only set when ctx ends first.
func (s *ReportService) AnalyzeFiles(ctx context.Context, paths []string, workers int) ([]BatchResult, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	if workers <= 0 {
		workers = 1
	}

	// One trace ID ties the log lines of a batch together
	ctx = infrastructure.EnsureTraceID(ctx)

	results := make([]BatchResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = BatchResult{Path: path}

			data, err := os.ReadFile(path)
			if err != nil {
				results[i].Err = fmt.Errorf("read %s: %w", path, err)
				return nil
			}
			results[i].Report, results[i].Err = s.Analyze(gctx, UploadRequest{FileName: filepath.Base(path), Data: data})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// Get returns a stored report
func (s *ReportService) Get(ctx context.Context, id string) (*domain.StoredReport, error) {
	report, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return report, nil
}

// List returns report summaries, newest first
func (s *ReportService) List(ctx context.Context, limit, offset int) ([]domain.ReportSummary, error) {
	summaries, err := s.store.List(ctx, storage.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return summaries, nil
}

// Delete removes a report and announces it
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "report deleted", slog.String("report_id", id))
	s.hub.Broadcast(ws.TypeReportDeleted, map[string]string{"id": id})
	return nil
}

// Entries returns the entries of a report matching filter
func (s *ReportService) Entries(ctx context.Context, id string, filter EntryFilter) (*EntryPage, error) {
	if err := s.validate.StructCtx(ctx, filter); err != nil {
		return nil, fmt.Errorf("invalid entry filter: %w", err)
	}

	var kind domain.ErrorKind
	if filter.Kind != "" {
		k, ok := domain.ParseErrorKind(filter.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: unknown error kind %q", ErrInvalidInput, filter.Kind)
		}
		kind = k
	}
	if filter.Limit == 0 {
		filter.Limit = DefaultEntryLimit
	}

	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	matched := make([]domain.AnalyzedEntry, 0)
	for _, e := range report.Entries {
		switch {
		case filter.Status == "valid" && !e.IsValid:
			continue
		case filter.Status == "invalid" && e.IsValid:
			continue
		case filter.User != "" && !strings.EqualFold(e.User, filter.User):
			continue
		case kind != "" && !e.HasReason(kind):
			continue
		}
		matched = append(matched, e)
	}

	page := &EntryPage{
		ReportID: report.ID,
		Total:    len(matched),
		Limit:    filter.Limit,
		Offset:   filter.Offset,
		Entries:  []domain.AnalyzedEntry{},
	}
	if filter.Offset < len(matched) {
		end := min(filter.Offset+filter.Limit, len(matched))
		page.Entries = matched[filter.Offset:end]
	}
	return page, nil
}

// Export renders a stored report in format onto w
func (s *ReportService) Export(ctx context.Context, id string, format domain.ReportFormat, w io.Writer) error {
	report, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.Render(report, format, w)
}

// Render writes an already loaded report to w in format
func (s *ReportService) Render(report *domain.StoredReport, format domain.ReportFormat, w io.Writer) error {
	var err error
	switch format {
	case domain.ReportFormatCSV:
		err = s.csv.WriteEntries(w, report.Result())
	case domain.ReportFormatXLSX:
		err = s.xlsx.Write(w, report)
	case domain.ReportFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(report)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("export report %s as %s: %w", report.ID, format, err)
	}
	return nil
}

// ExportFileName names the download of a report in format
func ExportFileName(report *domain.StoredReport, format domain.ReportFormat) string {
	return ExportName(strings.TrimSuffix(report.FileName, filepath.Ext(report.FileName)), format)
}

// ExportName names an export of format whose file names start with stem
func ExportName(stem string, format domain.ReportFormat) string {
	if stem == "" {
		stem = "report"
	}
	return fmt.Sprintf("%s_analysis.%s", stem, format)
}

type noopHub struct{}

func (noopHub) Broadcast(string, interface{}) {}
