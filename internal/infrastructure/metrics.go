package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// AnalysisMetrics holds the application instruments
type AnalysisMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Analysis metrics
	RunsTotal    metric.Int64Counter
	RunDuration  metric.Float64Histogram
	RecordsTotal metric.Int64Counter
	RecordErrors metric.Int64Counter
	UploadBytes  metric.Int64Counter

	// Report cache metrics
	CacheHits   metric.Int64Counter
	CacheMisses metric.Int64Counter
}

// NewAnalysisMetrics creates the instruments on meter
func NewAnalysisMetrics(meter metric.Meter) (*AnalysisMetrics, error) {
	var (
		m   AnalysisMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, err
	}
	if m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests")); err != nil {
		return nil, err
	}
	if m.RunsTotal, err = meter.Int64Counter("analysis_runs_total",
		metric.WithDescription("Analysis runs by source format and status")); err != nil {
		return nil, err
	}
	if m.RunDuration, err = meter.Float64Histogram("analysis_run_duration_seconds",
		metric.WithDescription("Analysis run duration in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.RecordsTotal, err = meter.Int64Counter("analysis_records_total",
		metric.WithDescription("Fax records analyzed")); err != nil {
		return nil, err
	}
	if m.RecordErrors, err = meter.Int64Counter("analysis_record_errors_total",
		metric.WithDescription("Fax records that failed validation, by error kind")); err != nil {
		return nil, err
	}
	if m.UploadBytes, err = meter.Int64Counter("analysis_upload_bytes_total",
		metric.WithDescription("Bytes of log exports received"),
		metric.WithUnit("By")); err != nil {
		return nil, err
	}
	if m.CacheHits, err = meter.Int64Counter("report_cache_hits_total",
		metric.WithDescription("Report cache hits")); err != nil {
		return nil, err
	}
	if m.CacheMisses, err = meter.Int64Counter("report_cache_misses_total",
		metric.WithDescription("Report cache misses")); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordRun records one analysis run. stats is nil for failed runs.
func (m *AnalysisMetrics) RecordRun(ctx context.Context, format string, size int64, stats *domain.Statistics, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("status", status),
	)

	m.RunsTotal.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, duration.Seconds(), attrs)
	m.UploadBytes.Add(ctx, size, metric.WithAttributes(attribute.String("format", format)))

	if stats == nil {
		return
	}
	m.RecordsTotal.Add(ctx, int64(stats.Total))
	for kind, n := range stats.PerErrorKind {
		m.RecordErrors.Add(ctx, int64(n), metric.WithAttributes(attribute.String("kind", string(kind))))
	}
}

// RecordCacheLookup counts a report cache hit or miss
func (m *AnalysisMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Add(ctx, 1)
		return
	}
	m.CacheMisses.Add(ctx, 1)
}
