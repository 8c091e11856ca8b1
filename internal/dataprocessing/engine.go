package dataprocessing

import (
	"errors"
	"io"
	"log/slog"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// Analyzer runs the analysis pipeline over a row source. It holds no
// per-run state.
type Analyzer struct {
	logger     *slog.Logger
	classifier LineClassifier
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithLineClassifier replaces the line classifier. A nil classifier
// disables line typing.
func WithLineClassifier(c LineClassifier) Option {
	return func(a *Analyzer) {
		a.classifier = c
	}
}

// NewAnalyzer creates an analyzer that classifies valid numbers with
// PhoneLineClassifier unless told otherwise.
func NewAnalyzer(logger *slog.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{
		logger:     logger.With(slog.String("component", "analyzer")),
		classifier: PhoneLineClassifier{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeCSV analyzes comma-separated text.
func (a *Analyzer) AnalyzeCSV(r io.Reader) (domain.AnalysisResult, error) {
	tok, err := NewTokenizer(r)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	return a.AnalyzeRows(tok)
}

// AnalyzeXLSX analyzes a worksheet of a workbook. An empty sheet name
// selects the first sheet with data.
func (a *Analyzer) AnalyzeXLSX(r io.Reader, sheet string) (domain.AnalysisResult, error) {
	src, err := NewXLSXReader(r, sheet)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	return a.AnalyzeRows(src)
}

// AnalyzeRows drains src and returns the assembled result. No partial
// result is returned on error.
func (a *Analyzer) AnalyzeRows(src RowSource) (domain.AnalysisResult, error) {
	agg := NewRunAggregate()
	var entries []domain.AnalyzedEntry

	for {
		fields, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.AnalysisResult{}, err
		}
		entry := a.AnalyzeFields(fields)
		agg.Fold(entry)
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return domain.AnalysisResult{}, newMalformed("no data rows", nil)
	}

	result := Assemble(entries, agg)
	a.logger.Debug("analysis completed",
		slog.String("run_id", result.RunID),
		slog.Int("total", result.Statistics.Total),
		slog.Int("errors", result.Statistics.Errors),
		slog.Int("success_rate", result.Statistics.SuccessRatePercent))

	return result, nil
}

// AnalyzeFields runs one row through mapping, normalization and
// validation.
func (a *Analyzer) AnalyzeFields(fields []string) domain.AnalyzedEntry {
	rec := MapRecord(fields)
	normalized := Normalize(rec.CalledNumber)
	entry := domain.NewAnalyzedEntry(rec, normalized, Validate(rec.CalledNumber, normalized))
	if entry.IsValid && a.classifier != nil {
		entry.LineType = a.classifier.Classify(normalized)
	}
	return entry
}
