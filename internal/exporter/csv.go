package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	baseDir string
	logger  *slog.Logger
}

// NewCSVWriter creates a CSV writer. Relative file paths are resolved
// against baseDir.
func NewCSVWriter(baseDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		baseDir: baseDir,
		logger:  logger.With(slog.String("component", "csv_writer")),
	}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Write writes the headers and records to out
func (w *CSVWriter) Write(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes a CSV file, creating parent directories as needed
func (w *CSVWriter) WriteFile(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := w.Write(file, options); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WriteEntries writes one row per analyzed entry in input order
func (w *CSVWriter) WriteEntries(out io.Writer, result domain.AnalysisResult) error {
	return w.Write(out, entriesOptions(result.Entries))
}

// WriteStatistics writes the run statistics as metric/value rows
func (w *CSVWriter) WriteStatistics(out io.Writer, stats domain.Statistics) error {
	return w.Write(out, statisticsOptions(stats))
}

// ExportResult writes <stem>_entries.csv and <stem>_statistics.csv and
// returns their paths.
func (w *CSVWriter) ExportResult(stem string, result domain.AnalysisResult) (entriesPath, statsPath string, err error) {
	if err := w.WriteFile(stem+"_entries.csv", entriesOptions(result.Entries)); err != nil {
		return "", "", err
	}
	if err := w.WriteFile(stem+"_statistics.csv", statisticsOptions(result.Statistics)); err != nil {
		return "", "", err
	}
	return w.resolvePath(stem + "_entries.csv"), w.resolvePath(stem + "_statistics.csv"), nil
}

func entriesOptions(entries []domain.AnalyzedEntry) WriteOptions {
	records := make([][]string, len(entries))
	for i, e := range entries {
		record := EntryRecord(e)
		for j := range record {
			record[j] = escapeFormula(record[j])
		}
		records[i] = record
	}
	return WriteOptions{Headers: EntryHeaders, Records: records, BOMPrefix: true}
}

// escapeFormula prefixes cells that spreadsheet apps would evaluate as a
// formula with a single quote.
func escapeFormula(cell string) string {
	if cell == "" {
		return cell
	}
	switch cell[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + cell
	}
	return cell
}

func statisticsOptions(stats domain.Statistics) WriteOptions {
	return WriteOptions{Headers: StatisticsHeaders, Records: StatisticsRecords(stats), BOMPrefix: true}
}

// resolvePath anchors relative paths at the base directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}
