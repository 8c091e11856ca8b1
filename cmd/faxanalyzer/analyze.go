package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Imdraks/faxcloud-analyzer/internal/dataprocessing"
	"github.com/Imdraks/faxcloud-analyzer/internal/exporter"
	"github.com/Imdraks/faxcloud-analyzer/internal/services"
	"github.com/Imdraks/faxcloud-analyzer/internal/storage"
	"github.com/Imdraks/faxcloud-analyzer/internal/validation"
	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

type analyzeOptions struct {
	*rootOptions
	outDir  string
	format  string
	workers int
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "analyze FILE|DIR...",
		Short: "Analyze fax log exports and write reports",
		Long: `Runs one independent analysis per CSV or XLSX export. Directories contribute
every export they contain. One report per input is written to --out.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "reports", "output directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "output format: csv, xlsx or json")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", runtime.NumCPU(), "files analyzed concurrently")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions, args []string) error {
	format := domain.ReportFormat(strings.ToLower(opts.format))
	switch format {
	case domain.ReportFormatCSV, domain.ReportFormatXLSX, domain.ReportFormatJSON:
	default:
		return fmt.Errorf("unknown output format %q (want csv, xlsx or json)", opts.format)
	}

	logger := opts.logger(cmd)
	files := validation.NewFileValidator(logger)

	paths, err := files.ExpandInputs(args)
	if err != nil {
		return err
	}
	if err := files.ValidateOutputDirectory(opts.outDir); err != nil {
		return err
	}

	service := services.NewReportService(dataprocessing.NewAnalyzer(logger), storage.NewMemoryStore(), nil, logger)
	results, err := service.AnalyzeFiles(cmd.Context(), paths, opts.workers)
	if err != nil {
		return err
	}

	csvWriter := exporter.NewCSVWriter(opts.outDir, logger)
	stems := outputStems(paths)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTOTAL\tERRORS\tSUCCESS\tOUTPUT")

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%v\n", res.Path, res.Err)
			continue
		}

		written, err := writeReport(service, csvWriter, opts.outDir, stems[res.Path], res.Report, format)
		if err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t-\t-\t-\t%v\n", res.Path, err)
			continue
		}

		stats := res.Report.Statistics
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d%%\t%s\n",
			res.Path, stats.Total, stats.Errors, stats.SuccessRatePercent, strings.Join(written, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// writeReport writes report in format under outDir and returns the written paths
func writeReport(service *services.ReportService, csvWriter *exporter.CSVWriter, outDir, stem string, report *domain.StoredReport, format domain.ReportFormat) ([]string, error) {
	if format == domain.ReportFormatCSV {
		entries, stats, err := csvWriter.ExportResult(stem, report.Result())
		if err != nil {
			return nil, err
		}
		return []string{entries, stats}, nil
	}

	path := filepath.Join(outDir, services.ExportName(stem, format))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	exportErr := service.Render(report, format, f)
	if err := errors.Join(exportErr, f.Close()); err != nil {
		os.Remove(path)
		return nil, err
	}
	return []string{path}, nil
}

// outputStems names the outputs of each input after its base name. Inputs
// sharing a base name are prefixed with their parent directory, and a
// counter is appended while a name is still taken.
func outputStems(paths []string) map[string]string {
	seen := make(map[string]int, len(paths))
	for _, p := range paths {
		seen[fileStem(p)]++
	}

	stems := make(map[string]string, len(paths))
	used := make(map[string]bool, len(paths))
	for _, p := range paths {
		stem := fileStem(p)
		if seen[stem] > 1 {
			stem = filepath.Base(filepath.Dir(p)) + "_" + stem
		}
		name := stem
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", stem, n)
		}
		used[name] = true
		stems[p] = name
	}
	return stems
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
