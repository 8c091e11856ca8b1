// Package exporter renders analysis results for download.
//
// CSVWriter produces two CSV documents: one row per analyzed entry and a
// metric/value summary of the run statistics. Both start with a UTF-8 BOM so
// spreadsheet tools detect the encoding. XLSXWriter produces a workbook with
// Summary, Entries, Users and Errors sheets.
//
// Example usage:
//
//	csvWriter := exporter.NewCSVWriter(cfg.Paths.ExportsDir, logger)
//	if err := csvWriter.WriteEntries(w, report.Result()); err != nil {
//		return err
//	}
//
//	xlsxWriter := exporter.NewXLSXWriter()
//	err := xlsxWriter.Write(w, report)
package exporter
