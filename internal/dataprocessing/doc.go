// Package dataprocessing implements the fax log analysis engine.
//
// # Architecture
//
// A run flows through six stages, leaf first:
//
//  1. Tokenizer: splits delimited text into trimmed rows, honoring quotes
//  2. MapRecord: maps a row to a domain.RawRecord by column position
//  3. Normalize: canonicalizes a called number to a "33…" digit string
//  4. Validate: judges a normalized number and picks exactly one reason
//  5. RunAggregate: folds entries into run-level statistics
//  6. Assemble: freezes entries and statistics into a domain.AnalysisResult
//
// # Usage
//
//	analyzer := dataprocessing.NewAnalyzer(logger)
//	result, err := analyzer.AnalyzeCSV(file)
//	if err != nil {
//	    var malformed *dataprocessing.MalformedInputError
//	    if errors.As(err, &malformed) {
//	        // surface as "invalid file"
//	    }
//	}
//
// XLSX workbooks go through NewXLSXReader, which yields rows through the
// same RowSource contract as the CSV tokenizer.
//
// # Error Handling
//
// Only structural failure is fatal: a file with no data rows returns a
// *MalformedInputError and no partial result. Bad numbers are recorded on
// the entry as domain.ErrorKind values and counted in the statistics.
//
// # Concurrency
//
// Every run owns its accumulator. An Analyzer holds no per-run state and
// may be shared across goroutines analyzing independent inputs.
package dataprocessing
