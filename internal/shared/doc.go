// Package shared holds helpers used across the analyzer packages that do
// not belong to a single layer.
//
// The testutil subpackage provides:
//
//	- a buffered slog handler for asserting on log output
//	- builders for FaxCloud CSV exports and rows
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    csv := testutil.CSVExport(testutil.Row("fax1", "alice", "SF", "0612345678", 3))
//	    // ...
//	    testutil.AssertNoErrors(t, logs)
//	}
package shared
