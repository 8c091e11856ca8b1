// Command faxanalyzer analyzes fax log exports from the command line.
//
// Usage:
//
//	faxanalyzer analyze march.csv april.xlsx --out reports --format xlsx
//	faxanalyzer analyze exports/ --workers 8
//	faxanalyzer validate 0612345678 "+33 1 23 45 67 89"
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
