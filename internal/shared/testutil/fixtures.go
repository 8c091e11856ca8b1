package testutil

import (
	"strconv"
	"strings"
)

// ExportHeader is the header line of a FaxCloud CSV export
const ExportHeader = "id,user,reseller,mode,email,datetime,outbound,called,intl,internal,pages,duration,billed,billing"

// Row builds a 14-column export row with filler for ignored columns.
func Row(faxID, user, modeCode, calledNumber string, pages int) []string {
	return []string{
		faxID, user, "reseller", modeCode, user + "@example.com", "2024-01-01 10:00:00",
		"0100000000", calledNumber, "0", "0", strconv.Itoa(pages), "30", strconv.Itoa(pages), "standard",
	}
}

// CSVExport renders rows under ExportHeader. Fields containing a comma or
// a quote are quoted.
func CSVExport(rows ...[]string) string {
	var b strings.Builder
	b.WriteString(ExportHeader)
	b.WriteByte('\n')
	for _, row := range rows {
		for i, f := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			if strings.ContainsAny(f, ",\"\n") {
				f = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
			}
			b.WriteString(f)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// SampleExport is a small export with one valid sent fax and one
// received fax whose number is too short.
func SampleExport() string {
	return CSVExport(
		Row("fax1", "alice", "SF", "0612345678", 3),
		Row("fax2", "bob", "RF", "0012345", 1),
	)
}
