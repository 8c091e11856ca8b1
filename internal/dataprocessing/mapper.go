package dataprocessing

import (
	"strconv"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// Positional schema of a FaxCloud export row. Columns not listed are
// carried in the file but ignored by the engine.
const (
	colFaxID        = 0
	colUser         = 1
	colReseller     = 2
	colMode         = 3
	colEmail        = 4
	colDateTime     = 5
	colOutbound     = 6
	colCalledNumber = 7
	colIntlFlag     = 8
	colInternalFlag = 9
	colPages        = 10
	colDuration     = 11
	colBilledPages  = 12
	colBillingType  = 13

	// ExpectedColumns is the width of a complete export row
	ExpectedColumns = 14
)

// MapRecord maps an ordered field list to a RawRecord. It never fails:
// missing columns default to empty, bad page counts to zero and unknown
// mode codes to domain.ModeUnknown.
func MapRecord(fields []string) domain.RawRecord {
	user := field(fields, colUser)
	if user == "" {
		user = domain.UnknownUser
	}
	code := field(fields, colMode)
	return domain.RawRecord{
		FaxID:        field(fields, colFaxID),
		User:         user,
		Mode:         domain.ParseMode(code),
		ModeCode:     code,
		CalledNumber: field(fields, colCalledNumber),
		PageCount:    parsePages(field(fields, colPages)),
		Timestamp:    field(fields, colDateTime),
	}
}

func field(fields []string, idx int) string {
	if idx < len(fields) {
		return fields[idx]
	}
	return ""
}

func parsePages(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
