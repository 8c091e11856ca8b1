package dataprocessing

import (
	"math"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// RunAggregate accumulates statistics for one analysis run. It is not safe
// for concurrent use; each run creates its own.
type RunAggregate struct {
	total         int
	sent          int
	received      int
	unknownMode   int
	totalPages    int
	sentPages     int
	receivedPages int
	errors        int
	perUser       map[string]domain.UserStats
	perErrorKind  map[domain.ErrorKind]int
	perLineType   map[string]int
}

// NewRunAggregate returns an empty accumulator.
func NewRunAggregate() *RunAggregate {
	return &RunAggregate{
		perUser:      make(map[string]domain.UserStats),
		perErrorKind: make(map[domain.ErrorKind]int),
		perLineType:  make(map[string]int),
	}
}

// Fold adds one entry. Totals do not depend on fold order.
func (a *RunAggregate) Fold(entry domain.AnalyzedEntry) {
	a.total++
	a.totalPages += entry.PageCount

	switch entry.Mode {
	case domain.ModeSent:
		a.sent++
		a.sentPages += entry.PageCount
	case domain.ModeReceived:
		a.received++
		a.receivedPages += entry.PageCount
	default:
		a.unknownMode++
	}

	user := a.perUser[entry.User]
	user.Total++
	user.Pages += entry.PageCount
	if !entry.IsValid {
		a.errors++
		user.Errors++
	}
	a.perUser[entry.User] = user

	for _, reason := range entry.Reasons {
		a.perErrorKind[reason]++
	}

	if entry.IsValid && entry.LineType != "" {
		a.perLineType[entry.LineType]++
	}
}

// Total is the number of folded entries.
func (a *RunAggregate) Total() int { return a.total }

// Errors is the number of folded entries that failed validation.
func (a *RunAggregate) Errors() int { return a.errors }

// SuccessRatePercent is derived on every read so it never drifts from
// the counters.
func (a *RunAggregate) SuccessRatePercent() int {
	return SuccessRate(a.total, a.errors)
}

// SuccessRate returns round(100 × (total − errors) / total), or 0 for an
// empty run.
func SuccessRate(total, errors int) int {
	if total <= 0 {
		return 0
	}
	rate := int(math.Round(100 * float64(total-errors) / float64(total)))
	switch {
	case rate < 0:
		return 0
	case rate > 100:
		return 100
	}
	return rate
}

// Snapshot freezes the accumulator into read-only statistics. Later folds
// do not affect a returned snapshot.
func (a *RunAggregate) Snapshot() domain.Statistics {
	stats := domain.Statistics{
		Total:              a.total,
		Sent:               a.sent,
		Received:           a.received,
		UnknownMode:        a.unknownMode,
		TotalPages:         a.totalPages,
		SentPages:          a.sentPages,
		ReceivedPages:      a.receivedPages,
		Errors:             a.errors,
		Valid:              a.total - a.errors,
		SuccessRatePercent: a.SuccessRatePercent(),
		PerUser:            a.perUser,
		PerErrorKind:       a.perErrorKind,
		PerLineType:        a.perLineType,
	}
	return stats.Clone()
}
