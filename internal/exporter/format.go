package exporter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// ReasonSeparator joins multiple error kinds in a single cell
const ReasonSeparator = "|"

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatReasons(reasons []domain.ErrorKind) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ReasonSeparator)
}

// EntryHeaders is the column layout of entry exports
var EntryHeaders = []string{
	"fax_id",
	"user",
	"mode",
	"mode_code",
	"original_number",
	"normalized_number",
	"is_valid",
	"page_count",
	"timestamp",
	"reasons",
	"line_type",
}

// EntryRecord renders one entry in EntryHeaders order
func EntryRecord(e domain.AnalyzedEntry) []string {
	return []string{
		e.FaxID,
		e.User,
		string(e.Mode),
		e.ModeCode,
		e.OriginalNumber,
		e.NormalizedNumber,
		formatBool(e.IsValid),
		formatInt(e.PageCount),
		e.Timestamp,
		formatReasons(e.Reasons),
		e.LineType,
	}
}

// StatisticsHeaders is the column layout of statistics exports
var StatisticsHeaders = []string{"metric", "value"}

// StatisticsRecords flattens statistics into metric/value rows. Map-backed
// metrics are emitted in key order.
func StatisticsRecords(stats domain.Statistics) [][]string {
	records := [][]string{
		{"total", formatInt(stats.Total)},
		{"sent", formatInt(stats.Sent)},
		{"received", formatInt(stats.Received)},
		{"unknown_mode", formatInt(stats.UnknownMode)},
		{"total_pages", formatInt(stats.TotalPages)},
		{"sent_pages", formatInt(stats.SentPages)},
		{"received_pages", formatInt(stats.ReceivedPages)},
		{"valid", formatInt(stats.Valid)},
		{"errors", formatInt(stats.Errors)},
		{"success_rate_percent", formatInt(stats.SuccessRatePercent)},
	}

	for _, kind := range domain.ErrorKinds() {
		if n, ok := stats.PerErrorKind[kind]; ok {
			records = append(records, []string{"error_kind:" + string(kind), formatInt(n)})
		}
	}

	for _, lineType := range sortedKeys(stats.PerLineType) {
		records = append(records, []string{"line_type:" + lineType, formatInt(stats.PerLineType[lineType])})
	}

	for _, user := range sortedKeys(stats.PerUser) {
		u := stats.PerUser[user]
		records = append(records,
			[]string{"user:" + user + ":total", formatInt(u.Total)},
			[]string{"user:" + user + ":errors", formatInt(u.Errors)},
			[]string{"user:" + user + ":pages", formatInt(u.Pages)},
		)
	}
	return records
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
