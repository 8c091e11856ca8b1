package domain

import "strings"

// Mode is the transmission direction of a fax log row
type Mode string

const (
	ModeSent     Mode = "sent"
	ModeReceived Mode = "received"
	ModeUnknown  Mode = "unknown"
)

// Source codes used by the FaxCloud export for the mode column
const (
	ModeCodeSent     = "SF"
	ModeCodeReceived = "RF"
)

// ParseMode maps a two-letter source code to a Mode.
// Matching is exact; anything else is ModeUnknown.
func ParseMode(code string) Mode {
	switch code {
	case ModeCodeSent:
		return ModeSent
	case ModeCodeReceived:
		return ModeReceived
	default:
		return ModeUnknown
	}
}

// ErrorKind classifies why a called number failed validation
type ErrorKind string

const (
	ErrorKindEmptyNumber        ErrorKind = "EmptyNumber"
	ErrorKindWrongLength        ErrorKind = "WrongLength"
	ErrorKindInvalidCountryCode ErrorKind = "InvalidCountryCode"
	ErrorKindInvalidCharacters  ErrorKind = "InvalidCharacters"
	ErrorKindUnclassified       ErrorKind = "Unclassified"
)

// ErrorKinds lists every ErrorKind in reason-chain priority order.
func ErrorKinds() []ErrorKind {
	return []ErrorKind{
		ErrorKindEmptyNumber,
		ErrorKindWrongLength,
		ErrorKindInvalidCountryCode,
		ErrorKindInvalidCharacters,
		ErrorKindUnclassified,
	}
}

// ParseErrorKind resolves a kind name case-insensitively.
func ParseErrorKind(name string) (ErrorKind, bool) {
	for _, k := range ErrorKinds() {
		if strings.EqualFold(string(k), name) {
			return k, true
		}
	}
	return "", false
}

// UnknownUser is the bucket used for rows without a user
const UnknownUser = "UNKNOWN"

// RawRecord is one parsed log row before validation
type RawRecord struct {
	FaxID        string `json:"fax_id"`
	User         string `json:"user"`
	Mode         Mode   `json:"mode"`
	ModeCode     string `json:"mode_code"`
	CalledNumber string `json:"called_number"`
	PageCount    int    `json:"page_count"`
	Timestamp    string `json:"timestamp"`
}

// ValidationOutcome is the judgment on one called number.
// IsValid is true exactly when Reasons is empty.
type ValidationOutcome struct {
	IsValid bool        `json:"is_valid"`
	Reasons []ErrorKind `json:"reasons"`
}

// AnalyzedEntry is a RawRecord annotated with its normalized number
// and validation outcome.
type AnalyzedEntry struct {
	FaxID            string      `json:"fax_id"`
	User             string      `json:"user"`
	Mode             Mode        `json:"mode"`
	ModeCode         string      `json:"mode_code"`
	OriginalNumber   string      `json:"original_number"`
	NormalizedNumber string      `json:"normalized_number"`
	IsValid          bool        `json:"is_valid"`
	PageCount        int         `json:"page_count"`
	Timestamp        string      `json:"timestamp"`
	Reasons          []ErrorKind `json:"reasons"`
	LineType         string      `json:"line_type,omitempty"`
}

// NewAnalyzedEntry combines a record with its derived values.
func NewAnalyzedEntry(rec RawRecord, normalized string, outcome ValidationOutcome) AnalyzedEntry {
	reasons := make([]ErrorKind, len(outcome.Reasons))
	copy(reasons, outcome.Reasons)
	return AnalyzedEntry{
		FaxID:            rec.FaxID,
		User:             rec.User,
		Mode:             rec.Mode,
		ModeCode:         rec.ModeCode,
		OriginalNumber:   rec.CalledNumber,
		NormalizedNumber: normalized,
		IsValid:          outcome.IsValid,
		PageCount:        rec.PageCount,
		Timestamp:        rec.Timestamp,
		Reasons:          reasons,
	}
}

// HasReason reports whether kind is among the entry's reasons.
func (e AnalyzedEntry) HasReason(kind ErrorKind) bool {
	for _, r := range e.Reasons {
		if r == kind {
			return true
		}
	}
	return false
}

// UserStats is the per-user breakdown of a run
type UserStats struct {
	Total  int `json:"total"`
	Errors int `json:"errors"`
	Pages  int `json:"pages"`
}

// Statistics is the frozen aggregate of an analysis run
type Statistics struct {
	Total              int                  `json:"total"`
	Sent               int                  `json:"sent"`
	Received           int                  `json:"received"`
	UnknownMode        int                  `json:"unknown_mode"`
	TotalPages         int                  `json:"total_pages"`
	SentPages          int                  `json:"sent_pages"`
	ReceivedPages      int                  `json:"received_pages"`
	Errors             int                  `json:"errors"`
	Valid              int                  `json:"valid"`
	SuccessRatePercent int                  `json:"success_rate_percent"`
	PerUser            map[string]UserStats `json:"per_user"`
	PerErrorKind       map[ErrorKind]int    `json:"per_error_kind"`
	PerLineType        map[string]int       `json:"per_line_type,omitempty"`
}

// Clone returns a deep copy.
func (s Statistics) Clone() Statistics {
	out := s
	out.PerUser = make(map[string]UserStats, len(s.PerUser))
	for k, v := range s.PerUser {
		out.PerUser[k] = v
	}
	out.PerErrorKind = make(map[ErrorKind]int, len(s.PerErrorKind))
	for k, v := range s.PerErrorKind {
		out.PerErrorKind[k] = v
	}
	out.PerLineType = make(map[string]int, len(s.PerLineType))
	for k, v := range s.PerLineType {
		out.PerLineType[k] = v
	}
	return out
}

// AnalysisResult is the output bundle of one run. It is never mutated
// after assembly.
type AnalysisResult struct {
	RunID      string          `json:"run_id"`
	Statistics Statistics      `json:"aggregate"`
	Entries    []AnalyzedEntry `json:"entries"`
}

// CloneEntries deep-copies a slice of entries.
func CloneEntries(entries []AnalyzedEntry) []AnalyzedEntry {
	if entries == nil {
		return nil
	}
	out := make([]AnalyzedEntry, len(entries))
	for i, e := range entries {
		out[i] = e
		out[i].Reasons = append([]ErrorKind(nil), e.Reasons...)
		if out[i].Reasons == nil {
			out[i].Reasons = []ErrorKind{}
		}
	}
	return out
}
