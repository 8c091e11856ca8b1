package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

func entry(user string, mode domain.Mode, pages int, reasons ...domain.ErrorKind) domain.AnalyzedEntry {
	if reasons == nil {
		reasons = []domain.ErrorKind{}
	}
	return domain.AnalyzedEntry{
		User:      user,
		Mode:      mode,
		PageCount: pages,
		IsValid:   len(reasons) == 0,
		Reasons:   reasons,
	}
}

func TestRunAggregate_Fold(t *testing.T) {
	agg := NewRunAggregate()
	agg.Fold(entry("alice", domain.ModeSent, 3))
	agg.Fold(entry("alice", domain.ModeSent, 2, domain.ErrorKindWrongLength))
	agg.Fold(entry("bob", domain.ModeReceived, 1, domain.ErrorKindEmptyNumber))
	agg.Fold(entry("carol", domain.ModeUnknown, 4))

	stats := agg.Snapshot()
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Sent)
	assert.Equal(t, 1, stats.Received)
	assert.Equal(t, 1, stats.UnknownMode)
	assert.Equal(t, 10, stats.TotalPages)
	assert.Equal(t, 5, stats.SentPages)
	assert.Equal(t, 1, stats.ReceivedPages)
	assert.Equal(t, 2, stats.Errors)
	assert.Equal(t, 2, stats.Valid)
	assert.Equal(t, 50, stats.SuccessRatePercent)

	assert.Equal(t, map[string]domain.UserStats{
		"alice": {Total: 2, Errors: 1, Pages: 5},
		"bob":   {Total: 1, Errors: 1, Pages: 1},
		"carol": {Total: 1, Errors: 0, Pages: 4},
	}, stats.PerUser)
	assert.Equal(t, map[domain.ErrorKind]int{
		domain.ErrorKindWrongLength: 1,
		domain.ErrorKindEmptyNumber: 1,
	}, stats.PerErrorKind)

	assert.Equal(t, stats.Total, stats.Sent+stats.Received+stats.UnknownMode)
	sum := 0
	for _, n := range stats.PerErrorKind {
		sum += n
	}
	assert.Equal(t, stats.Errors, sum)
}

func TestRunAggregate_LineTypesCountValidOnly(t *testing.T) {
	agg := NewRunAggregate()
	valid := entry("a", domain.ModeSent, 1)
	valid.LineType = LineTypeMobile
	invalid := entry("a", domain.ModeSent, 1, domain.ErrorKindWrongLength)
	invalid.LineType = LineTypeMobile

	agg.Fold(valid)
	agg.Fold(invalid)

	assert.Equal(t, map[string]int{LineTypeMobile: 1}, agg.Snapshot().PerLineType)
}

func TestRunAggregate_SnapshotIsFrozen(t *testing.T) {
	agg := NewRunAggregate()
	agg.Fold(entry("alice", domain.ModeSent, 1))
	snap := agg.Snapshot()

	agg.Fold(entry("alice", domain.ModeSent, 1, domain.ErrorKindWrongLength))

	assert.Equal(t, 1, snap.Total)
	assert.Equal(t, domain.UserStats{Total: 1, Pages: 1}, snap.PerUser["alice"])
	assert.Empty(t, snap.PerErrorKind)
}

func TestRunAggregate_OrderIndependent(t *testing.T) {
	entries := []domain.AnalyzedEntry{
		entry("a", domain.ModeSent, 1),
		entry("b", domain.ModeReceived, 2, domain.ErrorKindInvalidCountryCode),
		entry("a", domain.ModeUnknown, 3, domain.ErrorKindWrongLength),
	}
	forward, backward := NewRunAggregate(), NewRunAggregate()
	for i := range entries {
		forward.Fold(entries[i])
		backward.Fold(entries[len(entries)-1-i])
	}
	assert.Equal(t, forward.Snapshot(), backward.Snapshot())
}

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		total, errors, want int
	}{
		{0, 0, 0},
		{1, 0, 100},
		{1, 1, 0},
		{2, 1, 50},
		{3, 1, 67},
		{3, 2, 33},
		{8, 1, 88},
		{200, 1, 100},
		{200, 199, 1},
	}
	for _, tt := range tests {
		got := SuccessRate(tt.total, tt.errors)
		assert.Equal(t, tt.want, got, "total=%d errors=%d", tt.total, tt.errors)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestRunAggregate_Empty(t *testing.T) {
	agg := NewRunAggregate()
	assert.Zero(t, agg.SuccessRatePercent())
	stats := agg.Snapshot()
	assert.Zero(t, stats.Total)
	assert.NotNil(t, stats.PerUser)
	assert.NotNil(t, stats.PerErrorKind)
}
