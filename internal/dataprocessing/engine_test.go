package dataprocessing

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imdraks/faxcloud-analyzer/internal/shared/testutil"
	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

const exportHeader = "id,user,reseller,mode,email,datetime,outbound,called,intl,internal,pages,duration,billed,billing\n"

type stubClassifier string

func (s stubClassifier) Classify(string) string { return string(s) }

func newTestAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	logger, _ := testutil.NewTestLogger(t)
	return NewAnalyzer(logger, opts...)
}

func TestAnalyzer_EndToEnd(t *testing.T) {
	input := exportHeader +
		"fax1,alice,r1,SF,e,2024-01-01,n1,0612345678,0,0,3,10,3,std\n" +
		"fax2,bob,r1,RF,e,2024-01-01,n1,0012345,0,0,1,10,1,std\n"

	result, err := newTestAnalyzer(t, WithLineClassifier(nil)).AnalyzeCSV(strings.NewReader(input))
	require.NoError(t, err)

	wantStats := domain.Statistics{
		Total:              2,
		Sent:               1,
		Received:           1,
		TotalPages:         4,
		SentPages:          3,
		ReceivedPages:      1,
		Errors:             1,
		Valid:              1,
		SuccessRatePercent: 50,
		PerUser: map[string]domain.UserStats{
			"alice": {Total: 1, Pages: 3},
			"bob":   {Total: 1, Errors: 1, Pages: 1},
		},
		PerErrorKind: map[domain.ErrorKind]int{domain.ErrorKindWrongLength: 1},
		PerLineType:  map[string]int{},
	}
	if diff := cmp.Diff(wantStats, result.Statistics); diff != "" {
		t.Errorf("statistics mismatch (-want +got):\n%s", diff)
	}

	wantEntries := []domain.AnalyzedEntry{
		{
			FaxID: "fax1", User: "alice", Mode: domain.ModeSent, ModeCode: "SF",
			OriginalNumber: "0612345678", NormalizedNumber: "33612345678",
			IsValid: true, PageCount: 3, Timestamp: "2024-01-01",
		},
		{
			FaxID: "fax2", User: "bob", Mode: domain.ModeReceived, ModeCode: "RF",
			OriginalNumber: "0012345", NormalizedNumber: "33012345",
			PageCount: 1, Timestamp: "2024-01-01",
			Reasons: []domain.ErrorKind{domain.ErrorKindWrongLength},
		},
	}
	if diff := cmp.Diff(wantEntries, result.Entries, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	assert.NotEmpty(t, result.RunID)
}

func TestAnalyzer_DirtyRowDoesNotSwallowBatch(t *testing.T) {
	input := exportHeader +
		"fax1,\"alice\" ,r1,SF,e,2024-01-01,n1,0612345678,0,0,1,10,1,std\n" +
		"fax2,bob,r1,RF,e,2024-01-01,n1,0612345678,0,0,1,10,1,std\n" +
		"fax3,carol,r1,SF,e,2024-01-01,n1,0612345678,0,0,1,10,1,std\n"

	result, err := newTestAnalyzer(t, WithLineClassifier(nil)).AnalyzeCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, result.Entries, 3)
	assert.Equal(t, "alice", result.Entries[0].User)
	assert.Equal(t, 3, result.Statistics.Total)
	assert.Equal(t, 2, result.Statistics.Sent)
	assert.Equal(t, 1, result.Statistics.Received)
	assert.Equal(t, 0, result.Statistics.Errors)
}

func TestAnalyzer_HeaderOnly(t *testing.T) {
	_, err := newTestAnalyzer(t).AnalyzeCSV(strings.NewReader(exportHeader))

	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)
}

func TestAnalyzer_FreshRunIDs(t *testing.T) {
	input := exportHeader + "fax1,alice,r1,SF,e,d,n,0612345678,0,0,1,0,1,std\n"
	a := newTestAnalyzer(t)

	first, err := a.AnalyzeCSV(strings.NewReader(input))
	require.NoError(t, err)
	second, err := a.AnalyzeCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Statistics, second.Statistics)
}

func TestAnalyzer_LineTypes(t *testing.T) {
	input := exportHeader +
		"fax1,alice,r1,SF,e,d,n,0612345678,0,0,1,0,1,std\n" +
		"fax2,alice,r1,SF,e,d,n,,0,0,1,0,1,std\n"

	result, err := newTestAnalyzer(t, WithLineClassifier(stubClassifier("mobile"))).AnalyzeCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "mobile", result.Entries[0].LineType)
	assert.Empty(t, result.Entries[1].LineType)
	assert.Equal(t, map[string]int{"mobile": 1}, result.Statistics.PerLineType)
}

func TestPhoneLineClassifier(t *testing.T) {
	assert.Equal(t, LineTypeMobile, PhoneLineClassifier{}.Classify("33612345678"))
	assert.Equal(t, LineTypeUnknown, PhoneLineClassifier{}.Classify("33"))
}

func TestAnalyzer_Concurrent(t *testing.T) {
	a := newTestAnalyzer(t)
	const runs = 8

	var wg sync.WaitGroup
	results := make([]domain.AnalysisResult, runs)
	errs := make([]error, runs)
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var b strings.Builder
			b.WriteString(exportHeader)
			for j := 0; j <= i; j++ {
				fmt.Fprintf(&b, "fax%d,user%d,r,SF,e,d,n,06123456%02d,0,0,1,0,1,std\n", j, i, j)
			}
			results[i], errs[i] = a.AnalyzeCSV(strings.NewReader(b.String()))
		}(i)
	}
	wg.Wait()

	for i := 0; i < runs; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, i+1, results[i].Statistics.Total)
		assert.Equal(t, map[string]domain.UserStats{
			fmt.Sprintf("user%d", i): {Total: i + 1, Pages: i + 1},
		}, results[i].Statistics.PerUser)
	}
}

func TestAnalyzer_InvariantsOnNoisyInput(t *testing.T) {
	input := exportHeader +
		"1,alice,r,SF,e,d,n,0612345678,0,0,2,0,0,x\n" +
		"2,,r,RF,e,d,n,+33 6 12 34 56 78,0,0,x,0,0,x\n" +
		"3,bob,r,ZZ,e,d,n,,0,0,1,0,0,x\n" +
		"4,bob,r,SF,e,d,n,44201234567,0,0,1,0,0,x\n" +
		"5,bob\n" +
		"6,carol,r,RF,e,d,n,\"06,12,34,56,78\",0,0,5,0,0,x\n"

	result, err := newTestAnalyzer(t, WithLineClassifier(nil)).AnalyzeCSV(strings.NewReader(input))
	require.NoError(t, err)

	stats := result.Statistics
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, stats.Total, stats.Sent+stats.Received+stats.UnknownMode)
	assert.Equal(t, 2, stats.UnknownMode)

	sum := 0
	for _, n := range stats.PerErrorKind {
		sum += n
	}
	assert.Equal(t, stats.Errors, sum)
	assert.Equal(t, 3, stats.Errors)
	assert.Equal(t, 50, stats.SuccessRatePercent)
	assert.Equal(t, domain.UserStats{Total: 1, Pages: 0}, stats.PerUser[domain.UnknownUser])

	for _, e := range result.Entries {
		assert.Equal(t, e.IsValid, len(e.Reasons) == 0, e.FaxID)
	}
}
