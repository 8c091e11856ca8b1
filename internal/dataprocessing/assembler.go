package dataprocessing

import (
	"github.com/google/uuid"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// Assemble packages the entries and the frozen aggregate into the result
// handed to storage and rendering. Every call gets a fresh random run id,
// so identical inputs never share one. Entries keep their input order.
func Assemble(entries []domain.AnalyzedEntry, aggregate *RunAggregate) domain.AnalysisResult {
	out := domain.CloneEntries(entries)
	if out == nil {
		out = []domain.AnalyzedEntry{}
	}
	return domain.AnalysisResult{
		RunID:      uuid.New().String(),
		Statistics: aggregate.Snapshot(),
		Entries:    out,
	}
}
