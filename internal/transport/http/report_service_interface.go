package http

import (
	"context"
	"io"

	"github.com/Imdraks/faxcloud-analyzer/internal/services"
	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// ReportServiceInterface defines the report operations used by the handlers
type ReportServiceInterface interface {
	Analyze(ctx context.Context, req services.UploadRequest) (*domain.StoredReport, error)
	Get(ctx context.Context, id string) (*domain.StoredReport, error)
	List(ctx context.Context, limit, offset int) ([]domain.ReportSummary, error)
	Delete(ctx context.Context, id string) error
	Entries(ctx context.Context, id string, filter services.EntryFilter) (*services.EntryPage, error)
	Render(report *domain.StoredReport, format domain.ReportFormat, w io.Writer) error
}
