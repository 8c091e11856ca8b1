package storage

import (
	"context"
	"errors"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

// ErrNotFound is returned when no report has the requested identifier
var ErrNotFound = errors.New("report not found")

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ReportStore persists analyzed reports
type ReportStore interface {
	// Save stores a copy of report under a new identifier and returns it.
	Save(ctx context.Context, report *domain.StoredReport) (string, error)
	Get(ctx context.Context, id string) (*domain.StoredReport, error)
	// List returns summaries, newest first.
	List(ctx context.Context, opts ListOptions) ([]domain.ReportSummary, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// ListOptions pages through report summaries
type ListOptions struct {
	Limit  int
	Offset int
}

// normalized clamps the options to sane bounds
func (o ListOptions) normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
