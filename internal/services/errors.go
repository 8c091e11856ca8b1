package services

import (
	"fmt"

	apierrors "github.com/Imdraks/faxcloud-analyzer/internal/errors"
	"github.com/Imdraks/faxcloud-analyzer/internal/storage"
)

// Report service errors
var (
	ErrReportNotFound    = storage.ErrNotFound
	ErrUnsupportedFormat = apierrors.ErrUnsupportedFormat

	// General errors
	ErrInvalidInput = apierrors.ErrInvalidInput
	ErrEmptyUpload  = fmt.Errorf("%w: uploaded file is empty", apierrors.ErrInvalidInput)
	ErrNoFiles      = fmt.Errorf("%w: no input files", apierrors.ErrInvalidInput)
)
