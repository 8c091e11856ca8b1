package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
	}{
		{"invalid file", ErrInvalidFile, http.StatusUnprocessableEntity},
		{"unsupported format", ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{"too large", ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"report not found", ErrReportNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body APIError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.apiError.ErrorCode, body.ErrorCode)
			assert.Equal(t, tt.apiError.Message, body.Message)
		})
	}
}

func TestAPIError_Wrapping(t *testing.T) {
	err := errors.Join(errors.New("context"), ErrInvalidFile)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "INVALID_FILE", apiErr.ErrorCode)
	assert.Equal(t, ErrInvalidFile.Message, ErrInvalidFile.Error())
}

func TestHelpers(t *testing.T) {
	err := InvalidRequestWithError(errors.New("bad multipart"))
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "bad multipart", err.Details)

	err = ErrValidation("period_start", "must be YYYY-MM-DD")
	assert.Equal(t, ValidationError{Field: "period_start", Message: "must be YYYY-MM-DD"}, err.Details)

	err = NotFoundError("Report")
	assert.Equal(t, "Report not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.StatusCode)

	err = NewValidationErrors([]ValidationError{{Field: "limit", Message: "too big"}})
	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 1)

	err = NewValidationError("bad status")
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, ErrUnsupportedMedia)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "UNSUPPORTED_FORMAT", resp.Error.ErrorCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusUnprocessableEntity, TypeInvalidFile, "Invalid File", "", "/api/reports").
		WithExtension("line", 3).
		WithExtension("status", "ignored")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeInvalidFile, got["type"])
	assert.Equal(t, float64(422), got["status"])
	assert.Equal(t, float64(3), got["line"])
	assert.Equal(t, "/api/reports", got["instance"])
	assert.NotContains(t, got, "detail")
}

func TestProblemDetails_Render(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	pd := NewProblemDetails(http.StatusNotFound, TypeReportNotFound, "Report Not Found", "gone", "/api/reports/x")
	require.NoError(t, render.Render(w, r, pd))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}
