package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		wantMsg string
		wantTyp ErrorType
	}{
		{
			name:    "not found",
			err:     NewNotFoundError("movie alpha"),
			wantMsg: "[NOT_FOUND] movie alpha not found",
			wantTyp: ErrTypeNotFound,
		},
		{
			name:    "missing file with hint",
			err:     NewMissingFileError("movie aggregates", "data/processed/movie_aggregates.csv").WithHint("run `filmstats aggregate` first"),
			wantMsg: "[NOT_FOUND] missing movie aggregates at data/processed/movie_aggregates.csv (run `filmstats aggregate` first)",
			wantTyp: ErrTypeNotFound,
		},
		{
			name:    "storage error with cause",
			err:     NewStorageError("failed to write csv", fmt.Errorf("disk full")),
			wantMsg: "[STORAGE] failed to write csv: disk full",
			wantTyp: ErrTypeStorage,
		},
		{
			name:    "validation",
			err:     NewAppValidationError("duplicate movie_id in movies table"),
			wantMsg: "[VALIDATION] duplicate movie_id in movies table",
			wantTyp: ErrTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, IsType(tt.err, tt.wantTyp))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := fmt.Errorf("load ratings: %w", NewParsingError("bad csv", cause))

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsType(err, ErrTypeParsing))
	assert.False(t, IsType(err, ErrTypeStorage))
	assert.False(t, IsType(cause, ErrTypeParsing))
}

func TestMissingFileErrorContext(t *testing.T) {
	err := NewMissingFileError("ratings", "/data/ratings.csv")
	assert.Equal(t, "/data/ratings.csv", err.Context["path"])
}

func TestAPIErrors(t *testing.T) {
	err := ErrValidation("limit", "must be between 1 and 500")
	assert.Equal(t, 400, err.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", err.ErrorCode)
	assert.Equal(t, ValidationError{Field: "limit", Message: "must be between 1 and 500"}, err.Details)

	nf := NotFoundError("report")
	assert.Equal(t, 404, nf.StatusCode)
	assert.Equal(t, "report not found", nf.Error())
}
