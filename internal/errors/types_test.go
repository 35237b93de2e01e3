package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewError(t *testing.T) {
	tests := []struct {
		name     string
		err      *PreviewError
		expected string
	}{
		{
			name: "basic error",
			err: &PreviewError{
				Type:    ErrorTypeConfig,
				Code:    "TEST_ERROR",
				Message: "test message",
			},
			expected: "[TEST_ERROR] test message",
		},
		{
			name:     "error with partial",
			err:      NewParseError("bad", nil),
			expected: `[ERR_MALFORMED_ID] partial:"bad" malformed identifier`,
		},
		{
			name:     "error with file",
			err:      NewIOError(ErrCodeFileNotFound, "content file missing", nil).WithFile("content.yml"),
			expected: "[ERR_FILE_NOT_FOUND] content.yml content file missing",
		},
		{
			name:     "error with cause",
			err:      NewInternalError("TEST_ERROR", "test message", errors.New("underlying error")),
			expected: "[TEST_ERROR] test message: underlying error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	parseErr := NewParseError("record[post]", nil)
	resolveErr := NewResolveError("record[nope][1]", "nope")

	assert.True(t, errors.Is(parseErr, ErrMalformedID))
	assert.False(t, errors.Is(parseErr, ErrUnknownType))
	assert.True(t, errors.Is(resolveErr, ErrUnknownType))

	wrapped := fmt.Errorf("constructing partial: %w", resolveErr)
	assert.True(t, errors.Is(wrapped, ErrUnknownType))
	assert.True(t, IsResolveError(wrapped))
	assert.True(t, IsConstructionError(wrapped))
	assert.False(t, IsParseError(wrapped))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsParseError(NewParseError("x", nil)))
	assert.True(t, IsForbidden(NewForbiddenError("x", "edit_records")))
	assert.True(t, IsRecoverable(NewForbiddenError("x", "edit_records")))
	assert.False(t, IsRecoverable(NewConfigError(ErrCodeConfigInvalid, "bad")))
	assert.False(t, IsConstructionError(errors.New("plain")))
	assert.False(t, IsConstructionError(nil))
}

func TestErrorContext(t *testing.T) {
	err := NewResolveError("record[gallery][3]", "gallery")
	require.NotNil(t, err.Context)
	assert.Equal(t, "gallery", err.Context["content_type"])

	err.WithContext("record_id", 3)
	assert.Equal(t, 3, err.Context["record_id"])
}

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	l.warns = append(l.warns, msg)
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	handler := NewErrorHandler(logger)
	ctx := context.Background()

	handler.Handle(ctx, nil)
	handler.Handle(ctx, NewParseError("bad", nil))
	handler.Handle(ctx, NewForbiddenError("record[post][1][title]", "edit_records"))
	handler.Handle(ctx, NewIOError(ErrCodeFileNotFound, "missing", nil))
	handler.Handle(ctx, errors.New("plain"))

	assert.Len(t, logger.warns, 2)
	assert.Equal(t, []string{"Error occurred", "Unhandled error occurred"}, logger.errors)
}
