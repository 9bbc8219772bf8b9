package contextutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	withDetails := NewAppError(ErrorCodeInvalidStatus, SeverityWarn, "Invalid feedback status", `unknown status "archived"`)
	assert.Equal(t, `INVALID_STATUS: Invalid feedback status - unknown status "archived"`, withDetails.Error())
	assert.Equal(t, "MOVE_IN_FLIGHT: A move for this record is already in progress", ErrMoveInFlight.Error())
}

func TestAppError_MatchesByCode(t *testing.T) {
	err := WrapErrorf(ErrRecordNotFound, "feedback with ID %s not found", "rec-1")

	assert.True(t, errors.Is(err, ErrRecordNotFound))
	assert.False(t, errors.Is(err, ErrInvalidStatus))
	assert.True(t, IsError(err, ErrRecordNotFound))
	assert.False(t, IsError(errors.New("not found"), ErrRecordNotFound))
}

func TestWrapError_KeepsDomainCode(t *testing.T) {
	assert.Nil(t, WrapError(nil, "failed to load board"))

	wrapped := WrapError(ErrInvalidWindow, "failed to rank contributors")
	var appErr *AppError
	require.True(t, AsError(wrapped, &appErr))
	assert.Equal(t, ErrorCodeInvalidWindow, appErr.Code)
	assert.Equal(t, SeverityWarn, appErr.Severity)
	assert.Equal(t, "failed to rank contributors", appErr.Message)
	assert.Equal(t, ErrInvalidWindow, appErr.Unwrap())
}

func TestWrapError_PlainErrorBecomesInternal(t *testing.T) {
	cause := errors.New("disk I/O error")
	wrapped := WrapError(cause, "failed to list feedback")

	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "disk I/O error")
}

func TestWrapErrorf_PercentWKeepsChain(t *testing.T) {
	cause := errors.New("yaml: line 3")
	err := WrapErrorf(ErrInternalError, "failed to load config: %w", cause)

	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to load config: yaml: line 3")

	plain := WrapErrorf(fmt.Errorf("bad"), "moving %s", "BUG-001")
	assert.Equal(t, "moving BUG-001", plain.(*AppError).Message)
}

func TestWrapWithCode(t *testing.T) {
	assert.Nil(t, WrapWithCode(nil, ErrorCodePersistenceFailed, "ignored"))

	cause := errors.New("connection reset")
	err := WrapWithCode(cause, ErrorCodePersistenceFailed, "failed to persist status change")

	assert.Equal(t, ErrorCodePersistenceFailed, GetErrorCode(err))
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
}

func TestErrorWithContextf(t *testing.T) {
	err := ErrorWithContextf("service %s not found", "board")
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(err))
	assert.Contains(t, err.Error(), "service board not found")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"persistence failure", WrapWithCode(errors.New("reset"), ErrorCodePersistenceFailed, "failed"), true},
		{"move in flight", ErrMoveInFlight, true},
		{"store unreachable", WrapWithCode(errors.New("refused"), ErrorCodeDatabaseConnection, "failed to ping"), true},
		{"health check failed", NewAppError(ErrorCodeServiceUnavailable, SeverityError, "unhealthy", ""), true},
		{"invalid status", ErrInvalidStatus, false},
		{"transition not allowed", ErrTransitionNotAllowed, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestAppError_ToJSON(t *testing.T) {
	warn := NewAppErrorWithCause(ErrorCodeInvalidInput, SeverityWarn, "Invalid request body", "id, from and to are required", errors.New("EOF"))
	body := warn.ToJSON()
	assert.Equal(t, "INVALID_INPUT", body["code"])
	assert.Equal(t, "warn", body["severity"])
	assert.Equal(t, "id, from and to are required", body["details"])
	assert.Equal(t, false, body["retryable"])
	assert.NotContains(t, body, "cause")

	failed := WrapWithCode(errors.New("reset"), ErrorCodePersistenceFailed, "failed to persist status change").(*AppError)
	body = failed.ToJSON()
	assert.Equal(t, true, body["retryable"])
	assert.Equal(t, "reset", body["cause"])
}
