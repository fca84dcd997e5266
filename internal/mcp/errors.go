package mcp

import (
	"errors"
	"fmt"

	"github.com/hmahadik/traq/internal/domain/activity"
	"github.com/hmahadik/traq/internal/domain/assignment"
	"github.com/hmahadik/traq/internal/domain/project"
	"github.com/hmahadik/traq/internal/domain/session"
	"github.com/hmahadik/traq/internal/domain/timeline"
	"github.com/hmahadik/traq/internal/repository"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects for valid ids"}
	case errors.Is(err, project.ErrPatternNotFound):
		return &APIError{Code: "PATTERN_NOT_FOUND", Message: "pattern not found", RecoveryHint: "Call list_patterns for valid ids"}
	case errors.Is(err, project.ErrDuplicateName):
		return &APIError{Code: "DUPLICATE_NAME", Message: "a project with this name already exists", RecoveryHint: "Pick another name"}
	case errors.Is(err, project.ErrInvalidPattern):
		return &APIError{Code: "INVALID_PATTERN", Message: err.Error(), RecoveryHint: "Check the regex or glob syntax"}
	case errors.Is(err, activity.ErrEventNotFound):
		return &APIError{Code: "EVENT_NOT_FOUND", Message: "activity event not found", RecoveryHint: "Check event_type and event_id"}
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "session not found", RecoveryHint: "Call list_sessions for valid ids"}
	case errors.Is(err, session.ErrSessionOpen):
		return &APIError{Code: "SESSION_OPEN", Message: "session is still open", RecoveryHint: "Wait until the session closes"}
	case errors.Is(err, session.ErrStaleEvent):
		return &APIError{Code: "STALE_EVENT", Message: err.Error()}
	case errors.Is(err, assignment.ErrDiscoveryDisabled):
		return &APIError{Code: "DISCOVERY_DISABLED", Message: "project auto-discovery is disabled", RecoveryHint: "Enable assignment.auto_discover"}
	case errors.Is(err, timeline.ErrInvalidDate), errors.Is(err, timeline.ErrInvalidRange):
		return &APIError{Code: "INVALID_RANGE", Message: err.Error(), RecoveryHint: "Dates are YYYY-MM-DD, times RFC3339"}
	case errors.Is(err, timeline.ErrInvalidCategory):
		return &APIError{Code: "INVALID_CATEGORY", Message: err.Error(), RecoveryHint: "Use focus, meetings, comms, or other"}
	case errors.Is(err, repository.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "entity already exists"}
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, assignment.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, repository.ErrBusy):
		return &APIError{Code: "BUSY", Message: "storage is busy", RecoveryHint: "Retry the call"}
	default:
		return nil
	}
}
