package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is the generic sentinel for missing tenant-scoped resources.
var ErrNotFound = errors.New("not found")

// ValidationError covers malformed input rejected before any transaction
// opens: bad identifiers, non-positive quantities, unknown enum values.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PreflightError reports every missing/violated run-creation precondition
// at once so the caller can fix the upstream data in one pass. No run is
// created when it is returned.
type PreflightError struct {
	Missing          []string
	ValidationErrors []string
}

func (e *PreflightError) Error() string {
	parts := []string{}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, "; "))
	}
	if len(e.ValidationErrors) > 0 {
		parts = append(parts, "invalid: "+strings.Join(e.ValidationErrors, "; "))
	}
	if len(parts) == 0 {
		return "preflight failed"
	}
	return "preflight failed: " + strings.Join(parts, " | ")
}

// WorkflowViolationError reports an attempt to bypass the run state
// machine: repricing an approved current run without permission and a
// reason, or a detected multiple-current integrity violation.
type WorkflowViolationError struct {
	Reason       string
	CurrentRunID uuid.UUID
}

func (e *WorkflowViolationError) Error() string {
	if e.CurrentRunID != uuid.Nil {
		return fmt.Sprintf("workflow violation: %s (current run %s)", e.Reason, e.CurrentRunID)
	}
	return "workflow violation: " + e.Reason
}

// RunLockedError is raised by the edit-path guard when the request's
// current run is locked; edits require a new version.
type RunLockedError struct {
	RunID    uuid.UUID
	LockedAt *time.Time
	LockedBy string
}

func (e *RunLockedError) Error() string {
	return fmt.Sprintf("pricing run %s is locked (by %q)", e.RunID, e.LockedBy)
}
