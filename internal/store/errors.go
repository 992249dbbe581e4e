package store

import (
	"errors"
	"strconv"

	"github.com/commentd/commentd/internal/models"
)

// RecoverableError is an alias for models.RecoverableError, retained so
// store callers can type-assert without importing models.
type RecoverableError = models.RecoverableError

// ErrCommentNotFound is the sentinel matched by NotFoundError.Is.
var ErrCommentNotFound = errors.New("comment not found")

// NotFoundError reports a missing comment with structured context.
type NotFoundError struct {
	CommentID int64
}

func (e *NotFoundError) Error() string     { return "comment not found" }
func (e *NotFoundError) ErrorCode() string { return "COMMENT_NOT_FOUND" }
func (e *NotFoundError) Context() map[string]string {
	return map[string]string{
		"comment_id": strconv.FormatInt(e.CommentID, 10),
	}
}
func (e *NotFoundError) SuggestedAction() string {
	return "verify the id with: commentd comment list --entity <entity-id>"
}
func (e *NotFoundError) Is(target error) bool { return target == ErrCommentNotFound }

// VersionConflictError replaces ErrVersionConflict with structured context.
type VersionConflictError struct {
	Entity  string
	ID      string
	Version int
}

func (e *VersionConflictError) Error() string {
	return "version conflict: record was modified by another process"
}
func (e *VersionConflictError) ErrorCode() string { return "VERSION_CONFLICT" }
func (e *VersionConflictError) Context() map[string]string {
	return map[string]string{
		"entity":  e.Entity,
		"id":      e.ID,
		"version": strconv.Itoa(e.Version),
	}
}
func (e *VersionConflictError) SuggestedAction() string {
	return "re-read the comment and retry with its current version"
}
func (e *VersionConflictError) Is(target error) bool { return target == ErrVersionConflict }

// IdempotencyInProgressError replaces ErrIdempotencyInProgress with structured context.
type IdempotencyInProgressError struct {
	ActorName string
	RequestID string
	Command   string
}

func (e *IdempotencyInProgressError) Error() string     { return "idempotency in progress" }
func (e *IdempotencyInProgressError) ErrorCode() string { return "IDEMPOTENCY_IN_PROGRESS" }
func (e *IdempotencyInProgressError) Context() map[string]string {
	return map[string]string{
		"actor_name": e.ActorName,
		"request_id": e.RequestID,
		"command":    e.Command,
	}
}
func (e *IdempotencyInProgressError) SuggestedAction() string {
	return "wait and retry, or use a new --request-id"
}
func (e *IdempotencyInProgressError) Is(target error) bool {
	return target == ErrIdempotencyInProgress
}
