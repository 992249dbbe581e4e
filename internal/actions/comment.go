package actions

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/commentd/commentd/internal/models"
	"github.com/commentd/commentd/internal/render"
	"github.com/commentd/commentd/internal/store"
)

// Invalidator receives cache tags of content touched by a mutation.
// A nil Invalidator disables invalidation (headless/test use).
type Invalidator interface {
	Invalidate(tags ...string)
}

func invalidate(inv Invalidator, tags ...string) {
	if inv != nil {
		inv.Invalidate(tags...)
	}
}

// CommentPostIdempotent posts a comment (top-level or reply) once per
// (actor_name, request_id). The created comment is recorded with the
// idempotency record, so retries with the same request id return it as
// originally created even if the row has since been deleted.
func CommentPostIdempotent(db *sql.DB, inv Invalidator, actorName, requestID string, nc store.NewComment) (*models.Comment, error) {
	if actorName == "" {
		return nil, errors.New("actor name is required")
	}
	if requestID == "" {
		return nil, errors.New("request id is required")
	}

	r, err := store.RunIdempotent(db, actorName, requestID, "comment.post", func(tx *sql.Tx) (models.Comment, error) {
		created, err := store.PostCommentTx(tx, nc)
		if err != nil {
			return models.Comment{}, err
		}
		return *created, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post comment: %w", err)
	}

	// Cheap to repeat on idempotent replay.
	invalidate(inv, render.TagCommentList(r.EntityID))
	return &r, nil
}

// CommentSetStatusIdempotent publishes or unpublishes a comment once per
// (actor_name, request_id). version <= 0 means "current version": it is
// re-read inside the transaction, and a concurrent writer triggers a bounded
// retry instead of a hard conflict.
func CommentSetStatusIdempotent(db *sql.DB, inv Invalidator, actorName, requestID string, commentID int64, status models.CommentStatus, version int) (*models.Comment, error) {
	if actorName == "" {
		return nil, errors.New("actor name is required")
	}
	if requestID == "" {
		return nil, errors.New("request id is required")
	}
	if commentID <= 0 {
		return nil, errors.New("comment id is required")
	}

	command := "comment.unpublish"
	if status.IsPublished() {
		command = "comment.publish"
	}

	r, _, err := store.RunIdempotentWithRetry(
		db,
		actorName,
		requestID,
		command,
		3,
		store.IsVersionConflict,
		func(tx *sql.Tx) (models.Comment, error) {
			v := version
			if v <= 0 {
				current, err := store.GetCommentTx(tx, commentID)
				if err != nil {
					return models.Comment{}, err
				}
				v = current.Version
			}

			updated, err := store.SetCommentStatusTx(tx, commentID, status, v)
			if err != nil {
				return models.Comment{}, err
			}
			return *updated, nil
		},
	)
	if err != nil {
		return nil, err
	}

	invalidate(inv, render.TagComment(commentID), render.TagCommentList(r.EntityID))
	return &r, nil
}

// CommentDeleteResult holds the output of a comment deletion.
type CommentDeleteResult struct {
	EntityID string `json:"entity_id"`
	Deleted  int64  `json:"deleted"`
}

// CommentDeleteIdempotent deletes a comment and its reply subtree once per
// (actor_name, request_id).
func CommentDeleteIdempotent(db *sql.DB, inv Invalidator, actorName, requestID string, commentID int64) (*CommentDeleteResult, error) {
	if actorName == "" {
		return nil, errors.New("actor name is required")
	}
	if requestID == "" {
		return nil, errors.New("request id is required")
	}
	if commentID <= 0 {
		return nil, errors.New("comment id is required")
	}

	r, err := store.RunIdempotent(db, actorName, requestID, "comment.delete", func(tx *sql.Tx) (CommentDeleteResult, error) {
		comment, err := store.GetCommentTx(tx, commentID)
		if err != nil {
			return CommentDeleteResult{}, err
		}
		deleted, err := store.DeleteCommentTx(tx, commentID)
		if err != nil {
			return CommentDeleteResult{}, err
		}
		return CommentDeleteResult{EntityID: comment.EntityID, Deleted: deleted}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete comment: %w", err)
	}

	invalidate(inv, render.TagComment(commentID), render.TagCommentList(r.EntityID))
	return &r, nil
}
