package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/commentd/commentd/internal/models"
	"github.com/commentd/commentd/internal/thread"
)

// threadOrderExpr is the threaded display ordering: the thread value with
// its "/" terminator stripped, so parents sort immediately before their
// replies ("/" sorts above ".", the trimmed value does not).
const threadOrderExpr = "substr(thread, 1, length(thread) - 1)"

// NewComment carries the caller-supplied fields of a comment to post.
type NewComment struct {
	EntityID   string
	PID        int64 // 0 = top-level
	Subject    string
	Body       string
	AuthorName string
	Hostname   string
	// Unpublished posts the comment into the moderation queue.
	Unpublished bool
}

func (n *NewComment) validate() error {
	if n.EntityID == "" {
		return errors.New("entity id is required")
	}
	if strings.TrimSpace(n.Body) == "" {
		return errors.New("comment body is required")
	}
	if n.AuthorName == "" {
		return errors.New("author name is required")
	}
	return nil
}

// PostComment inserts a comment, materializing its thread from its parent
// and siblings. The single-connection pool serializes sibling ordinal
// assignment; the unique (entity_id, thread) index backstops it.
func PostComment(db *sql.DB, nc NewComment) (*models.Comment, error) {
	var comment *models.Comment

	err := Transact(db, func(tx *sql.Tx) error {
		created, err := PostCommentTx(tx, nc)
		if err != nil {
			return err
		}
		comment = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	return comment, nil
}

// PostCommentTx inserts and returns a comment inside an existing transaction.
func PostCommentTx(tx *sql.Tx, nc NewComment) (*models.Comment, error) {
	if err := nc.validate(); err != nil {
		return nil, err
	}

	th, err := nextThreadTx(tx, nc.EntityID, nc.PID)
	if err != nil {
		return nil, err
	}

	subject := nc.Subject
	if subject == "" {
		subject = models.DefaultSubject(nc.Body)
	}

	status := models.CommentPublished
	if nc.Unpublished {
		status = models.CommentUnpublished
	}

	result, err := Insert("comments").
		Fields("entity_id", "pid", "subject", "body", "author_name", "hostname", "status", "thread").
		Values(nc.EntityID, nc.PID, subject, nc.Body, nc.AuthorName, nc.Hostname, int(status), th).
		Execute(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get inserted comment id: %w", err)
	}

	return getCommentByQuerier(tx, id)
}

// nextThreadTx computes the thread for a new comment under pid (0 for
// top-level) on entityID.
func nextThreadTx(tx *sql.Tx, entityID string, pid int64) (string, error) {
	if pid == 0 {
		// Highest existing top-level thread; string MAX is numeric order
		// for single-segment alphadecimal values.
		var max sql.NullString
		err := tx.QueryRow(`
			SELECT MAX(thread) FROM comments
			WHERE entity_id = ? AND thread NOT LIKE '%.%'
		`, entityID).Scan(&max)
		if err != nil {
			return "", fmt.Errorf("failed to find max top-level thread: %w", err)
		}
		if !max.Valid {
			return thread.FirstRoot(), nil
		}
		return thread.Next(max.String)
	}

	parent, err := getCommentByQuerier(tx, pid)
	if err != nil {
		return "", fmt.Errorf("parent comment: %w", err)
	}
	if parent.EntityID != entityID {
		return "", fmt.Errorf("parent comment %d belongs to entity %q, not %q", pid, parent.EntityID, entityID)
	}

	// Highest existing thread directly under the parent (one level deep).
	// Thread values only contain [0-9a-z./], so LIKE needs no escaping.
	prefix := strings.TrimSuffix(parent.Thread, thread.Terminator)
	var max sql.NullString
	err = tx.QueryRow(`
		SELECT MAX(thread) FROM comments
		WHERE entity_id = ? AND thread LIKE ? AND thread NOT LIKE ?
	`, entityID, prefix+".%", prefix+".%.%").Scan(&max)
	if err != nil {
		return "", fmt.Errorf("failed to find max sibling thread: %w", err)
	}
	if !max.Valid {
		return thread.FirstChild(parent.Thread), nil
	}
	return thread.Next(max.String)
}

// GetComment retrieves a comment by ID.
func GetComment(db *sql.DB, id int64) (*models.Comment, error) {
	return getCommentByQuerier(db, id)
}

// GetCommentTx retrieves a comment by ID inside an existing transaction.
func GetCommentTx(tx *sql.Tx, id int64) (*models.Comment, error) {
	return getCommentByQuerier(tx, id)
}

func getCommentByQuerier(q Querier, id int64) (*models.Comment, error) {
	row, err := Select("comments", "").
		Fields("", strings.Split(commentColumns, ", ")...).
		Condition("id", "=", id).
		ExecuteRow(q)
	if err != nil {
		return nil, err
	}

	comment, err := scanCommentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{CommentID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query comment: %w", err)
	}

	return comment, nil
}

// ListOptions filter and page a comment listing.
type ListOptions struct {
	Mode models.ViewMode
	// IncludeUnpublished lists moderation-queue comments too.
	IncludeUnpublished bool
	Offset             int
	Limit              int // <= 0 means no limit
}

// ListComments retrieves the comments of an entity in display order:
// thread order for threaded mode, posting order for flat mode.
func ListComments(db *sql.DB, entityID string, opts ListOptions) ([]*models.Comment, error) {
	if entityID == "" {
		return nil, errors.New("entity id is required")
	}
	mode := opts.Mode
	if mode == "" {
		mode = models.ViewModeThreaded
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid view mode %q", mode)
	}

	sel := Select("comments", "").
		Fields("", strings.Split(commentColumns, ", ")...).
		Condition("entity_id", "=", entityID)

	if !opts.IncludeUnpublished {
		sel.Condition("status", "=", int(models.CommentPublished))
	}

	if mode == models.ViewModeThreaded {
		sel.OrderByExpression(threadOrderExpr + " ASC")
	} else {
		sel.OrderBy("created_at", "ASC").OrderBy("id", "ASC")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	sel.Range(opts.Offset, limit)

	rows, err := sel.Execute(db)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []*models.Comment
	for rows.Next() {
		scanner := &commentRowScanner{}
		if scanErr := scanner.scan(rows); scanErr != nil {
			return nil, fmt.Errorf("failed to scan comment row: %w", scanErr)
		}
		scanner.hydrate()
		comments = append(comments, scanner.getComment())
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", rowsErr)
	}

	return comments, nil
}

// CountComments returns the number of comments on an entity.
func CountComments(db *sql.DB, entityID string, publishedOnly bool) (int64, error) {
	sel := Select("comments", "").Condition("entity_id", "=", entityID)
	if publishedOnly {
		sel.Condition("status", "=", int(models.CommentPublished))
	}
	return sel.ExecuteCount(db)
}

// SetCommentStatus publishes or unpublishes a comment using optimistic
// concurrency control. Returns VersionConflictError if the version has
// changed since read.
func SetCommentStatus(db *sql.DB, id int64, status models.CommentStatus, version int) (*models.Comment, error) {
	var comment *models.Comment
	err := Transact(db, func(tx *sql.Tx) error {
		updated, err := SetCommentStatusTx(tx, id, status, version)
		if err != nil {
			return err
		}
		comment = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// SetCommentStatusTx updates status and bumps version inside an existing transaction.
func SetCommentStatusTx(tx *sql.Tx, id int64, status models.CommentStatus, version int) (*models.Comment, error) {
	affected, err := Update("comments").
		Set("status", int(status)).
		SetExpression("version", "version + 1").
		SetExpression("changed_at", "CURRENT_TIMESTAMP").
		Condition("id", "=", id).
		Condition("version", "=", version).
		Execute(tx)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment status: %w", err)
	}
	if affected == 0 {
		// Distinguish missing comment from stale version.
		if _, getErr := getCommentByQuerier(tx, id); getErr != nil {
			return nil, getErr
		}
		return nil, &VersionConflictError{Entity: "comment", ID: fmt.Sprintf("%d", id), Version: version}
	}

	return getCommentByQuerier(tx, id)
}

// DeleteComment removes a comment together with its whole reply subtree.
// Returns the number of deleted comments.
func DeleteComment(db *sql.DB, id int64) (int64, error) {
	var deleted int64
	err := Transact(db, func(tx *sql.Tx) error {
		n, err := DeleteCommentTx(tx, id)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// DeleteCommentTx deletes the subtree inside an existing transaction.
func DeleteCommentTx(tx *sql.Tx, id int64) (int64, error) {
	comment, err := getCommentByQuerier(tx, id)
	if err != nil {
		return 0, err
	}

	// Two deletes: the comment itself, then everything under it. A single
	// LIKE on prefix+"%" would also match siblings like "010/" for "01/".
	prefix := strings.TrimSuffix(comment.Thread, thread.Terminator)
	self, err := Delete("comments").
		Condition("entity_id", "=", comment.EntityID).
		Condition("thread", "=", comment.Thread).
		Execute(tx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comment: %w", err)
	}
	subtree, err := Delete("comments").
		Condition("entity_id", "=", comment.EntityID).
		Condition("thread", "LIKE", prefix+".%").
		Execute(tx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete comment replies: %w", err)
	}
	return self + subtree, nil
}
