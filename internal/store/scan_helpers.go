package store

import (
	"database/sql"

	"github.com/commentd/commentd/internal/models"
)

// scanNullString converts sql.NullString to string (empty if NULL)
func scanNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// commentColumns is the canonical select list matched by commentRowScanner.
const commentColumns = "id, entity_id, pid, subject, body, author_name, hostname, status, thread, version, created_at, changed_at"

// commentRowScanner encapsulates the common comment row scanning logic.
type commentRowScanner struct {
	comment  models.Comment
	status   int
	hostname sql.NullString
}

func (s *commentRowScanner) scan(row interface {
	Scan(dest ...any) error
}) error {
	return row.Scan(
		&s.comment.ID,
		&s.comment.EntityID,
		&s.comment.PID,
		&s.comment.Subject,
		&s.comment.Body,
		&s.comment.AuthorName,
		&s.hostname,
		&s.status,
		&s.comment.Thread,
		&s.comment.Version,
		&s.comment.CreatedAt,
		&s.comment.ChangedAt,
	)
}

func (s *commentRowScanner) hydrate() {
	s.comment.Hostname = scanNullString(s.hostname)
	s.comment.Status = models.CommentStatus(s.status)
}

func (s *commentRowScanner) getComment() *models.Comment {
	return &s.comment
}

// scanCommentRow is a helper that scans and hydrates a comment from a single row.
func scanCommentRow(row interface {
	Scan(dest ...any) error
}) (*models.Comment, error) {
	scanner := &commentRowScanner{}
	if err := scanner.scan(row); err != nil {
		return nil, err
	}
	scanner.hydrate()
	return scanner.getComment(), nil
}
