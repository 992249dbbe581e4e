package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ID Strategy:
// - Comments use int64 (auto-increment): threads are materialized paths over
//   sibling ordinals, which need a single writer ordering inserts anyway.
// - Entity IDs are opaque strings (e.g. "node_7"): the records comments attach
//   to live outside this system.

// CommentStatus represents the moderation state of a comment.
type CommentStatus int

// Comment status constants. Values match the stored integer column.
const (
	CommentUnpublished CommentStatus = 0
	CommentPublished   CommentStatus = 1
)

// IsPublished returns true if the comment is visible to readers.
func (s CommentStatus) IsPublished() bool {
	return s == CommentPublished
}

// String returns the status name used in CLI flags and JSON output.
func (s CommentStatus) String() string {
	if s.IsPublished() {
		return "published"
	}
	return "unpublished"
}

// Comment represents a single comment in a reply tree.
type Comment struct {
	ID         int64         `json:"id"`
	EntityID   string        `json:"entity_id"`
	PID        int64         `json:"pid,omitempty"`
	Subject    string        `json:"subject"`
	Body       string        `json:"body"`
	AuthorName string        `json:"author_name"`
	Hostname   string        `json:"hostname,omitempty"`
	Status     CommentStatus `json:"status"`
	Thread     string        `json:"thread"`
	Version    int           `json:"version"`
	CreatedAt  time.Time     `json:"created_at"`
	ChangedAt  time.Time     `json:"changed_at"`
}

// IsReply returns true if the comment has a parent comment.
func (c *Comment) IsReply() bool {
	return c.PID != 0
}

// subjectMaxLen is the stored subject column width.
const subjectMaxLen = 64

// DefaultSubject derives a subject from the body: the first line, trimmed
// and truncated on a rune boundary. Used when a comment is posted without
// an explicit subject.
func DefaultSubject(body string) string {
	line := body
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= subjectMaxLen {
		return line
	}
	runes := []rune(line)
	return strings.TrimSpace(string(runes[:subjectMaxLen-1])) + "…"
}

// ViewMode selects how a comment batch is assembled for display.
type ViewMode string

// View mode constants.
const (
	ViewModeThreaded ViewMode = "threaded"
	ViewModeFlat     ViewMode = "flat"
)

// Valid returns true for a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewModeThreaded || m == ViewModeFlat
}

// DisplayConfig carries the view-display settings a render batch is built
// against.
type DisplayConfig struct {
	Mode     ViewMode `json:"mode"`
	PageSize int      `json:"page_size"`
	// ShowUnpublished includes unpublished comments (moderation view).
	ShowUnpublished bool `json:"show_unpublished,omitempty"`
}
