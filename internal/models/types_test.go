package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommentStatus(t *testing.T) {
	assert.True(t, CommentPublished.IsPublished())
	assert.False(t, CommentUnpublished.IsPublished())
	assert.Equal(t, "published", CommentPublished.String())
	assert.Equal(t, "unpublished", CommentUnpublished.String())
}

func TestIsReply(t *testing.T) {
	assert.False(t, (&Comment{}).IsReply())
	assert.True(t, (&Comment{PID: 3}).IsReply())
}

func TestViewModeValid(t *testing.T) {
	assert.True(t, ViewModeThreaded.Valid())
	assert.True(t, ViewModeFlat.Valid())
	assert.False(t, ViewMode("").Valid())
	assert.False(t, ViewMode("tree").Valid())
}

func TestDefaultSubject(t *testing.T) {
	assert.Equal(t, "short body", DefaultSubject("short body"))
	assert.Equal(t, "first line", DefaultSubject("first line\nsecond line"))
	assert.Equal(t, "trimmed", DefaultSubject("  trimmed  \nmore"))
	assert.Equal(t, "", DefaultSubject("\nstarts with newline"))
}

func TestDefaultSubject_TruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := DefaultSubject(long)
	assert.Equal(t, strings.Repeat("a", 63)+"…", got)

	multibyte := strings.Repeat("ü", 100)
	got = DefaultSubject(multibyte)
	assert.Equal(t, strings.Repeat("ü", 63)+"…", got)

	exact := strings.Repeat("b", 64)
	assert.Equal(t, exact, DefaultSubject(exact))
}
