package store

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commentd/commentd/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := InitDBWithPath(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func post(t *testing.T, db *sql.DB, entityID string, pid int64, body string) *models.Comment {
	t.Helper()
	c, err := PostComment(db, NewComment{
		EntityID:   entityID,
		PID:        pid,
		Body:       body,
		AuthorName: "tester",
	})
	require.NoError(t, err)
	return c
}

func TestPostComment_TopLevelThreads(t *testing.T) {
	db := setupTestDB(t)

	c1 := post(t, db, "node/1", 0, "first")
	c2 := post(t, db, "node/1", 0, "second")
	c3 := post(t, db, "node/1", 0, "third")

	assert.Equal(t, "01/", c1.Thread)
	assert.Equal(t, "02/", c2.Thread)
	assert.Equal(t, "03/", c3.Thread)

	// Numbering is per entity.
	other := post(t, db, "node/2", 0, "elsewhere")
	assert.Equal(t, "01/", other.Thread)
}

func TestPostComment_ReplyThreads(t *testing.T) {
	db := setupTestDB(t)

	root := post(t, db, "node/1", 0, "root")
	r1 := post(t, db, "node/1", root.ID, "reply one")
	r2 := post(t, db, "node/1", root.ID, "reply two")
	nested := post(t, db, "node/1", r1.ID, "nested")

	assert.Equal(t, "01.00/", r1.Thread)
	assert.Equal(t, "01.01/", r2.Thread)
	assert.Equal(t, "01.00.00/", nested.Thread)

	assert.Equal(t, root.ID, r1.PID)
	assert.True(t, r1.IsReply())
	assert.False(t, root.IsReply())
}

func TestPostComment_DefaultSubject(t *testing.T) {
	db := setupTestDB(t)

	c := post(t, db, "node/1", 0, "First line becomes the subject\nrest of body")
	assert.Equal(t, "First line becomes the subject", c.Subject)

	explicit, err := PostComment(db, NewComment{
		EntityID:   "node/1",
		Subject:    "My subject",
		Body:       "body",
		AuthorName: "tester",
	})
	require.NoError(t, err)
	assert.Equal(t, "My subject", explicit.Subject)
}

func TestPostComment_Validation(t *testing.T) {
	db := setupTestDB(t)

	_, err := PostComment(db, NewComment{Body: "x", AuthorName: "a"})
	assert.ErrorContains(t, err, "entity id is required")

	_, err = PostComment(db, NewComment{EntityID: "node/1", Body: "  \n ", AuthorName: "a"})
	assert.ErrorContains(t, err, "body is required")

	_, err = PostComment(db, NewComment{EntityID: "node/1", Body: "x"})
	assert.ErrorContains(t, err, "author name is required")
}

func TestPostComment_ParentChecks(t *testing.T) {
	db := setupTestDB(t)

	root := post(t, db, "node/1", 0, "root")

	_, err := PostComment(db, NewComment{
		EntityID:   "node/2",
		PID:        root.ID,
		Body:       "wrong entity",
		AuthorName: "a",
	})
	assert.Error(t, err)

	_, err = PostComment(db, NewComment{
		EntityID:   "node/1",
		PID:        9999,
		Body:       "missing parent",
		AuthorName: "a",
	})
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestGetComment_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetComment(db, 42)
	assert.ErrorIs(t, err, ErrCommentNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int64(42), nf.CommentID)
	assert.Equal(t, "COMMENT_NOT_FOUND", nf.ErrorCode())
}

func TestListComments_ThreadedOrder(t *testing.T) {
	db := setupTestDB(t)

	c1 := post(t, db, "node/1", 0, "first root")
	c2 := post(t, db, "node/1", 0, "second root")
	r1 := post(t, db, "node/1", c1.ID, "reply to first")
	r2 := post(t, db, "node/1", c2.ID, "reply to second")
	n1 := post(t, db, "node/1", r1.ID, "nested under first reply")

	list, err := ListComments(db, "node/1", ListOptions{Mode: models.ViewModeThreaded})
	require.NoError(t, err)

	var order []int64
	for _, c := range list {
		order = append(order, c.ID)
	}
	// Replies follow their parent regardless of posting order.
	assert.Equal(t, []int64{c1.ID, r1.ID, n1.ID, c2.ID, r2.ID}, order)
}

func TestListComments_FlatOrder(t *testing.T) {
	db := setupTestDB(t)

	c1 := post(t, db, "node/1", 0, "first")
	c2 := post(t, db, "node/1", 0, "second")
	r1 := post(t, db, "node/1", c1.ID, "late reply to first")

	list, err := ListComments(db, "node/1", ListOptions{Mode: models.ViewModeFlat})
	require.NoError(t, err)

	var order []int64
	for _, c := range list {
		order = append(order, c.ID)
	}
	// Flat mode is posting order: the reply sorts after both roots.
	assert.Equal(t, []int64{c1.ID, c2.ID, r1.ID}, order)
}

func TestListComments_PublishedFilter(t *testing.T) {
	db := setupTestDB(t)

	post(t, db, "node/1", 0, "visible")
	_, err := PostComment(db, NewComment{
		EntityID:    "node/1",
		Body:        "queued",
		AuthorName:  "tester",
		Unpublished: true,
	})
	require.NoError(t, err)

	list, err := ListComments(db, "node/1", ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	all, err := ListComments(db, "node/1", ListOptions{IncludeUnpublished: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListComments_Paging(t *testing.T) {
	db := setupTestDB(t)

	for i := 0; i < 5; i++ {
		post(t, db, "node/1", 0, "comment")
	}

	page, err := ListComments(db, "node/1", ListOptions{Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "03/", page[0].Thread)
	assert.Equal(t, "04/", page[1].Thread)
}

func TestCountComments(t *testing.T) {
	db := setupTestDB(t)

	post(t, db, "node/1", 0, "a")
	post(t, db, "node/1", 0, "b")
	_, err := PostComment(db, NewComment{
		EntityID:    "node/1",
		Body:        "queued",
		AuthorName:  "tester",
		Unpublished: true,
	})
	require.NoError(t, err)

	all, err := CountComments(db, "node/1", false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all)

	published, err := CountComments(db, "node/1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), published)
}

func TestSetCommentStatus(t *testing.T) {
	db := setupTestDB(t)

	c := post(t, db, "node/1", 0, "moderate me")
	require.True(t, c.Status.IsPublished())

	updated, err := SetCommentStatus(db, c.ID, models.CommentUnpublished, c.Version)
	require.NoError(t, err)
	assert.False(t, updated.Status.IsPublished())
	assert.Equal(t, c.Version+1, updated.Version)

	// Stale version is a conflict, not a silent overwrite.
	_, err = SetCommentStatus(db, c.ID, models.CommentPublished, c.Version)
	require.ErrorIs(t, err, ErrVersionConflict)

	var vc *VersionConflictError
	require.ErrorAs(t, err, &vc)
	assert.Equal(t, "VERSION_CONFLICT", vc.ErrorCode())
}

func TestSetCommentStatus_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := SetCommentStatus(db, 77, models.CommentPublished, 1)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestDeleteComment_Subtree(t *testing.T) {
	db := setupTestDB(t)

	root := post(t, db, "node/1", 0, "root")
	r1 := post(t, db, "node/1", root.ID, "reply")
	n1 := post(t, db, "node/1", r1.ID, "nested")
	keep := post(t, db, "node/1", 0, "untouched")

	deleted, err := DeleteComment(db, root.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	for _, id := range []int64{root.ID, r1.ID, n1.ID} {
		_, err := GetComment(db, id)
		assert.ErrorIs(t, err, ErrCommentNotFound)
	}

	got, err := GetComment(db, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, "untouched", got.Body)
}

func TestDeleteComment_LeafOnly(t *testing.T) {
	db := setupTestDB(t)

	root := post(t, db, "node/1", 0, "root")
	r1 := post(t, db, "node/1", root.ID, "reply")

	deleted, err := DeleteComment(db, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = GetComment(db, root.ID)
	require.NoError(t, err)
}
