package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commentd/commentd/internal/models"
)

// recoverableError must stay in sync with models.RecoverableError.
var _ recoverableError = models.RecoverableError(nil)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()
	require.NoError(t, w.Close())

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

type fakeRecoverable struct {
	msg string
}

func (e *fakeRecoverable) Error() string     { return e.msg }
func (e *fakeRecoverable) ErrorCode() string { return "FAKE_ERROR" }
func (e *fakeRecoverable) Context() map[string]string {
	return map[string]string{"comment_id": "42"}
}
func (e *fakeRecoverable) SuggestedAction() string { return "Try again" }

func TestSuccess(t *testing.T) {
	resp := Success(map[string]int{"count": 3})
	assert.Equal(t, "v1", resp.SchemaVersion)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.ErrorCode)
}

func TestErrorPlain(t *testing.T) {
	resp := Error(errors.New("boom"))
	assert.Equal(t, "v1", resp.SchemaVersion)
	assert.False(t, resp.Success)
	assert.Equal(t, "boom", resp.Error)
	assert.Empty(t, resp.ErrorCode)
	assert.Nil(t, resp.ErrorContext)
	assert.Empty(t, resp.SuggestedAction)
}

func TestErrorRecoverable(t *testing.T) {
	resp := Error(&fakeRecoverable{msg: "it broke"})
	assert.False(t, resp.Success)
	assert.Equal(t, "it broke", resp.Error)
	assert.Equal(t, "FAKE_ERROR", resp.ErrorCode)
	assert.Equal(t, map[string]string{"comment_id": "42"}, resp.ErrorContext)
	assert.Equal(t, "Try again", resp.SuggestedAction)
}

func TestErrorWrappedRecoverable(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), &fakeRecoverable{msg: "inner"})
	resp := Error(wrapped)
	assert.Equal(t, "FAKE_ERROR", resp.ErrorCode)
}

func TestPrintWithCompact(t *testing.T) {
	var buf bytes.Buffer
	err := PrintWith(Config{Writer: &buf}, Success("ok"))
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.NotContains(t, out, "  ")

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", resp.Data)
}

func TestPrintWithPretty(t *testing.T) {
	var buf bytes.Buffer
	err := PrintWith(Config{Writer: &buf, Pretty: true}, Success("ok"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\n  \"success\": true")
}

func TestDefaultConfigPrettyEnv(t *testing.T) {
	t.Setenv("COMMENTD_PRETTY_JSON", "")
	assert.False(t, DefaultConfig().Pretty)

	t.Setenv("COMMENTD_PRETTY_JSON", "1")
	assert.True(t, DefaultConfig().Pretty)

	t.Setenv("COMMENTD_PRETTY_JSON", "true")
	assert.True(t, DefaultConfig().Pretty)
}

func TestPrintSuccess(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, PrintSuccess(map[string]string{"thread": "01/"}))
	})

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
}

func TestPrintError(t *testing.T) {
	out := captureStdout(t, func() {
		require.NoError(t, PrintError(errors.New("nope")))
	})

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "nope", resp.Error)
}
