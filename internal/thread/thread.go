// Package thread implements the materialized-path encoding used to order
// nested comment replies. A thread is a dot-delimited sequence of
// alphadecimal segments with a trailing "/" terminator, e.g. "01/",
// "01.00/", "01.00.01/". Each segment is length-prefixed, so lexicographic
// order on the terminator-stripped value equals depth-first tree order:
// sorting on substr(thread, 1, length(thread)-1) is the threaded display
// order.
package thread

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Terminator closes every stored thread value. It marks the value as
// complete so prefix matching cannot confuse "01/" with "010/". Ordering
// must strip it: "/" sorts above ".", the trimmed value does not.
const Terminator = "/"

// ErrInvalidThread is returned for malformed thread values.
var ErrInvalidThread = errors.New("invalid thread value")

// IntToAlphadecimal encodes n as lowercase base-36 prefixed with a length
// character (len 1 -> '0', len 2 -> '1', ...). The prefix makes shorter
// numbers sort before longer ones: "00" < "0z" < "110".
func IntToAlphadecimal(n int64) string {
	if n < 0 {
		// Segments count siblings; negative input is a caller bug.
		panic(fmt.Sprintf("thread: negative segment value %d", n))
	}
	num := strconv.FormatInt(n, 36)
	return string(rune('0'+len(num)-1)) + num
}

// AlphadecimalToInt decodes a segment produced by IntToAlphadecimal.
func AlphadecimalToInt(s string) (int64, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("%w: segment %q too short", ErrInvalidThread, s)
	}
	want := int(s[0]-'0') + 1
	if want < 1 || want != len(s)-1 {
		return 0, fmt.Errorf("%w: segment %q has wrong length prefix", ErrInvalidThread, s)
	}
	n, err := strconv.ParseInt(s[1:], 36, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: segment %q: %v", ErrInvalidThread, s, err)
	}
	return n, nil
}

// Segments splits a thread into its alphadecimal segments, dropping the
// terminator. Segments("01.00/") == ["01", "00"].
func Segments(t string) []string {
	return strings.Split(strings.TrimSuffix(t, Terminator), ".")
}

// Depth returns the reply depth encoded in t: 0 for a top-level comment,
// 1 for a direct reply, and so on.
func Depth(t string) int {
	return strings.Count(strings.TrimSuffix(t, Terminator), ".")
}

// Valid reports whether t is a well-formed thread value.
func Valid(t string) bool {
	if !strings.HasSuffix(t, Terminator) {
		return false
	}
	for _, seg := range Segments(t) {
		if _, err := AlphadecimalToInt(seg); err != nil {
			return false
		}
	}
	return true
}

// Parent returns the thread of t's parent comment, or "" when t is
// top-level.
func Parent(t string) string {
	segs := Segments(t)
	if len(segs) <= 1 {
		return ""
	}
	return strings.Join(segs[:len(segs)-1], ".") + Terminator
}

// Next returns the thread of the next sibling: the last segment is
// incremented and every other segment is preserved.
func Next(t string) (string, error) {
	segs := Segments(t)
	last := segs[len(segs)-1]
	n, err := AlphadecimalToInt(last)
	if err != nil {
		return "", err
	}
	segs[len(segs)-1] = IntToAlphadecimal(n + 1)
	return strings.Join(segs, ".") + Terminator, nil
}

// FirstChild returns the thread of the first reply under parent.
// Child ordinals start at zero.
func FirstChild(parent string) string {
	return strings.TrimSuffix(parent, Terminator) + "." + IntToAlphadecimal(0) + Terminator
}

// FirstRoot is the thread assigned to the first top-level comment on an
// entity. Top-level ordinals start at one.
func FirstRoot() string {
	return IntToAlphadecimal(1) + Terminator
}

// HasPrefix reports whether t lies inside the subtree rooted at root,
// including root itself. Used to delete a comment together with all of
// its replies.
func HasPrefix(t, root string) bool {
	if t == root {
		return true
	}
	return strings.HasPrefix(t, strings.TrimSuffix(root, Terminator)+".")
}
