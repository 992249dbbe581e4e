package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedElement(keys, tags []string) *Element {
	return &Element{
		Markup: "cached",
		Cache: Cacheability{
			Keys:   keys,
			Tags:   tags,
			MaxAge: CacheMaxAgePermanent,
		},
	}
}

func TestCache_SetGet(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)

	keys := []string{"comment", "1", "threaded", "1"}
	el := cachedElement(keys, []string{"comment:1"})
	c.Set(keys, el)

	got, ok := c.Get(keys)
	require.True(t, ok)
	assert.Same(t, el, got)

	_, ok = c.Get([]string{"comment", "2", "threaded", "1"})
	assert.False(t, ok)
}

func TestCache_TagInvalidation(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)

	keysA := []string{"comment", "1"}
	keysB := []string{"comment", "2"}
	c.Set(keysA, cachedElement(keysA, []string{"comment:1", "comment_list:node/1"}))
	c.Set(keysB, cachedElement(keysB, []string{"comment:2", "comment_list:node/1"}))

	c.Invalidate("comment:1")

	_, ok := c.Get(keysA)
	assert.False(t, ok)
	_, ok = c.Get(keysB)
	assert.True(t, ok)

	// A shared tag drops every carrier.
	c.Invalidate("comment_list:node/1")
	_, ok = c.Get(keysB)
	assert.False(t, ok)
}

func TestCache_InvalidationBeforeSetDoesNotPoison(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)

	c.Invalidate("comment:1")

	keys := []string{"comment", "1"}
	c.Set(keys, cachedElement(keys, []string{"comment:1"}))

	// The entry records tag counters at write time, so earlier
	// invalidations don't affect it.
	_, ok := c.Get(keys)
	assert.True(t, ok)
}

func TestCache_UncacheableElementNotStored(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)

	keys := []string{"links", "1"}
	c.Set(keys, &Element{Markup: "volatile", Cache: Cacheability{Keys: keys, MaxAge: 0}})

	_, ok := c.Get(keys)
	assert.False(t, ok)
}

func TestCache_Flush(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)

	keys := []string{"comment", "1"}
	c.Set(keys, cachedElement(keys, nil))
	c.Flush()

	_, ok := c.Get(keys)
	assert.False(t, ok)
}

func TestInvalidator_Checksums(t *testing.T) {
	inv := NewInvalidator()

	tags := []string{"comment:1", "comment_list:node/1"}
	sum := inv.Checksum(tags)
	assert.True(t, inv.Valid(tags, sum))

	inv.Invalidate("comment:1")
	assert.False(t, inv.Valid(tags, sum))
	assert.True(t, inv.Valid(tags, inv.Checksum(tags)))

	// Unrelated tags are unaffected.
	other := []string{"entity:node/2"}
	otherSum := inv.Checksum(other)
	inv.Invalidate("comment:1")
	assert.True(t, inv.Valid(other, otherSum))
}

func TestMergeTags(t *testing.T) {
	merged := MergeTags([]string{"b", "a"}, []string{"a", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, merged)

	assert.Equal(t, []string{"x"}, MergeTags(nil, []string{"x"}))
	assert.Empty(t, MergeTags(nil, nil))
}

func TestCacheability_Merge(t *testing.T) {
	base := Cacheability{Tags: []string{"a"}, MaxAge: CacheMaxAgePermanent}
	base.Merge(Cacheability{Tags: []string{"b"}, MaxAge: time.Minute})

	assert.Equal(t, []string{"a", "b"}, base.Tags)
	assert.Equal(t, time.Minute, base.MaxAge)

	// An uncacheable part makes the whole uncacheable.
	base.Merge(Cacheability{MaxAge: 0})
	assert.Equal(t, time.Duration(0), base.MaxAge)
}
