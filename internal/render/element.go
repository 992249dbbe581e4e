// Package render assembles comment batches into render elements: it
// annotates each comment with thread-indentation deltas, bubbles cache
// tags to the batch, and defers expensive per-viewer fragments (action
// links) behind placeholder tokens resolved at render time.
package render

import (
	"sort"
	"time"
)

// CacheMaxAgePermanent marks an element cacheable until tag invalidation.
const CacheMaxAgePermanent = time.Duration(-1)

// Cacheability carries the caching metadata of a render element.
type Cacheability struct {
	// Keys identify the cached fragment; an element without keys is not
	// cached on its own.
	Keys []string `json:"keys,omitempty"`
	// Tags name the data the fragment depends on; invalidating a tag
	// drops every fragment carrying it.
	Tags []string `json:"tags,omitempty"`
	// MaxAge bounds the fragment lifetime. CacheMaxAgePermanent defers
	// entirely to tags.
	MaxAge time.Duration `json:"max_age"`
}

// AddTags merges tags into the set, deduplicated and sorted.
func (c *Cacheability) AddTags(tags ...string) {
	c.Tags = MergeTags(c.Tags, tags)
}

// Merge folds another element's cacheability into this one: tags union,
// lifetime shrinks to the smaller bound. A parent is at most as cacheable
// as its least cacheable child.
func (c *Cacheability) Merge(other Cacheability) {
	c.AddTags(other.Tags...)
	if other.MaxAge != CacheMaxAgePermanent && (c.MaxAge == CacheMaxAgePermanent || other.MaxAge < c.MaxAge) {
		c.MaxAge = other.MaxAge
	}
}

// MergeTags returns the sorted union of two tag lists.
func MergeTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, tag := range list {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}

// PlaceholderRef binds a placeholder token embedded in element markup to
// the lazy builder that produces its real content.
type PlaceholderRef struct {
	Token    string   `json:"token"`
	Callback string   `json:"callback"`
	Args     []string `json:"args,omitempty"`
}

// Element is one node of a render tree. Markup is trusted HTML produced
// by this package; all comment-sourced text is escaped before it enters
// an element.
type Element struct {
	// Wrapper is an HTML tag name; empty renders children and markup bare.
	Wrapper  string            `json:"wrapper,omitempty"`
	Attr     map[string]string `json:"attr,omitempty"`
	Markup   string            `json:"markup,omitempty"`
	Children []*Element        `json:"children,omitempty"`
	// Placeholders lists deferred fragments whose tokens appear in
	// Markup. They survive the render cache; substitution happens after
	// retrieval so cached markup stays viewer-independent.
	Placeholders []PlaceholderRef `json:"placeholders,omitempty"`
	Cache        Cacheability     `json:"cache"`
}

// AllPlaceholders returns the placeholder refs of the element and all
// its descendants.
func (e *Element) AllPlaceholders() []PlaceholderRef {
	refs := append([]PlaceholderRef{}, e.Placeholders...)
	for _, child := range e.Children {
		refs = append(refs, child.AllPlaceholders()...)
	}
	return refs
}
