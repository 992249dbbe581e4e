package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LazyBuilder produces the deferred content of a placeholder. Builders
// run at render time, after cache retrieval, so their output may depend
// on the viewer without poisoning cached markup.
type LazyBuilder func(ctx context.Context, args []string) (*Element, error)

// Registry maps callback names to lazy builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]LazyBuilder
}

// NewRegistry returns an empty lazy builder registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]LazyBuilder)}
}

// Register binds a callback name to a builder. Re-registering a name
// replaces the previous builder.
func (r *Registry) Register(name string, fn LazyBuilder) {
	r.mu.Lock()
	r.builders[name] = fn
	r.mu.Unlock()
}

func (r *Registry) lookup(name string) (LazyBuilder, bool) {
	r.mu.RLock()
	fn, ok := r.builders[name]
	r.mu.RUnlock()
	return fn, ok
}

// NewPlaceholder allocates a placeholder ref with a fresh token for the
// given callback and args. Embed PlaceholderMarkup(ref.Token) where the
// deferred content belongs.
func NewPlaceholder(callback string, args ...string) PlaceholderRef {
	return PlaceholderRef{
		Token:    uuid.NewString(),
		Callback: callback,
		Args:     args,
	}
}

// PlaceholderMarkup returns the token markup embedded in cached HTML.
// The token is a uuid, so it cannot collide with comment-sourced text.
func PlaceholderMarkup(token string) string {
	return fmt.Sprintf(`<commentd-placeholder token="%s"></commentd-placeholder>`, token)
}

// maxConcurrentBuilders bounds parallel lazy builder execution per batch.
const maxConcurrentBuilders = 8

// Resolve runs the lazy builder of every ref and returns token -> built
// markup. Builders run concurrently; an unknown callback or a failed
// builder fails the whole resolution.
func (r *Registry) Resolve(ctx context.Context, refs []PlaceholderRef) (map[string]string, error) {
	out := make(map[string]string, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBuilders)

	for _, ref := range refs {
		g.Go(func() error {
			fn, ok := r.lookup(ref.Callback)
			if !ok {
				return fmt.Errorf("no lazy builder registered for callback %q", ref.Callback)
			}
			element, err := fn(ctx, ref.Args)
			if err != nil {
				return fmt.Errorf("lazy builder %q: %w", ref.Callback, err)
			}
			markup, err := renderElementHTML(ctx, element, nil)
			if err != nil {
				return err
			}
			mu.Lock()
			out[ref.Token] = markup
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
