package render

import (
	"context"
	"fmt"
	"html"
	"strconv"

	"github.com/commentd/commentd/internal/models"
	"github.com/commentd/commentd/internal/thread"
)

// LinksCallback is the lazy builder name for a comment's action links.
// Registered by NewDefaultRegistry; embedding programs may replace it.
const LinksCallback = "comment.links"

// TagComment returns the cache tag of a single comment.
func TagComment(id int64) string {
	return "comment:" + strconv.FormatInt(id, 10)
}

// TagCommentList returns the cache tag of an entity's comment listing.
// Invalidated whenever a comment is added to or removed from the entity.
func TagCommentList(entityID string) string {
	return "comment_list:" + entityID
}

// TagEntity returns the cache tag of the commented entity itself.
func TagEntity(entityID string) string {
	return "entity:" + entityID
}

// Item is one comment of a built batch.
type Item struct {
	Comment *models.Comment `json:"comment"`
	// Indent is the signed indentation change relative to the previous
	// item: open Indent wrappers when positive, close -Indent when
	// negative. Always zero in flat mode.
	Indent  int      `json:"indent"`
	Element *Element `json:"element"`
}

// Batch is the rendered form of an entity's comment listing.
type Batch struct {
	EntityID string          `json:"entity_id"`
	Mode     models.ViewMode `json:"mode"`
	Items    []*Item         `json:"items"`
	// FinalIndent closes the wrappers left open by the last item.
	// Zero or negative.
	FinalIndent int          `json:"final_indent"`
	Cache       Cacheability `json:"cache"`
}

// Builder assembles comment batches into render elements, consulting the
// render cache per comment.
type Builder struct {
	cache    *Cache
	registry *Registry
}

// NewBuilder returns a Builder using the given render cache and lazy
// builder registry.
func NewBuilder(cache *Cache, registry *Registry) *Builder {
	return &Builder{cache: cache, registry: registry}
}

// BuildBatch assembles the render batch for comments of entityID, already
// in display order (threaded: thread order; flat: posting order).
//
// Indentation bookkeeping: the first item opens its full depth, every
// later item carries the delta from its predecessor, and FinalIndent
// closes whatever the last item left open. Cache tags of every item are
// bubbled into the batch.
func (b *Builder) BuildBatch(ctx context.Context, entityID string, comments []*models.Comment, display models.DisplayConfig) (*Batch, error) {
	mode := display.Mode
	if mode == "" {
		mode = models.ViewModeThreaded
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid view mode %q", mode)
	}

	batch := &Batch{
		EntityID: entityID,
		Mode:     mode,
		Cache: Cacheability{
			Tags:   []string{TagCommentList(entityID), TagEntity(entityID)},
			MaxAge: CacheMaxAgePermanent,
		},
	}

	prevDepth := 0
	for i, comment := range comments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		indent := 0
		if mode == models.ViewModeThreaded {
			depth := thread.Depth(comment.Thread)
			if i == 0 {
				indent = depth
			} else {
				indent = depth - prevDepth
			}
			prevDepth = depth
		}

		element, err := b.buildComment(comment, mode)
		if err != nil {
			return nil, err
		}

		batch.Items = append(batch.Items, &Item{
			Comment: comment,
			Indent:  indent,
			Element: element,
		})
		batch.Cache.Merge(element.Cache)
	}

	if mode == models.ViewModeThreaded {
		batch.FinalIndent = -prevDepth
	}

	return batch, nil
}

// buildComment returns the render element for one comment, from cache
// when possible.
func (b *Builder) buildComment(comment *models.Comment, mode models.ViewMode) (*Element, error) {
	keys := []string{
		"comment",
		strconv.FormatInt(comment.ID, 10),
		string(mode),
		strconv.Itoa(comment.Version),
	}

	if b.cache != nil {
		if cached, ok := b.cache.Get(keys); ok {
			return cached, nil
		}
	}

	links := NewPlaceholder(LinksCallback, strconv.FormatInt(comment.ID, 10))

	element := &Element{
		Wrapper: "article",
		Attr: map[string]string{
			"class":           commentClass(comment),
			"data-comment-id": strconv.FormatInt(comment.ID, 10),
		},
		Markup: fmt.Sprintf(
			`<header><span class="author">%s</span><h3 class="subject">%s</h3></header>`+
				`<div class="content">%s</div>%s`,
			html.EscapeString(comment.AuthorName),
			html.EscapeString(comment.Subject),
			html.EscapeString(comment.Body),
			PlaceholderMarkup(links.Token),
		),
		Placeholders: []PlaceholderRef{links},
		Cache: Cacheability{
			Keys: keys,
			Tags: []string{
				TagComment(comment.ID),
				TagCommentList(comment.EntityID),
			},
			MaxAge: CacheMaxAgePermanent,
		},
	}

	if b.cache != nil {
		b.cache.Set(keys, element)
	}
	return element, nil
}

func commentClass(comment *models.Comment) string {
	class := "comment"
	if !comment.Status.IsPublished() {
		class += " comment-unpublished"
	}
	if comment.IsReply() {
		class += " comment-reply"
	}
	return class
}

// NewDefaultRegistry returns a registry with the built-in action links
// builder: reply and permalink links for a comment id.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(LinksCallback, func(ctx context.Context, args []string) (*Element, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("comment links builder expects one arg, got %d", len(args))
		}
		id := html.EscapeString(args[0])
		return &Element{
			Wrapper: "ul",
			Attr:    map[string]string{"class": "comment-links"},
			Markup: fmt.Sprintf(
				`<li><a href="?reply=%s" rel="nofollow">Reply</a></li>`+
					`<li><a href="#comment-%s">Permalink</a></li>`,
				id, id,
			),
			// Viewer-dependent fragments are never cached standalone.
			Cache: Cacheability{MaxAge: 0},
		}, nil
	})
	return r
}
