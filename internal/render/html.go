package render

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
)

// indentOpen and indentClose wrap nested replies in threaded mode.
const (
	indentOpen  = `<div class="indented">`
	indentClose = `</div>`
)

// RenderHTML renders a built batch to an HTML string. Placeholder tokens
// are resolved through the builder's registry here, after any cached
// markup has been retrieved.
func (b *Builder) RenderHTML(ctx context.Context, batch *Batch) (string, error) {
	var refs []PlaceholderRef
	for _, item := range batch.Items {
		refs = append(refs, item.Element.AllPlaceholders()...)
	}

	resolved, err := b.registry.Resolve(ctx, refs)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, item := range batch.Items {
		writeIndent(&sb, item.Indent)
		markup, err := renderElementHTML(ctx, item.Element, resolved)
		if err != nil {
			return "", err
		}
		sb.WriteString(markup)
	}
	writeIndent(&sb, batch.FinalIndent)
	return sb.String(), nil
}

// writeIndent opens wrappers for a positive delta and closes them for a
// negative one.
func writeIndent(sb *strings.Builder, indent int) {
	for ; indent > 0; indent-- {
		sb.WriteString(indentOpen)
	}
	for ; indent < 0; indent++ {
		sb.WriteString(indentClose)
	}
}

// renderElementHTML renders a single element, substituting resolved
// placeholder tokens. A nil resolved map leaves tokens in place.
func renderElementHTML(ctx context.Context, e *Element, resolved map[string]string) (string, error) {
	if e == nil {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	markup := e.Markup
	for _, ref := range e.Placeholders {
		if resolved == nil {
			continue
		}
		content, ok := resolved[ref.Token]
		if !ok {
			return "", fmt.Errorf("unresolved placeholder token for callback %q", ref.Callback)
		}
		markup = strings.ReplaceAll(markup, PlaceholderMarkup(ref.Token), content)
	}

	var children strings.Builder
	for _, child := range e.Children {
		childHTML, err := renderElementHTML(ctx, child, resolved)
		if err != nil {
			return "", err
		}
		children.WriteString(childHTML)
	}

	inner := markup + children.String()
	if e.Wrapper == "" {
		return inner, nil
	}
	return "<" + e.Wrapper + renderAttrs(e.Attr) + ">" + inner + "</" + e.Wrapper + ">", nil
}

// renderAttrs renders attributes sorted by name for stable output.
func renderAttrs(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(" ")
		sb.WriteString(name)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(attrs[name]))
		sb.WriteString(`"`)
	}
	return sb.String()
}
