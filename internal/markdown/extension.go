// Package markdown binds the embed rewrite rule to goldmark documents.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"embedder/pkg/embed"
)

const (
	// transformerPriority runs the rewrite after the built-in transformers.
	transformerPriority = 999
	// rendererPriority is the same priority goldmark uses for extension renderers.
	rendererPriority = 500
)

// Option configures the extension.
type Option func(*Extension)

// WithManager sets the manager used to classify links.
func WithManager(m *embed.Manager) Option {
	return func(e *Extension) {
		e.manager = m
	}
}

// WithObserver registers an observer for embed decisions.
func WithObserver(o embed.Observer) Option {
	return func(e *Extension) {
		if o != nil {
			e.observer = o
		}
	}
}

// Extension is a goldmark.Extender that replaces standalone media links with embeds.
type Extension struct {
	manager  *embed.Manager
	observer embed.Observer
}

// New creates the extension. Without WithManager a default manager is used.
func New(opts ...Option) *Extension {
	e := &Extension{
		observer: embed.NopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.manager == nil {
		e.manager = embed.NewManager()
	}
	return e
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&transformer{manager: e.manager, observer: e.observer}, transformerPriority),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&embedRenderer{}, rendererPriority),
	))
}

type transformer struct {
	manager  *embed.Manager
	observer embed.Observer
}

// Transform walks the document once, top to bottom, and swaps every
// paragraph holding a single embeddable link for an Embed node.
func (t *transformer) Transform(node *ast.Document, reader text.Reader, _ parser.Context) {
	doc := &document{source: reader.Source()}

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if !isBlockOfInlines(n) {
			return ast.WalkContinue, nil
		}

		if !embed.TransformNode[ast.Node](doc, n, t.manager) {
			if rawURL, isLink := doc.URL(n); isLink {
				t.observer.Skipped(rawURL)
			}
		}

		return ast.WalkSkipChildren, nil
	})

	// Replacing during the walk would detach the node being visited.
	for _, r := range doc.pending {
		parent := r.block.Parent()
		if parent == nil {
			continue
		}
		parent.ReplaceChild(parent, r.block, NewEmbed(r.embed))
		t.observer.Embedded(r.embed)
	}
}

// isBlockOfInlines matches paragraphs and the text blocks of tight list items.
func isBlockOfInlines(n ast.Node) bool {
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return true
	}
	return false
}

type replacement struct {
	block ast.Node
	embed embed.Embed
}

// document implements embed.Tree over goldmark paragraphs and text blocks.
type document struct {
	source  []byte
	pending []replacement
}

// URL returns the link target when the paragraph consists of nothing but a bare URL.
func (d *document) URL(p ast.Node) (string, bool) {
	if !isBlockOfInlines(p) || p.ChildCount() == 0 {
		return "", false
	}

	switch child := p.FirstChild().(type) {
	case *ast.AutoLink:
		if p.ChildCount() != 1 || child.AutoLinkType != ast.AutoLinkURL {
			return "", false
		}
		return string(child.URL(d.source)), true
	case *ast.Link:
		if p.ChildCount() != 1 || len(child.Title) > 0 {
			return "", false
		}
		label, ok := d.plainText(child)
		if !ok || label != string(child.Destination) {
			return "", false
		}
		return label, true
	case *ast.Text:
		value, ok := d.plainText(p)
		if !ok || value == "" || strings.ContainsAny(value, " \t\n") {
			return "", false
		}
		return value, true
	}

	return "", false
}

// Replace queues the substitution; Transform applies it after the walk.
func (d *document) Replace(n ast.Node, e embed.Embed) {
	d.pending = append(d.pending, replacement{block: n, embed: e})
}

// plainText concatenates the children of n when they are all text nodes.
func (d *document) plainText(n ast.Node) (string, bool) {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t, ok := c.(*ast.Text)
		if !ok || t.SoftLineBreak() || t.HardLineBreak() {
			return "", false
		}
		buf.Write(t.Segment.Value(d.source))
	}
	return strings.TrimSpace(buf.String()), buf.Len() > 0
}
