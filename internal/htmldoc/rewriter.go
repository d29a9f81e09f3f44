// Package htmldoc applies the embed rewrite rule to already rendered HTML.
package htmldoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"embedder/pkg/embed"
)

// Rewriter replaces paragraphs that hold nothing but a media link with embed markup.
type Rewriter struct {
	manager  *embed.Manager
	observer embed.Observer
}

// NewRewriter creates a rewriter. A nil observer is replaced by embed.NopObserver.
func NewRewriter(manager *embed.Manager, observer embed.Observer) *Rewriter {
	if manager == nil {
		manager = embed.NewManager()
	}
	if observer == nil {
		observer = embed.NopObserver{}
	}
	return &Rewriter{manager: manager, observer: observer}
}

// Fragment rewrites an HTML fragment and returns the fragment.
func (r *Rewriter) Fragment(src io.Reader) (string, error) {
	doc, err := r.rewrite(src)
	if err != nil {
		return "", err
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("failed to render fragment: %w", err)
	}
	return out, nil
}

// Document rewrites a full HTML document.
func (r *Rewriter) Document(src io.Reader) (string, error) {
	doc, err := r.rewrite(src)
	if err != nil {
		return "", err
	}

	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}
	return out, nil
}

func (r *Rewriter) rewrite(src io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	tree := &selectionTree{observer: r.observer}
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if embed.TransformNode[*goquery.Selection](tree, p, r.manager) {
			return
		}
		if rawURL, ok := tree.URL(p); ok {
			r.observer.Skipped(rawURL)
		}
	})

	return doc, nil
}

// selectionTree implements embed.Tree over goquery selections.
type selectionTree struct {
	observer embed.Observer
}

// URL returns the href of a <p> whose only content is a link labelled with its own target.
func (t *selectionTree) URL(p *goquery.Selection) (string, bool) {
	children := p.Children()
	if children.Length() != 1 || !children.Is("a") {
		return "", false
	}

	if _, hasTitle := children.Attr("title"); hasTitle {
		return "", false
	}

	href, ok := children.Attr("href")
	if !ok {
		return "", false
	}

	label := strings.TrimSpace(children.Text())
	if label != href || strings.TrimSpace(p.Text()) != label {
		return "", false
	}

	return href, true
}

// Replace swaps the paragraph for the embed markup.
func (t *selectionTree) Replace(p *goquery.Selection, e embed.Embed) {
	p.ReplaceWithHtml(e.Markup)
	t.observer.Embedded(e)
}
