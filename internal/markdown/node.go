package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"embedder/pkg/embed"
)

// KindEmbed is the NodeKind of Embed.
var KindEmbed = ast.NewNodeKind("Embed")

// Embed is a block node holding raw embed markup.
type Embed struct {
	ast.BaseBlock
	Provider     string
	ResourceKind string
	Src          string
	Markup       string
}

// NewEmbed returns a new Embed node for e.
func NewEmbed(e embed.Embed) *Embed {
	return &Embed{
		Provider:     e.Provider,
		ResourceKind: e.Kind,
		Src:          e.Src,
		Markup:       e.Markup,
	}
}

// Kind implements ast.Node.
func (n *Embed) Kind() ast.NodeKind {
	return KindEmbed
}

// Dump implements ast.Node.
func (n *Embed) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Provider":     n.Provider,
		"ResourceKind": n.ResourceKind,
		"Src":          n.Src,
	}, nil)
}

type embedRenderer struct{}

func (r *embedRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindEmbed, r.renderEmbed)
}

// renderEmbed writes the markup verbatim; it is produced by us, not the author.
func (r *embedRenderer) renderEmbed(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	e := n.(*Embed)
	_, _ = w.WriteString(e.Markup)
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}
