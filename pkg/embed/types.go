// Package embed turns links to embeddable media into iframe markup that can replace them in a document tree.
package embed

// Embed is the replacement produced for a link that a Transformer accepts.
type Embed struct {
	Provider string // Name of the transformer that produced it.
	Kind     string // Provider specific resource kind (e.g. "track").
	Src      string // iframe source URL.
	Markup   string // Ready-to-insert HTML.
}

// Transformer defines the interface for turning provider URLs into embed markup.
type Transformer interface {
	// Name identifies the provider.
	Name() string

	// ShouldTransform checks if this transformer can embed the given URL.
	ShouldTransform(rawURL string) bool

	// Embed builds the replacement for a URL accepted by ShouldTransform.
	Embed(rawURL string) (Embed, error)
}
