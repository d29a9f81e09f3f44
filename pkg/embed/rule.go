package embed

// Tree is the capability a document representation offers to the rewrite rule.
// URL reads the link target of a URL-bearing node; Replace swaps the node for
// raw markup in the same position.
type Tree[N any] interface {
	URL(node N) (string, bool)
	Replace(node N, e Embed)
}

// TransformNode rewrites node in place when it carries an embeddable URL.
// It reports whether a replacement was made. Non-matching nodes are left
// untouched and Replace is not called for them.
func TransformNode[N any](tree Tree[N], node N, m *Manager) bool {
	rawURL, ok := tree.URL(node)
	if !ok {
		return false
	}

	e, err := m.Embed(rawURL)
	if err != nil {
		return false
	}

	tree.Replace(node, e)
	return true
}

// Observer is notified about the decisions a host adapter makes.
type Observer interface {
	Embedded(e Embed)
	Skipped(rawURL string)
}

// NopObserver discards every notification.
type NopObserver struct{}

// Embedded implements Observer.
func (NopObserver) Embedded(Embed) {}

// Skipped implements Observer.
func (NopObserver) Skipped(string) {}
