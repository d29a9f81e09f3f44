package embed

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrNoTransformer is returned when no registered transformer accepts a URL.
	ErrNoTransformer = errors.New("no transformer found for URL")
)

// cachedEmbed remembers rejections as well as matches.
type cachedEmbed struct {
	embed Embed
	ok    bool
}

// Manager coordinates the registered transformers.
type Manager struct {
	transformers []Transformer
	cache        *lru.Cache[string, cachedEmbed]
}

// Option configures a Manager.
type Option func(*Manager)

// WithCacheSize memoizes Embed results for up to size distinct URLs.
// A size of zero or less disables the cache.
func WithCacheSize(size int) Option {
	return func(m *Manager) {
		if size <= 0 {
			m.cache = nil
			return
		}
		cache, err := lru.New[string, cachedEmbed](size)
		if err != nil {
			return
		}
		m.cache = cache
	}
}

// WithTransformers replaces the default transformer list.
func WithTransformers(transformers ...Transformer) Option {
	return func(m *Manager) {
		m.transformers = transformers
	}
}

// NewManager creates a manager with all supported transformers.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		transformers: []Transformer{
			NewSpotify(),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ShouldTransform checks if any transformer accepts the URL.
func (m *Manager) ShouldTransform(rawURL string) bool {
	_, err := m.Embed(rawURL)
	return err == nil
}

// Embed returns the replacement for rawURL from the first transformer that accepts it.
func (m *Manager) Embed(rawURL string) (Embed, error) {
	if m.cache != nil {
		if cached, ok := m.cache.Get(rawURL); ok {
			if !cached.ok {
				return Embed{}, ErrNoTransformer
			}
			return cached.embed, nil
		}
	}

	e, err := m.embed(rawURL)

	if m.cache != nil {
		m.cache.Add(rawURL, cachedEmbed{embed: e, ok: err == nil})
	}

	return e, err
}

func (m *Manager) embed(rawURL string) (Embed, error) {
	for _, t := range m.transformers {
		if !t.ShouldTransform(rawURL) {
			continue
		}
		e, err := t.Embed(rawURL)
		if err != nil {
			continue
		}
		return e, nil
	}

	return Embed{}, ErrNoTransformer
}

// CacheLen returns the number of memoized URLs.
func (m *Manager) CacheLen() int {
	if m.cache == nil {
		return 0
	}
	return m.cache.Len()
}
