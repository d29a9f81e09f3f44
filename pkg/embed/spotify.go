package embed

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

const (
	// SpotifyHost is the only host whose links are embedded.
	SpotifyHost = "open.spotify.com"
	// SpotifyName is the provider name reported in Embed values.
	SpotifyName = "spotify"

	// iframe dimensions are fixed.
	iframeWidth  = "100%"
	iframeHeight = "380"

	embedPrefix        = "embed"
	embedPodcastPrefix = "embed-podcast"
	// expectedPathSegments is the number of segments in /{kind}/{id}.
	expectedPathSegments = 2
)

// embedPrefixes selects the embed namespace per kind. Podcast resources are
// served from a different endpoint than music resources.
var embedPrefixes = map[ResourceKind]string{
	KindAlbum:    embedPrefix,
	KindArtist:   embedPrefix,
	KindEpisode:  embedPodcastPrefix,
	KindPlaylist: embedPrefix,
	KindShow:     embedPodcastPrefix,
	KindTrack:    embedPrefix,
}

var (
	// ErrNotSpotifyURL is returned when building an embed for a URL that Classify rejects.
	ErrNotSpotifyURL = errors.New("not an embeddable Spotify URL")
)

// ClassifiedURL is a Spotify URL reduced to its resource kind and identifier.
type ClassifiedURL struct {
	Kind ResourceKind
	ID   string // Taken verbatim from the path; never empty, never contains '/'.
}

// Classify decides whether rawURL points at an embeddable Spotify resource.
// Anything that does not parse, is not on the canonical host or does not have
// exactly a /{kind}/{id} path is rejected. Existing /embed/... and
// /embed-podcast/... URLs are rejected as well since those prefixes are not kinds.
func Classify(rawURL string) (ClassifiedURL, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ClassifiedURL{}, false
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return ClassifiedURL{}, false
	}

	if u.Port() != "" || !isSpotifyHost(u.Hostname()) {
		return ClassifiedURL{}, false
	}

	path := u.EscapedPath()
	if !strings.HasPrefix(path, "/") {
		return ClassifiedURL{}, false
	}

	parts := strings.Split(path[1:], "/")
	if len(parts) != expectedPathSegments || parts[1] == "" {
		return ClassifiedURL{}, false
	}

	kind, ok := ParseResourceKind(parts[0])
	if !ok {
		return ClassifiedURL{}, false
	}

	return ClassifiedURL{Kind: kind, ID: parts[1]}, true
}

// isSpotifyHost compares the normalized host for exact equality.
func isSpotifyHost(hostname string) bool {
	if hostname == "" {
		return false
	}

	normalized, err := idna.Lookup.ToASCII(hostname)
	if err != nil {
		return false
	}

	return normalized == SpotifyHost
}

// ShouldTransform reports whether rawURL is an embeddable Spotify URL.
func ShouldTransform(rawURL string) bool {
	_, ok := Classify(rawURL)
	return ok
}

// EmbedURL returns the iframe source for a classified URL.
func EmbedURL(c ClassifiedURL) string {
	prefix, ok := embedPrefixes[c.Kind]
	if !ok {
		prefix = embedPrefix
	}
	return fmt.Sprintf("https://%s/%s/%s/%s", SpotifyHost, prefix, c.Kind, c.ID)
}

// IFrameSrc returns the iframe source for rawURL, or "" if it is not embeddable.
func IFrameSrc(rawURL string) string {
	c, ok := Classify(rawURL)
	if !ok {
		return ""
	}
	return EmbedURL(c)
}

// Markup wraps src in the iframe element used for every Spotify embed.
// The attribute order and values are stable so output can be compared verbatim.
func Markup(src string) string {
	return fmt.Sprintf(
		`<iframe src="%s" width="%s" height="%s" frameborder="0" allowtransparency="true" allow="encrypted-media"></iframe>`,
		src, iframeWidth, iframeHeight)
}

// BuildEmbedMarkup runs the full pipeline for rawURL. Callers should check
// ShouldTransform first; a rejected URL yields "".
func BuildEmbedMarkup(rawURL string) string {
	src := IFrameSrc(rawURL)
	if src == "" {
		return ""
	}
	return Markup(src)
}

// Spotify is the Transformer for Spotify links.
type Spotify struct{}

// NewSpotify creates a new Spotify transformer.
func NewSpotify() *Spotify {
	return &Spotify{}
}

// Name returns the provider name.
func (s *Spotify) Name() string {
	return SpotifyName
}

// ShouldTransform checks if the URL is an embeddable Spotify link.
func (s *Spotify) ShouldTransform(rawURL string) bool {
	return ShouldTransform(rawURL)
}

// Embed builds the iframe replacement for a Spotify link.
func (s *Spotify) Embed(rawURL string) (Embed, error) {
	c, ok := Classify(rawURL)
	if !ok {
		return Embed{}, fmt.Errorf("%w: %s", ErrNotSpotifyURL, rawURL)
	}

	src := EmbedURL(c)
	return Embed{
		Provider: SpotifyName,
		Kind:     c.Kind.String(),
		Src:      src,
		Markup:   Markup(src),
	}, nil
}
