package embed

// ResourceKind is one of the Spotify resource categories that can be embedded.
type ResourceKind int

const (
	KindAlbum ResourceKind = iota
	KindArtist
	KindEpisode
	KindPlaylist
	KindShow
	KindTrack
)

var kindTokens = [...]string{
	KindAlbum:    "album",
	KindArtist:   "artist",
	KindEpisode:  "episode",
	KindPlaylist: "playlist",
	KindShow:     "show",
	KindTrack:    "track",
}

// String returns the lowercase path token of the kind.
func (k ResourceKind) String() string {
	if k < 0 || int(k) >= len(kindTokens) {
		return "unknown"
	}
	return kindTokens[k]
}

// ParseResourceKind maps a path token to its kind. Tokens are case-sensitive.
func ParseResourceKind(token string) (ResourceKind, bool) {
	for k, t := range kindTokens {
		if t == token {
			return ResourceKind(k), true
		}
	}
	return 0, false
}

// Kinds lists every embeddable kind in declaration order.
func Kinds() []ResourceKind {
	kinds := make([]ResourceKind, len(kindTokens))
	for i := range kindTokens {
		kinds[i] = ResourceKind(i)
	}
	return kinds
}
