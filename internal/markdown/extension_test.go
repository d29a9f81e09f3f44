package markdown

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"embedder/pkg/embed"
)

var ignoredURLs = []string{
	"https://not-a-spotify-url.com",
	"https://this-is-not-spotify.com",
	"https://api.spotify.com/album/1DFixLWuPkv3KT3TnV35m3",
	"https://open.spotify.com/embed/album/254Y0CD07dB40q84db89EB",
	"https://open.spotify.com/embed/artist/0QaSiI5TLA4N7mcsdxShDO",
	"https://open.spotify.com/embed-podcast/episode/0j9RE1H47GSmBnRqOtf1dx",
	"https://open.spotify.com/embed/playlist/37i9dQZF1DX5wDmLW735Yd",
	"https://open.spotify.com/embed-podcast/show/7GkO2poedjbltWT5lduL5w",
	"https://open.spotify.com/embed/track/0It2bnTdLl2vyymzOkBI3L",
}

var embeddedURLs = []string{
	"https://open.spotify.com/album/254Y0CD07dB40q84db89EB",
	"https://open.spotify.com/artist/0QaSiI5TLA4N7mcsdxShDO",
	"https://open.spotify.com/episode/0j9RE1H47GSmBnRqOtf1dx",
	"https://open.spotify.com/playlist/37i9dQZF1DX5wDmLW735Yd",
	"https://open.spotify.com/show/7GkO2poedjbltWT5lduL5w",
	"https://open.spotify.com/track/0It2bnTdLl2vyymzOkBI3L",
}

type recorder struct {
	embedded []embed.Embed
	skipped  []string
}

func (r *recorder) Embedded(e embed.Embed) { r.embedded = append(r.embedded, e) }
func (r *recorder) Skipped(rawURL string)  { r.skipped = append(r.skipped, rawURL) }

func render(t *testing.T, src string, opts ...Option) string {
	t.Helper()

	md := goldmark.New(
		goldmark.WithExtensions(extension.Linkify, New(opts...)),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		t.Fatalf("Convert() unexpected error: %v", err)
	}
	return buf.String()
}

func TestExtension_TransformsSpotifyLinks(t *testing.T) {
	var src strings.Builder
	var expected strings.Builder

	for _, u := range ignoredURLs {
		src.WriteString("<" + u + ">\n\n")
		expected.WriteString(`<p><a href="` + u + `">` + u + "</a></p>\n")
	}
	for _, u := range embeddedURLs {
		src.WriteString("<" + u + ">\n\n")
		expected.WriteString(embed.BuildEmbedMarkup(u) + "\n")
	}

	rec := &recorder{}
	result := render(t, src.String(), WithObserver(rec))

	if result != expected.String() {
		t.Errorf("render() mismatch\n got: %s\nwant: %s", result, expected.String())
	}

	if len(rec.embedded) != len(embeddedURLs) {
		t.Fatalf("Embedded() called %d times, want %d", len(rec.embedded), len(embeddedURLs))
	}
	for i, e := range rec.embedded {
		if e.Markup != embed.BuildEmbedMarkup(embeddedURLs[i]) {
			t.Errorf("embed %d out of order: %q", i, e.Src)
		}
	}
	if len(rec.skipped) != len(ignoredURLs) {
		t.Errorf("Skipped() called %d times, want %d", len(rec.skipped), len(ignoredURLs))
	}
}

func TestExtension_LinkForms(t *testing.T) {
	t.Helper()

	const trackURL = "https://open.spotify.com/track/0It2bnTdLl2vyymzOkBI3L"
	iframe := embed.BuildEmbedMarkup(trackURL)

	tests := []struct {
		name     string
		src      string
		embedded bool
	}{
		{
			name:     "Bare URL",
			src:      trackURL + "\n",
			embedded: true,
		},
		{
			name:     "Angle bracket autolink",
			src:      "<" + trackURL + ">\n",
			embedded: true,
		},
		{
			name:     "Inline link with URL as text",
			src:      "[" + trackURL + "](" + trackURL + ")\n",
			embedded: true,
		},
		{
			name:     "Inline link with custom text",
			src:      "[Listen here](" + trackURL + ")\n",
			embedded: false,
		},
		{
			name:     "Inline link with title",
			src:      "[" + trackURL + "](" + trackURL + ` "title")` + "\n",
			embedded: false,
		},
		{
			name:     "URL inside a sentence",
			src:      "Check out " + trackURL + " today\n",
			embedded: false,
		},
		{
			name:     "URL inside a list item",
			src:      "- " + trackURL + "\n",
			embedded: true,
		},
		{
			name:     "URL inside a blockquote",
			src:      "> " + trackURL + "\n",
			embedded: true,
		},
		{
			name:     "URL in a code span",
			src:      "`" + trackURL + "`\n",
			embedded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := render(t, tt.src)
			if strings.Contains(result, iframe) != tt.embedded {
				t.Errorf("render(%q) = %q, embedded want %v", tt.src, result, tt.embedded)
			}
		})
	}
}

func TestExtension_RepeatedPassIsStable(t *testing.T) {
	const src = "https://open.spotify.com/show/7GkO2poedjbltWT5lduL5w\n"

	first := render(t, src)
	second := render(t, first)

	if strings.Count(second, "<iframe") != 1 {
		t.Errorf("second pass produced %q, want the iframe to be passed through once", second)
	}
}

func TestExtension_UsesProvidedManager(t *testing.T) {
	manager := embed.NewManager(embed.WithTransformers())
	result := render(t, "https://open.spotify.com/track/0It2bnTdLl2vyymzOkBI3L\n", WithManager(manager))

	if strings.Contains(result, "<iframe") {
		t.Errorf("render() = %q, want no embeds with an empty manager", result)
	}
}
