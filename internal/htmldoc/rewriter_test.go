package htmldoc

import (
	"strings"
	"testing"

	"embedder/pkg/embed"
)

type counter struct {
	embedded int
	skipped  int
}

func (c *counter) Embedded(embed.Embed) { c.embedded++ }
func (c *counter) Skipped(string)       { c.skipped++ }

func TestRewriter_Fragment(t *testing.T) {
	urls := []string{
		"https://not-a-spotify-url.com",
		"https://open.spotify.com/embed/track/0It2bnTdLl2vyymzOkBI3L",
		"https://open.spotify.com/track/0It2bnTdLl2vyymzOkBI3L",
		"https://open.spotify.com/show/7GkO2poedjbltWT5lduL5w",
	}

	var src strings.Builder
	for _, u := range urls {
		src.WriteString(`<p><a href="` + u + `">` + u + "</a></p>\n")
	}

	c := &counter{}
	result, err := NewRewriter(nil, c).Fragment(strings.NewReader(src.String()))
	if err != nil {
		t.Fatalf("Fragment() unexpected error: %v", err)
	}

	expected := `<p><a href="` + urls[0] + `">` + urls[0] + "</a></p>\n" +
		`<p><a href="` + urls[1] + `">` + urls[1] + "</a></p>\n" +
		embed.BuildEmbedMarkup(urls[2]) + "\n" +
		embed.BuildEmbedMarkup(urls[3]) + "\n"
	if result != expected {
		t.Errorf("Fragment() mismatch\n got: %s\nwant: %s", result, expected)
	}

	if c.embedded != 2 {
		t.Errorf("Embedded() called %d times, want 2", c.embedded)
	}
	if c.skipped != 2 {
		t.Errorf("Skipped() called %d times, want 2", c.skipped)
	}
}

func TestRewriter_LeavesOtherParagraphs(t *testing.T) {
	t.Helper()

	const trackURL = "https://open.spotify.com/track/0It2bnTdLl2vyymzOkBI3L"

	tests := []struct {
		name string
		src  string
	}{
		{
			name: "Custom link text",
			src:  `<p><a href="` + trackURL + `">Listen</a></p>`,
		},
		{
			name: "Link with surrounding text",
			src:  `<p>Check <a href="` + trackURL + `">` + trackURL + `</a> out</p>`,
		},
		{
			name: "Link with title",
			src:  `<p><a href="` + trackURL + `" title="x">` + trackURL + `</a></p>`,
		},
		{
			name: "Two links",
			src:  `<p><a href="` + trackURL + `">` + trackURL + `</a><a href="` + trackURL + `">` + trackURL + `</a></p>`,
		},
		{
			name: "Link outside a paragraph",
			src:  `<div><a href="` + trackURL + `">` + trackURL + `</a></div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewRewriter(nil, nil).Fragment(strings.NewReader(tt.src))
			if err != nil {
				t.Fatalf("Fragment() unexpected error: %v", err)
			}
			if strings.Contains(result, "<iframe") {
				t.Errorf("Fragment(%q) = %q, want no embed", tt.src, result)
			}
		})
	}
}

func TestRewriter_Document(t *testing.T) {
	src := `<!DOCTYPE html><html><head><title>t</title></head><body>` +
		`<p><a href="https://open.spotify.com/album/254Y0CD07dB40q84db89EB">` +
		`https://open.spotify.com/album/254Y0CD07dB40q84db89EB</a></p></body></html>`

	result, err := NewRewriter(embed.NewManager(embed.WithCacheSize(8)), nil).Document(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Document() unexpected error: %v", err)
	}

	if !strings.Contains(result, embed.BuildEmbedMarkup("https://open.spotify.com/album/254Y0CD07dB40q84db89EB")) {
		t.Errorf("Document() = %q, want album embed", result)
	}
	if !strings.Contains(result, "<title>t</title>") {
		t.Errorf("Document() = %q, want head preserved", result)
	}
}
