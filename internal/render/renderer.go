// Package render runs documents through the embed rewrite and produces HTML.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"embedder/internal/core"
	"embedder/internal/htmldoc"
	"embedder/internal/markdown"
	"embedder/pkg/embed"
)

const (
	htmlMediaType = "text/html"
	// outputFileMode is the permission of rendered files.
	outputFileMode = 0o644
	// embeddedSuffix keeps rewritten HTML from overwriting its input.
	embeddedSuffix = ".embedded.html"
)

var (
	// ErrUnsupportedFile is returned for inputs that are neither markdown nor HTML.
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// Format is the kind of document a renderer input holds.
type Format int

const (
	// FormatMarkdown is CommonMark input.
	FormatMarkdown Format = iota
	// FormatHTML is an HTML fragment or document.
	FormatHTML
)

// FormatForPath picks the input format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
}

// Result describes one rendered file.
type Result struct {
	Input  string
	Output string
}

// Renderer converts markdown and HTML input into HTML with media links embedded.
type Renderer struct {
	config   *core.RenderConfig
	logger   *zap.Logger
	manager  *embed.Manager
	markdown goldmark.Markdown
	html     *htmldoc.Rewriter
	minifier *minify.M
}

// NewRenderer creates a renderer. observer may be nil.
func NewRenderer(config *core.RenderConfig, logger *zap.Logger, observer embed.Observer) *Renderer {
	if observer == nil {
		observer = embed.NopObserver{}
	}

	manager := embed.NewManager(embed.WithCacheSize(config.CacheSize))

	extensions := []goldmark.Extender{
		markdown.New(markdown.WithManager(manager), markdown.WithObserver(observer)),
	}
	if config.Linkify {
		extensions = append(extensions, extension.Linkify)
	}

	var minifier *minify.M
	if config.Minify {
		minifier = minify.New()
		minifier.Add(htmlMediaType, &mhtml.Minifier{
			KeepDocumentTags:    true,
			KeepEndTags:         true,
			KeepQuotes:          true,
			KeepDefaultAttrVals: true,
		})
	}

	return &Renderer{
		config:  config,
		logger:  logger,
		manager: manager,
		markdown: goldmark.New(
			goldmark.WithExtensions(extensions...),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		html:     htmldoc.NewRewriter(manager, observer),
		minifier: minifier,
	}
}

// Manager returns the embed manager shared by both input formats.
func (r *Renderer) Manager() *embed.Manager {
	return r.manager
}

// Markdown converts markdown to HTML.
func (r *Renderer) Markdown(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}
	return r.finish(buf.Bytes())
}

// HTML rewrites an HTML fragment.
func (r *Renderer) HTML(src []byte) ([]byte, error) {
	out, err := r.html.Fragment(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	return r.finish([]byte(out))
}

// Render dispatches on format.
func (r *Renderer) Render(format Format, src []byte) ([]byte, error) {
	if format == FormatHTML {
		return r.HTML(src)
	}
	return r.Markdown(src)
}

func (r *Renderer) finish(out []byte) ([]byte, error) {
	if r.minifier == nil {
		return out, nil
	}

	minified, err := r.minifier.Bytes(htmlMediaType, out)
	if err != nil {
		return nil, fmt.Errorf("failed to minify output: %w", err)
	}
	return minified, nil
}

// Files renders every path concurrently, bounded by the configured worker count.
// Outputs go next to their input unless an output directory is configured.
func (r *Renderer) Files(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	workers := r.config.Workers
	if workers <= 0 {
		workers = core.DefaultWorkers
	}
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			output, err := r.renderFile(path)
			if err != nil {
				return err
			}

			results[i] = Result{Input: path, Output: output}
			r.logger.Debug("Rendered file",
				zap.String("input", path),
				zap.String("output", output))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (r *Renderer) renderFile(path string) (string, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return "", err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	out, err := r.Render(format, src)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", path, err)
	}

	output := OutputPath(path, format, r.config.OutDir)
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(output, out, outputFileMode); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", output, err)
	}

	return output, nil
}

// OutputPath returns where the rendering of path is written.
func OutputPath(path string, format Format, outDir string) string {
	dir := filepath.Dir(path)
	if outDir != "" {
		dir = outDir
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if format == FormatHTML {
		return filepath.Join(dir, base+embeddedSuffix)
	}
	return filepath.Join(dir, base+".html")
}
