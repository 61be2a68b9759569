// Package markup converts entry markdown into HTML.
package markup

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/Adithya-Monish-Kumar-K/encyclopedia/pkg/config"
)

// Renderer turns raw entry markup into display HTML.
type Renderer interface {
	Render(raw string) (string, error)
}

// GoldmarkRenderer renders with a goldmark engine built once at construction.
// goldmark.Markdown is safe for concurrent use, so one value can serve every
// request.
type GoldmarkRenderer struct {
	engine goldmark.Markdown
}

// NewGoldmarkRenderer builds a renderer from cfg. With no extensions listed
// it enables GFM, linkify and task lists.
func NewGoldmarkRenderer(cfg config.MarkdownConfig) *GoldmarkRenderer {
	rendererOptions := []renderer.Option{}
	if cfg.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !cfg.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	options := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithExtensions(collectExtensions(cfg.Extensions)...),
	}
	if len(rendererOptions) > 0 {
		options = append(options, goldmark.WithRendererOptions(rendererOptions...))
	}
	return &GoldmarkRenderer{engine: goldmark.New(options...)}
}

func (r *GoldmarkRenderer) Render(raw string) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Convert([]byte(raw), &buf); err != nil {
		return "", fmt.Errorf("markdown render: %w", err)
	}
	return buf.String(), nil
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// collectExtensions maps names to extenders; unknown names are ignored.
func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}
	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}
