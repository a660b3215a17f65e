package ops

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/util"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/config"
	"github.com/guangnotepad/guang/internal/document"
	"github.com/guangnotepad/guang/internal/errors"
)

// RenderInput contains parameters for the Render operation.
type RenderInput struct {
	Path     string // required
	Encoding string // optional, skips detection for plain text
	Literal  bool   // render plain text as-is instead of as Markdown
}

// RenderOutput contains the result of the Render operation.
type RenderOutput struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	HTML   string `json:"html"`
}

// markdown renders plain notes. Raw HTML in notes is escaped.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Render produces an HTML preview of a document. Plain text is treated as
// Markdown unless Literal is set; rich text keeps its run styling as inline
// CSS.
func Render(cfg *config.Config, input RenderInput) (*RenderOutput, error) {
	cfg = orDefault(cfg)
	path, err := ValidatePath(input.Path, PathCheckRead, cfg)
	if err != nil {
		return nil, err
	}

	loaded, err := load(cfg, path, input.Encoding)
	if err != nil {
		return nil, err
	}

	var html string
	switch {
	case loaded.Format == codec.Rich:
		html = RenderRuns(loaded.Doc)
	case input.Literal:
		html = "<pre>" + string(util.EscapeHTML([]byte(loaded.Doc.Text()))) + "</pre>\n"
	default:
		html, err = RenderMarkdown(loaded.Doc.Text())
		if err != nil {
			return nil, err
		}
	}

	return &RenderOutput{Path: path, Format: loaded.Format.String(), HTML: html}, nil
}

// RenderMarkdown converts Markdown text to HTML.
func RenderMarkdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", errors.NewInternal(fmt.Errorf("render markdown: %w", err))
	}
	return buf.String(), nil
}

// RenderRuns writes each styled run as a span with inline CSS.
func RenderRuns(doc *document.Document) string {
	text := []rune(doc.Text())
	var b strings.Builder
	b.WriteString(`<div class="guang-document">`)
	for _, r := range doc.Runs() {
		chunk := util.EscapeHTML([]byte(string(text[r.Start:r.End])))
		chunk = bytes.ReplaceAll(chunk, []byte("\n"), []byte("<br>\n"))
		if css := styleCSS(r.Style); css != "" {
			fmt.Fprintf(&b, `<span style="%s">%s</span>`, css, chunk)
		} else {
			b.Write(chunk)
		}
	}
	b.WriteString("</div>\n")
	return b.String()
}

func styleCSS(s document.Style) string {
	var parts []string
	if s.FontFamily != "" {
		family := strings.NewReplacer(`"`, "", "'", "", ";", "").Replace(s.FontFamily)
		parts = append(parts, fmt.Sprintf("font-family:'%s'", family))
	}
	if s.FontSize > 0 {
		parts = append(parts, fmt.Sprintf("font-size:%dpt", s.FontSize))
	}
	if s.Bold {
		parts = append(parts, "font-weight:bold")
	}
	if s.Italic {
		parts = append(parts, "font-style:italic")
	}
	if s.Foreground.Valid {
		parts = append(parts, "color:"+s.Foreground.Hex())
	}
	if s.Background.Valid {
		parts = append(parts, "background-color:"+s.Background.Hex())
	}
	return strings.Join(parts, ";")
}
