package ops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/guangnotepad/guang/internal/document"
)

func TestRender_Markdown(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("# Список\n\n- one\n- <b>two</b>\n"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	out, err := Render(cfg, RenderInput{Path: path, Encoding: "UTF-8"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(out.HTML, "<h1>Список</h1>") {
		t.Errorf("HTML missing heading: %s", out.HTML)
	}
	if !strings.Contains(out.HTML, "<li>one</li>") {
		t.Errorf("HTML missing list item: %s", out.HTML)
	}
	if strings.Contains(out.HTML, "<b>two</b>") {
		t.Errorf("raw HTML should not pass through: %s", out.HTML)
	}
}

func TestRender_Literal(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	path := filepath.Join(dir, "raw.txt")
	if err := os.WriteFile(path, []byte("# a < b"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	out, err := Render(cfg, RenderInput{Path: path, Encoding: "UTF-8", Literal: true})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if out.HTML != "<pre># a &lt; b</pre>\n" {
		t.Errorf("HTML = %q", out.HTML)
	}
}

func TestRender_Rich(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	path := filepath.Join(dir, "styled.rtf")
	runs := []document.Run{
		{Start: 0, End: 4, Style: document.Style{Bold: true, Foreground: document.RGB(255, 0, 0)}},
		{Start: 4, End: 8},
	}
	if _, err := Write(nil, cfg, WriteInput{Path: path, Text: "Hot\n<ok>", Runs: runs}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out, err := Render(cfg, RenderInput{Path: path})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := `<div class="guang-document"><span style="font-weight:bold;color:#ff0000">Hot<br>
</span>&lt;ok&gt;</div>` + "\n"
	if out.HTML != want {
		t.Errorf("HTML = %q\nwant %q", out.HTML, want)
	}
	if out.Format != "rich" {
		t.Errorf("Format = %q, want rich", out.Format)
	}
}

func TestStyleCSS(t *testing.T) {
	tests := []struct {
		name  string
		style document.Style
		want  string
	}{
		{"default", document.Style{}, ""},
		{"font", document.Style{FontFamily: `Times "New"`, FontSize: 14}, "font-family:'Times New';font-size:14pt"},
		{"italic", document.Style{Italic: true}, "font-style:italic"},
		{"highlight", document.Style{Background: document.Yellow}, "background-color:#ffff00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := styleCSS(tt.style); got != tt.want {
				t.Errorf("styleCSS() = %q, want %q", got, tt.want)
			}
		})
	}
}
