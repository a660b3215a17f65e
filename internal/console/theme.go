package console

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	dmp "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/guangnotepad/guang/internal/document"
)

type theme struct {
	r *lipgloss.Renderer

	titleBar lipgloss.Style
	prompt   lipgloss.Style
	question lipgloss.Style
	notice   lipgloss.Style
	faint    lipgloss.Style
	caret    lipgloss.Style
	selected lipgloss.Style
	diffDel  lipgloss.Style
	diffAdd  lipgloss.Style

	// paper is the view background behind runs without their own
	// background. It belongs to the console, not the document.
	paper document.Color
}

func newTheme(r *lipgloss.Renderer) theme {
	return theme{
		r:        r,
		titleBar: r.NewStyle().Bold(true).Reverse(true).Padding(0, 1),
		prompt:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "25", Dark: "75"}),
		question: r.NewStyle().Bold(true),
		notice:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"}),
		faint:    r.NewStyle().Faint(true),
		caret:    r.NewStyle().Blink(true),
		selected: r.NewStyle().Underline(true),
		diffDel:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"}),
		diffAdd:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "114"}),
	}
}

// runStyle maps document attributes onto terminal attributes. Font family
// and size have no terminal equivalent.
func (t theme) runStyle(s document.Style) lipgloss.Style {
	st := t.onPaper(t.r.NewStyle().Bold(s.Bold).Italic(s.Italic))
	if s.Foreground.Valid {
		st = st.Foreground(lipgloss.Color(s.Foreground.Hex()))
	}
	if s.Background.Valid {
		st = st.Background(lipgloss.Color(s.Background.Hex()))
	}
	return st
}

func (t theme) onPaper(st lipgloss.Style) lipgloss.Style {
	if t.paper.Valid {
		return st.Background(lipgloss.Color(t.paper.Hex()))
	}
	return st
}

// renderDocument draws the document with its run styling, the selection
// underlined, and a "|" at the caret.
func (t theme) renderDocument(doc *document.Document, caret int) string {
	text := []rune(doc.Text())
	selStart, selEnd, hasSel := doc.Selection()

	var b strings.Builder
	put := func(start, end int, st lipgloss.Style) {
		if start >= end {
			return
		}
		chunk := string(text[start:end])
		if hasSel && start >= selStart && end <= selEnd {
			st = st.Inherit(t.selected)
		}
		// Render line by line so styles do not bleed across newlines.
		lines := strings.Split(chunk, "\n")
		for i, line := range lines {
			if i > 0 {
				b.WriteString("\n")
			}
			if line != "" {
				b.WriteString(st.Render(line))
			}
		}
	}

	cuts := []int{caret}
	if hasSel {
		cuts = append(cuts, selStart, selEnd)
	}
	for _, r := range doc.Runs() {
		st := t.runStyle(r.Style)
		pos := r.Start
		for _, cut := range sortedCuts(cuts, r.Start, r.End) {
			put(pos, cut, st)
			if cut == caret {
				b.WriteString(t.onPaper(t.caret).Render("|"))
			}
			pos = cut
		}
		put(pos, r.End, st)
	}
	if caret >= len(text) {
		b.WriteString(t.onPaper(t.caret).Render("|"))
	}
	return b.String()
}

// sortedCuts returns the offsets in cuts strictly inside [start, end), in
// order and without duplicates. A cut equal to start is included so the
// caret is drawn at the beginning of a run.
func sortedCuts(cuts []int, start, end int) []int {
	var out []int
	for _, c := range cuts {
		if c < start || c >= end {
			continue
		}
		dup := false
		for _, o := range out {
			if o == c {
				dup = true
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// renderDiff renders a line diff from before (on disk) to after (buffer).
func (t theme) renderDiff(before, after string) string {
	if before == after {
		return "No changes\n"
	}
	d := dmp.New()
	a, b, lines := d.DiffLinesToChars(before, after)
	diffs := d.DiffCharsToLines(d.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, df := range diffs {
		text := strings.TrimSuffix(df.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			switch df.Type {
			case dmp.DiffDelete:
				sb.WriteString(t.diffDel.Render("- " + line))
			case dmp.DiffInsert:
				sb.WriteString(t.diffAdd.Render("+ " + line))
			case dmp.DiffEqual:
				sb.WriteString(t.faint.Render("  " + line))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
