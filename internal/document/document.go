// Package document provides the in-memory text buffer edited by guang.
//
// A Document holds rune content partitioned into styled runs. Runs are
// contiguous, non-overlapping, in order, and never empty; adjacent runs with
// equal styles are merged; an empty document has zero runs. Offsets are rune
// offsets and ranges are half-open.
//
// Document is not safe for concurrent use. It is owned by a single editor
// controller running on one event loop.
package document

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidRange is returned when an edit or selection receives offsets
// outside the document.
var ErrInvalidRange = errors.New("invalid range")

// Run is a contiguous character range sharing one style.
type Run struct {
	Start int   `json:"start"`
	End   int   `json:"end"`
	Style Style `json:"style"`
}

// Len returns the number of runes in the run.
func (r Run) Len() int {
	return r.End - r.Start
}

// Document is a styled text buffer.
type Document struct {
	text []rune
	runs []Run

	// input is the style given to typed text when inputSet is true.
	// Otherwise typed text inherits the style of the preceding character.
	input    Style
	inputSet bool

	selStart, selEnd int
	hasSel           bool

	listeners []func()
}

// New creates an empty document.
func New() *Document {
	return &Document{input: DefaultStyle()}
}

// NewPlain creates a document holding text in a single default-styled run.
func NewPlain(text string) *Document {
	d := New()
	d.setText(text, d.input)
	return d
}

// FromRuns builds a document from text and runs covering it. The runs must be
// contiguous, in order and non-empty; neighbours with equal styles are merged.
func FromRuns(text string, runs []Run) (*Document, error) {
	d := New()
	d.text = []rune(text)
	next := 0
	for i, r := range runs {
		if r.Start != next || r.End <= r.Start || r.End > len(d.text) {
			return nil, fmt.Errorf("%w: run %d [%d, %d) after offset %d (len %d)", ErrInvalidRange, i, r.Start, r.End, next, len(d.text))
		}
		next = r.End
	}
	if next != len(d.text) {
		return nil, fmt.Errorf("%w: runs cover %d of %d characters", ErrInvalidRange, next, len(d.text))
	}
	d.runs = slices.Clone(runs)
	d.normalize()
	return d, nil
}

// OnChange registers fn to be called after every content or style mutation.
func (d *Document) OnChange(fn func()) {
	d.listeners = append(d.listeners, fn)
}

func (d *Document) changed() {
	for _, fn := range d.listeners {
		fn()
	}
}

// Text returns the document content.
func (d *Document) Text() string {
	return string(d.text)
}

// Len returns the number of runes in the document.
func (d *Document) Len() int {
	return len(d.text)
}

// IsEmpty reports whether the document has no content.
func (d *Document) IsEmpty() bool {
	return len(d.text) == 0
}

// Runs returns a copy of the styled runs.
func (d *Document) Runs() []Run {
	return slices.Clone(d.runs)
}

// Slice returns the text in [start, end).
func (d *Document) Slice(start, end int) (string, error) {
	if err := d.checkRange(start, end); err != nil {
		return "", err
	}
	return string(d.text[start:end]), nil
}

// StyleAt returns the style of the rune at offset. For an empty document or an
// offset at the end, it returns the style new text would receive there.
func (d *Document) StyleAt(offset int) Style {
	for _, r := range d.runs {
		if offset >= r.Start && offset < r.End {
			return r.Style
		}
	}
	return d.insertStyle(offset)
}

// InputStyle returns the style that typed text receives when it does not
// inherit from a neighbour.
func (d *Document) InputStyle() Style {
	return d.input
}

// SetInputStyle sets the style for subsequently typed text.
func (d *Document) SetInputStyle(s Style) {
	d.input = s
	d.inputSet = true
}

// SetText replaces the whole content with text in the input style.
func (d *Document) SetText(text string) {
	d.setText(text, d.input)
	d.changed()
}

// Clear removes all content and resets the input style.
func (d *Document) Clear() {
	d.input = DefaultStyle()
	d.inputSet = false
	d.setText("", d.input)
	d.changed()
}

// ReplaceWith replaces this document's content, runs and input style with
// those of src. Listeners registered on d are kept.
func (d *Document) ReplaceWith(src *Document) {
	d.text = slices.Clone(src.text)
	d.runs = slices.Clone(src.runs)
	d.input = src.input
	d.inputSet = src.inputSet
	d.hasSel = false
	d.changed()
}

func (d *Document) setText(text string, s Style) {
	d.text = []rune(text)
	d.runs = nil
	if len(d.text) > 0 {
		d.runs = []Run{{Start: 0, End: len(d.text), Style: s}}
	}
	d.hasSel = false
}

// Append adds text at the end in the style it would inherit when typed.
func (d *Document) Append(text string) {
	_ = d.Insert(len(d.text), text)
}

// AppendStyled adds text at the end with an explicit style, merging it with the
// last run when the styles match.
func (d *Document) AppendStyled(text string, s Style) {
	if text == "" {
		return
	}
	d.insertRunes(len(d.text), []rune(text), s)
	d.changed()
}

// Insert inserts text at offset. The new text takes the input style if one was
// set explicitly, otherwise the style of the preceding character.
func (d *Document) Insert(offset int, text string) error {
	if offset < 0 || offset > len(d.text) {
		return fmt.Errorf("%w: insert at %d (len %d)", ErrInvalidRange, offset, len(d.text))
	}
	if text == "" {
		return nil
	}
	d.insertRunes(offset, []rune(text), d.insertStyle(offset))
	d.hasSel = false
	d.changed()
	return nil
}

func (d *Document) insertStyle(offset int) Style {
	if d.inputSet || len(d.runs) == 0 {
		return d.input
	}
	if offset > 0 {
		offset--
	}
	for _, r := range d.runs {
		if offset >= r.Start && offset < r.End {
			return r.Style
		}
	}
	return d.input
}

func (d *Document) insertRunes(offset int, rs []rune, s Style) {
	n := len(rs)
	i := d.splitAt(offset)

	d.text = slices.Insert(d.text, offset, rs...)
	for j := i; j < len(d.runs); j++ {
		d.runs[j].Start += n
		d.runs[j].End += n
	}
	d.runs = slices.Insert(d.runs, i, Run{Start: offset, End: offset + n, Style: s})
	d.normalize()
}

// Delete removes n runes starting at offset.
func (d *Document) Delete(offset, n int) error {
	if err := d.checkRange(offset, offset+n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	i := d.splitAt(offset)
	j := d.splitAt(offset + n)

	d.text = slices.Delete(d.text, offset, offset+n)
	d.runs = slices.Delete(d.runs, i, j)
	for k := i; k < len(d.runs); k++ {
		d.runs[k].Start -= n
		d.runs[k].End -= n
	}
	d.normalize()
	d.hasSel = false
	d.changed()
	return nil
}

// Select sets the selection to [start, end). An empty range clears it.
func (d *Document) Select(start, end int) error {
	if err := d.checkRange(start, end); err != nil {
		return err
	}
	d.selStart, d.selEnd = start, end
	d.hasSel = start < end
	return nil
}

// ClearSelection removes the selection.
func (d *Document) ClearSelection() {
	d.hasSel = false
}

// Selection returns the selected range, if any.
func (d *Document) Selection() (start, end int, ok bool) {
	if !d.hasSel {
		return 0, 0, false
	}
	return d.selStart, d.selEnd, true
}

// SelectedText returns the selected text, or "" without a selection.
func (d *Document) SelectedText() string {
	if !d.hasSel {
		return ""
	}
	return string(d.text[d.selStart:d.selEnd])
}

// ApplyStyle applies patch to every run overlapping [start, end).
func (d *Document) ApplyStyle(start, end int, patch StylePatch) error {
	if err := d.checkRange(start, end); err != nil {
		return err
	}
	if start == end || patch.IsEmpty() {
		return nil
	}
	i := d.splitAt(start)
	j := d.splitAt(end)
	for k := i; k < j; k++ {
		d.runs[k].Style = patch.Apply(d.runs[k].Style)
	}
	d.normalize()
	d.changed()
	return nil
}

func (d *Document) checkRange(start, end int) error {
	if start < 0 || end < start || end > len(d.text) {
		return fmt.Errorf("%w: [%d, %d) (len %d)", ErrInvalidRange, start, end, len(d.text))
	}
	return nil
}

// splitAt ensures a run boundary at offset and returns the index of the run
// starting there (len(runs) when offset is the end).
func (d *Document) splitAt(offset int) int {
	for i, r := range d.runs {
		if r.Start == offset {
			return i
		}
		if offset > r.Start && offset < r.End {
			left := Run{Start: r.Start, End: offset, Style: r.Style}
			right := Run{Start: offset, End: r.End, Style: r.Style}
			d.runs[i] = left
			d.runs = slices.Insert(d.runs, i+1, right)
			return i + 1
		}
	}
	return len(d.runs)
}

// normalize drops empty runs and merges neighbours with equal styles.
func (d *Document) normalize() {
	out := d.runs[:0]
	for _, r := range d.runs {
		if r.Len() <= 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Style == r.Style && out[n-1].End == r.Start {
			out[n-1].End = r.End
			continue
		}
		out = append(out, r)
	}
	d.runs = out
}
