package document

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Color is an RGB color. The zero value is unset and means "use the editor default".
type Color struct {
	R, G, B uint8
	Valid   bool
}

// RGB returns a set color.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, Valid: true}
}

// Predefined colors used by the formatting commands.
var (
	Black  = RGB(0, 0, 0)
	White  = RGB(255, 255, 255)
	Yellow = RGB(255, 255, 0)
)

// Hex returns the color as #rrggbb, or "" when unset.
func (c Color) Hex() string {
	if !c.Valid {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalJSON encodes a set color as "#rrggbb" and an unset one as null.
func (c Color) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Hex())
}

// UnmarshalJSON accepts null or anything ParseColor accepts.
func (c *Color) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Color{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor parses "#rrggbb", "rrggbb", or one of the names black, white,
// yellow, red, green, blue. "none" and "" return the unset color.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none", "default":
		return Color{}, nil
	case "black":
		return Black, nil
	case "white":
		return White, nil
	case "yellow":
		return Yellow, nil
	case "red":
		return RGB(255, 0, 0), nil
	case "green":
		return RGB(0, 128, 0), nil
	case "blue":
		return RGB(0, 0, 255), nil
	}
	s = strings.TrimPrefix(s, "#")
	var r, g, b uint8
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB(r, g, b), nil
}

// Style is the set of character attributes carried by a run.
// An empty FontFamily or a zero FontSize means "editor default".
type Style struct {
	FontFamily string `json:"font_family,omitempty"`
	FontSize   int    `json:"font_size,omitempty"` // points
	Bold       bool   `json:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty"`
	Foreground Color  `json:"foreground"`
	Background Color  `json:"background"`
}

// DefaultStyle is the style of unformatted text.
func DefaultStyle() Style {
	return Style{}
}

// StylePatch changes selected attributes of a Style; nil fields are left alone.
type StylePatch struct {
	FontFamily *string
	FontSize   *int
	Bold       *bool
	Italic     *bool
	Foreground *Color
	Background *Color
}

// IsEmpty reports whether the patch changes nothing.
func (p StylePatch) IsEmpty() bool {
	return p.FontFamily == nil && p.FontSize == nil && p.Bold == nil &&
		p.Italic == nil && p.Foreground == nil && p.Background == nil
}

// Apply returns s with the patch applied.
func (p StylePatch) Apply(s Style) Style {
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.Bold != nil {
		s.Bold = *p.Bold
	}
	if p.Italic != nil {
		s.Italic = *p.Italic
	}
	if p.Foreground != nil {
		s.Foreground = *p.Foreground
	}
	if p.Background != nil {
		s.Background = *p.Background
	}
	return s
}

// FontStyle is one of the weight/slant combinations offered by the font dialog.
type FontStyle string

const (
	FontStyleDefault    FontStyle = "Default"
	FontStyleBold       FontStyle = "Bold"
	FontStyleItalic     FontStyle = "Italic"
	FontStyleBoldItalic FontStyle = "Bold Italic"
)

// FontSizes are the sizes offered by the font dialog.
var FontSizes = []int{8, 10, 11, 12, 13, 14, 16, 18, 20, 22, 24, 26, 28, 30}

// ParseFontStyle parses a font style name case-insensitively.
func ParseFontStyle(s string) (FontStyle, error) {
	switch strings.ToLower(strings.Join(strings.Fields(s), " ")) {
	case "", "default", "regular", "plain":
		return FontStyleDefault, nil
	case "bold":
		return FontStyleBold, nil
	case "italic":
		return FontStyleItalic, nil
	case "bold italic", "bolditalic", "bold-italic":
		return FontStyleBoldItalic, nil
	}
	return "", fmt.Errorf("unknown font style %q", s)
}

// Bold reports whether the style sets bold.
func (f FontStyle) Bold() bool {
	return f == FontStyleBold || f == FontStyleBoldItalic
}

// Italic reports whether the style sets italic.
func (f FontStyle) Italic() bool {
	return f == FontStyleItalic || f == FontStyleBoldItalic
}

// Reset defaults applied by ResetFrom.
const (
	ResetFontFamily = "Default"
	ResetFontSize   = 13
)

// SetFont applies family, size, and weight/slant to the selection, or to the
// input style when nothing is selected.
func (d *Document) SetFont(family string, size int, fs FontStyle) error {
	bold, italic := fs.Bold(), fs.Italic()
	patch := StylePatch{Bold: &bold, Italic: &italic}
	if family != "" {
		patch.FontFamily = &family
	}
	if size > 0 {
		patch.FontSize = &size
	}
	return d.applyToSelectionOrInput(patch)
}

// SetForeground sets the text color of the selection, or of typed text.
func (d *Document) SetForeground(c Color) error {
	return d.applyToSelectionOrInput(StylePatch{Foreground: &c})
}

// SetBackground sets the text background of the selection, or of typed text.
func (d *Document) SetBackground(c Color) error {
	return d.applyToSelectionOrInput(StylePatch{Background: &c})
}

// QuickHighlight paints the selection's background yellow. It reports false and
// changes nothing when there is no selection.
func (d *Document) QuickHighlight() bool {
	start, end, ok := d.Selection()
	if !ok {
		return false
	}
	bg := Yellow
	_ = d.ApplyStyle(start, end, StylePatch{Background: &bg})
	return true
}

// ResetFrom restores default formatting from caret to the end of the document
// and for typed text.
func (d *Document) ResetFrom(caret int) error {
	if caret < 0 || caret > len(d.text) {
		return fmt.Errorf("%w: caret %d (len %d)", ErrInvalidRange, caret, len(d.text))
	}
	family, size := ResetFontFamily, ResetFontSize
	fg, bg := Black, Color{}
	no := false
	patch := StylePatch{
		FontFamily: &family,
		FontSize:   &size,
		Bold:       &no,
		Italic:     &no,
		Foreground: &fg,
		Background: &bg,
	}
	d.SetInputStyle(patch.Apply(d.input))
	return d.ApplyStyle(caret, len(d.text), patch)
}

func (d *Document) applyToSelectionOrInput(patch StylePatch) error {
	if start, end, ok := d.Selection(); ok {
		return d.ApplyStyle(start, end, patch)
	}
	d.SetInputStyle(patch.Apply(d.input))
	return nil
}
