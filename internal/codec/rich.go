package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/guangnotepad/guang/internal/document"
)

// EncodeRich serializes the document as RTF. Font 0 is reserved for runs
// without a family and colour 0 is the automatic colour, so unset attributes
// survive a round trip. Each run is written as its own group.
func EncodeRich(doc *document.Document) []byte {
	runs := doc.Runs()
	text := []rune(doc.Text())

	fonts := []string{""}
	fontIdx := map[string]int{"": 0}
	var colors []document.Color
	colorIdx := map[document.Color]int{}
	addColor := func(c document.Color) {
		if !c.Valid {
			return
		}
		if _, ok := colorIdx[c]; !ok {
			colors = append(colors, c)
			colorIdx[c] = len(colors) // index 0 is auto
		}
	}
	for _, r := range runs {
		if _, ok := fontIdx[r.Style.FontFamily]; !ok {
			fontIdx[r.Style.FontFamily] = len(fonts)
			fonts = append(fonts, r.Style.FontFamily)
		}
		addColor(r.Style.Foreground)
		addColor(r.Style.Background)
	}

	var b bytes.Buffer
	b.WriteString(`{\rtf1\ansi\ansicpg1252\deff0\uc1`)
	b.WriteString(`{\fonttbl`)
	for i, name := range fonts {
		fmt.Fprintf(&b, `{\f%d\fnil %s;}`, i, strings.ReplaceAll(escapeRTF(name), ";", `\'3b`))
	}
	b.WriteString("}")
	if len(colors) > 0 {
		b.WriteString(`{\colortbl;`)
		for _, c := range colors {
			fmt.Fprintf(&b, `\red%d\green%d\blue%d;`, c.R, c.G, c.B)
		}
		b.WriteString("}")
	}
	b.WriteString("\n")

	for _, r := range runs {
		st := r.Style
		fmt.Fprintf(&b, `{\f%d`, fontIdx[st.FontFamily])
		if st.FontSize > 0 {
			fmt.Fprintf(&b, `\fs%d`, st.FontSize*2)
		}
		if st.Bold {
			b.WriteString(`\b`)
		}
		if st.Italic {
			b.WriteString(`\i`)
		}
		if st.Foreground.Valid {
			fmt.Fprintf(&b, `\cf%d`, colorIdx[st.Foreground])
		}
		if st.Background.Valid {
			n := colorIdx[st.Background]
			fmt.Fprintf(&b, `\cb%d\highlight%d`, n, n)
		}
		b.WriteString(" ")
		b.WriteString(escapeRTF(string(text[r.Start:r.End])))
		b.WriteString("}")
	}
	b.WriteString("}\n")
	return b.Bytes()
}

// escapeRTF writes s as RTF body text. Line breaks become \par and anything
// outside printable ASCII becomes a \u escape with a '?' fallback.
func escapeRTF(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString("\\par\n")
		case r == '\t':
			b.WriteString(`\tab `)
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case r > 0xffff:
			r -= 0x10000
			writeUnicode(&b, 0xd800+(r>>10))
			writeUnicode(&b, 0xdc00+(r&0x3ff))
		default:
			writeUnicode(&b, r)
		}
	}
	return b.String()
}

// writeUnicode emits \uN? where N is the UTF-16 unit as a signed 16-bit value.
func writeUnicode(b *strings.Builder, unit rune) {
	fmt.Fprintf(b, `\u%d?`, int16(uint16(unit)))
}
