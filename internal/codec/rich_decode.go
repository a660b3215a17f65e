package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/guangnotepad/guang/internal/document"
	"github.com/guangnotepad/guang/internal/errors"
)

type destination int

const (
	destText destination = iota
	destFontTable
	destColorTable
	destSkip
)

// skippedDestinations hold no visible body text.
var skippedDestinations = map[string]bool{
	"info": true, "stylesheet": true, "pict": true, "object": true,
	"header": true, "headerl": true, "headerr": true, "headerf": true,
	"footer": true, "footerl": true, "footerr": true, "footerf": true,
	"footnote": true, "fldinst": true, "listtable": true, "listoverridetable": true,
	"rsidtbl": true, "revtbl": true, "filetbl": true, "themedata": true,
	"colorschememapping": true, "latentstyles": true, "datastore": true,
	"xmlnstbl": true, "generator": true, "pgdsctbl": true,
}

// symbolWords are control words that stand for a single character.
var symbolWords = map[string]rune{
	"par": '\n', "line": '\n', "tab": '\t',
	"emdash": '—', "endash": '–', "bullet": '•',
	"lquote": '‘', "rquote": '’', "ldblquote": '“', "rdblquote": '”',
	"emspace": ' ', "enspace": ' ', "qmspace": ' ',
}

// groupState is the formatting and destination state saved on '{' and
// restored on '}'.
type groupState struct {
	dest       destination
	font       int // -1: document default
	size       int
	bold       bool
	italic     bool
	foreground document.Color
	background document.Color
	uc         int
}

type rtfParser struct {
	data []byte
	pos  int

	st    groupState
	stack []groupState

	fonts       map[int]string
	defaultFont int
	curFont     int
	fontName    strings.Builder
	escaped     bool // the rune being emitted came from \' or \u

	colors   []document.Color
	curColor document.Color

	charset  encoding.Encoding
	rawBytes []byte
	skip     int
	highSurr rune

	doc      *document.Document
	buf      []rune
	bufStyle document.Style
}

// DecodeRich parses RTF into a styled document. Input without an {\rtf header
// or with unbalanced braces is rejected as malformed.
func DecodeRich(data []byte) (*document.Document, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if !bytes.HasPrefix(trimmed, []byte(`{\rtf`)) {
		return nil, errors.NewMalformedRichText("missing {\\rtf header")
	}
	p := &rtfParser{
		data:        trimmed,
		st:          groupState{font: -1, uc: 1},
		fonts:       map[int]string{},
		defaultFont: -1,
		charset:     charmap.Windows1252,
		doc:         document.New(),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

func (p *rtfParser) parse() error {
	depth := 0
	for p.pos < len(p.data) {
		c := p.data[p.pos]

		if c == '\\' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '\'' {
			if err := p.hexEscape(); err != nil {
				return err
			}
			continue
		}
		if c >= 0x80 {
			p.pos++
			p.rawByte(c)
			continue
		}
		p.flushRaw()

		switch c {
		case '{':
			p.pos++
			depth++
			p.stack = append(p.stack, p.st)
			p.skip = 0
		case '}':
			p.pos++
			depth--
			if depth < 0 {
				return errors.NewMalformedRichText("unbalanced closing brace")
			}
			if p.st.dest == destFontTable {
				p.commitFont()
			}
			p.skip = 0
			p.st = p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			if depth == 0 {
				p.flushText()
				if len(bytes.TrimRight(p.data[p.pos:], " \t\r\n\x00")) > 0 {
					return errors.NewMalformedRichText("content after closing brace")
				}
				return nil
			}
		case '\\':
			p.pos++
			if err := p.control(); err != nil {
				return err
			}
		case '\r', '\n':
			p.pos++
		default:
			p.pos++
			p.char(rune(c))
		}
	}
	return errors.NewMalformedRichText("unexpected end of input: unclosed group")
}

// control handles the token after a backslash.
func (p *rtfParser) control() error {
	if p.pos >= len(p.data) {
		return errors.NewMalformedRichText("dangling backslash")
	}
	c := p.data[p.pos]
	if !isLetter(c) {
		p.pos++
		switch c {
		case '\\', '{', '}':
			p.char(rune(c))
		case '~':
			p.char(' ')
		case '_':
			p.char('‑')
		case '*':
			p.st.dest = destSkip
		case '\r', '\n':
			p.char('\n')
		}
		return nil
	}

	start := p.pos
	for p.pos < len(p.data) && isLetter(p.data[p.pos]) {
		p.pos++
	}
	word := string(p.data[start:p.pos])

	hasParam := false
	param := 0
	numStart := p.pos
	if p.pos < len(p.data) && p.data[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
		p.pos++
	}
	if p.pos > numStart && p.data[p.pos-1] != '-' {
		n, err := strconv.Atoi(string(p.data[numStart:p.pos]))
		if err != nil {
			return errors.NewMalformedRichText(fmt.Sprintf("bad parameter for \\%s", word))
		}
		param, hasParam = n, true
	} else {
		p.pos = numStart
	}
	if p.pos < len(p.data) && p.data[p.pos] == ' ' {
		p.pos++
	}

	return p.word(word, param, hasParam)
}

func (p *rtfParser) word(word string, param int, hasParam bool) error {
	on := !hasParam || param != 0

	if word == "bin" {
		if param < 0 || p.pos+param > len(p.data) {
			return errors.NewMalformedRichText("\\bin length out of range")
		}
		p.pos += param
		return nil
	}
	if p.st.dest == destSkip {
		return nil
	}
	if skippedDestinations[word] {
		p.st.dest = destSkip
		return nil
	}

	switch word {
	case "fonttbl":
		p.st.dest = destFontTable
	case "colortbl":
		p.st.dest = destColorTable
		p.curColor = document.Color{}
	case "ansicpg":
		if enc := codePage(param); enc != nil {
			p.charset = enc
		}
	case "mac":
		p.charset = charmap.Macintosh
	case "pc":
		p.charset = charmap.CodePage437
	case "pca":
		p.charset = charmap.CodePage850
	case "deff":
		p.defaultFont = param
	case "f":
		if p.st.dest == destFontTable {
			p.commitFont()
			p.curFont = param
		} else {
			p.st.font = param
		}
	case "fs":
		if hasParam {
			p.st.size = (param + 1) / 2
		}
	case "b":
		p.st.bold = on
	case "i":
		p.st.italic = on
	case "cf":
		p.st.foreground = p.color(param)
	case "cb", "highlight":
		p.st.background = p.color(param)
	case "plain":
		p.st.font, p.st.size = -1, 0
		p.st.bold, p.st.italic = false, false
		p.st.foreground, p.st.background = document.Color{}, document.Color{}
	case "red":
		p.curColor.R, p.curColor.Valid = uint8(param), true
	case "green":
		p.curColor.G, p.curColor.Valid = uint8(param), true
	case "blue":
		p.curColor.B, p.curColor.Valid = uint8(param), true
	case "uc":
		if param >= 0 {
			p.st.uc = param
		}
	case "u":
		p.unicode(param)
	default:
		if r, ok := symbolWords[word]; ok {
			p.char(r)
		}
	}
	return nil
}

func (p *rtfParser) hexEscape() error {
	if p.pos+4 > len(p.data) {
		return errors.NewMalformedRichText("truncated \\' escape")
	}
	v, err := strconv.ParseUint(string(p.data[p.pos+2:p.pos+4]), 16, 8)
	if err != nil {
		return errors.NewMalformedRichText(fmt.Sprintf("bad hex escape %q", p.data[p.pos:p.pos+4]))
	}
	p.pos += 4
	p.rawByte(byte(v))
	return nil
}

// rawByte queues a byte in the document charset. Consecutive bytes are decoded
// together so multi-byte code pages work.
func (p *rtfParser) rawByte(b byte) {
	if p.skip > 0 {
		p.skip--
		return
	}
	p.rawBytes = append(p.rawBytes, b)
}

func (p *rtfParser) flushRaw() {
	if len(p.rawBytes) == 0 {
		return
	}
	raw := p.rawBytes
	p.rawBytes = nil
	out, err := p.charset.NewDecoder().Bytes(raw)
	if err != nil {
		out = bytes.Repeat([]byte("�"), len(raw))
	}
	for _, r := range string(out) {
		p.emitEscaped(r)
	}
}

func (p *rtfParser) unicode(n int) {
	if n < 0 {
		n += 0x10000
	}
	r := rune(n)
	switch {
	case utf16.IsSurrogate(r) && r < 0xdc00:
		p.highSurr = r
	case utf16.IsSurrogate(r):
		if p.highSurr != 0 {
			p.emitEscaped(utf16.DecodeRune(p.highSurr, r))
		} else {
			p.emitEscaped('�')
		}
		p.highSurr = 0
	default:
		p.emitEscaped(r)
	}
	p.skip = p.st.uc
}

// char handles a literal body character, honouring the \uc skip count.
func (p *rtfParser) char(r rune) {
	if p.skip > 0 {
		p.skip--
		return
	}
	p.emit(r)
}

// emitEscaped emits r as content even where the raw character is syntax,
// such as ';' inside the font table.
func (p *rtfParser) emitEscaped(r rune) {
	p.escaped = true
	p.emit(r)
	p.escaped = false
}

func (p *rtfParser) emit(r rune) {
	switch p.st.dest {
	case destText:
		st := p.style()
		if len(p.buf) > 0 && st != p.bufStyle {
			p.flushText()
		}
		p.bufStyle = st
		p.buf = append(p.buf, r)
	case destFontTable:
		if r == ';' && !p.escaped {
			p.commitFont()
		} else {
			p.fontName.WriteRune(r)
		}
	case destColorTable:
		if r == ';' {
			p.colors = append(p.colors, p.curColor)
			p.curColor = document.Color{}
		}
	}
}

func (p *rtfParser) flushText() {
	if len(p.buf) == 0 {
		return
	}
	p.doc.AppendStyled(string(p.buf), p.bufStyle)
	p.buf = p.buf[:0]
}

func (p *rtfParser) commitFont() {
	name := strings.TrimSpace(p.fontName.String())
	p.fontName.Reset()
	if name != "" {
		p.fonts[p.curFont] = name
	} else if _, ok := p.fonts[p.curFont]; !ok {
		p.fonts[p.curFont] = ""
	}
}

func (p *rtfParser) style() document.Style {
	font := p.st.font
	if font < 0 {
		font = p.defaultFont
	}
	return document.Style{
		FontFamily: p.fonts[font],
		FontSize:   p.st.size,
		Bold:       p.st.bold,
		Italic:     p.st.italic,
		Foreground: p.st.foreground,
		Background: p.st.background,
	}
}

// color resolves a colour table index; 0 and unknown indexes mean automatic.
func (p *rtfParser) color(n int) document.Color {
	if n <= 0 || n >= len(p.colors) {
		return document.Color{}
	}
	return p.colors[n]
}

func codePage(n int) encoding.Encoding {
	if n == 65001 {
		return encoding.Nop
	}
	enc, err := ResolveEncoding("windows-" + strconv.Itoa(n))
	if err != nil {
		enc, err = ResolveEncoding("cp" + strconv.Itoa(n))
		if err != nil {
			return nil
		}
	}
	return enc
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
