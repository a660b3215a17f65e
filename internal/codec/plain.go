package codec

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"github.com/guangnotepad/guang/internal/errors"
)

// aliases covers detector output and legacy names that neither the WHATWG nor
// the IANA index knows under that spelling.
var aliases = map[string]encoding.Encoding{
	"utf-16":   unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"utf-16be": unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	"utf-16le": unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	"utf-32":   utf32.UTF32(utf32.BigEndian, utf32.UseBOM),
	"utf-32be": utf32.UTF32(utf32.BigEndian, utf32.UseBOM),
	"utf-32le": utf32.UTF32(utf32.LittleEndian, utf32.UseBOM),
	"gb-18030": simplifiedchinese.GB18030,
}

// ResolveEncoding maps a charset name to an encoding. Lookup order: local
// aliases, the WHATWG index (which knows labels such as "cp1251"), then IANA.
func ResolveEncoding(name string) (encoding.Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, errors.NewUnsupportedEncoding(name)
	}
	if enc, ok := aliases[key]; ok {
		return enc, nil
	}
	if enc, err := htmlindex.Get(key); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	return nil, errors.NewUnsupportedEncoding(name)
}

// bomOverridable reports whether a UTF-8 or UTF-16 BOM at the start of input
// should win over the named encoding. UTF-32 decoders handle their own BOM.
func bomOverridable(name string) bool {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "")
	return strings.HasPrefix(key, "utf8") || strings.HasPrefix(key, "utf16")
}

// DecodePlain decodes data in the named encoding and normalizes line
// terminators to "\n". Bytes with no mapping decode to U+FFFD.
func DecodePlain(data []byte, encodingName string) (string, error) {
	enc, err := ResolveEncoding(encodingName)
	if err != nil {
		return "", err
	}

	var t transform.Transformer = enc.NewDecoder()
	if bomOverridable(encodingName) {
		t = unicode.BOMOverride(t)
	}
	out, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", errors.NewUnsupportedEncoding(encodingName)
	}
	return NormalizeNewlines(string(out)), nil
}

// EncodePlain encodes text in the named encoding. A rune the encoding cannot
// represent fails the whole encode rather than being replaced.
func EncodePlain(text, encodingName string) ([]byte, error) {
	enc, err := ResolveEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, errors.NewUnencodable(encodingName, err)
	}
	return out, nil
}

// NormalizeNewlines rewrites "\r\n" and lone "\r" as "\n".
func NormalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
