// Package codec converts between files on disk and documents: charset
// detection, plain-text decode/encode, and RTF read/write.
package codec

import (
	"path/filepath"
	"strings"

	"github.com/guangnotepad/guang/internal/errors"
)

// Format is the persisted form of a document. It is resolved once from the
// file extension and then carried as data.
type Format int

const (
	Plain Format = iota
	Rich
)

// String returns the format name used in JSON output and the recent-documents table.
func (f Format) String() string {
	if f == Rich {
		return "rich"
	}
	return "plain"
}

// Extension returns the canonical extension (without dot) for the format.
func (f Format) Extension() string {
	if f == Rich {
		return "rtf"
	}
	return "txt"
}

// ParseFormat parses "plain"/"txt" or "rich"/"rtf".
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "txt", "text":
		return Plain, true
	case "rich", "rtf":
		return Rich, true
	}
	return Plain, false
}

// Filter is a file-dialog filter entry.
type Filter struct {
	Description string
	Extension   string
	Format      Format
}

var (
	PlainFilter = Filter{Description: "Text document", Extension: "txt", Format: Plain}
	RichFilter  = Filter{Description: "Rich text document", Extension: "rtf", Format: Rich}
)

// Filters lists the supported formats in dialog order.
func Filters() []Filter {
	return []Filter{PlainFilter, RichFilter}
}

// FilterFor returns the dialog filter for a format.
func FilterFor(f Format) Filter {
	if f == Rich {
		return RichFilter
	}
	return PlainFilter
}

// Extension returns the text after the last '.' in the base name of path, or
// "" when the name has no '.'.
func Extension(path string) string {
	name := filepath.Base(path)
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

// FormatForPath resolves the format from the file extension, case-insensitively.
// Any extension other than txt or rtf, including none, is rejected.
func FormatForPath(path string) (Format, error) {
	ext := Extension(path)
	switch strings.ToLower(ext) {
	case "txt":
		return Plain, nil
	case "rtf":
		return Rich, nil
	}
	return Plain, errors.NewUnsupportedExtension(filepath.Base(path), ext)
}

// EnsureExtension appends the filter's extension when the base name has none.
func EnsureExtension(path string, f Filter) string {
	if strings.Contains(filepath.Base(path), ".") {
		return path
	}
	return path + "." + f.Extension
}
