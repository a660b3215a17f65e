package codec

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/guangnotepad/guang/internal/config"
	"github.com/guangnotepad/guang/internal/document"
	"github.com/guangnotepad/guang/internal/errors"
)

// ReadFile reads the whole file at path. A positive maxBytes caps the size.
// The handle is closed before returning on every path.
func ReadFile(path string, maxBytes int64) ([]byte, error) {
	f, err := openFileRead(path)
	if err != nil {
		var ge *errors.GuangError
		if stderrors.As(err, &ge) {
			return nil, ge
		}
		return nil, errors.NewIOFailure("read", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.NewIOFailure("read", path, err)
	}
	if info.IsDir() {
		return nil, errors.NewIOFailure("read", path, fmt.Errorf("is a directory"))
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, errors.NewFileTooLarge(maxBytes, info.Size())
	}

	var r io.Reader = f
	if maxBytes > 0 {
		// Size can change between Stat and read.
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOFailure("read", path, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, errors.NewFileTooLarge(maxBytes, int64(len(data)))
	}
	return data, nil
}

// WriteFile replaces the file at path with data. The bytes go to a temp file in
// the same directory which is synced and renamed into place, so a failed write
// leaves the previous content intact. A symlink at path is refused.
func WriteFile(path string, data []byte) error {
	perm := os.FileMode(0644)
	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("cannot write to symlink")
		}
		if info.IsDir() {
			return errors.NewIOFailure("write", path, fmt.Errorf("is a directory"))
		}
		perm = info.Mode().Perm()
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+hex.EncodeToString(randBytes)+".tmp")
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		var ge *errors.GuangError
		if stderrors.As(err, &ge) {
			return ge
		}
		return errors.NewIOFailure("write", path, err)
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewIOFailure("write", path, err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewIOFailure("write", path, err)
	}
	// Close before rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewIOFailure("write", path, err)
	}
	file = nil

	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewIOFailure("write", path, err)
	}
	success = true
	return nil
}

// Loaded is the result of Load.
type Loaded struct {
	Doc      *document.Document
	Format   Format
	Encoding string // charset used for plain text; empty for rich text
	Size     int64
}

// LoadOptions controls Load.
type LoadOptions struct {
	// Encoding skips detection when set. Ignored for rich text.
	Encoding string
	Detect   DetectOptions
	MaxBytes int64
	// ASCIIEncoding is recorded instead of the detector's guess when a plain
	// file holds only 7-bit ASCII, so that later edits stay encodable.
	// Default: config default_encoding.
	ASCIIEncoding string
}

// Load reads path and decodes it according to its extension. Plain text is run
// through encoding detection unless an encoding is given.
func Load(path string, opts LoadOptions) (*Loaded, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := ReadFile(path, opts.MaxBytes)
	if err != nil {
		return nil, err
	}

	enc := opts.Encoding
	detected := false
	if format == Plain && enc == "" {
		enc = DetectEncoding(bytes.NewReader(data), opts.Detect)
		detected = true
	}
	doc, err := Decode(data, format, enc)
	if err != nil {
		return nil, err
	}
	switch {
	case format == Rich:
		enc = ""
	case detected && isASCII(data):
		enc = asciiEncoding(data, doc.Text(), opts.ASCIIEncoding, enc)
	}
	return &Loaded{Doc: doc, Format: format, Encoding: enc, Size: int64(len(data))}, nil
}

// isASCII reports whether data is non-empty 7-bit text. NUL bytes point at
// UTF-16 or UTF-32 without a BOM and are left to the detector.
func isASCII(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	for _, b := range data {
		if b == 0 || b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// asciiEncoding picks the charset to record for an ASCII-only file: the
// preferred one (config default_encoding when empty) as long as it writes the
// unchanged text back byte for byte (line terminators aside), otherwise the
// detected one.
func asciiEncoding(data []byte, text, preferred, detected string) string {
	if preferred == "" {
		preferred = config.DefaultConfig().DefaultEncoding
	}
	out, err := EncodePlain(text, preferred)
	if err != nil || string(out) != NormalizeNewlines(string(data)) {
		return detected
	}
	return preferred
}

// Decode turns bytes into a document. encodingName applies to plain text only.
func Decode(data []byte, f Format, encodingName string) (*document.Document, error) {
	if f == Rich {
		return DecodeRich(data)
	}
	text, err := DecodePlain(data, encodingName)
	if err != nil {
		return nil, err
	}
	return document.NewPlain(text), nil
}

// Encode turns a document into bytes. Rich text ignores encodingName; plain
// text drops all styling.
func Encode(doc *document.Document, f Format, encodingName string) ([]byte, error) {
	if f == Rich {
		return EncodeRich(doc), nil
	}
	return EncodePlain(doc.Text(), encodingName)
}

// Save encodes doc and writes it to path.
func Save(path string, doc *document.Document, f Format, encodingName string) error {
	data, err := Encode(doc, f, encodingName)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}
