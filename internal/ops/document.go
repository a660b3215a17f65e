package ops

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/config"
	"github.com/guangnotepad/guang/internal/db"
	"github.com/guangnotepad/guang/internal/document"
	"github.com/guangnotepad/guang/internal/errors"
)

// DetectInput contains parameters for the Detect operation.
type DetectInput struct {
	Path string // required
}

// DetectOutput contains the result of the Detect operation.
type DetectOutput struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Encoding string `json:"encoding"`
	Fallback bool   `json:"fallback"` // detection was inconclusive
}

// Detect guesses the charset of a document without decoding it.
func Detect(cfg *config.Config, input DetectInput) (*DetectOutput, error) {
	cfg = orDefault(cfg)
	path, err := ValidatePath(input.Path, PathCheckRead, cfg)
	if err != nil {
		return nil, err
	}
	format, err := codec.FormatForPath(path)
	if err != nil {
		return nil, err
	}

	enc := codec.DetectFile(path, codec.DetectOptionsFromConfig(cfg))
	return &DetectOutput{
		Path:     path,
		Format:   format.String(),
		Encoding: enc,
		Fallback: enc == cfg.FallbackEncoding,
	}, nil
}

// ReadInput contains parameters for the Read operation.
type ReadInput struct {
	Path        string // required
	Encoding    string // optional, skips detection for plain text
	IncludeRuns bool
}

// ReadOutput contains the result of the Read operation.
type ReadOutput struct {
	Path     string         `json:"path"`
	Name     string         `json:"name"`
	Format   string         `json:"format"`
	Encoding string         `json:"encoding,omitempty"`
	Text     string         `json:"text"`
	Runs     []document.Run `json:"runs,omitempty"`
	Chars    int            `json:"chars"`
	Bytes    int64          `json:"bytes"`
}

// Read loads a document and returns its text, and optionally its styled runs.
// When database is non-nil the open is recorded in the recent list.
func Read(database *sql.DB, cfg *config.Config, input ReadInput) (*ReadOutput, error) {
	cfg = orDefault(cfg)
	path, err := ValidatePath(input.Path, PathCheckRead, cfg)
	if err != nil {
		return nil, err
	}

	loaded, err := load(cfg, path, input.Encoding)
	if err != nil {
		return nil, err
	}
	if err := touch(database, cfg, path, loaded.Format, loaded.Encoding, db.EventOpen); err != nil {
		return nil, err
	}

	out := &ReadOutput{
		Path:     path,
		Name:     filepath.Base(path),
		Format:   loaded.Format.String(),
		Encoding: loaded.Encoding,
		Text:     loaded.Doc.Text(),
		Chars:    loaded.Doc.Len(),
		Bytes:    loaded.Size,
	}
	if input.IncludeRuns {
		out.Runs = loaded.Doc.Runs()
	}
	return out, nil
}

// WriteInput contains parameters for the Write operation.
type WriteInput struct {
	Path      string         // required
	Text      string         // document content
	Runs      []document.Run // optional, .rtf only; must cover Text
	Encoding  string         // optional, plain text only; default: cfg.DefaultEncoding
	Overwrite bool
}

// WriteOutput contains the result of the Write operation.
type WriteOutput struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Encoding string `json:"encoding,omitempty"`
	Bytes    int    `json:"bytes"`
	Created  bool   `json:"created"`
}

// Write creates or replaces a document. Existing files are only replaced
// when Overwrite is set.
func Write(database *sql.DB, cfg *config.Config, input WriteInput) (*WriteOutput, error) {
	cfg = orDefault(cfg)
	path, err := ValidatePath(input.Path, PathCheckWrite, cfg)
	if err != nil {
		return nil, err
	}
	format, err := codec.FormatForPath(path)
	if err != nil {
		return nil, err
	}

	created, err := checkOverwrite(path, input.Overwrite)
	if err != nil {
		return nil, err
	}

	text := codec.NormalizeNewlines(input.Text)
	var doc *document.Document
	switch {
	case len(input.Runs) == 0:
		doc = document.NewPlain(text)
	case format != codec.Rich:
		return nil, errors.NewInvalidRequest("runs are only stored in .rtf documents")
	default:
		doc, err = document.FromRuns(text, input.Runs)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
	}

	enc := encodingFor(cfg, format, input.Encoding)
	data, err := codec.Encode(doc, format, enc)
	if err != nil {
		return nil, err
	}
	if err := codec.WriteFile(path, data); err != nil {
		return nil, err
	}
	if err := touch(database, cfg, path, format, enc, db.EventSave); err != nil {
		return nil, err
	}

	return &WriteOutput{
		Path:     path,
		Format:   format.String(),
		Encoding: enc,
		Bytes:    len(data),
		Created:  created,
	}, nil
}

// ConvertInput contains parameters for the Convert operation.
type ConvertInput struct {
	Source         string // required
	Dest           string // required; format taken from its extension
	SourceEncoding string // optional, skips detection
	Encoding       string // optional, for a plain destination
	Overwrite      bool
}

// ConvertOutput contains the result of the Convert operation.
type ConvertOutput struct {
	Source       string `json:"source"`
	Dest         string `json:"dest"`
	FromFormat   string `json:"from_format"`
	ToFormat     string `json:"to_format"`
	FromEncoding string `json:"from_encoding,omitempty"`
	Encoding     string `json:"encoding,omitempty"`
	Runs         int    `json:"runs"`
	Bytes        int    `json:"bytes"`
}

// Convert reads Source and writes it to Dest, re-encoding plain text and
// moving between plain and rich text as the extensions say. Rich to plain
// drops all styling.
func Convert(database *sql.DB, cfg *config.Config, input ConvertInput) (*ConvertOutput, error) {
	cfg = orDefault(cfg)
	src, err := ValidatePath(input.Source, PathCheckRead, cfg)
	if err != nil {
		return nil, err
	}
	dst, err := ValidatePath(input.Dest, PathCheckWrite, cfg)
	if err != nil {
		return nil, err
	}
	if src == dst {
		return nil, errors.NewInvalidRequest("source and destination must differ")
	}
	toFormat, err := codec.FormatForPath(dst)
	if err != nil {
		return nil, err
	}
	if _, err := checkOverwrite(dst, input.Overwrite); err != nil {
		return nil, err
	}

	loaded, err := load(cfg, src, input.SourceEncoding)
	if err != nil {
		return nil, err
	}

	enc := encodingFor(cfg, toFormat, input.Encoding)
	data, err := codec.Encode(loaded.Doc, toFormat, enc)
	if err != nil {
		return nil, err
	}
	if err := codec.WriteFile(dst, data); err != nil {
		return nil, err
	}
	if err := touch(database, cfg, dst, toFormat, enc, db.EventSave); err != nil {
		return nil, err
	}

	return &ConvertOutput{
		Source:       src,
		Dest:         dst,
		FromFormat:   loaded.Format.String(),
		ToFormat:     toFormat.String(),
		FromEncoding: loaded.Encoding,
		Encoding:     enc,
		Runs:         len(loaded.Doc.Runs()),
		Bytes:        len(data),
	}, nil
}

func orDefault(cfg *config.Config) *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

func load(cfg *config.Config, path, encoding string) (*codec.Loaded, error) {
	return codec.Load(path, codec.LoadOptions{
		Encoding: encoding,
		Detect:        codec.DetectOptionsFromConfig(cfg),
		MaxBytes:      cfg.MaxFileBytes,
		ASCIIEncoding: cfg.DefaultEncoding,
	})
}

// encodingFor picks the charset for writing: none for rich text, otherwise
// the requested one or the configured default.
func encodingFor(cfg *config.Config, f codec.Format, requested string) string {
	if f == codec.Rich {
		return ""
	}
	if requested != "" {
		return requested
	}
	return cfg.DefaultEncoding
}

// checkOverwrite reports whether path is new, failing when it exists and
// overwrite was not requested.
func checkOverwrite(path string, overwrite bool) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, errors.NewIOFailure("stat", path, err)
	}
	if info.IsDir() {
		return false, errors.NewInvalidRequest("path is a directory")
	}
	if !overwrite {
		return false, errors.NewInvalidRequest("file already exists; set overwrite to replace it")
	}
	return false, nil
}
