package editor

import (
	stderrors "errors"
	"io"
	"log"
	"path/filepath"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/config"
	"github.com/guangnotepad/guang/internal/document"
	"github.com/guangnotepad/guang/internal/errors"
)

// Identity ties a document to a file on disk.
type Identity struct {
	Path     string       `json:"path"`
	Name     string       `json:"name"`
	Encoding string       `json:"encoding,omitempty"`
	Format   codec.Format `json:"format"`
}

// State is the lifecycle state derived from the flags and document emptiness.
type State int

const (
	NewEmpty State = iota
	NewUnsaved
	NamedUnsaved
	NamedSaved
)

func (s State) String() string {
	switch s {
	case NewUnsaved:
		return "new_unsaved"
	case NamedUnsaved:
		return "named_unsaved"
	case NamedSaved:
		return "named_saved"
	}
	return "new_empty"
}

// Options configures a Controller. Every field is optional.
type Options struct {
	Config   *config.Config
	Recorder Recorder
	Logger   *log.Logger
	// Detector replaces the statistical charset detector.
	Detector codec.Detector
}

// Controller owns one document and its lifecycle flags. It is driven from a
// single event loop and is not safe for concurrent use.
type Controller struct {
	doc      *document.Document
	shell    Shell
	cfg      *config.Config
	recorder Recorder
	logger   *log.Logger
	detect   codec.DetectOptions

	identity  *Identity
	isNewFile bool
	isSaved   bool
	// pristine holds from construction or New until the first edit. Only a
	// pristine document shows its title without the modified marker while
	// unsaved.
	pristine bool

	// quiet suppresses dirty tracking while the controller itself replaces
	// the document content.
	quiet bool
}

// New creates a controller for an empty, never-saved document.
func New(shell Shell, opts Options) *Controller {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	detect := codec.DetectOptionsFromConfig(cfg)
	detect.Detector = opts.Detector

	c := &Controller{
		doc:       document.New(),
		shell:     shell,
		cfg:       cfg,
		recorder:  opts.Recorder,
		logger:    logger,
		detect:    detect,
		isNewFile: true,
		pristine:  true,
	}
	c.doc.OnChange(c.edited)
	c.syncTitle()
	return c
}

// Document returns the edited document. Mutations through it mark the
// controller dirty.
func (c *Controller) Document() *document.Document {
	return c.doc
}

// Identity returns a copy of the file identity, or nil for a never-saved document.
func (c *Controller) Identity() *Identity {
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

// IsSaved reports whether the document matches what was last persisted.
func (c *Controller) IsSaved() bool { return c.isSaved }

// IsNewFile reports whether the document has never been tied to a path.
func (c *Controller) IsNewFile() bool { return c.isNewFile }

// State returns the current lifecycle state.
func (c *Controller) State() State {
	switch {
	case c.isNewFile && c.doc.IsEmpty():
		return NewEmpty
	case c.isNewFile:
		return NewUnsaved
	case c.isSaved:
		return NamedSaved
	}
	return NamedUnsaved
}

// Title returns the title the window should show.
func (c *Controller) Title() string {
	base := DefaultTitle
	if c.identity != nil {
		base = c.identity.Name
	}
	if !c.isSaved && !c.pristine {
		return base + ModifiedMarker
	}
	return base
}

func (c *Controller) syncTitle() {
	if title := c.Title(); c.shell.Title() != title {
		c.shell.SetTitle(title)
	}
}

func (c *Controller) edited() {
	if c.quiet {
		return
	}
	c.isSaved = false
	c.pristine = false
	c.syncTitle()
}

// New clears the document. A non-empty document prompts first: Yes saves and
// aborts the New if that save does not complete, No discards, Cancel leaves
// everything as it was.
func (c *Controller) New() error {
	if !c.doc.IsEmpty() {
		switch c.shell.Confirm(MsgSaveCurrent) {
		case Yes:
			if err := c.Save(); err != nil {
				return err
			}
			c.reset()
			c.shell.Notify(MsgSavedAndCreated)
			return nil
		case No:
		default:
			return errors.NewCancelled("new")
		}
	}
	c.reset()
	c.shell.Notify(MsgCreated)
	return nil
}

func (c *Controller) reset() {
	c.quiet = true
	c.doc.Clear()
	c.quiet = false
	c.identity = nil
	c.isNewFile = true
	c.isSaved = false
	c.pristine = true
	c.syncTitle()
}

// Open asks for a file and loads it.
func (c *Controller) Open() error {
	path, ok := c.shell.ChooseOpen(codec.Filters())
	if !ok {
		c.shell.Notify(MsgNotSelected)
		return errors.NewCancelled("open")
	}
	return c.OpenPath(path)
}

// OpenPath loads path into the document, replacing its content. On any
// failure the document and flags are left untouched.
func (c *Controller) OpenPath(path string) error {
	if _, err := codec.FormatForPath(path); err != nil {
		return c.fail("open", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return c.fail("open", errors.NewIOFailure("open", path, err))
	}

	loaded, err := codec.Load(abs, codec.LoadOptions{
		Detect:        c.detect,
		MaxBytes:      c.cfg.MaxFileBytes,
		ASCIIEncoding: c.cfg.DefaultEncoding,
	})
	if err != nil {
		return c.fail("open", err)
	}

	c.quiet = true
	c.doc.ReplaceWith(loaded.Doc)
	c.quiet = false
	c.identity = &Identity{
		Path:     abs,
		Name:     filepath.Base(abs),
		Encoding: loaded.Encoding,
		Format:   loaded.Format,
	}
	c.isNewFile = false
	c.isSaved = true
	c.syncTitle()
	c.record("open")
	return nil
}

// Save writes the document to its file, or delegates to SaveAs for a document
// that has never been saved.
func (c *Controller) Save() error {
	if c.isNewFile || c.identity == nil {
		return c.SaveAs()
	}

	enc := c.identity.Encoding
	if c.identity.Format == codec.Plain && enc == "" {
		enc = c.cfg.DefaultEncoding
	}
	if err := codec.Save(c.identity.Path, c.doc, c.identity.Format, enc); err != nil {
		return c.fail("save", err)
	}
	if c.identity.Format == codec.Plain {
		c.identity.Encoding = enc
	}

	c.isSaved = true
	c.syncTitle()
	c.record("save")
	c.shell.Notify(MsgSaved)
	return nil
}

// SaveAs asks for a destination and format and writes the document there. A
// name without an extension gets the chosen format's extension.
func (c *Controller) SaveAs() error {
	preferred := codec.PlainFilter
	if c.identity != nil {
		preferred = codec.FilterFor(c.identity.Format)
	}
	path, filter, ok := c.shell.ChooseSave(codec.Filters(), preferred)
	if !ok {
		c.shell.Notify(MsgNotSaved)
		return errors.NewCancelled("save")
	}

	path = codec.EnsureExtension(path, filter)
	format, err := codec.FormatForPath(path)
	if err != nil {
		return c.fail("save", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return c.fail("save", errors.NewIOFailure("save", path, err))
	}

	enc := ""
	if format == codec.Plain {
		enc = c.cfg.DefaultEncoding
		if c.identity != nil && c.identity.Format == codec.Plain && c.identity.Encoding != "" {
			enc = c.identity.Encoding
		}
	}
	if err := codec.Save(abs, c.doc, format, enc); err != nil {
		return c.fail("save", err)
	}

	c.identity = &Identity{Path: abs, Name: filepath.Base(abs), Encoding: enc, Format: format}
	c.isNewFile = false
	c.isSaved = true
	c.syncTitle()
	c.record("save")
	c.shell.Notify(MsgSavedAs)
	return nil
}

// Exit quits when nothing would be lost, otherwise asks. It reports whether
// the window was told to quit.
func (c *Controller) Exit() bool {
	if c.isSaved || (c.isNewFile && c.doc.IsEmpty()) {
		c.shell.Quit(0)
		return true
	}

	switch c.shell.Confirm(MsgSaveBeforeLeaving) {
	case Yes:
		if err := c.Save(); err != nil || !c.isSaved {
			return false
		}
		c.shell.Quit(0)
		return true
	case No:
		c.shell.Quit(0)
		return true
	}
	return false
}

// fail logs err, shows it to the user, and returns it.
func (c *Controller) fail(op string, err error) error {
	c.logger.Printf("%s failed: %v", op, err)
	c.shell.Notify(Message(err))
	return err
}

func (c *Controller) record(event string) {
	if c.recorder == nil || c.identity == nil {
		return
	}
	if err := c.recorder.Record(*c.identity, event); err != nil {
		c.logger.Printf("record %s %s: %v", event, c.identity.Path, err)
	}
}

// Message renders err for a notification popup.
func Message(err error) string {
	var ge *errors.GuangError
	if stderrors.As(err, &ge) {
		switch ge.Code {
		case errors.ErrIOFailure, errors.ErrUnencodable:
			if ge.Details != nil && ge.Details["op"] == "read" {
				return "Error reading file: " + ge.Message
			}
			return "Exception when saving file!\n" + ge.Message
		case errors.ErrMalformedRichText, errors.ErrFileTooLarge, errors.ErrNotFound, errors.ErrUnsupportedEncoding:
			return "Error reading file: " + ge.Message
		}
		return ge.Message
	}
	return err.Error()
}
