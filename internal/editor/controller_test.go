package editor

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/document"
	"github.com/guangnotepad/guang/internal/errors"
)

// fakeShell scripts every dialog and records what the controller asked for.
type fakeShell struct {
	title string

	answer  Choice
	prompts []string

	openPath  string
	openOK    bool
	openCalls int

	savePath   string
	saveFilter codec.Filter
	saveOK     bool
	saveCalls  int
	preferred  codec.Filter

	notes []string
	quits []int
}

func (f *fakeShell) Confirm(message string) Choice {
	f.prompts = append(f.prompts, message)
	return f.answer
}

func (f *fakeShell) ChooseOpen(filters []codec.Filter) (string, bool) {
	f.openCalls++
	return f.openPath, f.openOK
}

func (f *fakeShell) ChooseSave(filters []codec.Filter, preferred codec.Filter) (string, codec.Filter, bool) {
	f.saveCalls++
	f.preferred = preferred
	return f.savePath, f.saveFilter, f.saveOK
}

func (f *fakeShell) Notify(message string) { f.notes = append(f.notes, message) }
func (f *fakeShell) Title() string         { return f.title }
func (f *fakeShell) SetTitle(title string) { f.title = title }
func (f *fakeShell) Quit(code int)         { f.quits = append(f.quits, code) }

func (f *fakeShell) lastNote() string {
	if len(f.notes) == 0 {
		return ""
	}
	return f.notes[len(f.notes)-1]
}

// silentDetector never recognizes anything.
type silentDetector struct{}

func (silentDetector) Detect([]byte) (string, int, bool) { return "", 0, false }

// latin1Detector answers ISO-8859-1 the way chardet does for plain ASCII.
type latin1Detector struct{}

func (latin1Detector) Detect([]byte) (string, int, bool) { return "ISO-8859-1", 70, true }

type recorded struct {
	id    Identity
	event string
}

type fakeRecorder struct {
	events []recorded
	err    error
}

func (r *fakeRecorder) Record(id Identity, event string) error {
	r.events = append(r.events, recorded{id, event})
	return r.err
}

func newTestController(t *testing.T) (*Controller, *fakeShell) {
	t.Helper()
	shell := &fakeShell{}
	return New(shell, Options{}), shell
}

// assertMarker checks the title marker mirrors the dirty flag.
func assertMarker(t *testing.T, c *Controller, shell *fakeShell) {
	t.Helper()
	require.Equal(t, c.Title(), shell.title)
	if c.pristine {
		require.Equal(t, NewEmpty, c.State())
		require.False(t, strings.HasSuffix(shell.title, ModifiedMarker))
		return
	}
	require.Equal(t, !c.IsSaved(), strings.HasSuffix(shell.title, ModifiedMarker), "title %q saved=%v", shell.title, c.IsSaved())
}

func TestNewController_InitialState(t *testing.T) {
	c, shell := newTestController(t)

	require.Equal(t, NewEmpty, c.State())
	require.Equal(t, DefaultTitle, shell.title)
	require.True(t, c.IsNewFile())
	require.False(t, c.IsSaved())
	require.Nil(t, c.Identity())
}

func TestEdit_MarksDirty(t *testing.T) {
	c, shell := newTestController(t)

	c.Document().Append("hello")

	require.Equal(t, NewUnsaved, c.State())
	require.Equal(t, DefaultTitle+ModifiedMarker, shell.title)
	assertMarker(t, c, shell)
}

func TestEdit_DeletingEverythingKeepsMarker(t *testing.T) {
	c, shell := newTestController(t)

	c.Document().Append("a")
	require.NoError(t, c.Document().Delete(0, 1))

	require.True(t, c.Document().IsEmpty())
	require.False(t, c.IsSaved())
	require.Equal(t, DefaultTitle+ModifiedMarker, shell.title)
	assertMarker(t, c, shell)

	shell.answer = No
	require.NoError(t, c.New())
	require.Equal(t, DefaultTitle, shell.title)
	assertMarker(t, c, shell)
}

func TestExit_NewEmptyQuitsWithoutPrompt(t *testing.T) {
	c, shell := newTestController(t)

	require.True(t, c.Exit())

	require.Empty(t, shell.prompts)
	require.Equal(t, []int{0}, shell.quits)
}

func TestExit_CancelKeepsEditorOpen(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("typed")
	shell.answer = Cancel

	require.False(t, c.Exit())

	require.Equal(t, []string{MsgSaveBeforeLeaving}, shell.prompts)
	require.Empty(t, shell.quits)
	require.Equal(t, NewUnsaved, c.State())
	require.Equal(t, "typed", c.Document().Text())
}

func TestExit_DiscardQuits(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("typed")
	shell.answer = No

	require.True(t, c.Exit())
	require.Equal(t, []int{0}, shell.quits)
}

func TestExit_SaveCancelledAbortsExit(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("typed")
	shell.answer = Yes
	shell.saveOK = false

	require.False(t, c.Exit())

	require.Empty(t, shell.quits)
	require.Equal(t, MsgNotSaved, shell.lastNote())
}

func TestExit_SaveThenQuit(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("typed")
	shell.answer = Yes
	shell.saveOK = true
	shell.savePath = filepath.Join(t.TempDir(), "exit.txt")
	shell.saveFilter = codec.PlainFilter

	require.True(t, c.Exit())

	require.Equal(t, []int{0}, shell.quits)
	data, err := os.ReadFile(shell.savePath)
	require.NoError(t, err)
	require.Equal(t, "typed", string(data))
}

func TestExit_SavedDocumentQuits(t *testing.T) {
	c, shell := newTestController(t)
	path := filepath.Join(t.TempDir(), "saved.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, c.OpenPath(path))

	require.True(t, c.Exit())
	require.Empty(t, shell.prompts)
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("keep me")
	before := shell.title

	path := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b"), 0644))
	shell.openPath, shell.openOK = path, true

	err := c.Open()

	require.True(t, errors.Is(err, errors.ErrUnsupportedExtension), "got %v", err)
	require.Equal(t, 1, shell.openCalls)
	require.Equal(t, "keep me", c.Document().Text())
	require.Equal(t, before, shell.title)
	require.Equal(t, NewUnsaved, c.State())
	require.Len(t, shell.notes, 1)
}

func TestOpen_DialogCancelled(t *testing.T) {
	c, shell := newTestController(t)

	err := c.Open()

	require.True(t, errors.Is(err, errors.ErrCancelled))
	require.Equal(t, []string{MsgNotSelected}, shell.notes)
	require.Equal(t, NewEmpty, c.State())
}

func TestOpen_PlainFile(t *testing.T) {
	c, shell := newTestController(t)
	path := filepath.Join(t.TempDir(), "hello.TXT")
	require.NoError(t, os.WriteFile(path, []byte("line one\r\nline two"), 0644))
	shell.openPath, shell.openOK = path, true

	require.NoError(t, c.Open())

	require.Equal(t, "line one\nline two", c.Document().Text())
	require.Equal(t, NamedSaved, c.State())
	require.Equal(t, "hello.TXT", shell.title)
	id := c.Identity()
	require.Equal(t, path, id.Path)
	require.Equal(t, codec.Plain, id.Format)
	require.Empty(t, shell.notes)
	assertMarker(t, c, shell)
}

func TestOpen_UnrecognizableBytesFallBackToCP1251(t *testing.T) {
	shell := &fakeShell{}
	c := New(shell, Options{Detector: silentDetector{}})

	path := filepath.Join(t.TempDir(), "legacy.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xcf, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2}, 0644))

	require.NoError(t, c.OpenPath(path))

	require.Equal(t, "CP1251", c.Identity().Encoding)
	require.Equal(t, "Привет", c.Document().Text())
}

func TestOpen_MalformedRichTextLeavesDocument(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("draft")

	path := filepath.Join(t.TempDir(), "broken.rtf")
	require.NoError(t, os.WriteFile(path, []byte(`{\rtf1 unclosed`), 0644))

	err := c.OpenPath(path)

	require.True(t, errors.Is(err, errors.ErrMalformedRichText))
	require.Equal(t, "draft", c.Document().Text())
	require.True(t, c.IsNewFile())
	require.Contains(t, shell.lastNote(), "malformed rich text")
}

func TestSaveAs_AppendsExtension(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("remember the milk")

	dir := t.TempDir()
	shell.savePath = filepath.Join(dir, "notes")
	shell.saveFilter = codec.PlainFilter
	shell.saveOK = true

	require.NoError(t, c.SaveAs())

	want := filepath.Join(dir, "notes.txt")
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	require.Equal(t, "remember the milk", string(data))
	require.Equal(t, "notes.txt", shell.title)
	require.Equal(t, NamedSaved, c.State())
	require.Equal(t, MsgSavedAs, shell.lastNote())
	require.Equal(t, codec.PlainFilter, shell.preferred)
}

func TestSaveAs_RichFilter(t *testing.T) {
	c, shell := newTestController(t)
	doc := c.Document()
	doc.Append("plain ")
	doc.AppendStyled("bold", document.Style{Bold: true, FontFamily: "Arial"})

	shell.savePath = filepath.Join(t.TempDir(), "styled")
	shell.saveFilter = codec.RichFilter
	shell.saveOK = true
	require.NoError(t, c.SaveAs())

	require.Equal(t, "styled.rtf", shell.title)
	require.Equal(t, codec.Rich, c.Identity().Format)

	// Reopen into a fresh controller
	other, _ := newTestController(t)
	require.NoError(t, other.OpenPath(c.Identity().Path))
	require.Equal(t, doc.Runs(), other.Document().Runs())
}

func TestSaveAs_UnsupportedExtension(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("x")
	shell.savePath = filepath.Join(t.TempDir(), "notes.md")
	shell.saveFilter = codec.PlainFilter
	shell.saveOK = true

	err := c.SaveAs()

	require.True(t, errors.Is(err, errors.ErrUnsupportedExtension))
	require.True(t, c.IsNewFile())
	require.False(t, c.IsSaved())
}

func TestSave_NewFileDelegatesToSaveAs(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("x")

	err := c.Save()

	require.True(t, errors.Is(err, errors.ErrCancelled))
	require.Equal(t, 1, shell.saveCalls)
	require.Equal(t, MsgNotSaved, shell.lastNote())
	require.Equal(t, NewUnsaved, c.State())
}

func TestSave_TwiceWritesIdenticalBytes(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().AppendStyled("styled text\n", document.Style{Italic: true, Foreground: document.RGB(10, 20, 30)})
	shell.savePath = filepath.Join(t.TempDir(), "twice.rtf")
	shell.saveFilter = codec.RichFilter
	shell.saveOK = true
	require.NoError(t, c.SaveAs())

	require.NoError(t, c.Save())
	require.True(t, c.IsSaved())
	first, err := os.ReadFile(shell.savePath)
	require.NoError(t, err)

	require.NoError(t, c.Save())
	require.True(t, c.IsSaved())
	second, err := os.ReadFile(shell.savePath)
	require.NoError(t, err)

	require.True(t, bytes.Equal(first, second))
	require.Equal(t, MsgSaved, shell.lastNote())
	require.Equal(t, 1, shell.saveCalls)
}

func TestSave_KeepsDetectedEncoding(t *testing.T) {
	shell := &fakeShell{}
	c := New(shell, Options{Detector: silentDetector{}})
	path := filepath.Join(t.TempDir(), "legacy.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xcf, 0xf0, 0xe8}, 0644))
	require.NoError(t, c.OpenPath(path))

	c.Document().Append("вет")
	require.NoError(t, c.Save())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0xcf, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2}, data)
}

func TestSave_ASCIIFileAcceptsAnyText(t *testing.T) {
	shell := &fakeShell{}
	c := New(shell, Options{Detector: latin1Detector{}})
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0644))
	require.NoError(t, c.OpenPath(path))
	require.Equal(t, "UTF-8", c.Identity().Encoding)

	c.Document().Append("привет 你好")
	require.NoError(t, c.Save())

	require.True(t, c.IsSaved())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello\nпривет 你好", string(data))
}

func TestSave_FailureLeavesDirty(t *testing.T) {
	c, shell := newTestController(t)
	dir := filepath.Join(t.TempDir(), "gone")
	require.NoError(t, os.Mkdir(dir, 0755))
	c.Document().Append("x")
	shell.savePath = filepath.Join(dir, "a.txt")
	shell.saveFilter = codec.PlainFilter
	shell.saveOK = true
	require.NoError(t, c.SaveAs())

	c.Document().Append("y")
	require.NoError(t, os.RemoveAll(dir))

	err := c.Save()

	require.True(t, errors.Is(err, errors.ErrIOFailure), "got %v", err)
	require.False(t, c.IsSaved())
	require.Equal(t, NamedUnsaved, c.State())
	require.Contains(t, shell.lastNote(), "Exception when saving file!")
	assertMarker(t, c, shell)
}

func TestSave_UnencodableText(t *testing.T) {
	shell := &fakeShell{}
	c := New(shell, Options{Detector: silentDetector{}})
	path := filepath.Join(t.TempDir(), "legacy.txt")
	require.NoError(t, os.WriteFile(path, []byte{0xcf}, 0644))
	require.NoError(t, c.OpenPath(path))

	c.Document().Append("日本")
	err := c.Save()

	require.True(t, errors.Is(err, errors.ErrUnencodable))
	require.False(t, c.IsSaved())
}

func TestMarkerFollowsEditsAndSaves(t *testing.T) {
	c, shell := newTestController(t)
	shell.savePath = filepath.Join(t.TempDir(), "m.txt")
	shell.saveFilter = codec.PlainFilter
	shell.saveOK = true

	steps := []func(){
		func() { c.Document().Append("a") },
		func() { require.NoError(t, c.Save()) },
		func() { require.NoError(t, c.Document().Insert(0, "b")) },
		func() { require.NoError(t, c.Document().Delete(0, 1)) },
		func() { require.NoError(t, c.Save()) },
		func() {
			require.NoError(t, c.Document().Select(0, 1))
			require.True(t, c.Document().QuickHighlight())
		},
	}
	for i, step := range steps {
		step()
		t.Run(fmt.Sprintf("step %d", i), func(t *testing.T) { assertMarker(t, c, shell) })
	}
	require.Equal(t, "m.txt"+ModifiedMarker, shell.title)
}

func TestNew_EmptyDocumentNoPrompt(t *testing.T) {
	c, shell := newTestController(t)

	require.NoError(t, c.New())

	require.Empty(t, shell.prompts)
	require.Equal(t, []string{MsgCreated}, shell.notes)
	require.Equal(t, DefaultTitle, shell.title)
}

func TestNew_Cancel(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("work")
	shell.answer = Cancel

	err := c.New()

	require.True(t, errors.Is(err, errors.ErrCancelled))
	require.Equal(t, "work", c.Document().Text())
	require.Equal(t, NewUnsaved, c.State())
}

func TestNew_DiscardResetsIdentity(t *testing.T) {
	c, shell := newTestController(t)
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0644))
	require.NoError(t, c.OpenPath(path))
	shell.answer = No

	require.NoError(t, c.New())

	require.True(t, c.Document().IsEmpty())
	require.True(t, c.IsNewFile())
	require.False(t, c.IsSaved())
	require.Nil(t, c.Identity())
	require.Equal(t, DefaultTitle, shell.title)
	require.Equal(t, MsgCreated, shell.lastNote())

	data, _ := os.ReadFile(path)
	require.Equal(t, "content", string(data))
}

func TestNew_SaveFirst(t *testing.T) {
	c, shell := newTestController(t)
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
	require.NoError(t, c.OpenPath(path))
	c.Document().SetText("new content")
	shell.answer = Yes

	require.NoError(t, c.New())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new content", string(data))
	require.Equal(t, NewEmpty, c.State())
	require.Equal(t, MsgSavedAndCreated, shell.lastNote())
}

func TestNew_SaveCancelledAbortsNew(t *testing.T) {
	c, shell := newTestController(t)
	c.Document().Append("unsaved work")
	shell.answer = Yes
	shell.saveOK = false

	err := c.New()

	require.True(t, errors.Is(err, errors.ErrCancelled))
	require.Equal(t, "unsaved work", c.Document().Text())
}

func TestRecorder(t *testing.T) {
	rec := &fakeRecorder{err: fmt.Errorf("db locked")}
	var logs bytes.Buffer
	shell := &fakeShell{}
	c := New(shell, Options{Recorder: rec, Logger: log.New(&logs, "", 0)})

	path := filepath.Join(t.TempDir(), "r.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, c.OpenPath(path))
	c.Document().Append("y")
	require.NoError(t, c.Save(), "recorder failure must not fail the save")

	require.Len(t, rec.events, 2)
	require.Equal(t, "open", rec.events[0].event)
	require.Equal(t, "save", rec.events[1].event)
	require.Equal(t, "r.txt", rec.events[1].id.Name)
	require.Contains(t, logs.String(), "db locked")
}

func TestStateString(t *testing.T) {
	require.Equal(t, "new_empty", NewEmpty.String())
	require.Equal(t, "named_saved", NamedSaved.String())
	require.Equal(t, "cancel", Cancel.String())
}
