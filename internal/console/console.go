// Package console is a line-oriented editor shell. It implements every
// collaborator the editor controller needs over a reader and a writer:
// prompts stand in for dialogs and the title bar is printed whenever it
// changes.
package console

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/editor"
)

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Options configures a Console.
type Options struct {
	In  io.Reader
	Out io.Writer
	// Clipboard defaults to the system clipboard.
	Clipboard Clipboard
	Editor    editor.Options
}

// Console drives an editor.Controller from typed commands.
type Console struct {
	in    *bufio.Scanner
	out   io.Writer
	clip  Clipboard
	ctl   *editor.Controller
	theme theme

	title string
	caret int
	quit  bool
	code  int
	eof   bool
}

// New creates a console over opts.In and opts.Out with an empty document.
func New(opts Options) *Console {
	clip := opts.Clipboard
	if clip == nil {
		clip = systemClipboard{}
	}
	c := &Console{
		in:    bufio.NewScanner(opts.In),
		out:   opts.Out,
		clip:  clip,
		theme: newTheme(lipgloss.NewRenderer(opts.Out)),
	}
	c.in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	c.ctl = editor.New(c, opts.Editor)
	return c
}

// Controller returns the controller driven by the console.
func (c *Console) Controller() *editor.Controller {
	return c.ctl
}

// Run reads commands until the editor quits or input ends, and returns the
// exit code. At end of input a document with unsaved changes is kept
// unsaved and Run returns 1.
func (c *Console) Run() int {
	fmt.Fprintln(c.out, c.theme.faint.Render(`Type "help" for commands.`))
	for !c.quit {
		line, ok := c.readLine(c.theme.prompt.Render("guang> "))
		if !ok {
			if !c.ctl.Exit() {
				return 1
			}
			break
		}
		if err := c.Execute(line); err != nil {
			c.Notify(err.Error())
		}
	}
	return c.code
}

// readLine prints prompt and reads one line. ok is false at end of input.
func (c *Console) readLine(prompt string) (string, bool) {
	fmt.Fprint(c.out, prompt)
	if c.eof || !c.in.Scan() {
		c.eof = true
		fmt.Fprintln(c.out)
		return "", false
	}
	return strings.TrimRight(c.in.Text(), "\r"), true
}

// Confirm implements editor.Confirmer. Anything but yes or no cancels.
func (c *Console) Confirm(message string) editor.Choice {
	answer, ok := c.readLine(c.theme.question.Render(message) + " [y/n/c] ")
	if !ok {
		return editor.Cancel
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return editor.Yes
	case "n", "no":
		return editor.No
	}
	return editor.Cancel
}

// ChooseOpen implements editor.FileChooser. An empty answer dismisses the dialog.
func (c *Console) ChooseOpen(filters []codec.Filter) (string, bool) {
	path, ok := c.readLine("Open " + describeFilters(filters) + ": ")
	path = strings.TrimSpace(path)
	return path, ok && path != ""
}

// ChooseSave implements editor.FileChooser. The chosen filter follows the
// typed extension when it names one of filters, otherwise preferred.
func (c *Console) ChooseSave(filters []codec.Filter, preferred codec.Filter) (string, codec.Filter, bool) {
	path, ok := c.readLine(fmt.Sprintf("Save as %s [%s]: ", describeFilters(filters), preferred.Extension))
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return "", preferred, false
	}
	ext := strings.ToLower(codec.Extension(path))
	for _, f := range filters {
		if f.Extension == ext {
			return path, f, true
		}
	}
	return path, preferred, true
}

// Notify implements editor.Notifier.
func (c *Console) Notify(message string) {
	fmt.Fprintln(c.out, c.theme.notice.Render("» "+message))
}

// Title implements editor.Window.
func (c *Console) Title() string {
	return c.title
}

// SetTitle implements editor.Window and prints the new title bar.
func (c *Console) SetTitle(title string) {
	c.title = title
	fmt.Fprintln(c.out, c.theme.titleBar.Render(title))
}

// Quit implements editor.Window.
func (c *Console) Quit(code int) {
	c.quit = true
	c.code = code
}

func describeFilters(filters []codec.Filter) string {
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = fmt.Sprintf("%s (*.%s)", f.Description, f.Extension)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// displayPath shortens path for messages.
func displayPath(path string) string {
	if rel, err := filepath.Rel(".", path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
