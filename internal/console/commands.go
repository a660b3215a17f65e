package console

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/document"
	"github.com/guangnotepad/guang/internal/errors"
)

// command is one console command. args is the raw text after the name.
type command struct {
	usage string
	help  string
	run   func(c *Console, args string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"new":       {"new", "start a new document", (*Console).cmdNew},
		"open":      {"open [path]", "open a .txt or .rtf file", (*Console).cmdOpen},
		"save":      {"save", "save to the current file", (*Console).cmdSave},
		"saveas":    {"saveas", "save under a new name", (*Console).cmdSaveAs},
		"exit":      {"exit", "quit, asking to save unsaved changes", (*Console).cmdExit},
		"type":      {"type <text>", `insert text at the caret (\n and \t escapes)`, (*Console).cmdType},
		"append":    {"append <text>", "append text at the end", (*Console).cmdAppend},
		"line":      {"line [text]", "append text and a newline", (*Console).cmdLine},
		"delete":    {"delete [start end]", "delete a range, or the selection", (*Console).cmdDelete},
		"goto":      {"goto <offset|end>", "move the caret", (*Console).cmdGoto},
		"select":    {"select <start end|all|none>", "select a character range", (*Console).cmdSelect},
		"font":      {"font <family> [size]", "set font family and size", (*Console).cmdFont},
		"style":     {"style <Default|Bold|Italic|Bold Italic>", "set weight and slant", (*Console).cmdStyle},
		"fg":        {"fg <color>", "set text color (#rrggbb or a name)", (*Console).cmdForeground},
		"bg":        {"bg <color|none>", "set background color", (*Console).cmdBackground},
		"paper":     {"paper <color|none>", "set the view background (not saved)", (*Console).cmdPaper},
		"highlight": {"highlight", "highlight the selection in yellow", (*Console).cmdHighlight},
		"reset":     {"reset", "reset formatting from the caret to the end", (*Console).cmdReset},
		"show":      {"show", "print the document", (*Console).cmdShow},
		"diff":      {"diff", "compare the buffer with the file on disk", (*Console).cmdDiff},
		"copy":      {"copy", "copy the selection, or everything, to the clipboard", (*Console).cmdCopy},
		"cut":       {"cut", "copy the selection to the clipboard and delete it", (*Console).cmdCut},
		"paste":     {"paste", "insert the clipboard at the caret", (*Console).cmdPaste},
		"title":     {"title", "print the window title", (*Console).cmdTitle},
		"help":      {"help", "list commands", (*Console).cmdHelp},
	}
	commands["quit"] = commands["exit"]
}

// Execute runs one command line. Blank lines are ignored.
func (c *Console) Execute(line string) error {
	name, args, _ := strings.Cut(strings.TrimLeft(line, " \t"), " ")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", name)
	}
	err := cmd.run(c, args)
	c.clampCaret()
	// Cancellation has already been reported by the controller.
	if errors.Is(err, errors.ErrCancelled) {
		return nil
	}
	return err
}

func (c *Console) doc() *document.Document {
	return c.ctl.Document()
}

func (c *Console) clampCaret() {
	if n := c.doc().Len(); c.caret > n {
		c.caret = n
	}
	if c.caret < 0 {
		c.caret = 0
	}
}

// Controller errors are already shown to the user, so lifecycle commands
// swallow them.

func (c *Console) cmdNew(string) error {
	if c.ctl.New() == nil {
		c.caret = 0
	}
	return nil
}

func (c *Console) cmdOpen(args string) error {
	var err error
	if path := strings.TrimSpace(args); path != "" {
		err = c.ctl.OpenPath(path)
	} else {
		err = c.ctl.Open()
	}
	if err == nil {
		c.caret = c.doc().Len()
	}
	return nil
}

func (c *Console) cmdSave(string) error {
	_ = c.ctl.Save()
	return nil
}

func (c *Console) cmdSaveAs(string) error {
	_ = c.ctl.SaveAs()
	return nil
}

func (c *Console) cmdExit(string) error {
	c.ctl.Exit()
	return nil
}

var unescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t")

func (c *Console) cmdType(args string) error {
	text := unescaper.Replace(args)
	if err := c.doc().Insert(c.caret, text); err != nil {
		return err
	}
	c.caret += len([]rune(text))
	return nil
}

func (c *Console) cmdAppend(args string) error {
	c.doc().Append(unescaper.Replace(args))
	c.caret = c.doc().Len()
	return nil
}

func (c *Console) cmdLine(args string) error {
	return c.cmdAppend(args + `\n`)
}

func (c *Console) cmdDelete(args string) error {
	d := c.doc()
	start, end, ok := d.Selection()
	if strings.TrimSpace(args) != "" {
		var err error
		if start, end, err = parseRange(args); err != nil {
			return err
		}
		ok = true
	}
	if !ok {
		return fmt.Errorf("nothing selected")
	}
	if start > end {
		return fmt.Errorf("invalid range %d-%d", start, end)
	}
	if err := d.Delete(start, end-start); err != nil {
		return err
	}
	d.ClearSelection()
	c.caret = start
	return nil
}

func (c *Console) cmdGoto(args string) error {
	arg := strings.TrimSpace(args)
	if arg == "end" {
		c.caret = c.doc().Len()
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > c.doc().Len() {
		return fmt.Errorf("caret must be between 0 and %d", c.doc().Len())
	}
	c.caret = n
	return nil
}

func (c *Console) cmdSelect(args string) error {
	d := c.doc()
	switch strings.TrimSpace(args) {
	case "all":
		return d.Select(0, d.Len())
	case "none", "":
		d.ClearSelection()
		return nil
	}
	start, end, err := parseRange(args)
	if err != nil {
		return err
	}
	if err := d.Select(start, end); err != nil {
		return err
	}
	c.caret = end
	return nil
}

func (c *Console) cmdFont(args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return fmt.Errorf("usage: %s", commands["font"].usage)
	}
	size := 0
	if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
		size = n
		fields = fields[:len(fields)-1]
	}
	if size < 0 {
		return fmt.Errorf("font size must be positive")
	}
	family := strings.Join(fields, " ")
	return c.doc().SetFont(family, size, fontStyleOf(c.currentStyle()))
}

func (c *Console) cmdStyle(args string) error {
	fs, err := document.ParseFontStyle(args)
	if err != nil {
		return err
	}
	return c.doc().SetFont("", 0, fs)
}

func (c *Console) cmdForeground(args string) error {
	col, err := document.ParseColor(args)
	if err != nil {
		return err
	}
	return c.doc().SetForeground(col)
}

func (c *Console) cmdBackground(args string) error {
	col, err := document.ParseColor(args)
	if err != nil {
		return err
	}
	return c.doc().SetBackground(col)
}

func (c *Console) cmdPaper(args string) error {
	col, err := document.ParseColor(args)
	if err != nil {
		return err
	}
	c.theme.paper = col
	return nil
}

func (c *Console) cmdHighlight(string) error {
	if !c.doc().QuickHighlight() {
		return fmt.Errorf("nothing selected")
	}
	return nil
}

func (c *Console) cmdReset(string) error {
	return c.doc().ResetFrom(c.caret)
}

func (c *Console) cmdShow(string) error {
	fmt.Fprintln(c.out, c.theme.renderDocument(c.doc(), c.caret))
	return nil
}

func (c *Console) cmdDiff(string) error {
	id := c.ctl.Identity()
	if id == nil {
		return fmt.Errorf("document has not been saved yet")
	}
	loaded, err := codec.Load(id.Path, codec.LoadOptions{Encoding: id.Encoding})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "--- %s\n+++ buffer\n", displayPath(id.Path))
	fmt.Fprint(c.out, c.theme.renderDiff(loaded.Doc.Text(), c.doc().Text()))
	return nil
}

func (c *Console) cmdCopy(string) error {
	text := c.doc().SelectedText()
	if _, _, ok := c.doc().Selection(); !ok {
		text = c.doc().Text()
	}
	if err := c.clip.WriteAll(text); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	return nil
}

func (c *Console) cmdCut(string) error {
	start, end, ok := c.doc().Selection()
	if !ok {
		return fmt.Errorf("nothing selected")
	}
	if err := c.clip.WriteAll(c.doc().SelectedText()); err != nil {
		return fmt.Errorf("cut failed: %w", err)
	}
	return c.cmdDelete(fmt.Sprintf("%d %d", start, end))
}

func (c *Console) cmdPaste(string) error {
	text, err := c.clip.ReadAll()
	if err != nil {
		return fmt.Errorf("paste failed: %w", err)
	}
	text = codec.NormalizeNewlines(text)
	if err := c.doc().Insert(c.caret, text); err != nil {
		return err
	}
	c.caret += len([]rune(text))
	return nil
}

func (c *Console) cmdTitle(string) error {
	fmt.Fprintln(c.out, c.title)
	return nil
}

func (c *Console) cmdHelp(string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		if name != "quit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(c.out, "  %-42s %s\n", cmd.usage, c.theme.faint.Render(cmd.help))
	}
	return nil
}

// currentStyle is the style formatting commands start from: the first
// selected character, or the input style.
func (c *Console) currentStyle() document.Style {
	if start, _, ok := c.doc().Selection(); ok {
		return c.doc().StyleAt(start)
	}
	return c.doc().InputStyle()
}

func fontStyleOf(s document.Style) document.FontStyle {
	switch {
	case s.Bold && s.Italic:
		return document.FontStyleBoldItalic
	case s.Bold:
		return document.FontStyleBold
	case s.Italic:
		return document.FontStyleItalic
	}
	return document.FontStyleDefault
}

func parseRange(args string) (int, int, error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("expected <start> <end>")
	}
	start, err1 := strconv.Atoi(fields[0])
	end, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("expected numeric offsets, got %q", args)
	}
	return start, end, nil
}
