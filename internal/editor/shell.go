// Package editor implements the document lifecycle: new, open, save, save-as
// and exit, with dirty tracking mirrored in the window title.
//
// The Controller never talks to a UI toolkit. Dialogs, notifications and the
// window are collaborators injected through the Shell interface, so the state
// machine runs headless in tests and behind the console shell alike.
package editor

import "github.com/guangnotepad/guang/internal/codec"

// Choice is the answer to a three-way confirmation.
type Choice int

const (
	Cancel Choice = iota
	Yes
	No
)

func (c Choice) String() string {
	switch c {
	case Yes:
		return "yes"
	case No:
		return "no"
	}
	return "cancel"
}

// Confirmer asks a blocking yes/no/cancel question.
type Confirmer interface {
	Confirm(message string) Choice
}

// FileChooser presents open and save dialogs. ok is false when the user
// dismissed the dialog.
type FileChooser interface {
	ChooseOpen(filters []codec.Filter) (path string, ok bool)
	ChooseSave(filters []codec.Filter, preferred codec.Filter) (path string, chosen codec.Filter, ok bool)
}

// Notifier shows a fire-and-forget message.
type Notifier interface {
	Notify(message string)
}

// Window is the title bar and process lifetime of the editor.
type Window interface {
	Title() string
	SetTitle(title string)
	Quit(code int)
}

// Shell is everything the controller needs from the UI.
type Shell interface {
	Confirmer
	FileChooser
	Notifier
	Window
}

// Recorder receives lifecycle events for named documents ("open", "save").
// Failures are logged and never block the edit.
type Recorder interface {
	Record(id Identity, event string) error
}

// Messages shown through the Notifier and Confirmer.
const (
	MsgSaveCurrent       = "Do you want to save the current file?"
	MsgSaveBeforeLeaving = "Do you want to save the file before leaving?"
	MsgSavedAndCreated   = "File saved, new file created!"
	MsgCreated           = "File Created!"
	MsgNotSelected       = "File wasn't selected!"
	MsgSaved             = "File Saved!"
	MsgSavedAs           = "File saved!"
	MsgNotSaved          = "File wasn't saved!"
)

const (
	// DefaultTitle is the title of a document that has no file yet.
	DefaultTitle = "New"
	// ModifiedMarker is appended to the title while there are unsaved changes.
	ModifiedMarker = " — Modified"
)
