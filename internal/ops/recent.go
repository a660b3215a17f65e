package ops

import (
	"database/sql"
	"path/filepath"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/config"
	"github.com/guangnotepad/guang/internal/db"
	"github.com/guangnotepad/guang/internal/editor"
)

// RecentInput contains parameters for the Recent operation.
type RecentInput struct {
	Limit  int // default: 20, max: 100
	Offset int // default: 0
}

// RecentOutput contains the result of the Recent operation.
type RecentOutput struct {
	Items      []db.Record `json:"items"`
	Pagination Pagination  `json:"pagination"`
	Sort       string      `json:"sort"`
}

// Recent lists recently opened or saved documents, newest first.
func Recent(database *sql.DB, input RecentInput) (*RecentOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	items, total, err := db.List(database, limit, offset)
	if err != nil {
		return nil, err
	}
	// Ensure we return an empty array rather than nil
	if items == nil {
		items = []db.Record{}
	}

	return &RecentOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "updated_at_desc",
	}, nil
}

// ForgetInput contains parameters for the Forget operation.
type ForgetInput struct {
	ID   string
	Path string
}

// ForgetOutput contains the result of the Forget operation.
type ForgetOutput struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Forget removes a document from the recent list. The file itself is untouched.
func Forget(database *sql.DB, input ForgetInput) (*ForgetOutput, error) {
	target, err := ValidateTarget(input.ID, input.Path)
	if err != nil {
		return nil, err
	}

	var rec *db.Record
	if target.ByID {
		rec, err = db.GetByID(database, target.ID)
	} else {
		rec, err = db.GetByPath(database, target.Path)
	}
	if err != nil {
		return nil, err
	}
	if err := db.DeleteByID(database, rec.ID); err != nil {
		return nil, err
	}
	return &ForgetOutput{ID: rec.ID, Path: rec.Path}, nil
}

// Recorder feeds editor lifecycle events into the recent list and trims it to
// Keep entries.
type Recorder struct {
	DB   *sql.DB
	Keep int
}

// Record implements editor.Recorder.
func (r *Recorder) Record(id editor.Identity, event string) error {
	if _, err := db.Touch(r.DB, db.Record{
		Path:     id.Path,
		Name:     id.Name,
		Format:   id.Format.String(),
		Encoding: id.Encoding,
	}, event); err != nil {
		return err
	}
	if r.Keep > 0 {
		if _, err := db.Prune(r.DB, r.Keep); err != nil {
			return err
		}
	}
	return nil
}

// touch records an event for a document handled by an operation. It does
// nothing without a database.
func touch(database *sql.DB, cfg *config.Config, path string, f codec.Format, enc, event string) error {
	if database == nil {
		return nil
	}
	rec := &Recorder{DB: database, Keep: cfg.RecentLimit}
	return rec.Record(editor.Identity{
		Path:     path,
		Name:     filepath.Base(path),
		Encoding: enc,
		Format:   f,
	}, event)
}
