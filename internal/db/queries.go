package db

import (
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/guangnotepad/guang/internal/errors"
)

// Event names stored in last_event.
const (
	EventOpen = "open"
	EventSave = "save"
)

// Record is one row of the recent-documents list.
type Record struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	Name      string `json:"name"`
	Format    string `json:"format"`
	Encoding  string `json:"encoding,omitempty"`
	LastEvent string `json:"last_event"`
	OpenCount int    `json:"open_count"`
	SaveCount int    `json:"save_count"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// NewID returns a fresh ULID string.
func NewID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Touch records an event for path, inserting the row on first sight and
// otherwise refreshing name, format, encoding and the counters. The stored
// record is returned.
func Touch(db *sql.DB, r Record, event string) (*Record, error) {
	if event != EventOpen && event != EventSave {
		return nil, errors.NewInvalidRequest("unknown event: " + event)
	}
	if strings.TrimSpace(r.Path) == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}

	now := time.Now().Unix()
	opens, saves := 0, 0
	if event == EventOpen {
		opens = 1
	} else {
		saves = 1
	}

	query := `
		INSERT INTO documents (
			id, path, name, format, encoding, last_event,
			open_count, save_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			format = excluded.format,
			encoding = excluded.encoding,
			last_event = excluded.last_event,
			open_count = documents.open_count + excluded.open_count,
			save_count = documents.save_count + excluded.save_count,
			updated_at = excluded.updated_at
	`
	_, err := db.Exec(query,
		NewID(), r.Path, r.Name, r.Format, toNullString(r.Encoding), event,
		opens, saves, now, now,
	)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return GetByPath(db, r.Path)
}

const selectColumns = `
	SELECT id, path, name, format, encoding, last_event,
		open_count, save_count, created_at, updated_at
	FROM documents
`

// GetByID retrieves a record by its ULID.
func GetByID(db *sql.DB, id string) (*Record, error) {
	r, err := scanRecord(db.QueryRow(selectColumns+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// GetByPath retrieves a record by its absolute path.
func GetByPath(db *sql.DB, path string) (*Record, error) {
	r, err := scanRecord(db.QueryRow(selectColumns+" WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(path)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return r, nil
}

// List returns records most recently touched first, plus the total count.
func List(db *sql.DB, limit, offset int) ([]Record, int, error) {
	var total int
	if err := db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	rows, err := db.Query(selectColumns+" ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return out, total, nil
}

// DeleteByID removes a record by id.
func DeleteByID(db *sql.DB, id string) error {
	return deleteWhere(db, "id", id)
}

// DeleteByPath removes a record by path.
func DeleteByPath(db *sql.DB, path string) error {
	return deleteWhere(db, "path", path)
}

func deleteWhere(db *sql.DB, column, value string) error {
	result, err := db.Exec("DELETE FROM documents WHERE "+column+" = ?", value)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(value)
	}
	return nil
}

// Prune keeps the keep most recently touched records and deletes the rest.
// It returns the number of rows removed.
func Prune(db *sql.DB, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := db.Exec(`
		DELETE FROM documents
		WHERE id NOT IN (
			SELECT id FROM documents ORDER BY updated_at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r        Record
		encoding sql.NullString
	)
	err := row.Scan(
		&r.ID, &r.Path, &r.Name, &r.Format, &encoding, &r.LastEvent,
		&r.OpenCount, &r.SaveCount, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Encoding = encoding.String
	return &r, nil
}

// toNullString stores empty strings as NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
