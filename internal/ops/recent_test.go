package ops

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guangnotepad/guang/internal/codec"
	"github.com/guangnotepad/guang/internal/db"
	"github.com/guangnotepad/guang/internal/editor"
	"github.com/guangnotepad/guang/internal/errors"
)

func TestRecent_Empty(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	out, err := Recent(database, RecentInput{})
	require.NoError(t, err)
	require.NotNil(t, out.Items)
	require.Empty(t, out.Items)
	require.Equal(t, DefaultListLimit, out.Pagination.Limit)
	require.False(t, out.Pagination.HasMore)
	require.Equal(t, "updated_at_desc", out.Sort)
}

func TestRecent_Pagination(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	rec := &Recorder{DB: database}
	for _, name := range []string{"a.txt", "b.txt", "c.rtf"} {
		f, _ := codec.FormatForPath(name)
		require.NoError(t, rec.Record(editor.Identity{Path: "/docs/" + name, Name: name, Format: f}, db.EventOpen))
	}

	out, err := Recent(database, RecentInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	require.True(t, out.Pagination.HasMore)
	require.Equal(t, 3, out.Pagination.Total)

	out, err = Recent(database, RecentInput{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	require.False(t, out.Pagination.HasMore)

	out, err = Recent(database, RecentInput{Limit: 1000, Offset: -5})
	require.NoError(t, err)
	require.Equal(t, MaxListLimit, out.Pagination.Limit)
	require.Equal(t, 0, out.Pagination.Offset)
}

func TestRecorder_Prunes(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	rec := &Recorder{DB: database, Keep: 2}
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, rec.Record(editor.Identity{Path: "/docs/" + name, Name: name, Encoding: "UTF-8"}, db.EventSave))
	}

	_, total, err := db.List(database, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestForget(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	path := filepath.Join(t.TempDir(), "gone.txt")
	stored, err := db.Touch(database, db.Record{Path: path, Name: "gone.txt", Format: "plain"}, db.EventOpen)
	require.NoError(t, err)

	out, err := Forget(database, ForgetInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, stored.ID, out.ID)

	_, err = db.GetByPath(database, path)
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = Forget(database, ForgetInput{ID: stored.ID})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = Forget(database, ForgetInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestTouch_NilDatabase(t *testing.T) {
	require.NoError(t, touch(nil, nil, "/x.txt", codec.Plain, "UTF-8", db.EventSave))
}
