package ops

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guangnotepad/guang/internal/db"
	"github.com/guangnotepad/guang/internal/errors"
)

// TestFullWorkflow exercises the document lifecycle:
// write → detect → read → convert → render → recent → forget → recent
func TestFullWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(filepath.Join(tmpDir, ".guang"))
	require.NoError(t, err)
	defer database.Close()

	cfg := testConfig(tmpDir)
	notes := filepath.Join(tmpDir, "notes.txt")
	rich := filepath.Join(tmpDir, "notes.rtf")

	// 1. Write a plain document in a legacy charset
	writeOut, err := Write(database, cfg, WriteInput{
		Path:     notes,
		Text:     "Привет, мир\n",
		Encoding: "windows-1251",
	})
	require.NoError(t, err)
	require.True(t, writeOut.Created)
	require.Equal(t, 12, writeOut.Bytes)

	// 2. Detect without decoding
	detectOut, err := Detect(cfg, DetectInput{Path: notes})
	require.NoError(t, err)
	require.Equal(t, "plain", detectOut.Format)

	// 3. Read with the encoding it was written in
	readOut, err := Read(database, cfg, ReadInput{Path: notes, Encoding: "windows-1251"})
	require.NoError(t, err)
	require.Equal(t, "Привет, мир\n", readOut.Text)

	// 4. Convert to rich text
	convOut, err := Convert(database, cfg, ConvertInput{
		Source:         notes,
		Dest:           rich,
		SourceEncoding: "windows-1251",
	})
	require.NoError(t, err)
	require.Equal(t, "plain", convOut.FromFormat)
	require.Equal(t, "rich", convOut.ToFormat)
	require.Empty(t, convOut.Encoding)

	// 5. Render the rich copy
	renderOut, err := Render(cfg, RenderInput{Path: rich})
	require.NoError(t, err)
	require.Contains(t, renderOut.HTML, "Привет, мир<br>")

	// 6. Both documents are in the recent list
	recentOut, err := Recent(database, RecentInput{})
	require.NoError(t, err)
	require.Len(t, recentOut.Items, 2)

	rec, err := db.GetByPath(database, notes)
	require.NoError(t, err)
	require.Equal(t, 1, rec.SaveCount)
	require.Equal(t, 1, rec.OpenCount)
	require.Equal(t, "windows-1251", rec.Encoding)

	// 7. Forget the plain one
	_, err = Forget(database, ForgetInput{Path: notes})
	require.NoError(t, err)

	recentOut, err = Recent(database, RecentInput{})
	require.NoError(t, err)
	require.Len(t, recentOut.Items, 1)
	require.Equal(t, rich, recentOut.Items[0].Path)
	require.Equal(t, "rich", recentOut.Items[0].Format)

	// 8. The file itself survives
	_, err = Read(nil, cfg, ReadInput{Path: notes, Encoding: "windows-1251"})
	require.NoError(t, err)

	_, err = Forget(database, ForgetInput{Path: notes})
	require.True(t, errors.Is(err, errors.ErrNotFound))
}
