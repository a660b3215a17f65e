package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// checkPartition asserts the run invariants: contiguous, ordered, non-empty,
// covering the whole text, with no mergeable neighbours.
func checkPartition(t *testing.T, d *Document) {
	t.Helper()
	runs := d.Runs()
	if d.IsEmpty() {
		require.Empty(t, runs)
		return
	}
	require.NotEmpty(t, runs)
	require.Equal(t, 0, runs[0].Start)
	require.Equal(t, d.Len(), runs[len(runs)-1].End)
	for i, r := range runs {
		require.Greater(t, r.Len(), 0, "run %d is empty", i)
		if i > 0 {
			require.Equal(t, runs[i-1].End, r.Start, "gap before run %d", i)
			require.NotEqual(t, runs[i-1].Style, r.Style, "runs %d and %d should be merged", i-1, i)
		}
	}
}

func TestNew_Empty(t *testing.T) {
	d := New()
	require.True(t, d.IsEmpty())
	require.Equal(t, "", d.Text())
	checkPartition(t, d)
}

func TestNewPlain(t *testing.T) {
	d := NewPlain("hello")
	require.Equal(t, "hello", d.Text())
	require.Equal(t, []Run{{Start: 0, End: 5, Style: DefaultStyle()}}, d.Runs())
}

func TestInsert_InheritsPrecedingStyle(t *testing.T) {
	d := NewPlain("ab")
	require.NoError(t, d.Select(0, 2))
	require.NoError(t, d.SetFont("Arial", 12, FontStyleBold))

	require.NoError(t, d.Insert(2, "c"))

	require.Equal(t, "abc", d.Text())
	runs := d.Runs()
	require.Len(t, runs, 1)
	require.True(t, runs[0].Style.Bold)
	checkPartition(t, d)
}

func TestInsert_UsesExplicitInputStyle(t *testing.T) {
	d := NewPlain("ab")
	require.NoError(t, d.SetForeground(RGB(255, 0, 0))) // no selection: input style

	require.NoError(t, d.Insert(1, "X"))

	require.Equal(t, "aXb", d.Text())
	runs := d.Runs()
	require.Len(t, runs, 3)
	require.Equal(t, RGB(255, 0, 0), runs[1].Style.Foreground)
	require.Equal(t, 1, runs[1].Start)
	require.Equal(t, 2, runs[1].End)
	checkPartition(t, d)
}

func TestInsert_OutOfRange(t *testing.T) {
	d := NewPlain("ab")
	err := d.Insert(3, "x")
	require.True(t, errors.Is(err, ErrInvalidRange))
}

func TestDelete_AcrossRuns(t *testing.T) {
	d := New()
	d.AppendStyled("aa", Style{Bold: true})
	d.AppendStyled("bb", Style{Italic: true})
	d.AppendStyled("cc", Style{Bold: true})

	require.NoError(t, d.Delete(1, 4))

	require.Equal(t, "ac", d.Text())
	// Remaining bold pieces merge into one run
	require.Equal(t, []Run{{Start: 0, End: 2, Style: Style{Bold: true}}}, d.Runs())
}

func TestDelete_Everything(t *testing.T) {
	d := NewPlain("abc")
	require.NoError(t, d.Delete(0, 3))
	require.True(t, d.IsEmpty())
	checkPartition(t, d)
}

func TestApplyStyle_SplitsRuns(t *testing.T) {
	d := NewPlain("hello world")
	bold := true
	require.NoError(t, d.ApplyStyle(6, 11, StylePatch{Bold: &bold}))

	runs := d.Runs()
	require.Len(t, runs, 2)
	require.Equal(t, Run{Start: 0, End: 6, Style: Style{}}, runs[0])
	require.Equal(t, Run{Start: 6, End: 11, Style: Style{Bold: true}}, runs[1])
	checkPartition(t, d)
}

func TestApplyStyle_MiddleOfRun(t *testing.T) {
	d := NewPlain("abcde")
	size := 20
	require.NoError(t, d.ApplyStyle(1, 3, StylePatch{FontSize: &size}))

	runs := d.Runs()
	require.Len(t, runs, 3)
	require.Equal(t, 20, runs[1].Style.FontSize)
	require.Equal(t, 0, runs[2].Style.FontSize)
	checkPartition(t, d)
}

func TestSelection(t *testing.T) {
	d := NewPlain("abcdef")
	_, _, ok := d.Selection()
	require.False(t, ok)

	require.NoError(t, d.Select(1, 4))
	require.Equal(t, "bcd", d.SelectedText())

	require.NoError(t, d.Select(2, 2))
	_, _, ok = d.Selection()
	require.False(t, ok, "empty range clears selection")

	require.Error(t, d.Select(4, 1))
}

func TestOnChange_FiresOnMutations(t *testing.T) {
	d := New()
	calls := 0
	d.OnChange(func() { calls++ })

	d.SetText("abc")
	require.NoError(t, d.Insert(0, "x"))
	require.NoError(t, d.Delete(0, 1))
	bold := true
	require.NoError(t, d.ApplyStyle(0, 1, StylePatch{Bold: &bold}))
	d.Clear()

	require.Equal(t, 5, calls)
}

func TestOnChange_NotFiredForInputStyle(t *testing.T) {
	d := NewPlain("abc")
	calls := 0
	d.OnChange(func() { calls++ })

	require.NoError(t, d.SetForeground(Black))

	require.Equal(t, 0, calls)
}

func TestReplaceWith_KeepsListeners(t *testing.T) {
	d := New()
	calls := 0
	d.OnChange(func() { calls++ })

	src := New()
	src.AppendStyled("x", Style{Italic: true})
	d.ReplaceWith(src)

	require.Equal(t, "x", d.Text())
	require.Equal(t, src.Runs(), d.Runs())
	require.Equal(t, 1, calls)
}

func TestReplaceWith_TakesInputStyleFromSource(t *testing.T) {
	d := NewPlain("old")
	require.NoError(t, d.SetForeground(RGB(255, 0, 0)))

	d.ReplaceWith(NewPlain("new"))

	require.Equal(t, DefaultStyle(), d.InputStyle())
	d.Append("!")
	require.Equal(t, []Run{{Start: 0, End: 4, Style: DefaultStyle()}}, d.Runs())
}

func TestClear_ResetsInputStyle(t *testing.T) {
	d := NewPlain("abc")
	require.NoError(t, d.SetFont("Arial", 20, FontStyleItalic))
	d.Clear()

	require.Equal(t, DefaultStyle(), d.InputStyle())
	require.True(t, d.IsEmpty())
}

func TestFromRuns(t *testing.T) {
	bold := Style{Bold: true}
	d, err := FromRuns("abcd", []Run{
		{Start: 0, End: 2, Style: bold},
		{Start: 2, End: 3, Style: bold},
		{Start: 3, End: 4},
	})
	require.NoError(t, err)
	require.Equal(t, []Run{{Start: 0, End: 3, Style: bold}, {Start: 3, End: 4}}, d.Runs())
	checkPartition(t, d)

	empty, err := FromRuns("", nil)
	require.NoError(t, err)
	require.True(t, empty.IsEmpty())

	bad := [][]Run{
		{{Start: 0, End: 2}},                     // short
		{{Start: 1, End: 4}},                     // gap at start
		{{Start: 0, End: 2}, {Start: 1, End: 4}}, // overlap
		{{Start: 0, End: 0}, {Start: 0, End: 4}}, // empty run
		{{Start: 0, End: 5}},                     // past end
	}
	for i, runs := range bad {
		_, err := FromRuns("abcd", runs)
		require.ErrorIs(t, err, ErrInvalidRange, "case %d", i)
	}
}
