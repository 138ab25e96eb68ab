package files

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(items []FileItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

// setupDir creates two directories and three files with distinct mtimes:
// b.txt is newest, A.png oldest.
func setupDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "zeta"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "Alpha"), 0o755))

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"A.png", "c.jpg", "b.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o644))
		mt := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}
	return dir
}

func TestBrowserSorting(t *testing.T) {
	b, err := NewBrowser(setupDir(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "zeta", "A.png", "b.txt", "c.jpg"}, names(b.Entries()))
	assert.Equal(t, SortByName, b.SortMode())

	assert.Equal(t, "date_sort_newest_first", b.SortByDate())
	files := names(b.Entries()[2:])
	assert.Equal(t, []string{"b.txt", "c.jpg", "A.png"}, files)

	assert.Equal(t, "date_sort_oldest_first", b.SortByDate())
	assert.Equal(t, []string{"A.png", "c.jpg", "b.txt"}, names(b.Entries()[2:]))

	assert.Equal(t, "date_sort_newest_first", b.SortByDate())

	assert.Equal(t, "name_sort", b.SortByName())
	assert.Equal(t, []string{"Alpha", "zeta", "A.png", "b.txt", "c.jpg"}, names(b.Entries()))
}

func TestBrowserSortFollowsSelection(t *testing.T) {
	b, err := NewBrowser(setupDir(t))
	require.NoError(t, err)

	b.SetSelected(3)
	cur, _ := b.Selected()
	require.Equal(t, "b.txt", cur.Name)

	b.SortByDate()
	cur, _ = b.Selected()
	assert.Equal(t, "b.txt", cur.Name)
	assert.Equal(t, 2, b.SelectedIndex())
}

func TestBrowserSymlinkToDirectory(t *testing.T) {
	dir := setupDir(t)
	require.NoError(t, os.Symlink(filepath.Join(dir, "zeta"), filepath.Join(dir, "link")))

	b, err := NewBrowser(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "link", "zeta"}, names(b.Entries()[:3]))
	assert.True(t, b.Entries()[1].IsDir)
}

func TestBrowserNavigation(t *testing.T) {
	dir := t.TempDir()
	for i := range 45 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%02d", i)), nil, 0o644))
	}
	b, err := NewBrowser(dir)
	require.NoError(t, err)
	b.SetPageSize(10)

	b.MoveUp()
	assert.Equal(t, 0, b.SelectedIndex())

	b.MoveDown()
	assert.Equal(t, 1, b.SelectedIndex())

	b.PageDown()
	assert.Equal(t, 11, b.SelectedIndex())
	assert.Equal(t, 2, b.Offset())

	b.JumpForward()
	assert.Equal(t, 21, b.SelectedIndex())

	b.JumpForward()
	b.JumpForward()
	b.JumpForward()
	assert.Equal(t, 44, b.SelectedIndex())
	b.MoveDown()
	assert.Equal(t, 44, b.SelectedIndex())

	b.JumpBackward()
	assert.Equal(t, 34, b.SelectedIndex())

	b.PageUp()
	assert.Equal(t, 24, b.SelectedIndex())
	assert.Equal(t, 24, b.Offset())

	b.MoveToStart()
	assert.Equal(t, 0, b.SelectedIndex())
	assert.Equal(t, 0, b.Offset())

	b.MoveToEnd()
	assert.Equal(t, 44, b.SelectedIndex())
	assert.Equal(t, 35, b.Offset())

	visible, first := b.Visible()
	assert.Equal(t, 35, first)
	assert.Len(t, visible, 10)
	assert.Equal(t, "f44", visible[9].Name)

	b.SetSelected(20)
	assert.Equal(t, 15, b.Offset())

	b.SetSelected(2)
	assert.Equal(t, 0, b.Offset())

	b.SetSelected(43)
	assert.Equal(t, 35, b.Offset(), "centering never scrolls past the end")
}

func TestBrowserEmptyDirectory(t *testing.T) {
	b, err := NewBrowser(t.TempDir())
	require.NoError(t, err)

	b.MoveDown()
	b.PageDown()
	b.JumpForward()
	b.MoveToEnd()
	_, ok := b.Selected()
	assert.False(t, ok)
	visible, _ := b.Visible()
	assert.Empty(t, visible)

	entered, err := b.EnterDirectory()
	require.NoError(t, err)
	assert.False(t, entered)
}

func TestBrowserEnterAndParent(t *testing.T) {
	dir := setupDir(t)
	b, err := NewBrowser(dir)
	require.NoError(t, err)

	b.SetSelected(1)
	entered, err := b.EnterDirectory()
	require.NoError(t, err)
	require.True(t, entered)
	assert.Equal(t, filepath.Join(dir, "zeta"), b.Dir())
	assert.Equal(t, 0, b.SelectedIndex())

	up, err := b.GoToParent()
	require.NoError(t, err)
	require.True(t, up)
	assert.Equal(t, dir, b.Dir())
	assert.Equal(t, 1, b.SelectedIndex())

	b.SetSelected(2)
	entered, err = b.EnterDirectory()
	require.NoError(t, err)
	assert.False(t, entered, "files are not entered")
}

func TestBrowserRefreshClampsSelection(t *testing.T) {
	dir := setupDir(t)
	b, err := NewBrowser(dir)
	require.NoError(t, err)

	b.MoveToEnd()
	require.NoError(t, os.Remove(filepath.Join(dir, "c.jpg")))
	require.NoError(t, b.Refresh())
	assert.Equal(t, 3, b.SelectedIndex())
}

func TestDirDisplay(t *testing.T) {
	b := &Browser{dir: "/short/path"}
	assert.Equal(t, "/short/path", b.DirDisplay())

	b.dir = "/home/user/pictures/holidays/2024/summer"
	got := b.DirDisplay()
	assert.Equal(t, "..."+b.dir[len(b.dir)-27:], got)
	assert.Len(t, got, 30)
}
