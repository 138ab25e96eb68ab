package files

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/apex/log"
)

const (
	// DefaultPageSize is the visible row count before the UI reports one.
	DefaultPageSize = 20
	jumpSize        = 10
	dirDisplayMax   = 30
)

// SortMode orders the listing. Directories always come first.
type SortMode int

const (
	SortByName SortMode = iota
	SortByDateNewest
	SortByDateOldest
)

func (s SortMode) String() string {
	switch s {
	case SortByDateNewest:
		return "date (newest first)"
	case SortByDateOldest:
		return "date (oldest first)"
	default:
		return "name"
	}
}

type stackEntry struct {
	dir      string
	selected int
}

// Browser is the listing of one directory with a selection and a scroll
// window of pageSize rows.
type Browser struct {
	dir      string
	entries  []FileItem
	selected int
	offset   int
	pageSize int
	sortMode SortMode
	stack    []stackEntry
}

// NewBrowser lists dir.
func NewBrowser(dir string) (*Browser, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	b := &Browser{dir: abs, pageSize: DefaultPageSize}
	if err := b.Refresh(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Browser) Dir() string         { return b.dir }
func (b *Browser) Entries() []FileItem { return b.entries }
func (b *Browser) SelectedIndex() int  { return b.selected }
func (b *Browser) Offset() int         { return b.offset }
func (b *Browser) PageSize() int       { return b.pageSize }
func (b *Browser) SortMode() SortMode  { return b.sortMode }
func (b *Browser) Len() int            { return len(b.entries) }

// Selected returns the highlighted entry.
func (b *Browser) Selected() (FileItem, bool) {
	if b.selected < 0 || b.selected >= len(b.entries) {
		return FileItem{}, false
	}
	return b.entries[b.selected], true
}

// Refresh re-reads the directory, keeping the selection index in range.
func (b *Browser) Refresh() error {
	des, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", b.dir, err)
	}

	entries := make([]FileItem, 0, len(des))
	for _, de := range des {
		path := filepath.Join(b.dir, de.Name())
		info, err := de.Info()
		if err != nil {
			log.WithError(err).WithField("path", path).Debug("skipping entry")
			continue
		}
		isDir := de.IsDir()
		if !isDir && de.Type()&os.ModeSymlink != 0 {
			if target, err := os.Stat(path); err == nil {
				isDir = target.IsDir()
			}
		}
		entries = append(entries, FileItem{
			Name:     de.Name(),
			Path:     path,
			IsDir:    isDir,
			Modified: info.ModTime(),
		})
	}
	b.entries = entries
	b.sort()

	if b.selected >= len(b.entries) {
		b.selected = max(len(b.entries)-1, 0)
	}
	b.keepVisible()
	return nil
}

func (b *Browser) sort() {
	slices.SortStableFunc(b.entries, func(x, y FileItem) int {
		if x.IsDir != y.IsDir {
			if x.IsDir {
				return -1
			}
			return 1
		}
		switch b.sortMode {
		case SortByDateNewest:
			return y.Modified.Compare(x.Modified)
		case SortByDateOldest:
			return x.Modified.Compare(y.Modified)
		default:
			return strings.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name))
		}
	})
}

// resort applies the current mode and follows the selected entry.
func (b *Browser) resort() {
	cur, ok := b.Selected()
	b.sort()
	if ok {
		b.selectPath(cur.Path)
	}
}

func (b *Browser) selectPath(path string) {
	if i := slices.IndexFunc(b.entries, func(f FileItem) bool { return f.Path == path }); i >= 0 {
		b.selected = i
		b.CenterOnSelection()
	}
}

// SortByName switches to name order. It returns the status message key.
func (b *Browser) SortByName() string {
	if b.sortMode != SortByName {
		b.sortMode = SortByName
		b.resort()
	}
	return "name_sort"
}

// SortByDate toggles between newest and oldest first and returns the status
// message key. Coming from name order starts at newest first.
func (b *Browser) SortByDate() string {
	key := "date_sort_newest_first"
	switch b.sortMode {
	case SortByDateNewest:
		b.sortMode = SortByDateOldest
		key = "date_sort_oldest_first"
	default:
		b.sortMode = SortByDateNewest
	}
	b.resort()
	return key
}

func (b *Browser) MoveDown() {
	if b.selected < len(b.entries)-1 {
		b.selected++
		b.keepVisible()
	}
}

func (b *Browser) MoveUp() {
	if b.selected > 0 {
		b.selected--
		b.keepVisible()
	}
}

func (b *Browser) page() int {
	if b.pageSize > 0 {
		return b.pageSize
	}
	return jumpSize
}

func (b *Browser) PageDown() {
	if len(b.entries) == 0 {
		return
	}
	b.selected = min(b.selected+b.page(), len(b.entries)-1)
	b.keepVisible()
}

func (b *Browser) PageUp() {
	if len(b.entries) == 0 {
		return
	}
	b.selected = max(b.selected-b.page(), 0)
	b.keepVisible()
}

func (b *Browser) JumpForward() {
	if len(b.entries) == 0 {
		return
	}
	b.selected = min(b.selected+jumpSize, len(b.entries)-1)
	b.keepVisible()
}

func (b *Browser) JumpBackward() {
	if len(b.entries) == 0 {
		return
	}
	b.selected = max(b.selected-jumpSize, 0)
	b.keepVisible()
}

func (b *Browser) MoveToStart() {
	if len(b.entries) > 0 {
		b.selected = 0
		b.offset = 0
	}
}

func (b *Browser) MoveToEnd() {
	if len(b.entries) > 0 {
		b.selected = len(b.entries) - 1
		b.keepVisible()
	}
}

// keepVisible scrolls the minimum needed to show the selection.
func (b *Browser) keepVisible() {
	if b.pageSize <= 0 {
		return
	}
	if b.selected < b.offset {
		b.offset = b.selected
	} else if b.selected >= b.offset+b.pageSize {
		b.offset = b.selected - b.pageSize + 1
	}
}

// EnterDirectory descends into the selected directory, remembering where it
// came from. It reports false when the selection is not a directory.
func (b *Browser) EnterDirectory() (bool, error) {
	cur, ok := b.Selected()
	if !ok || !cur.IsDir {
		return false, nil
	}
	prev := stackEntry{dir: b.dir, selected: b.selected}
	prevDir, prevSel, prevOff := b.dir, b.selected, b.offset

	b.dir = cur.Path
	b.selected, b.offset = 0, 0
	if err := b.Refresh(); err != nil {
		b.dir, b.selected, b.offset = prevDir, prevSel, prevOff
		return false, err
	}
	b.stack = append(b.stack, prev)
	return true, nil
}

// GoToParent moves up one level. The previous selection is restored when
// the parent is the directory we descended from.
func (b *Browser) GoToParent() (bool, error) {
	parent := filepath.Dir(b.dir)
	if parent == b.dir {
		return false, nil
	}

	restore := -1
	if n := len(b.stack); n > 0 {
		top := b.stack[n-1]
		b.stack = b.stack[:n-1]
		if top.dir == parent {
			restore = top.selected
		}
	}

	from := b.dir
	b.dir = parent
	b.offset = 0
	b.selected = 0
	if err := b.Refresh(); err != nil {
		b.dir = from
		return false, err
	}

	if restore >= 0 && restore < len(b.entries) {
		b.selected = restore
	} else {
		b.selectPath(from)
	}
	b.CenterOnSelection()
	return true, nil
}

// SetPageSize records how many rows the UI shows.
func (b *Browser) SetPageSize(n int) {
	b.pageSize = max(n, 0)
	if b.offset >= len(b.entries) {
		b.offset = 0
	}
	b.keepVisible()
}

// SetSelected moves the selection to index i and centres it.
func (b *Browser) SetSelected(i int) {
	if i >= 0 && i < len(b.entries) {
		b.selected = i
		b.CenterOnSelection()
	}
}

// CenterOnSelection scrolls so the selection sits mid-page, without
// scrolling past the end.
func (b *Browser) CenterOnSelection() {
	if b.pageSize <= 0 {
		return
	}
	half := b.pageSize / 2
	b.offset = max(b.selected-half, 0)
	b.offset = min(b.offset, max(len(b.entries)-b.pageSize, 0))
}

// Visible returns the entries inside the scroll window and the index of the
// first one.
func (b *Browser) Visible() ([]FileItem, int) {
	if b.offset >= len(b.entries) {
		return nil, b.offset
	}
	end := len(b.entries)
	if b.pageSize > 0 {
		end = min(b.offset+b.pageSize, end)
	}
	return b.entries[b.offset:end], b.offset
}

// DirDisplay shortens long paths to their last 27 bytes.
func (b *Browser) DirDisplay() string {
	if len(b.dir) > dirDisplayMax {
		return "..." + b.dir[len(b.dir)-(dirDisplayMax-3):]
	}
	return b.dir
}
