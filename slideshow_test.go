package ptui

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narbs/ptui/internal/files"
)

// slideshowEntries returns a listing with images at indices 1, 3 and 4.
func slideshowEntries(t *testing.T) []files.FileItem {
	t.Helper()
	dir := t.TempDir()
	return []files.FileItem{
		{Name: "sub", Path: filepath.Join(dir, "sub"), IsDir: true},
		itemFor(t, writePNG(t, dir, "a.png", 4, 4)),
		itemFor(t, writeLines(t, dir, "notes.txt", 2)),
		itemFor(t, writePNG(t, dir, "b.png", 4, 4)),
		itemFor(t, writeJPEG(t, dir, "c.jpg", 4, 4)),
	}
}

func TestSlideshowWraparound(t *testing.T) {
	s := NewSlideshow(newFakeClock().Now)
	require.True(t, s.Enter(slideshowEntries(t), 3))
	assert.True(t, s.Active())

	idx, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, 3, idx)
	i, n := s.Position()
	assert.Equal(t, 2, i)
	assert.Equal(t, 3, n)

	s.Advance()
	idx, _ = s.Current()
	assert.Equal(t, 4, idx)

	s.Advance()
	idx, _ = s.Current()
	assert.Equal(t, 1, idx, "advance wraps to the first image")

	s.Back()
	idx, _ = s.Current()
	assert.Equal(t, 4, idx, "back wraps to the last image")

	assert.Equal(t, 4, s.Exit())
	assert.False(t, s.Active())
	_, ok = s.Current()
	assert.False(t, ok)
}

func TestSlideshowStartsAtFirstImage(t *testing.T) {
	s := NewSlideshow(nil)
	require.True(t, s.Enter(slideshowEntries(t), 2))
	idx, _ := s.Current()
	assert.Equal(t, 1, idx)
}

func TestSlideshowNoImages(t *testing.T) {
	dir := t.TempDir()
	s := NewSlideshow(nil)
	assert.False(t, s.Enter([]files.FileItem{itemFor(t, writeLines(t, dir, "a.txt", 1))}, 0))
	assert.False(t, s.Enter(nil, 0))
	assert.False(t, s.Active())

	s.Advance()
	s.Back()
	i, n := s.Position()
	assert.Zero(t, i)
	assert.Zero(t, n)
}

func TestSlideshowDue(t *testing.T) {
	clock := newFakeClock()
	s := NewSlideshow(clock.Now)
	delay := 2 * time.Second

	assert.False(t, s.Due(clock.Now(), delay), "inactive slideshow is never due")
	require.True(t, s.Enter(slideshowEntries(t), 1))

	clock.Advance(1999 * time.Millisecond)
	assert.False(t, s.Due(clock.Now(), delay))
	clock.Advance(time.Millisecond)
	assert.True(t, s.Due(clock.Now(), delay))

	s.Advance()
	assert.False(t, s.Due(clock.Now(), delay), "stepping restarts the timer")

	clock.Advance(3 * time.Second)
	s.Touch(clock.Now())
	assert.False(t, s.Due(clock.Now(), delay))
}
