package ptui

import (
	"time"

	"github.com/apex/log"

	"github.com/narbs/ptui/internal/files"
)

// Slideshow steps through the images of a directory listing. The image list
// is a snapshot taken on Enter.
type Slideshow struct {
	now func() time.Time

	active     bool
	images     []int
	current    int
	lastChange time.Time
}

// NewSlideshow returns an inactive slideshow. A nil clock means time.Now.
func NewSlideshow(clock func() time.Time) *Slideshow {
	if clock == nil {
		clock = time.Now
	}
	return &Slideshow{now: clock}
}

// Enter starts the slideshow over the images in entries, beginning at
// selected when that entry is an image and at the first image otherwise.
// It reports false when there are no images.
func (s *Slideshow) Enter(entries []files.FileItem, selected int) bool {
	images := make([]int, 0, len(entries))
	start := 0
	for i, e := range entries {
		if e.IsDir || !e.IsImage() {
			continue
		}
		if i == selected {
			start = len(images)
		}
		images = append(images, i)
	}
	if len(images) == 0 {
		return false
	}

	s.images = images
	s.current = start
	s.active = true
	s.Touch(s.now())
	log.WithField("images", len(images)).Debug("slideshow started")
	return true
}

// Advance moves to the next image, wrapping to the first.
func (s *Slideshow) Advance() {
	if !s.active {
		return
	}
	s.current = (s.current + 1) % len(s.images)
	s.Touch(s.now())
}

// Back moves to the previous image, wrapping to the last.
func (s *Slideshow) Back() {
	if !s.active {
		return
	}
	s.current = (s.current - 1 + len(s.images)) % len(s.images)
	s.Touch(s.now())
}

// Exit stops the slideshow and returns the listing index of the image shown
// last.
func (s *Slideshow) Exit() int {
	idx, _ := s.Current()
	s.active = false
	s.images = nil
	s.current = 0
	return idx
}

// Current returns the listing index of the shown image.
func (s *Slideshow) Current() (int, bool) {
	if !s.active {
		return 0, false
	}
	return s.images[s.current], true
}

// Position returns the 1-based position of the shown image and the image
// count.
func (s *Slideshow) Position() (int, int) {
	if !s.active {
		return 0, 0
	}
	return s.current + 1, len(s.images)
}

func (s *Slideshow) Active() bool { return s.active }

// Due reports whether delay has passed since the last change.
func (s *Slideshow) Due(now time.Time, delay time.Duration) bool {
	return s.active && now.Sub(s.lastChange) >= delay
}

func (s *Slideshow) Touch(now time.Time) { s.lastChange = now }
