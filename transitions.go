package ptui

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/apex/log"
	"github.com/charmbracelet/x/ansi"

	"github.com/narbs/ptui/internal/config"
)

// TransitionFrames is the number of precomputed frames per transition.
const TransitionFrames = 20

// Transition effect names.
const (
	EffectScattering     = "scattering"
	EffectTypewriter     = "typewriter"
	EffectScrollingLeft  = "scrolling_left"
	EffectScrollingRight = "scrolling_right"
	EffectClimbing       = "climbing"
)

const (
	typewriterCursor = "█"
	scrollShift      = 20
	climbLines       = 5
)

// ApplyEffect renders text at progress p in [0, 1]. Unknown effects return
// text unchanged.
func ApplyEffect(effect, text string, p float64) string {
	p = min(max(p, 0), 1)
	switch effect {
	case EffectScattering:
		return revealRunes(text, p)
	case EffectTypewriter:
		out := revealRunes(text, p)
		if p < 1 {
			out += typewriterCursor
		}
		return out
	case EffectScrollingLeft, EffectScrollingRight:
		return strings.Repeat(" ", int(scrollShift*(1-p))) + text
	case EffectClimbing:
		return strings.Repeat("\n", int(climbLines*(1-p))) + text
	default:
		return text
	}
}

func revealRunes(text string, p float64) string {
	n := int(float64(utf8.RuneCountInString(text)) * p)
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}

// TransitionAnimator plays a short text animation between two slideshow
// previews. Frames are built up front and picked by elapsed time.
type TransitionAnimator struct {
	cfg   config.TransitionConfig
	total time.Duration
	now   func() time.Time

	start  time.Time
	frames []string
	index  int
}

// NewTransitionAnimator builds an idle animator. A nil clock means time.Now.
func NewTransitionAnimator(cfg config.TransitionConfig, clock func() time.Time) *TransitionAnimator {
	if clock == nil {
		clock = time.Now
	}
	return &TransitionAnimator{
		cfg:   cfg,
		total: cfg.FrameDuration() * TransitionFrames,
		now:   clock,
	}
}

func (t *TransitionAnimator) Enabled() bool { return t.cfg.Enabled }

func (t *TransitionAnimator) EffectName() string { return t.cfg.Effect }

// UpdateConfig applies cfg and stops any running transition.
func (t *TransitionAnimator) UpdateConfig(cfg config.TransitionConfig) {
	t.cfg = cfg
	t.total = cfg.FrameDuration() * TransitionFrames
	t.Reset()
}

// Start begins a transition to the text to; from is the outgoing preview.
// Colour codes are dropped from the animation frames. It reports false when transitions are disabled.
func (t *TransitionAnimator) Start(from, to string) bool {
	if !t.cfg.Enabled {
		return false
	}
	target := ansi.Strip(to)
	t.frames = make([]string, 0, TransitionFrames)
	for i := range TransitionFrames {
		p := float64(i) / float64(TransitionFrames-1)
		frame := ApplyEffect(t.cfg.Effect, target, p)
		if !utf8.ValidString(frame) {
			frame = target
		}
		t.frames = append(t.frames, frame)
	}
	t.start = t.now()
	t.index = 0

	log.WithFields(log.Fields{
		"effect": t.cfg.Effect,
		"frames": len(t.frames),
		"total":  t.total,
	}).Debug("transition started")
	return true
}

// Frame returns the frame due now. Once the total duration has elapsed the
// transition is torn down and Frame reports false.
func (t *TransitionAnimator) Frame() (string, bool) {
	if !t.InTransition() {
		return "", false
	}
	elapsed := t.now().Sub(t.start)
	if elapsed >= t.total {
		t.Reset()
		return "", false
	}
	progress := float64(elapsed) / float64(t.total)
	idx := int(progress * float64(len(t.frames)-1))
	t.index = min(max(idx, 0), len(t.frames)-1)
	return t.frames[t.index], true
}

// FrameIndex is the index of the frame last returned by Frame.
func (t *TransitionAnimator) FrameIndex() int { return t.index }

func (t *TransitionAnimator) InTransition() bool {
	return !t.start.IsZero() && len(t.frames) > 0
}

// Reset stops the current transition.
func (t *TransitionAnimator) Reset() {
	t.start = time.Time{}
	t.frames = nil
	t.index = 0
}
