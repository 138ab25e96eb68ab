package tui

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/narbs/ptui"
	"github.com/narbs/ptui/internal/config"
	"github.com/narbs/ptui/internal/files"
	"github.com/narbs/ptui/internal/i18n"
)

const (
	tickInterval      = 50 * time.Millisecond
	minResizeInterval = 100 * time.Millisecond
)

// Options configures a Model. Zero values select the real collaborators.
type Options struct {
	Dir        string
	Config     *config.Config
	Capability ptui.Capability
	// Manager overrides the preview manager built from Config.
	Manager *ptui.PreviewManager
	// Updates delivers configuration reloads, usually from a config.Watcher.
	Updates <-chan config.Result
	// Async renders image previews for the file list on a background worker.
	Async bool
	// Runner executes the external converters.
	Runner ptui.CommandRunner
	Opener Opener
	Clock  func() time.Time
	// TermSize overrides terminal size detection for the preview manager.
	TermSize func() (cols, rows int)
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// frameCache holds the last rendered frame. It is shared by every copy of
// the Model so View can skip work when nothing changed.
type frameCache struct {
	text  string
	dirty bool
}

// Model is the bubbletea model of the ptui browser and slideshow.
type Model struct {
	cfg        *config.Config
	capability ptui.Capability
	msgs       *i18n.Localizer
	browser    *files.Browser
	manager    *ptui.PreviewManager
	slideshow  *ptui.Slideshow
	animator   *ptui.TransitionAnimator
	worker     *ptui.PreviewWorker
	updates    <-chan config.Result
	runner     ptui.CommandRunner
	open       Opener
	now        func() time.Time
	keys       keyMap
	layout     *Layout
	frame      *frameCache

	width, height int
	panes         Panes
	lastResize    time.Time
	pendingResize bool

	content    ptui.PreviewContent
	hasContent bool
	generation uint64
	scroll     int

	transitionFrame string
	inTransition    bool

	showHelp      bool
	confirmDelete bool
	deleteTarget  files.FileItem
	quitting      bool
}

// New builds the model for opts.Dir.
func New(opts Options) (Model, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Opener == nil {
		opts.Opener = OpenInFileManager
	}
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	browser, err := files.NewBrowser(dir)
	if err != nil {
		return Model{}, fmt.Errorf("failed to read directory: %w", err)
	}

	msgs := i18n.New(cfg.EffectiveLocale())
	manager := opts.Manager
	if manager == nil {
		manager = ptui.NewPreviewManager(cfg, ptui.ManagerOptions{
			Capability: opts.Capability,
			Runner:     opts.Runner,
			Messages:   msgs,
			TermSize:   opts.TermSize,
		})
	} else {
		manager.SetMessages(msgs)
	}
	manager.SetStatus(msgs.Get("ptui_ready"))

	m := Model{
		cfg:        cfg.Clone(),
		capability: manager.Capability(),
		msgs:       msgs,
		browser:    browser,
		manager:    manager,
		slideshow:  ptui.NewSlideshow(opts.Clock),
		animator:   ptui.NewTransitionAnimator(cfg.Transitions, opts.Clock),
		updates:    opts.Updates,
		runner:     opts.Runner,
		open:       opts.Opener,
		now:        opts.Clock,
		keys:       defaultKeyMap(),
		layout:     &Layout{},
		frame:      &frameCache{dirty: true},
		showHelp:   true,
	}
	if opts.Async {
		m.worker = ptui.NewPreviewWorker()
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Close stops the background worker.
func (m Model) Close() {
	if m.worker != nil {
		m.worker.Close()
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.onTick(time.Time(msg)) {
			m.frame.dirty = true
		}
		return m, tick()

	case tea.WindowSizeMsg:
		m.frame.dirty = true
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		m.frame.dirty = true
		return m.handleKey(msg)
	}
	return m, nil
}

// onTick runs the periodic work in a fixed order and reports whether the
// screen needs a redraw.
func (m *Model) onTick(now time.Time) bool {
	changed := false

	if m.slideshow.Active() && !m.animator.InTransition() &&
		m.slideshow.Due(now, m.cfg.SlideshowDelay()) {
		m.stepSlideshow(true)
		m.slideshow.Touch(now)
		changed = true
	}

	if m.animator.InTransition() {
		m.transitionFrame, m.inTransition = m.animator.Frame()
		changed = true
	} else if m.inTransition {
		m.inTransition = false
		m.transitionFrame = ""
		changed = true
	}

	if m.updates != nil {
		select {
		case res, ok := <-m.updates:
			if ok {
				m.applyConfig(res)
				changed = true
			} else {
				m.updates = nil
			}
		default:
		}
	}

	if m.worker != nil {
		if res, ok := m.worker.TryResult(); ok {
			if m.acceptResult(res) {
				changed = true
			}
		}
	}

	if m.pendingResize && now.Sub(m.lastResize) >= minResizeInterval {
		m.pendingResize = false
		m.lastResize = now
		m.refreshPreview()
		changed = true
	}

	return changed
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.panes = m.layout.Calculate(width, height)
	m.browser.SetPageSize(max(m.panes.Files.Height-2, 1))

	now := m.now()
	if !m.lastResize.IsZero() && now.Sub(m.lastResize) < minResizeInterval {
		m.pendingResize = true
		return
	}
	m.lastResize = now
	m.refreshPreview()
}

func (m *Model) refreshPreview() {
	if m.slideshow.Active() {
		m.renderSlide()
		return
	}
	m.updatePreview()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	if m.confirmDelete {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			m.deleteSelected()
			m.hideDeleteDialog()
		case key.Matches(msg, m.keys.Cancel):
			m.hideDeleteDialog()
		}
		return m, nil
	}

	if m.slideshow.Active() {
		switch {
		case key.Matches(msg, m.keys.Next):
			m.stepSlideshow(true)
		case key.Matches(msg, m.keys.Prev):
			m.stepSlideshow(false)
		default:
			m.exitSlideshow()
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	if !key.Matches(msg, m.keys.Help) {
		m.showHelp = false
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.browser.MoveUp()
		m.selectionChanged()
	case key.Matches(msg, m.keys.Down):
		m.browser.MoveDown()
		m.selectionChanged()
	case key.Matches(msg, m.keys.PageUp):
		m.browser.PageUp()
		m.selectionChanged()
	case key.Matches(msg, m.keys.PageDown):
		m.browser.PageDown()
		m.selectionChanged()
	case key.Matches(msg, m.keys.JumpForward):
		m.browser.JumpForward()
		m.selectionChanged()
	case key.Matches(msg, m.keys.JumpBackward):
		m.browser.JumpBackward()
		m.selectionChanged()
	case key.Matches(msg, m.keys.Home):
		m.browser.MoveToStart()
		m.selectionChanged()
	case key.Matches(msg, m.keys.End):
		m.browser.MoveToEnd()
		m.selectionChanged()
	case key.Matches(msg, m.keys.SortName):
		status := m.msgs.Get(m.browser.SortByName())
		m.updatePreview()
		m.manager.SetStatus(status)
	case key.Matches(msg, m.keys.SortDate):
		status := m.msgs.Get(m.browser.SortByDate())
		m.updatePreview()
		m.manager.SetStatus(status)
	case key.Matches(msg, m.keys.Enter):
		entered, err := m.browser.EnterDirectory()
		m.directoryChanged(entered, err)
	case key.Matches(msg, m.keys.Parent):
		up, err := m.browser.GoToParent()
		m.directoryChanged(up, err)
	case key.Matches(msg, m.keys.Refresh):
		m.refreshSelected()
	case key.Matches(msg, m.keys.Shrink):
		if m.layout.Shrink() {
			m.panes = m.layout.Calculate(m.width, m.height)
			m.updatePreview()
		}
	case key.Matches(msg, m.keys.Grow):
		if m.layout.Grow() {
			m.panes = m.layout.Calculate(m.width, m.height)
			m.updatePreview()
		}
	case key.Matches(msg, m.keys.Save):
		m.saveASCII()
	case key.Matches(msg, m.keys.Delete):
		m.showDeleteDialog()
	case key.Matches(msg, m.keys.Open):
		m.openSelected()
	case key.Matches(msg, m.keys.Space):
		if m.textSelected() {
			m.scrollText(1)
		} else {
			m.enterSlideshow()
		}
	case key.Matches(msg, m.keys.ScrollUp):
		if m.textSelected() {
			m.scrollText(-1)
		}
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.updatePreview()
	case key.Matches(msg, m.keys.Converter):
		m.cycleConverter()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.Close()
	return m, tea.Quit
}

func (m *Model) selectionChanged() {
	m.scroll = 0
	m.updatePreview()
}

func (m *Model) directoryChanged(changed bool, err error) {
	if err != nil {
		log.WithError(err).WithField("dir", m.browser.Dir()).Warn("directory change failed")
		m.manager.AppendStatus("ERROR: " + err.Error())
		return
	}
	if changed {
		m.manager.Cache().InvalidateAll()
		m.selectionChanged()
	}
}

// updatePreview recomputes the preview pane for the selection. Image
// previews go to the worker when one is running and the result is not
// cached yet.
func (m *Model) updatePreview() {
	m.generation++
	if m.showHelp {
		m.hasContent = false
		return
	}
	item, ok := m.browser.Selected()
	if !ok {
		m.hasContent = false
		m.manager.SetStatus(m.msgs.Get("no_file_selected"))
		return
	}

	w, h := m.panes.Preview.Width, m.panes.Preview.Height
	if m.worker != nil && m.manager.Classifier().Classify(item) == files.KindImage {
		if content, ok := m.manager.Cached(item.Path, w, h); ok {
			m.setContent(content)
			return
		}
		m.manager.SetStatus(m.msgs.Get("image_file_prefix") + item.Name)
		m.setContent(ptui.TextContent(""))
		m.worker.Schedule(m.manager.ImageJob(item.Path, w, h, m.generation))
		return
	}

	m.setContent(m.manager.Render(ptui.PreviewRequest{
		Item:         item,
		Width:        w,
		Height:       h,
		ScrollOffset: m.scroll,
	}))
}

// acceptResult applies a worker result unless the selection has moved on.
func (m *Model) acceptResult(res ptui.PreviewResult) bool {
	if res.Generation != m.generation || m.slideshow.Active() {
		log.WithFields(log.Fields{
			"key":        res.Key,
			"generation": res.Generation,
			"current":    m.generation,
		}).Debug("discarding stale preview")
		return false
	}
	m.manager.Accept(res)
	m.setContent(res.Content)
	log.WithFields(log.Fields{"key": res.Key, "elapsed": res.Duration}).Debug("async preview ready")
	return true
}

func (m *Model) setContent(c ptui.PreviewContent) {
	m.content = c
	m.hasContent = true
}

func (m *Model) refreshSelected() {
	item, ok := m.browser.Selected()
	if !ok || !item.CanPreview() {
		return
	}
	m.manager.Invalidate(item, m.panes.Preview.Width, m.panes.Preview.Height)
	if m.content.Protocol != nil {
		m.content.Protocol.Invalidate()
	}
	m.updatePreview()
}

func (m *Model) textSelected() bool {
	item, ok := m.browser.Selected()
	return ok && !item.IsDir && m.manager.Classifier().Classify(item) == files.KindText
}

func (m *Model) scrollText(dir int) {
	step := max(m.panes.Preview.Height/2, 1)
	m.scroll = max(m.scroll+dir*step, 0)
	m.updatePreview()
}

func (m *Model) saveASCII() {
	item, ok := m.browser.Selected()
	if !ok {
		m.manager.AppendStatus("ERROR: " + m.msgs.Get("no_file_selected"))
		return
	}
	msg, err := m.manager.SaveASCII(item, m.panes.Preview.Width, m.panes.Preview.Height)
	if err != nil {
		m.manager.AppendStatus("ERROR: " + err.Error())
		return
	}
	m.manager.AppendStatus(msg)
	if err := m.browser.Refresh(); err != nil {
		m.manager.AppendStatus("WARNING: Failed to refresh file list: " + err.Error())
	}
}

func (m *Model) showDeleteDialog() {
	item, ok := m.browser.Selected()
	switch {
	case !ok:
		m.manager.AppendStatus("ERROR: " + m.msgs.Get("no_file_selected"))
	case item.IsDir:
		m.manager.AppendStatus("ERROR: Cannot delete directories")
	default:
		m.confirmDelete = true
		m.deleteTarget = item
	}
}

func (m *Model) hideDeleteDialog() {
	m.confirmDelete = false
	m.deleteTarget = files.FileItem{}
}

func (m *Model) deleteSelected() {
	target := m.deleteTarget
	if err := os.Remove(target.Path); err != nil {
		log.WithError(err).WithField("path", target.Path).Warn("delete failed")
		m.manager.AppendStatus("ERROR: " + m.msgs.Getf("delete_failed", target.Name, err.Error()))
		return
	}
	log.WithField("path", target.Path).Info("deleted file")

	refreshErr := m.browser.Refresh()
	m.selectionChanged()
	m.manager.AppendStatus(m.msgs.Getf("deleted_file", target.Name))
	if refreshErr != nil {
		m.manager.AppendStatus("WARNING: Failed to refresh file list: " + refreshErr.Error())
	}
}

func (m *Model) openSelected() {
	item, ok := m.browser.Selected()
	if !ok {
		m.manager.AppendStatus(m.msgs.Get("no_file_selected"))
		return
	}
	if err := m.open(item.Path, item.IsDir); err != nil {
		m.manager.AppendStatus(m.msgs.Get("failed_to_open_in_browser") + ": " + err.Error())
		return
	}
	msgKey := "opened_file_in_browser"
	if item.IsDir {
		msgKey = "opened_directory_in_browser"
	}
	m.manager.AppendStatus(m.msgs.Get(msgKey) + ": " + item.Name)
}

func (m *Model) cycleConverter() {
	name := m.manager.CycleConverter()
	m.updatePreview()
	m.manager.SetStatus(m.msgs.Getf("converter_switched", name))
	if err := ptui.CheckConverterAvailability(m.runner, name); err != nil {
		m.manager.AppendStatus("WARNING: " + err.Error())
	}
}

func (m *Model) enterSlideshow() {
	if !m.slideshow.Enter(m.browser.Entries(), m.browser.SelectedIndex()) {
		m.manager.AppendStatus(m.msgs.Get("slideshow_no_images"))
		return
	}
	m.generation++
	m.renderSlide()
}

func (m *Model) exitSlideshow() {
	idx := m.slideshow.Exit()
	m.animator.Reset()
	m.inTransition = false
	m.transitionFrame = ""
	m.browser.SetSelected(idx)
	m.selectionChanged()
}

// slideArea is the image area of the full-screen slideshow.
func (m *Model) slideArea() ptui.Rect {
	return ptui.Rect{X: 2, Y: 1, Width: max(m.width-4, 0), Height: max(m.height-4, 0)}
}

func (m *Model) renderSlide() {
	idx, ok := m.slideshow.Current()
	if !ok {
		return
	}
	entries := m.browser.Entries()
	if idx >= len(entries) {
		return
	}
	area := m.slideArea()
	m.setContent(m.manager.Render(ptui.PreviewRequest{
		Item:   entries[idx],
		Width:  area.Width,
		Height: area.Height,
	}))
}

// stepSlideshow moves one image and starts a text transition when the
// converter and both previews allow it.
func (m *Model) stepSlideshow(forward bool) {
	prev := m.content
	if forward {
		m.slideshow.Advance()
	} else {
		m.slideshow.Back()
	}
	m.renderSlide()

	if m.animator.Enabled() && m.manager.Converter().SupportsTransitions() &&
		!prev.IsGraphical() && !m.content.IsGraphical() &&
		m.animator.Start(prev.Text, m.content.Text) {
		m.manager.AppendStatus("Starting " + m.animator.EffectName() + " transition")
	}
}

func (m *Model) applyConfig(res config.Result) {
	if res.Err != nil {
		log.WithError(res.Err).Warn("config watcher error")
		m.manager.AppendStatus(res.Err.Error())
		return
	}
	cfg := res.Config
	status := m.msgs.Get("config_reloaded")
	if locale := i18n.Match(cfg.EffectiveLocale()).String(); locale != m.msgs.Locale() {
		m.msgs = i18n.New(locale)
		m.manager.SetMessages(m.msgs)
		status = m.msgs.Get("config_reloaded") + " | Locale changed to: " + locale
	}

	m.cfg = cfg.Clone()
	m.animator.UpdateConfig(cfg.Transitions)
	m.manager.UpdateConfig(cfg)
	m.refreshPreview()
	m.manager.SetStatus(status)
	log.WithField("converter", cfg.Converter.Selected).Info("configuration reloaded")
}
