package tui

import (
	"fmt"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/narbs/ptui"
	"github.com/narbs/ptui/internal/files"
)

const reset = "\x1b[0m"

// Cleanup is written to the terminal after the program exits.
const Cleanup = "\x1b[2J" + ptui.DeleteAllImages

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if !m.frame.dirty && m.frame.text != "" {
		return m.frame.text
	}

	var view string
	if m.slideshow.Active() {
		view = m.slideshowView()
	} else {
		view = m.browserView()
	}
	m.frame.text = view
	m.frame.dirty = false
	return view
}

func (m Model) browserView() string {
	p := m.panes
	list := box(m.filesTitle(), m.fileLines(), p.Files.Width, p.Files.Height, borderStyle)
	preview := box(m.msgs.Get("image_preview"), m.previewLines(), p.Frame.Width, p.Frame.Height, borderStyle)
	messages := box(m.msgs.Get("messages"), m.messageLines(), p.Messages.Width, p.Messages.Height, messageBorder)

	var b strings.Builder
	b.WriteString(joinHorizontal(list, preview))
	if len(messages) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(messages, "\n"))
	}
	b.WriteString(m.graphics(p.Preview))
	return b.String()
}

// graphics returns the escape sequences that draw image content over the
// already rendered text frame.
func (m Model) graphics(area ptui.Rect) string {
	if m.showHelp || m.confirmDelete || !m.hasContent || !m.content.IsGraphical() {
		if m.capability.Graphics == ptui.Kitty {
			return ansi.SaveCursor + ptui.DeleteAllImages + ansi.RestoreCursor
		}
		return ""
	}
	out, err := ptui.Overlay(m.content.Protocol, area)
	if err != nil {
		log.WithError(err).Debug("image overlay failed")
		return ""
	}
	return out
}

func (m Model) filesTitle() string {
	title := m.msgs.Get("files_title") + ": " + m.browser.DirDisplay()
	if m.browser.SortMode() != files.SortByName {
		title += " [" + m.browser.SortMode().String() + "]"
	}
	return title
}

func (m Model) fileLines() []string {
	visible, offset := m.browser.Visible()
	lines := make([]string, 0, len(visible))
	for i, item := range visible {
		icon := "📄"
		if item.IsDir {
			icon = "📁"
		}
		line := icon + " " + item.Name
		switch {
		case offset+i == m.browser.SelectedIndex():
			line = selectedStyle.Render("> " + line)
		case item.IsDir:
			line = dirStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return lines
}

func (m Model) previewLines() []string {
	switch {
	case m.confirmDelete:
		return m.deleteDialog()
	case m.showHelp:
		return strings.Split(m.msgs.HelpText(), "\n")
	case !m.hasContent || m.content.IsGraphical():
		return nil
	}
	return strings.Split(m.content.Text, "\n")
}

func (m Model) deleteDialog() []string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		dialogTitleStyle.Render(m.msgs.Get("delete_confirmation_title")),
		"",
		m.msgs.Getf("delete_file_prompt", m.deleteTarget.Name),
		"",
		m.msgs.Get("delete_confirmation_instructions"),
	)
	dialog := dialogStyle.Render(body)
	placed := lipgloss.Place(m.panes.Preview.Width, m.panes.Preview.Height,
		lipgloss.Center, lipgloss.Center, dialog)
	return strings.Split(placed, "\n")
}

func (m Model) messageLines() []string {
	status := m.manager.Status()
	if status == "" {
		return nil
	}
	return []string{messageStyle.Render(status)}
}

func (m Model) slideshowView() string {
	area := m.slideArea()
	i, n := m.slideshow.Position()
	bar := slideshowBar.Width(max(m.width-2, 0)).Render(fmt.Sprintf("🎞 %s | %s | %s",
		m.msgs.Get("slideshow_mode"),
		m.msgs.Getf("slideshow_image", i, n),
		m.msgs.Get("slideshow_press_any_key"),
	))
	barLines := strings.Split(bar, "\n")

	bodyH := max(m.height-len(barLines), 0)
	var body string
	switch {
	case m.inTransition:
		body = m.transitionFrame
	case m.hasContent && !m.content.IsGraphical():
		body = m.content.Text
	}
	body = lipgloss.Place(m.width, bodyH, lipgloss.Center, lipgloss.Center, clip(body, m.width, bodyH))

	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(bar)
	if !m.inTransition {
		b.WriteString(m.graphics(area))
	}
	return b.String()
}

// box frames lines with a rounded border and a title in the top edge. The
// result is exactly height lines of width cells.
func box(title string, lines []string, width, height int, style lipgloss.Style) []string {
	if width < 2 || height < 1 {
		return nil
	}
	border := lipgloss.RoundedBorder()
	inner := width - 2

	if height == 1 {
		return []string{style.Render(border.Left) + fit(title, inner) + style.Render(border.Right)}
	}

	title = ansi.Truncate(" "+title+" ", max(inner-1, 0), "…")
	out := make([]string, 0, height)
	out = append(out, style.Render(border.TopLeft+border.Top)+
		titleStyle.Render(title)+
		style.Render(strings.Repeat(border.Top, max(inner-1-ansi.StringWidth(title), 0))+border.TopRight))
	for i := 0; i < height-2; i++ {
		var line string
		if i < len(lines) {
			line = lines[i]
		}
		out = append(out, style.Render(border.Left)+fit(line, inner)+reset+style.Render(border.Right))
	}
	out = append(out, style.Render(border.BottomLeft+strings.Repeat(border.Bottom, inner)+border.BottomRight))
	return out
}

// fit truncates or pads s to exactly width cells.
func fit(s string, width int) string {
	s = strings.ReplaceAll(s, "\t", "    ")
	s = ansi.Truncate(s, width, "")
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

// clip keeps the top-left width x height cells of s.
func clip(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "") + reset
	}
	return strings.Join(lines, "\n")
}

func joinHorizontal(left, right []string) string {
	n := max(len(left), len(right))
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString("\n")
		}
		if i < len(left) {
			b.WriteString(left[i])
		}
		if i < len(right) {
			b.WriteString(right[i])
		}
	}
	return b.String()
}
