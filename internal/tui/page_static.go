package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mlviz/internal/story"
)

// staticPage shows prose in a scrollable viewport.
type staticPage struct {
	page  story.Page
	vp    viewport.Model
	ready bool
}

func newStaticPage(p story.Page) *staticPage {
	return &staticPage{page: p}
}

func (s *staticPage) init() tea.Cmd { return nil }

func (s *staticPage) update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case sizeMsg:
		w, h := msg.w-4, msg.h-1
		if w < 10 {
			w = 10
		}
		if h < 3 {
			h = 3
		}
		if !s.ready {
			s.vp = viewport.New(w, h)
			s.ready = true
		} else {
			s.vp.Width, s.vp.Height = w, h
		}
		s.vp.SetContent(lipgloss.NewStyle().Width(w).Render(s.page.Text))
		return nil, false
	case tea.KeyMsg:
		if !s.ready {
			return nil, false
		}
		switch msg.String() {
		case "up", "down", "j", "k", "pgup", "pgdown":
			var cmd tea.Cmd
			s.vp, cmd = s.vp.Update(msg)
			return cmd, true
		}
	}
	return nil, false
}

func (s *staticPage) view() string {
	if !s.ready {
		return ""
	}
	var b strings.Builder
	indent(&b, s.vp.View())
	b.WriteString(dim.Render("  ↑↓ scroll") + "\n")
	return b.String()
}

func (s *staticPage) done() bool { return true }
func (s *staticPage) close()     {}
