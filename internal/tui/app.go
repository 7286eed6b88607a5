// Package tui is the interactive walkthrough: a bubbletea program that
// steps through a story page by page, each page hosting the plot
// surface and key bindings its kind calls for.
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/session"
	"github.com/san-kum/mlviz/internal/stats"
	"github.com/san-kum/mlviz/internal/story"
	"github.com/san-kum/mlviz/internal/treebuilder"
)

const (
	zoomStep = 1.25
	panStep  = 6.0
)

// pageModel is one walkthrough page. update reports whether it consumed
// a key, so unhandled keys fall through to app-level navigation.
type pageModel interface {
	init() tea.Cmd
	update(msg tea.Msg) (tea.Cmd, bool)
	view() string
	done() bool
	close()
}

// sizeMsg carries the content area a page may fill, already excluding
// the app header and footer.
type sizeMsg struct {
	w, h int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ProviderFunc builds the split statistics provider a tree building
// page uses.
type ProviderFunc func(ds *dataset.Dataset, crit mltree.Criterion) stats.Provider

// App walks a story. The story must have passed Validate.
type App struct {
	story    *story.Story
	reg      *dataset.Registry
	store    *session.Store
	provider ProviderFunc
	logger   *slog.Logger

	page      int
	current   pageModel
	visited   []int
	completed map[int]bool

	width  int
	height int
}

// Option configures an App.
type Option func(*App)

// WithStore persists tree building progress between runs.
func WithStore(s *session.Store) Option {
	return func(a *App) { a.store = s }
}

// WithProvider overrides the in-process statistics provider.
func WithProvider(fn ProviderFunc) Option {
	return func(a *App) { a.provider = fn }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

func NewApp(st *story.Story, reg *dataset.Registry, opts ...Option) *App {
	a := &App{
		story:     st,
		reg:       reg,
		completed: make(map[int]bool),
		logger:    slog.Default(),
		width:     80,
		height:    24,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.provider == nil {
		a.provider = func(ds *dataset.Dataset, crit mltree.Criterion) stats.Provider {
			return stats.NewLocal(ds, stats.WithCriterion(crit))
		}
	}
	a.page = st.StartPage
	a.current = a.buildPage(a.page)
	return a
}

// Run starts the walkthrough in an alternate screen and blocks until
// the user quits.
func Run(st *story.Story, reg *dataset.Registry, opts ...Option) error {
	p := tea.NewProgram(*NewApp(st, reg, opts...), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.current.init(), tick())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKey(msg)
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a.forward(a.contentSize())
	case tickMsg:
		m, _ := a.forward(msg)
		return m, tick()
	default:
		return a.forward(msg)
	}
}

// forward hands a non-key message to the current page and refreshes the
// page's completion mark.
func (a App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.current == nil {
		return a, nil
	}
	cmd, _ := a.current.update(msg)
	a.completed[a.page] = a.current.done()
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.current != nil {
		if cmd, consumed := a.current.update(msg); consumed {
			a.completed[a.page] = a.current.done()
			return a, cmd
		}
	}
	switch msg.String() {
	case "q", "ctrl+c":
		if a.current != nil {
			a.current.close()
		}
		return a, tea.Quit
	case "n", "right", "l":
		return a.next()
	case "p", "left", "h":
		return a.prev()
	}
	return a, nil
}

func (a App) next() (tea.Model, tea.Cmd) {
	to, ok := a.story.Next(a.page, a.completed[a.page])
	if !ok {
		return a, nil
	}
	return a.goTo(to, true)
}

func (a App) prev() (tea.Model, tea.Cmd) {
	if len(a.visited) == 0 {
		return a, nil
	}
	to := a.visited[len(a.visited)-1]
	a.visited = a.visited[:len(a.visited)-1]
	return a.goTo(to, false)
}

func (a App) goTo(to int, push bool) (tea.Model, tea.Cmd) {
	if a.current != nil {
		a.current.close()
	}
	if push {
		a.visited = append(a.visited, a.page)
	}
	a.page = to
	a.current = a.buildPage(to)
	a.completed[to] = a.current.done()

	cmds := []tea.Cmd{a.current.init()}
	if cmd, _ := a.current.update(a.contentSize()); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// contentSize is the area left for the page after the header and footer.
func (a App) contentSize() sizeMsg {
	w, h := a.width, a.height-6
	if w < 20 {
		w = 20
	}
	if h < 6 {
		h = 6
	}
	return sizeMsg{w: w, h: h}
}

func (a App) buildPage(i int) pageModel {
	if i < 0 || i >= len(a.story.Pages) {
		return newErrorPage(story.Page{}, fmt.Errorf("tui: page %d out of range", i))
	}
	p := a.story.Pages[i]
	var (
		pm  pageModel
		err error
	)
	switch p.Kind {
	case story.KindStatic:
		pm = newStaticPage(p)
	case story.KindScatter:
		pm, err = newScatterPage(p, a.reg)
	case story.KindKNN:
		pm, err = newKNNPage(p, a.reg)
	case story.KindTreeManual:
		pm, err = newTreeManualPage(p, a.reg, a.provider, a.persister(i), a.logger)
	case story.KindTreeTrain:
		pm, err = newTreeTrainPage(p, a.reg)
	default:
		err = fmt.Errorf("tui: unknown page kind %q", p.Kind)
	}
	if err != nil {
		a.logger.Warn("page setup failed", "page", i, "kind", string(p.Kind), "error", err)
		return newErrorPage(p, err)
	}
	return pm
}

// persister returns the page's session slot, nil without a store. The
// nil check lives here so pages never see a typed-nil interface.
func (a App) persister(page int) treebuilder.Persister {
	if a.store == nil {
		return nil
	}
	return a.store.Persister(a.story.Name, page)
}

func (a App) View() string {
	var b strings.Builder

	title := ""
	if a.page >= 0 && a.page < len(a.story.Pages) {
		title = a.story.Pages[a.page].Title
	}
	mark := dimmer.Render("○")
	if a.completed[a.page] {
		mark = green.Render("●")
	}
	b.WriteString("\n  " + cyan.Render(a.story.Name) +
		dim.Render(fmt.Sprintf("  %d/%d  ", a.page+1, len(a.story.Pages))) + mark + "\n")
	b.WriteString("  " + white.Render(title) + "\n\n")

	if a.current != nil {
		b.WriteString(a.current.view())
	}

	b.WriteString("\n" + dim.Render("  n next  p back  q quit") + "\n")
	return b.String()
}

// errorPage replaces a page whose setup failed, keeping navigation
// alive. It counts as done so gated edges stay passable.
type errorPage struct {
	title string
	err   error
}

func newErrorPage(p story.Page, err error) *errorPage {
	return &errorPage{title: p.Title, err: err}
}

func (e *errorPage) init() tea.Cmd                  { return nil }
func (e *errorPage) update(tea.Msg) (tea.Cmd, bool) { return nil, false }
func (e *errorPage) done() bool                     { return true }
func (e *errorPage) close()                         {}

func (e *errorPage) view() string {
	return "  " + red.Render("page unavailable") + "\n\n  " + dim.Render(e.err.Error()) + "\n"
}
