package surface

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mlviz/internal/plot"
	"github.com/san-kum/mlviz/internal/viz"
)

// DrawFunc paints one frame. The canvas arrives cleared; data is
// whatever the owner last passed to SetData.
type DrawFunc func(c *viz.Canvas, data any, f Frame)

// Frame is the immutable per-draw snapshot of surface state. Progress
// is 1.0 when the view rests exactly on Step and t in (0,1) while
// interpolating from Step-1 toward Step.
type Frame struct {
	Cols, Rows     int
	PixelW, PixelH int
	Margin         int
	Transform      plot.Transform
	Step           int
	Progress       float64
	Playing        bool
}

// Surface hosts a render target and the interaction state around it.
// All methods are safe for concurrent use.
type Surface struct {
	mu sync.Mutex // interaction and playback state

	cfg    Config
	clock  Clock
	draw   DrawFunc
	data   any
	canvas *viz.Canvas
	closed bool

	transform plot.Transform

	playing bool
	step    int
	subStep int // 0 = settled on step
	gen     uint64
	cancel  func()

	// renderMu serializes draw callback invocations; at most one draw
	// runs at a time even when timers and key handlers race.
	renderMu sync.Mutex
}

// New builds a surface, rejecting invalid configuration.
func New(cfg Config, draw DrawFunc) (*Surface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newSurface(cfg, draw), nil
}

// NewLenient builds a surface that degrades instead of failing: any
// invalid capability section is dropped and the surface comes up as a
// static view. Rendering never becomes unavailable because of a bad
// zoom extent or step count.
func NewLenient(cfg Config, draw DrawFunc) *Surface {
	if cfg.Margin < 0 {
		cfg.Margin = 0
	}
	if cfg.Zoom.validate() != nil {
		cfg.Zoom = nil
	}
	if cfg.Playback.validate() != nil {
		cfg.Playback = nil
	}
	return newSurface(cfg, draw)
}

func newSurface(cfg Config, draw DrawFunc) *Surface {
	s := &Surface{
		cfg:       cfg,
		clock:     cfg.Clock,
		draw:      draw,
		transform: plot.Identity(),
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	return s
}

// Mount attaches the surface to a sized container, renders the first
// frame and starts the transport when AutoPlay is configured.
func (s *Surface) Mount(cols, rows int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.resizeLocked(cols, rows)
	p := s.cfg.Playback
	if p != nil && p.AutoPlay && p.MaxSteps > 1 {
		s.playing = true
		s.scheduleLocked()
	}
	s.mu.Unlock()
	s.Render()
}

// Close cancels timers and makes every further call inert. No draw
// callback fires after Close returns, except one already in flight.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.playing = false
	s.cancelLocked()
}

// SetData swaps the value handed to the draw callback and re-renders.
func (s *Surface) SetData(data any) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.data = data
	s.mu.Unlock()
	s.Render()
}

// Resize reshapes the render target to the observed container size and
// re-renders. Sizes below one cell are ignored.
func (s *Surface) Resize(cols, rows int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.resizeLocked(cols, rows)
	s.mu.Unlock()
	s.Render()
}

func (s *Surface) resizeLocked(cols, rows int) {
	if cols < 1 || rows < 1 {
		return
	}
	if s.canvas != nil && s.canvas.Width == cols && s.canvas.Height == rows {
		return
	}
	s.canvas = viz.NewCanvas(cols, rows)
}

// Render snapshots the current state and invokes the draw callback
// once. Before Mount there is no target and the call is a no-op.
func (s *Surface) Render() {
	s.mu.Lock()
	if s.closed || s.canvas == nil {
		s.mu.Unlock()
		return
	}
	canvas := s.canvas
	data := s.data
	draw := s.draw
	f := s.frameLocked()
	s.mu.Unlock()

	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	canvas.Clear()
	if draw != nil {
		draw(canvas, data, f)
	}
}

// View renders the current canvas content to a styled string.
func (s *Surface) View(palette []lipgloss.Style) string {
	s.mu.Lock()
	canvas := s.canvas
	s.mu.Unlock()
	if canvas == nil {
		return ""
	}
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return canvas.Render(palette)
}

// Frame returns a snapshot of the state the next draw would receive.
func (s *Surface) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

func (s *Surface) frameLocked() Frame {
	f := Frame{
		Margin:    s.cfg.Margin,
		Transform: s.transform,
		Step:      s.step,
		Progress:  s.progressLocked(),
		Playing:   s.playing,
	}
	if s.canvas != nil {
		f.Cols, f.Rows = s.canvas.Width, s.canvas.Height
		f.PixelW, f.PixelH = s.canvas.Width*2, s.canvas.Height*4
	}
	return f
}

// ShowSlider reports whether the hosting view should draw a scrubber.
func (s *Surface) ShowSlider() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Playback != nil && s.cfg.Playback.ShowSlider
}

// ShowsReset reports whether the hosting view should offer a reset key.
func (s *Surface) ShowsReset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Zoom != nil && s.cfg.Zoom.EnableReset
}

// MaxSteps returns the playback step count, 0 without playback.
func (s *Surface) MaxSteps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Playback == nil {
		return 0
	}
	return s.cfg.Playback.MaxSteps
}

// Playing reports whether the transport is running.
func (s *Surface) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}
