package surface_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/mlviz/internal/plot"
	"github.com/san-kum/mlviz/internal/surface"
	"github.com/san-kum/mlviz/internal/viz"
)

// fakeClock hands out timers that only fire when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	c.timers = append(c.timers, t)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		t.stopped = true
	}
}

// fire runs every armed, unstopped timer once and reports how many ran.
func (c *fakeClock) fire() int {
	c.mu.Lock()
	pending := c.timers
	c.timers = nil
	c.mu.Unlock()
	n := 0
	for _, t := range pending {
		if !t.stopped {
			t.fn()
			n++
		}
	}
	return n
}

func (c *fakeClock) lastInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return 0
	}
	return c.timers[len(c.timers)-1].d
}

// recorder captures every frame the draw callback receives.
type recorder struct {
	mu     sync.Mutex
	frames []surface.Frame
	data   any
}

func (r *recorder) draw(_ *viz.Canvas, data any, f surface.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	r.data = data
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) last() surface.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[len(r.frames)-1]
}

func (r *recorder) since(i int) []surface.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]surface.Frame(nil), r.frames[i:]...)
}

func playbackConfig(clock surface.Clock, maxSteps, interp int) surface.Config {
	return surface.Config{
		Playback: &surface.PlaybackConfig{
			MaxSteps:           maxSteps,
			StepDuration:       90 * time.Millisecond,
			InterpolationSteps: interp,
		},
		Clock: clock,
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	bad := []surface.Config{
		{Margin: -1},
		{Zoom: &surface.ZoomConfig{ScaleExtent: [2]float64{0, 4}}},
		{Zoom: &surface.ZoomConfig{ScaleExtent: [2]float64{-1, 4}}},
		{Zoom: &surface.ZoomConfig{ScaleExtent: [2]float64{4, 1}}},
		{Zoom: &surface.ZoomConfig{ScaleExtent: [2]float64{1, 4}, PanMargin: -0.1}},
		{Playback: &surface.PlaybackConfig{MaxSteps: 0, StepDuration: time.Second}},
		{Playback: &surface.PlaybackConfig{MaxSteps: 3, StepDuration: 0}},
		{Playback: &surface.PlaybackConfig{MaxSteps: 3, StepDuration: time.Second, InterpolationSteps: -1}},
	}
	for _, cfg := range bad {
		_, err := surface.New(cfg, nil)
		require.ErrorIs(t, err, surface.ErrBadConfig, "config %+v", cfg)
	}
}

func TestNewLenientDegrades(t *testing.T) {
	rec := &recorder{}
	s := surface.NewLenient(surface.Config{
		Zoom:     &surface.ZoomConfig{ScaleExtent: [2]float64{4, 1}},
		Playback: &surface.PlaybackConfig{MaxSteps: 0},
	}, rec.draw)
	s.Mount(20, 10)

	// The surface renders as a static view instead of failing.
	require.Equal(t, 1, rec.count())
	f := rec.last()
	require.Equal(t, 0, f.Step)
	require.Equal(t, 1.0, f.Progress)
	require.False(t, f.Playing)

	// Dropped capabilities are inert, not broken.
	s.ZoomAt(2, 10, 10)
	require.True(t, s.Transform().IsIdentity())
	require.ErrorIs(t, s.Seek(1), surface.ErrNoPlayback)
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	rec := &recorder{}
	s, err := surface.New(surface.Config{
		Zoom: &surface.ZoomConfig{ScaleExtent: [2]float64{0.5, 8}},
	}, rec.draw)
	require.NoError(t, err)
	s.Mount(40, 20)

	const ax, ay = 31.0, 17.0
	before := s.Transform()
	ux := (ax - before.TranslateX) / before.Scale
	uy := (ay - before.TranslateY) / before.Scale

	s.ZoomAt(2, ax, ay)
	after := s.Transform()
	require.Equal(t, 2.0, after.Scale)
	require.InDelta(t, ux, (ax-after.TranslateX)/after.Scale, 1e-9)
	require.InDelta(t, uy, (ay-after.TranslateY)/after.Scale, 1e-9)

	// Zooming far past the extent clamps the scale.
	s.ZoomAt(100, ax, ay)
	require.Equal(t, 8.0, s.Transform().Scale)
	s.ZoomAt(1e-6, ax, ay)
	require.Equal(t, 0.5, s.Transform().Scale)

	// Nonpositive factors are rejected silently.
	s.ZoomAt(-1, ax, ay)
	require.Equal(t, 0.5, s.Transform().Scale)
}

func TestInteractionsInertWithoutZoom(t *testing.T) {
	rec := &recorder{}
	s, err := surface.New(surface.Config{}, rec.draw)
	require.NoError(t, err)
	s.Mount(20, 10)

	s.ZoomAt(2, 5, 5)
	s.PanBy(10, 10)
	s.ResetView()
	require.True(t, s.Transform().IsIdentity())
}

func TestPanClampedToContent(t *testing.T) {
	bounds := plot.Bounds{{0, 1}, {0, 1}}
	s, err := surface.New(surface.Config{
		Zoom: &surface.ZoomConfig{
			ScaleExtent:   [2]float64{1, 4},
			EnablePan:     true,
			PanMargin:     0.1,
			ContentBounds: &bounds,
		},
	}, nil)
	require.NoError(t, err)
	s.Mount(40, 20) // 79 x 79 pixels

	s.PanBy(1e6, -1e6)
	tr := s.Transform()
	require.InDelta(t, 7.9, tr.TranslateX, 1e-9)  // 0.1 * 79 * scale
	require.InDelta(t, -7.9, tr.TranslateY, 1e-9) // 79 * (1 - 1.1*scale)
}

func TestResetView(t *testing.T) {
	s, err := surface.New(surface.Config{
		Zoom: &surface.ZoomConfig{ScaleExtent: [2]float64{0.5, 8}, EnablePan: true, EnableReset: true},
	}, nil)
	require.NoError(t, err)
	s.Mount(40, 20)
	require.True(t, s.ShowsReset())

	s.ZoomAt(3, 10, 10)
	s.PanBy(5, 5)
	require.False(t, s.Transform().IsIdentity())
	s.ResetView()
	require.True(t, s.Transform().IsIdentity())
}

func TestResetAffordanceHidden(t *testing.T) {
	// EnableReset only hides the affordance; an explicit reset still
	// restores the identity view.
	s, err := surface.New(surface.Config{
		Zoom: &surface.ZoomConfig{ScaleExtent: [2]float64{0.5, 8}},
	}, nil)
	require.NoError(t, err)
	s.Mount(40, 20)
	require.False(t, s.ShowsReset())

	s.ZoomAt(3, 10, 10)
	s.ResetView()
	require.True(t, s.Transform().IsIdentity())
}

func TestPlaybackAdvancesThroughInterpolation(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	s, err := surface.New(playbackConfig(clock, 3, 2), rec.draw)
	require.NoError(t, err)
	s.Mount(10, 5)

	start := rec.count()
	s.Play()
	require.True(t, s.Playing())
	require.Equal(t, 30*time.Millisecond, clock.lastInterval())

	for clock.fire() > 0 {
	}
	require.False(t, s.Playing())

	frames := rec.since(start)
	var got [][2]float64
	for _, f := range frames[1:] { // frames[0] is the Play render
		got = append(got, [2]float64{float64(f.Step), f.Progress})
	}
	want := [][2]float64{
		{1, 1.0 / 3}, {1, 2.0 / 3}, {1, 1},
		{2, 1.0 / 3}, {2, 2.0 / 3}, {2, 1},
	}
	require.Len(t, got, len(want))
	for i := range want {
		require.InDelta(t, want[i][0], got[i][0], 1e-9, "frame %d step", i)
		require.InDelta(t, want[i][1], got[i][1], 1e-9, "frame %d progress", i)
	}
	require.False(t, rec.last().Playing, "transport should halt on the final step")
}

func TestSeekCancelsInFlightTimer(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	s, err := surface.New(playbackConfig(clock, 5, 2), rec.draw)
	require.NoError(t, err)
	s.Mount(10, 5)

	s.Play()
	clock.fire() // mid-transition toward step 1
	require.InDelta(t, 1.0/3, s.Frame().Progress, 1e-9)

	require.NoError(t, s.Seek(3))
	f := rec.last()
	require.Equal(t, 3, f.Step)
	require.Equal(t, 1.0, f.Progress)
	require.False(t, f.Playing)

	// The superseded timer must not advance or render anything.
	n := rec.count()
	clock.fire()
	require.Equal(t, n, rec.count())
	require.Equal(t, 3, s.Frame().Step)
}

func TestAutoPlayStartsOnMount(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	cfg := playbackConfig(clock, 3, 0)
	cfg.Playback.AutoPlay = true
	s, err := surface.New(cfg, rec.draw)
	require.NoError(t, err)

	s.Mount(10, 5)
	require.True(t, s.Playing())
	clock.fire()
	require.Equal(t, 1, s.Frame().Step)
}

func TestPauseAndResume(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	s, err := surface.New(playbackConfig(clock, 4, 2), rec.draw)
	require.NoError(t, err)
	s.Mount(10, 5)

	s.Play()
	clock.fire()
	s.Pause()
	require.False(t, s.Playing())
	f := s.Frame()
	require.Equal(t, 1, f.Step)
	require.InDelta(t, 1.0/3, f.Progress, 1e-9)

	// A racing tick fires into a bumped generation and drops itself.
	n := rec.count()
	clock.fire()
	require.Equal(t, n, rec.count())

	s.Play()
	clock.fire()
	require.InDelta(t, 2.0/3, s.Frame().Progress, 1e-9)
}

func TestPlayFromEndRewinds(t *testing.T) {
	clock := &fakeClock{}
	s, err := surface.New(playbackConfig(clock, 3, 0), nil)
	require.NoError(t, err)
	s.Mount(10, 5)

	require.NoError(t, s.Seek(2))
	s.Play()
	require.True(t, s.Playing())
	require.Equal(t, 0, s.Frame().Step)
}

func TestStepByClamps(t *testing.T) {
	clock := &fakeClock{}
	s, err := surface.New(playbackConfig(clock, 4, 0), nil)
	require.NoError(t, err)
	s.Mount(10, 5)

	require.NoError(t, s.StepBy(2))
	require.Equal(t, 2, s.Frame().Step)
	require.NoError(t, s.StepBy(10))
	require.Equal(t, 3, s.Frame().Step)
	require.NoError(t, s.StepBy(-10))
	require.Equal(t, 0, s.Frame().Step)
}

func TestSeekErrors(t *testing.T) {
	clock := &fakeClock{}

	static, err := surface.New(surface.Config{}, nil)
	require.NoError(t, err)
	static.Mount(10, 5)
	require.ErrorIs(t, static.Seek(0), surface.ErrNoPlayback)

	s, err := surface.New(playbackConfig(clock, 3, 0), nil)
	require.NoError(t, err)
	s.Mount(10, 5)
	require.ErrorIs(t, s.Seek(-1), surface.ErrBadStep)
	require.ErrorIs(t, s.Seek(3), surface.ErrBadStep)

	s.Close()
	require.ErrorIs(t, s.Seek(0), surface.ErrClosed)
}

func TestCloseStopsEverything(t *testing.T) {
	clock := &fakeClock{}
	rec := &recorder{}
	s, err := surface.New(playbackConfig(clock, 5, 1), rec.draw)
	require.NoError(t, err)
	s.Mount(10, 5)
	s.Play()

	s.Close()
	n := rec.count()
	clock.fire()
	s.SetData("ignored")
	s.Render()
	s.Play()
	require.Equal(t, n, rec.count())
	require.False(t, s.Playing())
}

func TestSetDataReachesDraw(t *testing.T) {
	rec := &recorder{}
	s, err := surface.New(surface.Config{}, rec.draw)
	require.NoError(t, err)
	s.Mount(10, 5)

	s.SetData("payload")
	require.Equal(t, "payload", rec.data)
}

func TestResizeReshapesFrame(t *testing.T) {
	rec := &recorder{}
	s, err := surface.New(surface.Config{Margin: 1}, rec.draw)
	require.NoError(t, err)
	s.Mount(20, 10)
	require.Equal(t, 40, rec.last().PixelW)
	require.Equal(t, 1, rec.last().Margin)

	s.Resize(30, 10)
	f := rec.last()
	require.Equal(t, 30, f.Cols)
	require.Equal(t, 60, f.PixelW)
	require.Equal(t, 40, f.PixelH)
}

func TestDrawNeverOverlaps(t *testing.T) {
	clock := &fakeClock{}
	var inDraw, overlapped int32
	draw := func(_ *viz.Canvas, _ any, _ surface.Frame) {
		if atomic.AddInt32(&inDraw, 1) > 1 {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(50 * time.Microsecond)
		atomic.AddInt32(&inDraw, -1)
	}
	s, err := surface.New(playbackConfig(clock, 50, 0), draw)
	require.NoError(t, err)
	s.Mount(10, 5)
	s.Play()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				s.Render()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 25; j++ {
			clock.fire()
		}
	}()
	wg.Wait()

	require.Zero(t, atomic.LoadInt32(&overlapped), "draw callback ran concurrently")
}
