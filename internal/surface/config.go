package surface

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/mlviz/internal/plot"
)

// Errors returned by surface construction and control operations.
var (
	ErrBadConfig  = errors.New("surface: invalid configuration")
	ErrNoPlayback = errors.New("surface: playback not configured")
	ErrBadStep    = errors.New("surface: step outside playback range")
	ErrClosed     = errors.New("surface: surface is closed")
)

// ZoomConfig enables the zoom/pan capability.
type ZoomConfig struct {
	// ScaleExtent is the [min, max] zoom factor range. Both ends must
	// be positive and ordered.
	ScaleExtent [2]float64
	// EnablePan allows translating the view; without it only zooming
	// around the cursor moves the viewport.
	EnablePan bool
	// EnableReset allows snapping back to the identity view.
	EnableReset bool
	// PanMargin is how far the view may pan past the content edge,
	// as a fraction of the content extent.
	PanMargin float64
	// ContentBounds is the data extent the pan clamp protects. Nil
	// leaves panning unclamped.
	ContentBounds *plot.Bounds
}

// PlaybackConfig enables step playback.
type PlaybackConfig struct {
	// MaxSteps is the number of playable steps; frames carry a step
	// in [0, MaxSteps).
	MaxSteps int
	// StepDuration is the wall time of one step transition.
	StepDuration time.Duration
	// InterpolationSteps is how many in-between frames each
	// transition renders. Zero snaps directly between steps.
	InterpolationSteps int
	// ShowSlider asks the hosting view to display a scrubber.
	ShowSlider bool
	// AutoPlay starts the transport on Mount.
	AutoPlay bool
}

// Config declares which capabilities a surface carries. Nil sections
// leave the corresponding interactions inert.
type Config struct {
	Zoom     *ZoomConfig
	Playback *PlaybackConfig
	// Margin is a cell inset the draw callback may reserve for axis
	// labels; the surface itself only passes it through.
	Margin int
	// Clock supplies playback timers. Nil uses real time.
	Clock Clock
}

// Validate rejects configurations that would make interactions
// misbehave rather than degrade.
func (c Config) Validate() error {
	if c.Margin < 0 {
		return fmt.Errorf("%w: negative margin %d", ErrBadConfig, c.Margin)
	}
	if err := c.Zoom.validate(); err != nil {
		return err
	}
	return c.Playback.validate()
}

func (z *ZoomConfig) validate() error {
	if z == nil {
		return nil
	}
	if z.ScaleExtent[0] <= 0 {
		return fmt.Errorf("%w: scale extent min %v must be positive", ErrBadConfig, z.ScaleExtent[0])
	}
	if z.ScaleExtent[1] < z.ScaleExtent[0] {
		return fmt.Errorf("%w: scale extent %v inverted", ErrBadConfig, z.ScaleExtent)
	}
	if z.PanMargin < 0 {
		return fmt.Errorf("%w: negative pan margin %v", ErrBadConfig, z.PanMargin)
	}
	return nil
}

func (p *PlaybackConfig) validate() error {
	if p == nil {
		return nil
	}
	if p.MaxSteps < 1 {
		return fmt.Errorf("%w: max steps %d", ErrBadConfig, p.MaxSteps)
	}
	if p.StepDuration <= 0 {
		return fmt.Errorf("%w: step duration %v", ErrBadConfig, p.StepDuration)
	}
	if p.InterpolationSteps < 0 {
		return fmt.Errorf("%w: interpolation steps %d", ErrBadConfig, p.InterpolationSteps)
	}
	return nil
}
