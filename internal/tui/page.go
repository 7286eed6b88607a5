package tui

import (
	"time"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/plot"
	"github.com/san-kum/mlviz/internal/story"
	"github.com/san-kum/mlviz/internal/surface"
)

// loadProjection loads a dataset and projects it onto the page's
// feature columns. Without explicit features a wide dataset keeps its
// first two columns; datasets already at 1 to 3 features pass through.
func loadProjection(reg *dataset.Registry, name string, features []int) (*dataset.Dataset, error) {
	ds, err := reg.Load(name)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		if ds.NumFeatures() <= 3 {
			return ds, nil
		}
		features = []int{0, 1}
	}
	return ds.SelectFeatures(features...)
}

// zoomConfig translates story zoom settings into a surface capability.
func zoomConfig(z *story.ZoomSettings, bounds plot.Bounds) *surface.ZoomConfig {
	if z == nil {
		return nil
	}
	b := bounds
	return &surface.ZoomConfig{
		ScaleExtent:   [2]float64{z.MinScale, z.MaxScale},
		EnablePan:     z.Pan,
		EnableReset:   true,
		PanMargin:     0.1,
		ContentBounds: &b,
	}
}

// playbackConfig translates story playback settings, defaulting to an
// 800ms step with a few interpolation frames and a visible slider.
func playbackConfig(ps *story.PlaybackSettings, steps int) *surface.PlaybackConfig {
	if steps < 1 {
		return nil
	}
	cfg := &surface.PlaybackConfig{
		MaxSteps:           steps,
		StepDuration:       800 * time.Millisecond,
		InterpolationSteps: 4,
		ShowSlider:         true,
	}
	if ps == nil {
		return cfg
	}
	if ps.StepMillis > 0 {
		cfg.StepDuration = time.Duration(ps.StepMillis) * time.Millisecond
	}
	if ps.InterpolationSteps > 0 {
		cfg.InterpolationSteps = ps.InterpolationSteps
	}
	cfg.ShowSlider = ps.Slider
	cfg.AutoPlay = ps.AutoPlay
	return cfg
}

// zoomKey applies a zoom or pan key to a surface, reporting whether the
// key was one. Pan keys only count when panning is enabled, so arrow
// keys keep navigating pages on zoom-only views.
func zoomKey(surf *surface.Surface, z *story.ZoomSettings, key string) bool {
	if z == nil {
		return false
	}
	f := surf.Frame()
	cx, cy := float64(f.PixelW)/2, float64(f.PixelH)/2
	switch key {
	case "+", "=":
		surf.ZoomAt(zoomStep, cx, cy)
	case "-", "_":
		surf.ZoomAt(1/zoomStep, cx, cy)
	case "left", "h":
		if !z.Pan {
			return false
		}
		surf.PanBy(panStep, 0)
	case "right", "l":
		if !z.Pan {
			return false
		}
		surf.PanBy(-panStep, 0)
	case "up", "k":
		if !z.Pan {
			return false
		}
		surf.PanBy(0, panStep)
	case "down", "j":
		if !z.Pan {
			return false
		}
		surf.PanBy(0, -panStep)
	case "r":
		surf.ResetView()
	default:
		return false
	}
	return true
}
