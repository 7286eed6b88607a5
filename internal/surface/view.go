package surface

import "github.com/san-kum/mlviz/internal/plot"

// ZoomAt scales the view by factor around an anchor in canvas pixel
// coordinates, so the data under the cursor stays put. The resulting
// scale clamps to the configured extent. Without a zoom capability the
// call is inert.
func (s *Surface) ZoomAt(factor, anchorX, anchorY float64) {
	s.mu.Lock()
	z := s.cfg.Zoom
	if s.closed || z == nil || factor <= 0 {
		s.mu.Unlock()
		return
	}
	old := s.transform.Scale
	scale := clamp(old*factor, z.ScaleExtent[0], z.ScaleExtent[1])
	if scale != old {
		// Keep the anchor fixed: the pre-transform point under the
		// anchor must land on the anchor again after rescaling.
		ratio := scale / old
		s.transform.Scale = scale
		s.transform.TranslateX = anchorX - (anchorX-s.transform.TranslateX)*ratio
		s.transform.TranslateY = anchorY - (anchorY-s.transform.TranslateY)*ratio
		s.clampPanLocked()
	}
	s.mu.Unlock()
	s.Render()
}

// PanBy shifts the view by a pixel delta, clamped so the visible
// window stays within the content bounds expanded by the pan margin.
// Inert unless panning is enabled.
func (s *Surface) PanBy(dx, dy float64) {
	s.mu.Lock()
	z := s.cfg.Zoom
	if s.closed || z == nil || !z.EnablePan {
		s.mu.Unlock()
		return
	}
	s.transform.TranslateX += dx
	s.transform.TranslateY += dy
	s.clampPanLocked()
	s.mu.Unlock()
	s.Render()
}

// ResetView snaps back to the identity transform. EnableReset only
// controls the affordance via [Surface.ShowsReset]; an explicit reset
// always works so a host can recover a lost view.
func (s *Surface) ResetView() {
	s.mu.Lock()
	if s.closed || s.cfg.Zoom == nil {
		s.mu.Unlock()
		return
	}
	s.transform = plot.Identity()
	s.mu.Unlock()
	s.Render()
}

// Transform returns the current view transform.
func (s *Surface) Transform() plot.Transform {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transform
}

// clampPanLocked keeps the visible window inside the content extent
// plus margin. The drawable content spans the full pixel grid at the
// identity view, so the clamp works in pixel space and only needs a
// mounted canvas and configured content bounds.
func (s *Surface) clampPanLocked() {
	z := s.cfg.Zoom
	if z == nil || z.ContentBounds == nil || s.canvas == nil {
		return
	}
	pw := float64(s.canvas.Width*2 - 1)
	ph := float64(s.canvas.Height*4 - 1)
	s.transform.TranslateX = clampAxis(s.transform.TranslateX, s.transform.Scale, pw, z.PanMargin)
	s.transform.TranslateY = clampAxis(s.transform.TranslateY, s.transform.Scale, ph, z.PanMargin)
}

// clampAxis bounds one translation component. With extent e, scale s
// and margin m, screen pixel p shows pre-transform pixel (p-t)/s, and
// that window must stay inside [-m*e, (1+m)*e]. When the view is
// zoomed out too far for any t to satisfy both ends, the content is
// centered between them.
func clampAxis(t, scale, extent, margin float64) float64 {
	min := extent * (1 - (1+margin)*scale)
	max := margin * extent * scale
	if min > max {
		return (min + max) / 2
	}
	return clamp(t, min, max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
