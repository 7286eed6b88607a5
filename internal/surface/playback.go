package surface

import "time"

// Play starts or resumes the transport. Playing from the final step
// rewinds to the beginning first. Inert without playback or while
// already running.
func (s *Surface) Play() {
	s.mu.Lock()
	p := s.cfg.Playback
	if s.closed || p == nil || s.playing || p.MaxSteps < 2 {
		s.mu.Unlock()
		return
	}
	if s.step >= p.MaxSteps-1 && s.subStep == 0 {
		s.step = 0
	}
	s.playing = true
	s.scheduleLocked()
	s.mu.Unlock()
	s.Render()
}

// Pause freezes the transport at the current step and progress. The
// pending timer is canceled; a fire already racing the cancel sees the
// bumped generation and drops itself.
func (s *Surface) Pause() {
	s.mu.Lock()
	if s.closed || !s.playing {
		s.mu.Unlock()
		return
	}
	s.playing = false
	s.cancelLocked()
	s.mu.Unlock()
	s.Render()
}

// Toggle flips between playing and paused and reports the new state.
func (s *Surface) Toggle() bool {
	if s.Playing() {
		s.Pause()
		return false
	}
	s.Play()
	return s.Playing()
}

// Seek jumps the transport to a step. Seeking pauses playback and the
// next frame rests exactly on the target with progress 1.0; a canceled
// in-flight tick never renders.
func (s *Surface) Seek(step int) error {
	s.mu.Lock()
	p := s.cfg.Playback
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if p == nil {
		s.mu.Unlock()
		return ErrNoPlayback
	}
	if step < 0 || step >= p.MaxSteps {
		s.mu.Unlock()
		return ErrBadStep
	}
	s.playing = false
	s.cancelLocked()
	s.step = step
	s.subStep = 0
	s.mu.Unlock()
	s.Render()
	return nil
}

// StepBy moves the transport by a step delta, clamped to the playable
// range. Like Seek it pauses and settles.
func (s *Surface) StepBy(delta int) error {
	s.mu.Lock()
	p := s.cfg.Playback
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if p == nil {
		s.mu.Unlock()
		return ErrNoPlayback
	}
	step := s.step + delta
	if step < 0 {
		step = 0
	}
	if step > p.MaxSteps-1 {
		step = p.MaxSteps - 1
	}
	s.mu.Unlock()
	return s.Seek(step)
}

// progressLocked derives the interpolation progress from the substep
// counter: 1.0 at rest, i/(interpolationSteps+1) mid-transition.
func (s *Surface) progressLocked() float64 {
	if s.subStep == 0 {
		return 1.0
	}
	return float64(s.subStep) / float64(s.ticksPerStepLocked())
}

func (s *Surface) ticksPerStepLocked() int {
	p := s.cfg.Playback
	if p == nil {
		return 1
	}
	return p.InterpolationSteps + 1
}

// scheduleLocked arms the next tick under a fresh generation. Every
// cancellation bumps the generation, so a fire that lost the race
// against Pause, Seek or Close identifies itself as stale and returns
// without touching state.
func (s *Surface) scheduleLocked() {
	p := s.cfg.Playback
	if p == nil {
		return
	}
	s.cancelLocked()
	s.gen++
	gen := s.gen
	interval := p.StepDuration / time.Duration(s.ticksPerStepLocked())
	if interval <= 0 {
		interval = time.Millisecond
	}
	s.cancel = s.clock.AfterFunc(interval, func() { s.tick(gen) })
}

func (s *Surface) cancelLocked() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// tick advances the transport by one interpolation frame.
func (s *Surface) tick(gen uint64) {
	s.mu.Lock()
	if s.closed || !s.playing || gen != s.gen {
		s.mu.Unlock()
		return
	}
	p := s.cfg.Playback
	ticks := s.ticksPerStepLocked()

	if s.subStep == 0 {
		// Settled: begin the transition into the next step.
		s.step++
		s.subStep = 1
	} else {
		s.subStep++
	}
	if s.subStep >= ticks {
		s.subStep = 0
	}

	atEnd := s.subStep == 0 && s.step >= p.MaxSteps-1
	if atEnd {
		s.playing = false
		s.cancelLocked()
	} else {
		s.scheduleLocked()
	}
	s.mu.Unlock()
	s.Render()
}
