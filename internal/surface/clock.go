package surface

import "time"

// Clock abstracts playback timers. AfterFunc schedules fn once after d
// on its own goroutine and must not invoke fn synchronously; the
// returned cancel stops a fire that has not started yet.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
