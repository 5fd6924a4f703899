package arena

import "time"

// gameTimer is a one-shot timer whose callback runs under the manager's
// lock, giving it the same serialization as message handlers. A nil
// gameTimer is safe to cancel, and cancel is idempotent; a fire that
// raced a cancel must be detected by the callback itself, by checking
// that the game still points at this timer.
type gameTimer struct {
	t *time.Timer
}

// schedule arms a timer. Callers hold m.mu, so the callback cannot run
// before the caller has finished wiring the timer into the game record.
func (m *Manager) schedule(d time.Duration, fn func()) *gameTimer {
	gt := &gameTimer{}
	gt.t = time.AfterFunc(d, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		fn()
	})
	return gt
}

func (gt *gameTimer) cancel() {
	if gt == nil || gt.t == nil {
		return
	}
	gt.t.Stop()
}
