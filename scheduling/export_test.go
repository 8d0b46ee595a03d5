package scheduling

import "time"

// SetNow pins the engine clock.
func (e *Engine) SetNow(now func() time.Time) {
	e.now = now
}
