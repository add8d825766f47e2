package service

import "log"

// AutosaveListener saves the application state every savePeriodMs of
// simulated time. It subscribes to the application's tick signal and
// accumulates deltas; the subscription lives until Stop.
type AutosaveListener struct {
	app      *Application
	periodMs int64
	accMs    int64
	cancel   func()
}

// StartAutosave subscribes a new listener to the application's ticks.
func StartAutosave(app *Application, savePeriodMs int64) *AutosaveListener {
	l := &AutosaveListener{app: app, periodMs: savePeriodMs}
	l.cancel = app.OnTick(l.onTick)
	return l
}

func (l *AutosaveListener) onTick(deltaMs int64) {
	l.accMs += deltaMs
	if l.accMs < l.periodMs {
		return
	}
	if err := l.app.SaveState(); err != nil {
		log.Printf("Autosave failed: %v", err)
	}
	l.accMs = 0
}

// Stop cancels the subscription.
func (l *AutosaveListener) Stop() {
	l.cancel()
}
