// Package sessionwatch enforces inactivity auto-logout. A Monitor owns a
// warning timer and a logout timer for one session; the websocket handler
// runs one Monitor per connected client and relays its events.
package sessionwatch

import (
	"sync"
	"time"
)

// Config sets the total inactivity window and how long before its end the
// warning fires.
type Config struct {
	Timeout time.Duration
	Warning time.Duration
}

// Hooks receive the monitor's two events. They are called from timer
// goroutines, never while the monitor's lock is held, so a hook may call
// back into the monitor.
type Hooks struct {
	OnWarning func()
	OnLogout  func()
}

// Monitor tracks one session's inactivity. Both timer handles live in the
// struct; rescheduling always cancels the old handles first, so a reset can
// never leave a duplicate timer running.
type Monitor struct {
	mu      sync.Mutex
	cfg     Config
	hooks   Hooks
	warn    *time.Timer
	logout  *time.Timer
	warned  bool
	stopped bool
}

// Start begins monitoring and schedules both timers. The warning timer is
// only scheduled when the warning offset fits inside the timeout.
func Start(cfg Config, hooks Hooks) *Monitor {
	m := &Monitor{cfg: cfg, hooks: hooks}
	m.mu.Lock()
	m.scheduleLocked()
	m.mu.Unlock()
	return m
}

// Activity resets the inactivity window. Every event is a full reset: both
// timers restart from zero and the warning becomes eligible to fire again.
func (m *Monitor) Activity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.cancelLocked()
	m.scheduleLocked()
}

// Stop cancels both timers. It is safe to call more than once; after the
// first call no hook fires.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	m.cancelLocked()
}

func (m *Monitor) scheduleLocked() {
	m.warned = false
	if m.cfg.Warning > 0 && m.cfg.Warning < m.cfg.Timeout {
		m.warn = time.AfterFunc(m.cfg.Timeout-m.cfg.Warning, m.fireWarning)
	}
	m.logout = time.AfterFunc(m.cfg.Timeout, m.fireLogout)
}

func (m *Monitor) cancelLocked() {
	if m.warn != nil {
		m.warn.Stop()
		m.warn = nil
	}
	if m.logout != nil {
		m.logout.Stop()
		m.logout = nil
	}
}

func (m *Monitor) fireWarning() {
	m.mu.Lock()
	if m.stopped || m.warned {
		m.mu.Unlock()
		return
	}
	m.warned = true
	hook := m.hooks.OnWarning
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (m *Monitor) fireLogout() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	// Logout ends the monitor; nothing may fire after it.
	m.stopped = true
	m.cancelLocked()
	hook := m.hooks.OnLogout
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
}
