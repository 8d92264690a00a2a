package installer

import "sync"

// Status is the externally visible state of the orchestrator.
type Status int

const (
	StatusIdle Status = iota
	StatusProbing
	StatusInstalling
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusProbing:
		return "probing"
	case StatusInstalling:
		return "installing"
	default:
		return "unknown"
	}
}

// StatusListener observes status changes. A returned error is logged
// and discarded; it never affects the orchestration.
type StatusListener func(status Status) error

// statusController holds the current status and notifies listeners on
// every transition, best-effort. Registration is append-only. No
// transition validation: any status is reachable from any other, so a
// failed probe can always reset Probing back to Idle.
type statusController struct {
	mu        sync.Mutex
	current   Status
	listeners []StatusListener
}

func (c *statusController) status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *statusController) subscribe(listener StatusListener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, listener)
	c.mu.Unlock()
}

func (c *statusController) transition(to Status) {
	c.mu.Lock()
	c.current = to
	listeners := make([]StatusListener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, listener := range listeners {
		c.notify(listener, to)
	}
}

// notify fires one listener, swallowing errors and panics: a listener
// whose transport is not reachable yet must never abort an
// installation in progress.
func (c *statusController) notify(listener StatusListener, to Status) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("status listener panicked", "status", to.String(), "panic", r)
		}
	}()

	if err := listener(to); err != nil {
		log.Debug("status listener failed", "status", to.String(), "error", err)
	}
}
