// Package progress reports fine-grained installation progress.
//
// A Reporter fans events out to any number of callbacks (CLI presenter,
// websocket publisher). Phases bracket the major stages of an
// installation; a phase always emits a finished event, even when its
// body fails.
package progress

import (
	"sync"
)

// Event describes the current state of a running phase.
type Event struct {
	Phase       string  `json:"phase"`
	Step        string  `json:"step,omitempty"`
	CurrentStep int     `json:"currentStep"`
	TotalSteps  int     `json:"totalSteps"`
	Percent     float64 `json:"percent"` // 0-100
	Finished    bool    `json:"finished"`
	Message     string  `json:"message,omitempty"`
}

// Callback receives progress events as they happen.
type Callback func(event Event)

// Reporter forwards progress events to registered callbacks.
// Events are delivered synchronously on the caller's goroutine.
type Reporter struct {
	mu    sync.Mutex
	sinks []Callback
}

// NewReporter creates an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Subscribe registers a callback. Registration is append-only.
func (r *Reporter) Subscribe(cb Callback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, cb)
}

// WithPhase runs body inside a named phase. The phase-finished event is
// emitted even when body returns an error or panics.
func (r *Reporter) WithPhase(name string, totalSteps int, body func(p *Phase) error) error {
	phase := &Phase{reporter: r, name: name, total: totalSteps}

	r.emit(Event{Phase: name, TotalSteps: totalSteps})
	defer r.emit(Event{
		Phase:       name,
		CurrentStep: phase.current,
		TotalSteps:  totalSteps,
		Percent:     100,
		Finished:    true,
	})

	return body(phase)
}

func (r *Reporter) emit(event Event) {
	r.mu.Lock()
	sinks := make([]Callback, len(r.sinks))
	copy(sinks, r.sinks)
	r.mu.Unlock()

	for _, sink := range sinks {
		sink(event)
	}
}

// Phase is a handle passed to the body of WithPhase.
type Phase struct {
	reporter *Reporter
	name     string
	total    int
	current  int
}

// Step advances the phase to its next step and reports it.
func (p *Phase) Step(description string) {
	p.current++
	percent := float64(0)
	if p.total > 0 {
		percent = float64(p.current) / float64(p.total) * 100
	}
	p.reporter.emit(Event{
		Phase:       p.name,
		Step:        description,
		CurrentStep: p.current,
		TotalSteps:  p.total,
		Percent:     percent,
	})
}

// Forward relays a collaborator event through the phase, stamping the
// phase name so listeners see a consistent stream.
func (p *Phase) Forward(event Event) {
	event.Phase = p.name
	if event.CurrentStep == 0 {
		event.CurrentStep = p.current
	}
	if event.TotalSteps == 0 {
		event.TotalSteps = p.total
	}
	p.reporter.emit(event)
}
