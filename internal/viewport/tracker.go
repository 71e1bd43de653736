// Package viewport tracks the map viewport and decides when settled
// bounds are allowed to trigger a data fetch.
package viewport

import (
	"sync"
	"time"

	"github.com/richxcame/busymap/pkg/debounce"
	"github.com/richxcame/busymap/pkg/geo"
)

// Phase is the lifecycle of the current bounds flow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSettled
	PhaseFetching
	PhaseResolved
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSettled:
		return "settled"
	case PhaseFetching:
		return "fetching"
	case PhaseResolved:
		return "resolved"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Tracker debounces settled viewports and gates them on a minimum
// zoom. Consumers read debounced viewports from C and check Eligible
// before fetching; ineligible viewports get a zoom hint instead.
type Tracker struct {
	minZoom float64
	deb     *debounce.Debouncer[geo.Viewport]

	mu         sync.Mutex
	current    geo.Viewport
	hasCurrent bool
	settled    geo.Viewport
	hasSettled bool
	phase      Phase
}

// NewTracker creates a tracker with the given zoom threshold and
// debounce quiet period.
func NewTracker(minZoom float64, boundsDebounce time.Duration) *Tracker {
	return &Tracker{
		minZoom: minZoom,
		deb:     debounce.New[geo.Viewport](boundsDebounce),
		phase:   PhaseIdle,
	}
}

// Observe records a settled viewport (initial load, move end, zoom
// end) and arms the debouncer. Crossing the zoom threshold upward with
// settled bounds already on record flushes immediately so no extra pan
// is needed to bring data back.
func (t *Tracker) Observe(v geo.Viewport) {
	t.mu.Lock()
	prev := t.current
	hadCurrent := t.hasCurrent
	hadSettled := t.hasSettled
	t.current = v
	t.hasCurrent = true
	t.phase = PhasePending
	t.mu.Unlock()

	t.deb.Set(v)

	if hadCurrent && hadSettled && prev.Zoom < t.minZoom && v.Zoom >= t.minZoom {
		t.deb.Flush()
	}
}

// C delivers debounced viewports. The caller must pass each one to
// MarkSettled and then check Eligible.
func (t *Tracker) C() <-chan geo.Viewport {
	return t.deb.C()
}

// MarkSettled records that the debounced viewport was consumed.
func (t *Tracker) MarkSettled(v geo.Viewport) {
	t.mu.Lock()
	t.settled = v
	t.hasSettled = true
	t.phase = PhaseSettled
	t.mu.Unlock()
}

// Eligible reports whether the viewport's zoom clears the data threshold.
func (t *Tracker) Eligible(v geo.Viewport) bool {
	return v.Zoom >= t.minZoom
}

// Settled returns the last consumed debounced viewport, if any.
func (t *Tracker) Settled() (geo.Viewport, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settled, t.hasSettled
}

// Current returns the most recently observed viewport, if any.
func (t *Tracker) Current() (geo.Viewport, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.hasCurrent
}

// SetPhase transitions the flow state, owned by the fetch consumer.
func (t *Tracker) SetPhase(p Phase) {
	t.mu.Lock()
	t.phase = p
	t.mu.Unlock()
}

// Phase returns the current flow state.
func (t *Tracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Stop cancels any pending debounced emission.
func (t *Tracker) Stop() {
	t.deb.Stop()
}
