// Package param implements sample-accurate scalar automation: a default
// value plus an ordered list of scheduled events (§4.2 of the audio graph
// design). Node engines hold one Param per automatable input (frequency,
// gain, detune, …) and call Update/Value once per tick or once per block.
//
// The active-event advance and exponential decay evaluation in SetTarget
// mirror the attack/release envelope-following pattern in a single-pole
// exponential smoother (the teacher's internal/agc package), generalized
// from a fixed-coefficient smoother to an arbitrary scheduled time
// constant.
package param

import "sort"

// Param holds a default value and an ordered, mutually-exclusive schedule
// of automation events. The zero value is not usable; use New.
type Param struct {
	value    float32 // current interpolated value, cached across calls
	events   []Event // ordered by end-time
	active   int     // index of the event governing the current tick, or -1
	segStart float32 // value at the start of the active event's segment
	segTime  float64 // start-time of the active event's segment
}

// New returns a Param with the given default value and no scheduled events.
func New(defaultValue float32) *Param {
	return &Param{value: defaultValue, active: -1, segStart: defaultValue}
}

// Value returns the most recently computed interpolated value. Callers must
// call Update first to advance to the current tick.
func (p *Param) Value() float32 { return p.value }

// SetValueImmediate overwrites the cached value without touching the
// schedule; used by nodes whose param has no events (e.g. a constant gain
// set at construction time).
func (p *Param) SetValueImmediate(v float32) { p.value = v }

// InsertEvent adds ev to the schedule, ordered by end-time. An event that
// shares an end-time with an existing one replaces it (§4.2: "inserting at
// a conflicting timestamp replaces the earlier event of identical
// end-time").
func (p *Param) InsertEvent(ev Event) {
	et := ev.endTime()
	idx := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].endTime() >= et
	})
	if idx < len(p.events) && p.events[idx].endTime() == et {
		p.events[idx] = ev
		return
	}
	p.events = append(p.events, Event{})
	copy(p.events[idx+1:], p.events[idx:])
	p.events[idx] = ev
	if p.active >= idx {
		p.active++
	}
}

// CancelScheduledValues removes all events whose start-time is >= t
// (§4.2's cancel_scheduled_values). A ramp starts where the event before
// it ends (time 0 for the first event).
func (p *Param) CancelScheduledValues(t float64) {
	cut := len(p.events)
	prevEnd := 0.0
	for i, ev := range p.events {
		start := ev.Time
		if ev.Kind == LinearRamp || ev.Kind == ExponentialRamp {
			start = prevEnd
		}
		if start >= t {
			cut = i
			break
		}
		prevEnd = ev.endTime()
	}
	p.events = p.events[:cut]
	if p.active >= cut {
		p.active = cut - 1
	}
}

// Update advances the param to the absolute global frame (info.Frame+tick)
// and recomputes Value if needed. It returns true when the caller must
// re-read Value() because either the active event boundary was crossed or
// the active event's value can vary within the block (ramps, targets,
// curves).
func (p *Param) Update(sampleRate float32, frame uint64) bool {
	tNow := float64(frame) / float64(sampleRate)

	advanced := false
	for p.active+1 < len(p.events) {
		// An unset active event (-1) has no governing span of its own and
		// is always eligible to hand off to events[0], which then governs
		// from the beginning (valueAt returns the pre-start baseline for
		// any tNow before its own Time/endTime).
		if p.active >= 0 && tNow < p.events[p.active].endTime() {
			break
		}
		if p.active >= 0 {
			leaving := p.events[p.active]
			end := leaving.endTime()
			p.segStart = leaving.valueAt(end, p.segStart, p.segTime)
			p.segTime = end
		}
		p.active++
		advanced = true
	}

	if p.active < 0 {
		return advanced
	}

	ev := p.events[p.active]
	p.value = ev.valueAt(tNow, p.segStart, p.segTime)
	return advanced || ev.varyingWithinBlock()
}

// Events returns a read-only snapshot of the scheduled events, ordered by
// end-time. Intended for tests and introspection.
func (p *Param) Events() []Event {
	return append([]Event(nil), p.events...)
}
