// Package nav implements the filtered navigation queries behind the
// "jump to next/previous annotation" keystrokes. All functions are pure
// over a store snapshot: no hidden state, cheap enough to call on every
// key repeat.
package nav

import "github.com/leomol/gait-marker/internal/store"

type Direction int

const (
	Forward Direction = iota
	Backward
)

// Filter restricts navigation to events whose label matches and/or
// whose confidence reaches a threshold. A nil field matches everything;
// events without a confidence fail a MinConfidence filter.
type Filter struct {
	Label         *string
	MinConfidence *float64
}

func (f *Filter) match(ev store.TemporalEvent) bool {
	if f == nil {
		return true
	}
	if f.Label != nil && ev.Label != *f.Label {
		return false
	}
	if f.MinConfidence != nil {
		if ev.Confidence == nil || *ev.Confidence < *f.MinConfidence {
			return false
		}
	}
	return true
}

// NextEvent returns the frame of the nearest event strictly after
// (Forward) or before (Backward) current that satisfies filter. There
// is no wraparound: ok is false when no match exists in that direction.
func NextEvent(s *store.Store, current int, dir Direction, filter *Filter) (int, bool) {
	if dir == Forward {
		for pos := s.SearchEvents(current + 1); pos < s.EventCount(); pos++ {
			if ev := s.EventAtPos(pos); filter.match(ev) {
				return ev.Frame, true
			}
		}
		return 0, false
	}
	for pos := s.SearchEvents(current) - 1; pos >= 0; pos-- {
		if ev := s.EventAtPos(pos); filter.match(ev) {
			return ev.Frame, true
		}
	}
	return 0, false
}

// NextPoint returns the frame of the nearest point strictly after or
// before current. When label is given only points carrying that label
// index are considered. Consecutive points on one frame collapse to a
// single stop: the returned frame never equals current.
func NextPoint(s *store.Store, current int, dir Direction, label *int) (int, bool) {
	if dir == Forward {
		for pos := s.SearchPoints(current + 1); pos < s.PointCount(); pos++ {
			if pt := s.PointAtPos(pos); label == nil || pt.Label == *label {
				return pt.Frame, true
			}
		}
		return 0, false
	}
	for pos := s.SearchPoints(current) - 1; pos >= 0; pos-- {
		if pt := s.PointAtPos(pos); label == nil || pt.Label == *label {
			return pt.Frame, true
		}
	}
	return 0, false
}

// StepFrame advances current by delta frames, clamped to the valid
// range [0, frameCount-1]. Used for the plain arrow-key steps.
func StepFrame(current, delta, frameCount int) int {
	next := current + delta
	if next < 0 {
		next = 0
	}
	if frameCount > 0 && next > frameCount-1 {
		next = frameCount - 1
	}
	return next
}
