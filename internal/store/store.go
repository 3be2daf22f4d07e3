package store

import (
	"errors"
	"sort"
)

var (
	// ErrSlotOccupied reports single-event-per-frame contention. It is a
	// benign outcome: the store is left unchanged and the caller decides
	// whether to tell the user.
	ErrSlotOccupied = errors.New("frame already has an event")
	ErrNotFound     = errors.New("no annotation at frame")
)

// TemporalEvent is a single labeled occurrence tied to one frame of one
// video. At most one event exists per frame.
type TemporalEvent struct {
	Frame      int
	Label      string
	Confidence *float64
}

// SpatialPoint is a labeled pixel coordinate tied to one frame. Label is
// an index into the project label table; it may be stale (orphaned)
// after label removal and is never rewritten by the store.
type SpatialPoint struct {
	Frame      int
	Label      int
	X, Y       float64
	Confidence *float64
}

// Store holds the annotations of one video: temporal events keyed by
// frame and spatial points keyed by (frame, label index). Both
// collections are kept sorted so that lookup, nearest-neighbor search
// and in-order enumeration are binary searches, never full scans.
//
// The store is not safe for concurrent use; mutations and snapshot reads
// must be serialized by the owning document.
type Store struct {
	events []TemporalEvent // ascending by Frame
	points []SpatialPoint  // ascending by (Frame, Label)
}

func New() *Store {
	return &Store{}
}

// InsertEvent adds an event at frame. If the frame already holds an
// event the store is left untouched and ErrSlotOccupied is returned.
func (s *Store) InsertEvent(frame int, label string, confidence *float64) error {
	pos, found := s.findEvent(frame)
	if found {
		return ErrSlotOccupied
	}
	s.events = append(s.events, TemporalEvent{})
	copy(s.events[pos+1:], s.events[pos:])
	s.events[pos] = TemporalEvent{Frame: frame, Label: label, Confidence: confidence}
	return nil
}

// RemoveEvent removes the event at frame if present. The returned flag
// distinguishes "removed" from "nothing there"; absence is not an error.
func (s *Store) RemoveEvent(frame int) bool {
	pos, found := s.findEvent(frame)
	if !found {
		return false
	}
	s.events = append(s.events[:pos], s.events[pos+1:]...)
	return true
}

// MoveEvent relocates the event at frame to newFrame. The move is
// atomic: if newFrame is occupied the original stays where it was.
func (s *Store) MoveEvent(frame, newFrame int) error {
	pos, found := s.findEvent(frame)
	if !found {
		return ErrNotFound
	}
	if newFrame == frame {
		return nil
	}
	if _, occupied := s.findEvent(newFrame); occupied {
		return ErrSlotOccupied
	}
	ev := s.events[pos]
	ev.Frame = newFrame
	s.events = append(s.events[:pos], s.events[pos+1:]...)
	npos, _ := s.findEvent(newFrame)
	s.events = append(s.events, TemporalEvent{})
	copy(s.events[npos+1:], s.events[npos:])
	s.events[npos] = ev
	return nil
}

// RenameEvent changes the label of the event at frame.
func (s *Store) RenameEvent(frame int, newLabel string) error {
	pos, found := s.findEvent(frame)
	if !found {
		return ErrNotFound
	}
	s.events[pos].Label = newLabel
	return nil
}

// SetEventConfidence attaches a confidence to the event at frame.
func (s *Store) SetEventConfidence(frame int, confidence float64) error {
	pos, found := s.findEvent(frame)
	if !found {
		return ErrNotFound
	}
	s.events[pos].Confidence = &confidence
	return nil
}

// EventAt returns the event at frame, if any.
func (s *Store) EventAt(frame int) (TemporalEvent, bool) {
	pos, found := s.findEvent(frame)
	if !found {
		return TemporalEvent{}, false
	}
	return s.events[pos], true
}

// InsertOrMovePoint places the point for (frame, label). An existing
// point at that key is replaced in place; otherwise a new record is
// inserted. Coordinates are taken as-is, bounds checking is the
// caller's job. The returned flag reports whether the store changed;
// replacing a point with identical values is a no-op.
func (s *Store) InsertOrMovePoint(frame, label int, x, y float64, confidence *float64) bool {
	pt := SpatialPoint{Frame: frame, Label: label, X: x, Y: y, Confidence: confidence}
	pos, found := s.findPoint(frame, label)
	if found {
		if samePoint(s.points[pos], pt) {
			return false
		}
		s.points[pos] = pt
		return true
	}
	s.points = append(s.points, SpatialPoint{})
	copy(s.points[pos+1:], s.points[pos:])
	s.points[pos] = pt
	return true
}

func samePoint(a, b SpatialPoint) bool {
	if a.X != b.X || a.Y != b.Y {
		return false
	}
	if (a.Confidence == nil) != (b.Confidence == nil) {
		return false
	}
	return a.Confidence == nil || *a.Confidence == *b.Confidence
}

// RemovePoint removes the point at (frame, label) if present.
func (s *Store) RemovePoint(frame, label int) bool {
	pos, found := s.findPoint(frame, label)
	if !found {
		return false
	}
	s.points = append(s.points[:pos], s.points[pos+1:]...)
	return true
}

// PointAt returns the point at (frame, label), if any.
func (s *Store) PointAt(frame, label int) (SpatialPoint, bool) {
	pos, found := s.findPoint(frame, label)
	if !found {
		return SpatialPoint{}, false
	}
	return s.points[pos], true
}

// PointsAtFrame returns all points on one frame in label-index order.
// This is what the display collaborator draws over the current frame.
func (s *Store) PointsAtFrame(frame int) []SpatialPoint {
	lo := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Frame >= frame
	})
	hi := lo
	for hi < len(s.points) && s.points[hi].Frame == frame {
		hi++
	}
	out := make([]SpatialPoint, hi-lo)
	copy(out, s.points[lo:hi])
	return out
}

// Events returns a snapshot of all events in ascending frame order.
func (s *Store) Events() []TemporalEvent {
	out := make([]TemporalEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Points returns a snapshot of all points ordered by frame, then label.
func (s *Store) Points() []SpatialPoint {
	out := make([]SpatialPoint, len(s.points))
	copy(out, s.points)
	return out
}

func (s *Store) EventCount() int { return len(s.events) }
func (s *Store) PointCount() int { return len(s.points) }

// SearchEvents returns the position of the first event whose frame is
// >= frame. Positions index the same ordering EventAtPos exposes.
func (s *Store) SearchEvents(frame int) int {
	return sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Frame >= frame
	})
}

// EventAtPos returns the event at an ordered position.
func (s *Store) EventAtPos(pos int) TemporalEvent {
	return s.events[pos]
}

// SearchPoints returns the position of the first point whose frame is
// >= frame, regardless of label.
func (s *Store) SearchPoints(frame int) int {
	return sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Frame >= frame
	})
}

// PointAtPos returns the point at an ordered position.
func (s *Store) PointAtPos(pos int) SpatialPoint {
	return s.points[pos]
}

func (s *Store) findEvent(frame int) (int, bool) {
	pos := s.SearchEvents(frame)
	return pos, pos < len(s.events) && s.events[pos].Frame == frame
}

func (s *Store) findPoint(frame, label int) (int, bool) {
	pos := sort.Search(len(s.points), func(i int) bool {
		p := s.points[i]
		return p.Frame > frame || (p.Frame == frame && p.Label >= label)
	})
	return pos, pos < len(s.points) && s.points[pos].Frame == frame && s.points[pos].Label == label
}
