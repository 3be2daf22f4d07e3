package nav

import (
	"testing"

	"github.com/leomol/gait-marker/internal/store"
)

func ptr[T any](v T) *T { return &v }

func eventFixture() *store.Store {
	s := store.New()
	s.InsertEvent(4, "foot strike", ptr(0.9))
	s.InsertEvent(64, "toe off", ptr(0.4))
	s.InsertEvent(136, "foot strike", nil)
	return s
}

func TestNextEventUnfiltered(t *testing.T) {
	s := eventFixture()

	cases := []struct {
		current int
		dir     Direction
		want    int
		ok      bool
	}{
		{0, Forward, 4, true},
		{4, Forward, 64, true},
		{63, Forward, 64, true},
		{64, Forward, 136, true},
		{136, Forward, 0, false}, // no wraparound
		{200, Backward, 136, true},
		{136, Backward, 64, true},
		{64, Backward, 4, true},
		{4, Backward, 0, false},
	}
	for _, c := range cases {
		got, ok := NextEvent(s, c.current, c.dir, nil)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("NextEvent(%d, dir=%d): expected (%d,%v), got (%d,%v)", c.current, c.dir, c.want, c.ok, got, ok)
		}
	}
}

func TestNextEventLabelFilter(t *testing.T) {
	s := eventFixture()
	f := &Filter{Label: ptr("foot strike")}

	got, ok := NextEvent(s, 4, Forward, f)
	if !ok || got != 136 {
		t.Errorf("Expected 136, got (%d,%v)", got, ok)
	}
	got, ok = NextEvent(s, 136, Backward, f)
	if !ok || got != 4 {
		t.Errorf("Expected 4, got (%d,%v)", got, ok)
	}
	if _, ok := NextEvent(s, 136, Forward, f); ok {
		t.Error("Expected no match forward of 136")
	}
}

func TestNextEventConfidenceFilter(t *testing.T) {
	s := eventFixture()
	f := &Filter{MinConfidence: ptr(0.5)}

	// Only the frame-4 event reaches 0.5; frame 136 has no confidence
	// at all and must not match.
	if _, ok := NextEvent(s, 4, Forward, f); ok {
		t.Error("Expected no confident event after frame 4")
	}
	got, ok := NextEvent(s, 200, Backward, f)
	if !ok || got != 4 {
		t.Errorf("Expected 4, got (%d,%v)", got, ok)
	}

	// Combined label + confidence predicate.
	both := &Filter{Label: ptr("toe off"), MinConfidence: ptr(0.3)}
	got, ok = NextEvent(s, 0, Forward, both)
	if !ok || got != 64 {
		t.Errorf("Expected 64, got (%d,%v)", got, ok)
	}
}

func TestNextPoint(t *testing.T) {
	s := store.New()
	s.InsertOrMovePoint(4, 0, 1, 1, nil)
	s.InsertOrMovePoint(4, 1, 2, 2, nil)
	s.InsertOrMovePoint(136, 1, 3, 3, nil)

	got, ok := NextPoint(s, 4, Forward, nil)
	if !ok || got != 136 {
		t.Errorf("Expected 136, got (%d,%v)", got, ok)
	}

	label0 := 0
	if _, ok := NextPoint(s, 4, Forward, &label0); ok {
		t.Error("Expected no label-0 point after frame 4")
	}
	got, ok = NextPoint(s, 200, Backward, &label0)
	if !ok || got != 4 {
		t.Errorf("Expected 4, got (%d,%v)", got, ok)
	}

	label1 := 1
	got, ok = NextPoint(s, 136, Backward, &label1)
	if !ok || got != 4 {
		t.Errorf("Expected 4, got (%d,%v)", got, ok)
	}
}

func TestStepFrame(t *testing.T) {
	if got := StepFrame(10, -20, 100); got != 0 {
		t.Errorf("Expected clamp to 0, got %d", got)
	}
	if got := StepFrame(95, 10, 100); got != 99 {
		t.Errorf("Expected clamp to 99, got %d", got)
	}
	if got := StepFrame(50, 3, 100); got != 53 {
		t.Errorf("Expected 53, got %d", got)
	}
}
