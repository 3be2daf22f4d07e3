// Package seek maps requested frames onto decodable positions.
// Compressed video only decodes forward from a keyframe, so random
// access means: find the nearest preceding keyframe, then decode
// forward a bounded number of steps.
package seek

import (
	"errors"
	"sort"
)

// ErrNoKeyframe means the index is empty (malformed or unsupported
// video). The caller falls back to decoding from frame 0.
var ErrNoKeyframe = errors.New("no keyframes in index")

// Index is the sorted set of independently decodable frames of one
// video. It is built once when the video is opened and is immutable; if
// the underlying file changes the index must be rebuilt, not patched.
type Index struct {
	frames []int
}

// NewIndex builds an index from the keyframe numbers reported by the
// decoder. Input may be unsorted and contain duplicates; negative
// frames are discarded.
func NewIndex(frames []int) *Index {
	clean := make([]int, 0, len(frames))
	for _, f := range frames {
		if f >= 0 {
			clean = append(clean, f)
		}
	}
	sort.Ints(clean)
	dedup := clean[:0]
	for _, f := range clean {
		if len(dedup) == 0 || f != dedup[len(dedup)-1] {
			dedup = append(dedup, f)
		}
	}
	return &Index{frames: dedup}
}

// Resolve returns the largest keyframe <= target and the number of
// forward decode steps from it to reach target. A target before the
// first keyframe clamps to that keyframe with zero steps; clamped is
// then true so the caller can surface the discrepancy as informational.
func (x *Index) Resolve(target int) (keyframe, steps int, clamped bool, err error) {
	if len(x.frames) == 0 {
		return 0, 0, false, ErrNoKeyframe
	}
	if target < x.frames[0] {
		return x.frames[0], 0, true, nil
	}
	// Position of the last keyframe <= target.
	pos := sort.Search(len(x.frames), func(i int) bool {
		return x.frames[i] > target
	}) - 1
	kf := x.frames[pos]
	return kf, target - kf, false, nil
}

// First returns the earliest keyframe, if any.
func (x *Index) First() (int, bool) {
	if len(x.frames) == 0 {
		return 0, false
	}
	return x.frames[0], true
}

func (x *Index) Len() int {
	return len(x.frames)
}

// Frames returns a copy of the keyframe numbers in ascending order,
// as persisted in the project file.
func (x *Index) Frames() []int {
	out := make([]int, len(x.frames))
	copy(out, x.frames)
	return out
}
