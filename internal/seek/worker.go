package seek

import (
	"context"
	"errors"
	"image"
	"sync"

	"github.com/shirou/gopsutil/v3/mem"
)

// ErrSuperseded marks a seek whose result arrived after a newer request
// was issued. It is a discard signal, not a failure: the newer seek
// carries the state the caller should apply.
var ErrSuperseded = errors.New("seek superseded by a newer request")

// Decoder is the video collaborator consumed by the seek worker. It
// decodes forward from a keyframe; the core never touches pixels
// beyond handing the resulting image to the display layer.
type Decoder interface {
	DecodeForward(ctx context.Context, fromKeyframe, steps int) (image.Image, error)
}

// Result is a completed seek. Only the Result carrying the highest ID
// ever reaches the caller; stale ones are discarded as ErrSuperseded.
type Result struct {
	ID      uint64
	Frame   int
	Clamped bool
	Image   image.Image
}

// Seeker serializes seeks for one video. At most one decode is in
// flight: a new request cancels the pending one instead of queuing
// behind it, so holding an arrow key never builds a backlog of slow
// decodes. Decoded frames are cached up to a memory-derived budget to
// keep single-frame stepping instant.
type Seeker struct {
	index   *Index
	decoder Decoder
	budget  int

	mu     sync.Mutex
	lastID uint64
	cancel context.CancelFunc
	cache  map[int]image.Image
	order  []int
}

// NewSeeker creates a worker over one video's keyframe index.
// frameBytes is the decoded size of one frame (width*height*4) and
// bounds the frame cache.
func NewSeeker(index *Index, decoder Decoder, frameBytes int) *Seeker {
	return &Seeker{
		index:   index,
		decoder: decoder,
		budget:  PrefetchBudget(frameBytes),
		cache:   make(map[int]image.Image),
	}
}

// Seek resolves and decodes target. It blocks until the frame is
// decoded, the context is done, or a newer Seek supersedes this one.
// Callers run it off the interactive goroutine and apply the Result
// only on a nil error.
func (s *Seeker) Seek(ctx context.Context, target int) (Result, error) {
	s.mu.Lock()
	s.lastID++
	id := s.lastID
	if s.cancel != nil {
		s.cancel()
	}
	cctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	keyframe, steps, clamped := 0, target, false
	if kf, st, cl, err := s.index.Resolve(target); err == nil {
		keyframe, steps, clamped = kf, st, cl
	} else if steps < 0 {
		// With an empty index frame 0 is the only anchor we can assume;
		// a target before it clamps there like any pre-keyframe target.
		steps, clamped = 0, true
	}
	frame := keyframe + steps

	if img, ok := s.cache[frame]; ok {
		s.mu.Unlock()
		cancel()
		return Result{ID: id, Frame: frame, Clamped: clamped, Image: img}, nil
	}
	s.mu.Unlock()

	img, err := s.decoder.DecodeForward(cctx, keyframe, steps)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.lastID {
		return Result{}, ErrSuperseded
	}
	if err != nil {
		return Result{}, err
	}
	s.remember(frame, img)
	return Result{ID: id, Frame: frame, Clamped: clamped, Image: img}, nil
}

// Cancel aborts the pending seek, if any. The annotation store is never
// touched by a seek, so cancellation needs no rollback.
func (s *Seeker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastID++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Seeker) remember(frame int, img image.Image) {
	if _, ok := s.cache[frame]; ok {
		return
	}
	for len(s.order) >= s.budget {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.cache, oldest)
	}
	s.cache[frame] = img
	s.order = append(s.order, frame)
}

// PrefetchBudget returns how many decoded frames of the given size the
// cache may hold, derived from currently available memory. A quarter of
// free memory at most, clamped to [1, 256] frames.
func PrefetchBudget(frameBytes int) int {
	const fallback = 16
	if frameBytes <= 0 {
		return fallback
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return fallback
	}
	budget := int(vm.Available / 4 / uint64(frameBytes))
	if budget < 1 {
		return 1
	}
	if budget > 256 {
		return 256
	}
	return budget
}
