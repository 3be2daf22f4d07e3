// Package project owns the annotation document: the label table, one
// annotation store per video entry, and the dirty/save-state tracking.
// Every mutation funnels through the document so unsaved changes are
// never lost silently. A single goroutine owns a document; nothing here
// is safe for concurrent mutation.
package project

import (
	"context"
	"errors"
	"log"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/leomol/gait-marker/internal/labels"
	"github.com/leomol/gait-marker/internal/seek"
	"github.com/leomol/gait-marker/internal/store"
	"github.com/leomol/gait-marker/internal/video"
)

var ErrNoEntry = errors.New("no such video entry")

// OrphanPolicy decides what load does with point records whose label
// index no longer resolves. Neither policy rewrites the data: orphans
// round-trip raw through save and load.
type OrphanPolicy string

const (
	OrphanKeep OrphanPolicy = "keep"
	OrphanWarn OrphanPolicy = "warn"
)

// VideoEntry is one annotated video: a path relative to the project
// root, the last-reviewed frame bookmark, the annotations, and the seek
// index. A missing file on disk degrades the entry to unavailable
// without touching its stored data.
type VideoEntry struct {
	Path      string
	FrameID   int
	Store     *store.Store
	Keyframes *seek.Index
	Available bool
}

// Document aggregates everything one annotation project holds in
// memory. Exactly one document is open at a time; the session
// controller owns it explicitly rather than through a global.
type Document struct {
	Labels  *labels.Table
	Entries []*VideoEntry
	Root    string

	orphans    OrphanPolicy
	dirty      bool
	compressed bool
}

// New creates an empty document for a fresh annotation file.
func New(root string, compress bool) *Document {
	return &Document{
		Labels:     labels.NewTable(nil),
		Root:       root,
		orphans:    OrphanKeep,
		compressed: compress,
	}
}

func (d *Document) MarkDirty()       { d.dirty = true }
func (d *Document) IsDirty() bool    { return d.dirty }
func (d *Document) Compressed() bool { return d.compressed }

// Entry returns the video entry at index.
func (d *Document) Entry(i int) (*VideoEntry, error) {
	if i < 0 || i >= len(d.Entries) {
		return nil, ErrNoEntry
	}
	return d.Entries[i], nil
}

// ResolvePath returns the absolute location of an entry's video file.
func (d *Document) ResolvePath(e *VideoEntry) string {
	if filepath.IsAbs(e.Path) {
		return e.Path
	}
	return filepath.Join(d.Root, filepath.FromSlash(e.Path))
}

// MergeVideos unions discovered video paths into the document, keeping
// every existing entry and its data. Paths are project-relative with
// forward slashes. Returns the number of entries added.
func (d *Document) MergeVideos(paths []string) int {
	known := make(map[string]bool, len(d.Entries))
	for _, e := range d.Entries {
		known[filepath.ToSlash(e.Path)] = true
	}

	added := 0
	for _, p := range paths {
		p = filepath.ToSlash(p)
		if known[p] {
			continue
		}
		known[p] = true
		d.Entries = append(d.Entries, &VideoEntry{
			Path:      p,
			Store:     store.New(),
			Available: true,
		})
		added++
	}
	if added > 0 {
		d.dirty = true
	}
	return added
}

// BuildIndexes fills the keyframe index of every available entry that
// does not have one yet, probing videos concurrently up to the worker
// limit. An entry whose video cannot be probed degrades to unavailable;
// the load as a whole never fails here.
func (d *Document) BuildIndexes(ctx context.Context, lister video.Lister, workers int) {
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, e := range d.Entries {
		if !e.Available || e.Keyframes != nil {
			continue
		}
		e := e
		g.Go(func() error {
			frames, err := lister.ListKeyframes(gctx, d.ResolvePath(e))
			if err != nil {
				log.Printf("[!] Could not index %s: %v", e.Path, err)
				e.Available = false
				return nil
			}
			e.Keyframes = seek.NewIndex(frames)
			return nil
		})
	}
	g.Wait()
}

// SetBookmark records the last-reviewed frame of an entry.
func (d *Document) SetBookmark(entry, frame int) error {
	e, err := d.Entry(entry)
	if err != nil {
		return err
	}
	if frame < 0 {
		frame = 0
	}
	if e.FrameID != frame {
		e.FrameID = frame
		d.dirty = true
	}
	return nil
}

// Mutation funnels. Each delegates to the store or label table and
// flips the dirty flag only when the operation reports a change.

func (d *Document) InsertEvent(entry, frame int, label string, confidence *float64) error {
	e, err := d.Entry(entry)
	if err != nil {
		return err
	}
	if err := e.Store.InsertEvent(frame, label, confidence); err != nil {
		return err
	}
	d.dirty = true
	return nil
}

func (d *Document) RemoveEvent(entry, frame int) (bool, error) {
	e, err := d.Entry(entry)
	if err != nil {
		return false, err
	}
	removed := e.Store.RemoveEvent(frame)
	if removed {
		d.dirty = true
	}
	return removed, nil
}

func (d *Document) MoveEvent(entry, frame, newFrame int) error {
	e, err := d.Entry(entry)
	if err != nil {
		return err
	}
	if err := e.Store.MoveEvent(frame, newFrame); err != nil {
		return err
	}
	if frame != newFrame {
		d.dirty = true
	}
	return nil
}

func (d *Document) RenameEvent(entry, frame int, newLabel string) error {
	e, err := d.Entry(entry)
	if err != nil {
		return err
	}
	if err := e.Store.RenameEvent(frame, newLabel); err != nil {
		return err
	}
	d.dirty = true
	return nil
}

func (d *Document) InsertOrMovePoint(entry, frame, label int, x, y float64, confidence *float64) error {
	e, err := d.Entry(entry)
	if err != nil {
		return err
	}
	if e.Store.InsertOrMovePoint(frame, label, x, y, confidence) {
		d.dirty = true
	}
	return nil
}

func (d *Document) RemovePoint(entry, frame, label int) (bool, error) {
	e, err := d.Entry(entry)
	if err != nil {
		return false, err
	}
	removed := e.Store.RemovePoint(frame, label)
	if removed {
		d.dirty = true
	}
	return removed, nil
}

func (d *Document) AppendLabel(name string) (int, error) {
	index, err := d.Labels.Append(name)
	if err != nil {
		return 0, err
	}
	d.dirty = true
	return index, nil
}

func (d *Document) RenameLabel(index int, newName string) error {
	if err := d.Labels.Rename(index, newName); err != nil {
		return err
	}
	d.dirty = true
	return nil
}

// RemoveLabel tombstones a label. Points referencing it become orphaned
// and are deliberately left alone.
func (d *Document) RemoveLabel(index int) error {
	if err := d.Labels.Remove(index); err != nil {
		return err
	}
	d.dirty = true
	return nil
}
