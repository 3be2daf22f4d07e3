package project

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/leomol/gait-marker/internal/labels"
	"github.com/leomol/gait-marker/internal/seek"
	"github.com/leomol/gait-marker/internal/store"
)

// ErrMalformedFile is a hard load failure: missing required fields,
// type mismatches or inconsistent parallel-array lengths. The document
// in use before the load is never touched.
var ErrMalformedFile = errors.New("malformed project file")

// On-disk schema. Annotations are stored as parallel arrays; they are
// expanded into structured records in memory and re-flattened only at
// this boundary.
type fileDoc struct {
	Labels  *[]string    `json:"labels"`
	Entries *[]fileEntry `json:"entries"`
}

type fileEntry struct {
	Path      string      `json:"path"`
	FrameID   *int        `json:"frameId"`
	Points    *filePoints `json:"points,omitempty"`
	Events    *fileEvents `json:"events,omitempty"`
	Notes     *fileEvents `json:"notes,omitempty"` // legacy name for events
	Keyframes []int       `json:"keyframes,omitempty"`
}

type filePoints struct {
	Frames []int     `json:"frames"`
	Labels []int     `json:"labels"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	P      []float64 `json:"p,omitempty"`
}

type fileEvents struct {
	Frames []int     `json:"frames"`
	Labels []string  `json:"labels"`
	P      []float64 `json:"p,omitempty"`
}

var gzipMagic = []byte{0x1f, 0x8b}

// Load parses an annotation file into a fresh document. Video paths
// resolve relative to root; entries whose file is missing are marked
// unavailable but keep their data. Compression is detected by content,
// not extension, and is preserved by Save.
func Load(path, root string, orphans OrphanPolicy) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	compressed := bytes.HasPrefix(raw, gzipMagic)
	if compressed {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
	}

	var fd fileDoc
	if err := json.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if fd.Labels == nil {
		return nil, fmt.Errorf("%w: missing labels", ErrMalformedFile)
	}
	if fd.Entries == nil {
		return nil, fmt.Errorf("%w: missing entries", ErrMalformedFile)
	}

	if orphans == "" {
		orphans = OrphanKeep
	}
	doc := &Document{
		Labels:     labels.NewTable(*fd.Labels),
		Root:       root,
		orphans:    orphans,
		compressed: compressed,
	}

	for i, fe := range *fd.Entries {
		entry, err := decodeEntry(fe, i, doc)
		if err != nil {
			return nil, err
		}
		doc.Entries = append(doc.Entries, entry)
	}
	return doc, nil
}

func decodeEntry(fe fileEntry, i int, doc *Document) (*VideoEntry, error) {
	if fe.Path == "" {
		return nil, fmt.Errorf("%w: entry %d: missing path", ErrMalformedFile, i)
	}

	entry := &VideoEntry{
		Path:  fe.Path,
		Store: store.New(),
	}
	if fe.FrameID == nil {
		return nil, fmt.Errorf("%w: entry %d: missing frameId", ErrMalformedFile, i)
	}
	if *fe.FrameID < 0 {
		return nil, fmt.Errorf("%w: entry %d: negative frameId", ErrMalformedFile, i)
	}
	entry.FrameID = *fe.FrameID

	if fe.Points != nil {
		pts := fe.Points
		n := len(pts.Frames)
		if len(pts.Labels) != n || len(pts.X) != n || len(pts.Y) != n {
			return nil, fmt.Errorf("%w: entry %d: points arrays disagree in length", ErrMalformedFile, i)
		}
		if pts.P != nil && len(pts.P) != n {
			return nil, fmt.Errorf("%w: entry %d: points p array disagrees in length", ErrMalformedFile, i)
		}
		for k := 0; k < n; k++ {
			if pts.Frames[k] < 0 {
				return nil, fmt.Errorf("%w: entry %d: negative point frame", ErrMalformedFile, i)
			}
			if doc.orphans == OrphanWarn && !doc.Labels.IsLive(pts.Labels[k]) {
				log.Printf("[!] %s frame %d: orphaned label index %d", fe.Path, pts.Frames[k], pts.Labels[k])
			}
			var conf *float64
			if pts.P != nil {
				conf = &pts.P[k]
			}
			entry.Store.InsertOrMovePoint(pts.Frames[k], pts.Labels[k], pts.X[k], pts.Y[k], conf)
		}
	}

	events := fe.Events
	if events == nil {
		events = fe.Notes
	}
	if events != nil {
		n := len(events.Frames)
		if len(events.Labels) != n {
			return nil, fmt.Errorf("%w: entry %d: events arrays disagree in length", ErrMalformedFile, i)
		}
		if events.P != nil && len(events.P) != n {
			return nil, fmt.Errorf("%w: entry %d: events p array disagrees in length", ErrMalformedFile, i)
		}
		for k := 0; k < n; k++ {
			if events.Frames[k] < 0 {
				return nil, fmt.Errorf("%w: entry %d: negative event frame", ErrMalformedFile, i)
			}
			var conf *float64
			if events.P != nil {
				conf = &events.P[k]
			}
			// A duplicate frame keeps its first event; the invariant is
			// one event per frame.
			if err := entry.Store.InsertEvent(events.Frames[k], events.Labels[k], conf); err != nil &&
				!errors.Is(err, store.ErrSlotOccupied) {
				return nil, err
			}
		}
	}

	if len(fe.Keyframes) > 0 {
		entry.Keyframes = seek.NewIndex(fe.Keyframes)
	}

	if _, err := os.Stat(doc.ResolvePath(entry)); err == nil {
		entry.Available = true
	} else {
		log.Printf("[!] Video missing, entry kept but unavailable: %s", fe.Path)
	}
	return entry, nil
}

// Save serializes the document to path. A document loaded from a
// compressed container is written back compressed. Orphaned label
// references are written with their raw index; nothing is dropped or
// repaired on the way out. The dirty flag clears on success.
func (d *Document) Save(path string) error {
	liveNames := d.Labels.Names()
	fd := fileDoc{Labels: &liveNames, Entries: &[]fileEntry{}}

	for _, e := range d.Entries {
		fe := fileEntry{Path: e.Path}
		frameID := e.FrameID
		fe.FrameID = &frameID

		if pts := e.Store.Points(); len(pts) > 0 {
			fp := &filePoints{}
			withConf := false
			for _, p := range pts {
				fp.Frames = append(fp.Frames, p.Frame)
				fp.Labels = append(fp.Labels, p.Label)
				fp.X = append(fp.X, p.X)
				fp.Y = append(fp.Y, p.Y)
				if p.Confidence != nil {
					withConf = true
				}
			}
			if withConf {
				for _, p := range pts {
					fp.P = append(fp.P, confOrDefault(p.Confidence))
				}
			}
			fe.Points = fp
		}

		if evs := e.Store.Events(); len(evs) > 0 {
			fev := &fileEvents{}
			withConf := false
			for _, ev := range evs {
				fev.Frames = append(fev.Frames, ev.Frame)
				fev.Labels = append(fev.Labels, ev.Label)
				if ev.Confidence != nil {
					withConf = true
				}
			}
			if withConf {
				for _, ev := range evs {
					fev.P = append(fev.P, confOrDefault(ev.Confidence))
				}
			}
			fe.Events = fev
		}

		if e.Keyframes != nil {
			fe.Keyframes = e.Keyframes.Frames()
		}
		*fd.Entries = append(*fd.Entries, fe)
	}

	var raw []byte
	var err error
	if d.compressed {
		raw, err = json.Marshal(fd)
	} else {
		raw, err = json.MarshalIndent(fd, "", "  ")
	}
	if err != nil {
		return err
	}

	if d.compressed {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		raw = buf.Bytes()
	}

	if err := os.WriteFile(path, raw, 0644); err != nil {
		return err
	}
	d.dirty = false
	return nil
}

// confOrDefault fills the optional p array: records without an explicit
// confidence serialize as 1, the historical default.
func confOrDefault(c *float64) float64 {
	if c == nil {
		return 1
	}
	return *c
}
