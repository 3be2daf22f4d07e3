package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeLister struct {
	frames map[string][]int
}

func (l *fakeLister) ListKeyframes(ctx context.Context, path string) ([]int, error) {
	frames, ok := l.frames[filepath.Base(path)]
	if !ok {
		return nil, errors.New("probe failed")
	}
	return frames, nil
}

func TestBuildIndexes(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.mp4", "b.mp4"} {
		os.WriteFile(filepath.Join(root, name), []byte("x"), 0644)
	}

	doc := New(root, false)
	doc.MergeVideos([]string{"a.mp4", "b.mp4"})

	lister := &fakeLister{frames: map[string][]int{
		"a.mp4": {0, 30, 60},
		// b.mp4 fails to probe.
	}}
	doc.BuildIndexes(context.Background(), lister, 2)

	a, _ := doc.Entry(0)
	if a.Keyframes == nil || a.Keyframes.Len() != 3 {
		t.Errorf("Expected 3 keyframes for a.mp4, got %+v", a.Keyframes)
	}
	if !a.Available {
		t.Error("Expected a.mp4 to stay available")
	}

	b, _ := doc.Entry(1)
	if b.Available {
		t.Error("Expected unprobeable b.mp4 to degrade to unavailable")
	}
	if b.Keyframes != nil {
		t.Error("Expected no index for failed probe")
	}
}

func TestBuildIndexesSkipsExisting(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "a.mp4"), []byte("x"), 0644)

	doc := New(root, false)
	doc.MergeVideos([]string{"a.mp4"})

	lister := &fakeLister{frames: map[string][]int{"a.mp4": {0, 30}}}
	doc.BuildIndexes(context.Background(), lister, 1)
	first := doc.Entries[0].Keyframes

	// A second pass must not rebuild or replace the immutable index.
	doc.BuildIndexes(context.Background(), lister, 1)
	if doc.Entries[0].Keyframes != first {
		t.Error("Expected existing index to be left alone")
	}
}
