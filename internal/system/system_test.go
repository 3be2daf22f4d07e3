package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestListVideos(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, "sub"), 0755)
	for _, name := range []string{"a.mp4", "b.txt", "sub/c.MKV"} {
		os.WriteFile(filepath.Join(root, filepath.FromSlash(name)), []byte("x"), 0644)
	}

	videos, err := ListVideos(root, []string{".mp4", ".mkv"})
	if err != nil {
		t.Fatalf("ListVideos failed: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("Expected 2 videos, got %d (%v)", len(videos), videos)
	}
	found := map[string]bool{}
	for _, v := range videos {
		found[v] = true
	}
	if !found["a.mp4"] || !found["sub/c.MKV"] {
		t.Errorf("Unexpected video set: %v", videos)
	}
}

func TestFindLatestProject(t *testing.T) {
	dir := t.TempDir()
	files := []string{"old.json", "mid.json.gz", "new.json"}
	for i, name := range files {
		path := filepath.Join(dir, name)
		os.WriteFile(path, []byte("{}"), 0644)
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(path, modTime, modTime)
	}
	os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644)

	latest, err := FindLatestProject(dir)
	if err != nil {
		t.Fatalf("FindLatestProject failed: %v", err)
	}
	if filepath.Base(latest) != "new.json" {
		t.Errorf("Expected new.json, got %s", latest)
	}
}

func TestFindLatestProjectEmpty(t *testing.T) {
	if _, err := FindLatestProject(t.TempDir()); err == nil {
		t.Error("Expected error for folder without annotation files")
	}
}
