package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !s.Compress {
		t.Error("Expected compression on by default")
	}
	if s.SecondStep != 0.10 {
		t.Errorf("Expected default step 0.10, got %f", s.SecondStep)
	}
	if len(s.VideoExtensions) == 0 {
		t.Error("Expected default video extensions")
	}
	if s.OrphanPolicy != "keep" {
		t.Errorf("Expected orphan policy keep, got %s", s.OrphanPolicy)
	}
}

func TestSettingsWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	s := Default()
	s.ProjectFolder = "/data/videos"
	s.ProjectFile = "/data/videos/project.json.gz"
	s.Compress = false
	s.Workers = 3

	if err := s.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ProjectFolder != s.ProjectFolder {
		t.Errorf("Folder mismatch: expected %s, got %s", s.ProjectFolder, loaded.ProjectFolder)
	}
	if loaded.Compress != s.Compress {
		t.Errorf("Compress mismatch: expected %v, got %v", s.Compress, loaded.Compress)
	}
	if loaded.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", loaded.Workers)
	}
}
