package config

import (
	"errors"
	"io/fs"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Settings are the per-user defaults remembered between sessions:
// where the project lives, how it is saved, and how navigation behaves.
type Settings struct {
	ProjectFolder   string   `yaml:"folder"`
	ProjectFile     string   `yaml:"file"`
	Compress        bool     `yaml:"compress"`
	SecondStep      float64  `yaml:"secondStep"` // coarse navigation step, in seconds
	VideoExtensions []string `yaml:"videoExtensions"`
	OrphanPolicy    string   `yaml:"orphanPolicy"` // keep or warn
	Workers         int      `yaml:"workers"`
}

func Default() *Settings {
	return &Settings{
		Compress:   true,
		SecondStep: 0.10,
		VideoExtensions: []string{
			".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv",
			".webm", ".m4v", ".mpeg", ".mpg", ".h264",
		},
		OrphanPolicy: "keep",
		Workers:      runtime.NumCPU(),
	}
}

// Load reads settings from a YAML file. A missing file yields defaults;
// only an unreadable or unparsable file is an error.
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	if s.Workers < 1 {
		s.Workers = 1
	}
	if s.SecondStep <= 0 {
		s.SecondStep = 0.10
	}
	return s, nil
}

// Save writes settings back so the next session starts where this one
// left off.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
