// Package persist stores run progress across sessions using gdata's
// cross-platform app storage.
package persist

import (
	"fmt"
	"time"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

const (
	progressObject   = "save"
	progressProperty = "progress"
)

// Progress is the cross-session player record.
type Progress struct {
	BestWave  int       `yaml:"bestWave"`
	BestKills int       `yaml:"bestKills"`
	LastSeed  int64     `yaml:"lastSeed"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

// Store loads and saves Progress. A nil gdata manager degrades to in-memory
// only: reads give the zero record, writes succeed silently.
type Store struct {
	manager  *gdata.Manager
	progress Progress
}

// Open creates a Store backed by the named app storage.
func Open(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open app storage: %w", err)
	}
	s := &Store{manager: m}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemoryStore creates a Store with no backing storage, for tests and
// headless batch runs that must not touch the user's save.
func NewMemoryStore() *Store {
	return &Store{}
}

func (s *Store) load() error {
	if s.manager == nil || !s.manager.ObjectPropExists(progressObject, progressProperty) {
		return nil
	}
	data, err := s.manager.LoadObjectProp(progressObject, progressProperty)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	var p Progress
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("unmarshal progress: %w", err)
	}
	s.progress = p
	return nil
}

// Progress returns the current record.
func (s *Store) Progress() Progress {
	return s.progress
}

// RecordRun folds one finished run into the record and persists it. Bests
// only ever improve.
func (s *Store) RecordRun(wave, kills int, seed int64) error {
	if wave > s.progress.BestWave {
		s.progress.BestWave = wave
	}
	if kills > s.progress.BestKills {
		s.progress.BestKills = kills
	}
	s.progress.LastSeed = seed
	s.progress.UpdatedAt = time.Now().UTC()
	return s.save()
}

func (s *Store) save() error {
	if s.manager == nil {
		return nil
	}
	data, err := yaml.Marshal(s.progress)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := s.manager.SaveObjectProp(progressObject, progressProperty, data); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
