package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// stateFile is the on-disk layout of the state file. The ignore list lives
// under the "Download/ignore-path" key.
type stateFile struct {
	Download struct {
		IgnorePath []string `yaml:"ignore-path"`
	} `yaml:"Download"`
}

// IgnoreStore persists the ignore list in a YAML state file. Reads and
// writes hold an advisory lock so the CLI and the daemon can share it.
type IgnoreStore struct {
	path string
	lock *flock.Flock
}

func NewIgnoreStore(path string) *IgnoreStore {
	return &IgnoreStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the state file location.
func (s *IgnoreStore) Path() string { return s.path }

// Load returns the persisted keys. A missing file is an empty list.
func (s *IgnoreStore) Load() ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("failed to lock state file: %w", err)
	}
	defer s.lock.Unlock()

	st, err := s.read()
	if err != nil {
		return nil, err
	}
	return st.Download.IgnorePath, nil
}

// Save replaces the persisted keys.
func (s *IgnoreStore) Save(keys []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock state file: %w", err)
	}
	defer s.lock.Unlock()

	st, err := s.read()
	if err != nil {
		return err
	}
	st.Download.IgnorePath = keys

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

func (s *IgnoreStore) read() (stateFile, error) {
	var st stateFile
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("failed to parse state file %s: %w", s.path, err)
	}
	return st, nil
}
