// Package settings persists the user's directory choices between runs in a
// small TOML file. Only the two directories are stored; scan results never are.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/juju/loggo"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// FileName is the settings file name inside the app data directory.
const FileName = "settings.toml"

var logger = loggo.GetLogger("repo-saves.settings")

// AppSettings are the persisted values.
type AppSettings struct {
	SaveDirectory   string `toml:"save_directory"`
	BackupDirectory string `toml:"backup_directory"`
}

// document is the file layout: everything lives under the "app" key.
type document struct {
	App AppSettings `toml:"app"`
}

// Store reads and writes one settings file.
type Store struct {
	fsys afero.Fs
	path string
	mu   sync.Mutex
}

// NewStore creates a store for the file at path on fsys.
func NewStore(fsys afero.Fs, path string) *Store {
	return &Store{fsys: fsys, path: path}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings. A missing file yields zero settings.
func (s *Store) Load() (AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Save replaces the settings file.
func (s *Store) Save(settings AppSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(settings)
}

// Update applies fn to the stored settings and writes them back.
func (s *Store) Update(fn func(*AppSettings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load()
	if err != nil {
		return err
	}

	fn(&current)

	return s.save(current)
}

func (s *Store) load() (AppSettings, error) {
	data, err := afero.ReadFile(s.fsys, s.path)
	if os.IsNotExist(err) {
		logger.Debugf("no settings at %s", s.path)
		return AppSettings{}, nil
	}

	if err != nil {
		return AppSettings{}, fmt.Errorf("failed to read settings %s: %w", s.path, err)
	}

	var doc document

	err = toml.Unmarshal(data, &doc)
	if err != nil {
		return AppSettings{}, fmt.Errorf("failed to parse settings %s: %w", s.path, err)
	}

	return doc.App, nil
}

func (s *Store) save(settings AppSettings) error {
	data, err := toml.Marshal(document{App: settings})
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	err = s.fsys.MkdirAll(filepath.Dir(s.path), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp := s.path + ".tmp"

	err = afero.WriteFile(s.fsys, tmp, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write settings %s: %w", tmp, err)
	}

	err = s.fsys.Rename(tmp, s.path)
	if err != nil {
		return fmt.Errorf("failed to replace settings %s: %w", s.path, err)
	}

	logger.Debugf("saved settings to %s", s.path)

	return nil
}
