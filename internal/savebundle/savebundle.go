// Package savebundle models a save directory as the game lays it out on disk:
// a directory NAME holding NAME.es3, plus any NAME_BACKUP*.es3 rotation copies
// the game keeps on its own.
package savebundle

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/naturalsort"
	"github.com/spf13/afero"

	"github.com/joe/repo-saves/pkg/es3"
)

// Error kinds returned by this package.
const (
	// ErrInvalidName is returned when a directory has no usable base name.
	ErrInvalidName = errors.ConstError("invalid save bundle name")
	// ErrMissingFile is returned when NAME/NAME.es3 does not exist.
	ErrMissingFile = errors.ConstError("save file missing")
	// ErrNotAFile is returned when NAME/NAME.es3 is not a regular file.
	ErrNotAFile = errors.ConstError("save file is not a regular file")
)

// SaveExtension is the extension of save files.
const SaveExtension = ".es3"

// rotationPattern matches the game's own rotated copies inside a bundle.
const rotationPattern = "*_BACKUP*" + SaveExtension

var logger = loggo.GetLogger("repo-saves.savebundle")

// SaveBundle is a point-in-time view of one save directory. It exists only if
// its save file decoded when it was built.
type SaveBundle struct {
	Location     string
	Name         string
	Level        int
	Players      []string
	TeamName     string
	TimePlayed   time.Duration
	SavedAt      string
	RotatedFiles int
}

// DisplayLevel is the level shown to players, which counts from 1.
func (b SaveBundle) DisplayLevel() int {
	return b.Level + 1
}

// SaveFile is the path of the bundle's save file.
func (b SaveBundle) SaveFile() string {
	return filepath.Join(b.Location, b.Name+SaveExtension)
}

// Load builds a SaveBundle from the directory dir on fsys.
func Load(fsys afero.Fs, dir string) (*SaveBundle, error) {
	name, err := bundleName(dir)
	if err != nil {
		return nil, err
	}

	bundle := &SaveBundle{
		Location: dir,
		Name:     name,
	}

	err = bundle.Refresh(fsys)
	if err != nil {
		return nil, err
	}

	return bundle, nil
}

// Data decodes the bundle's save file again and returns the full record.
func (b *SaveBundle) Data(fsys afero.Fs) (*es3.SaveGame, error) {
	return readSaveFile(fsys, b.SaveFile())
}

// Refresh re-reads the save file and replaces the metadata. Location and Name
// never change.
func (b *SaveBundle) Refresh(fsys afero.Fs) error {
	save, err := b.Data(fsys)
	if err != nil {
		return err
	}

	players := make([]string, 0, len(save.PlayerNames))
	for _, player := range save.PlayerNames {
		players = append(players, player)
	}

	sort.Strings(players)

	b.Level = save.Level()
	b.Players = players
	b.TeamName = save.TeamName
	b.TimePlayed = save.PlayTime()
	b.SavedAt = save.DateAndTime
	b.RotatedFiles = countRotated(fsys, b.Location, b.Name)

	return nil
}

// Extract loads every subdirectory of root that is a valid bundle, in
// directory listing order. Entries that fail are logged and skipped.
func Extract(fsys afero.Fs, root string) []SaveBundle {
	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		logger.Errorf("cannot read save directory %q: %v", root, err)
		return nil
	}

	bundles := make([]SaveBundle, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		bundle, err := Load(fsys, filepath.Join(root, entry.Name()))
		if err != nil {
			logger.Warningf("skipping %q: %v", entry.Name(), err)
			continue
		}

		bundles = append(bundles, *bundle)
	}

	return bundles
}

// SortByName returns a copy of bundles in natural name order, so SAVE_2
// comes before SAVE_10. bundles is left untouched.
func SortByName(bundles []SaveBundle) []SaveBundle {
	sorted := slices.Clone(bundles)

	names := make([]string, len(sorted))
	for i, bundle := range sorted {
		names[i] = bundle.Name
	}

	naturalsort.Sort(names)

	rank := make(map[string]int, len(names))
	for i, name := range names {
		rank[name] = i
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return rank[sorted[i].Name] < rank[sorted[j].Name]
	})

	return sorted
}

// Find returns the bundle called name.
func Find(bundles []SaveBundle, name string) (SaveBundle, bool) {
	for _, bundle := range bundles {
		if bundle.Name == name {
			return bundle, true
		}
	}

	return SaveBundle{}, false
}

// ValidateName reports whether name can be a bundle directory name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || !utf8.ValidString(name) ||
		strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return nil
}

func bundleName(dir string) (string, error) {
	if strings.TrimRight(dir, `/\`) == "" {
		return "", fmt.Errorf("%w: %q has no base name", ErrInvalidName, dir)
	}

	name := filepath.Base(dir)

	err := ValidateName(name)
	if err != nil {
		return "", err
	}

	return name, nil
}

func readSaveFile(fsys afero.Fs, path string) (*es3.SaveGame, error) {
	info, err := fsys.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	return es3.ReadFile(fsys, path) //nolint:wrapcheck // es3 errors already carry the path
}

// countRotated counts NAME_BACKUP*.es3 files next to the save file.
func countRotated(fsys afero.Fs, dir, name string) int {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		logger.Debugf("cannot list %q for rotation files: %v", dir, err)
		return 0
	}

	count := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), name+"_BACKUP") {
			continue
		}

		if ok, _ := doublestar.Match(rotationPattern, entry.Name()); ok {
			count++
		}
	}

	return count
}
