// Package es3test builds save bundles on an afero filesystem for tests.
package es3test

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/joe/repo-saves/pkg/es3"
)

// FixedIV keeps fixture bytes reproducible.
var FixedIV = []byte("0123456789abcdef") //nolint:gochecknoglobals // Shared test fixture

// Save describes the fields a fixture document carries.
type Save struct {
	Level      int
	Players    map[string]string
	TimePlayed float64
	SavedAt    string
	TeamName   string
	// OmitLevel leaves "level" out of runStats.
	OmitLevel bool
}

// Document renders s in the game's JSON layout.
func Document(s Save) []byte {
	runStats := map[string]int{"totalHaul": 1200}
	if !s.OmitLevel {
		runStats[es3.LevelKey] = s.Level
	}

	players := s.Players
	if players == nil {
		players = map[string]string{}
	}

	doc := map[string]any{
		"dictionaryOfDictionaries": map[string]any{
			"__type": "System.Collections.Generic.Dictionary`2[[System.String],[System.Collections.Generic.Dictionary`2[[System.String],[System.Int32]]]]",
			"value": map[string]any{
				"runStats":       runStats,
				"itemsPurchased": map[string]int{},
			},
		},
		"playerNames": map[string]any{"__type": "System.Collections.Generic.Dictionary`2[[System.String],[System.String]]", "value": players},
		"timePlayed":  map[string]any{"__type": "float", "value": s.TimePlayed},
		"dateAndTime": map[string]any{"__type": "string", "value": s.SavedAt},
		"teamName":    map[string]any{"__type": "string", "value": s.TeamName},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}

	return data
}

// Encrypted returns plaintext sealed with the game passphrase.
func Encrypted(plaintext []byte) []byte {
	data, err := es3.Encrypt(plaintext, es3.Passphrase, FixedIV)
	if err != nil {
		panic(err)
	}

	return data
}

// WriteBundle creates root/name/name.es3 holding s and returns the bundle directory.
func WriteBundle(fsys afero.Fs, root, name string, s Save) (string, error) {
	dir := filepath.Join(root, name)

	err := fsys.MkdirAll(dir, 0o750)
	if err != nil {
		return "", fmt.Errorf("failed to create bundle dir %s: %w", dir, err)
	}

	err = afero.WriteFile(fsys, filepath.Join(dir, name+".es3"), Encrypted(Document(s)), 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to write save file: %w", err)
	}

	return dir, nil
}
