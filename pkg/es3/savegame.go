package es3

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/afero"
)

// LevelKey is the run statistics key holding the zero-based level.
const LevelKey = "level"

// SaveGame is the part of a decoded save record the application uses.
// Anything else in the document is dropped, so a SaveGame is never written back.
type SaveGame struct {
	RunStats    map[string]int
	PlayerNames map[string]string
	TimePlayed  float64
	DateAndTime string
	TeamName    string
}

// Level returns the zero-based level from the run statistics, or 0 if absent.
func (s *SaveGame) Level() int {
	return s.RunStats[LevelKey]
}

// PlayTime returns TimePlayed as a duration.
func (s *SaveGame) PlayTime() time.Duration {
	return time.Duration(s.TimePlayed * float64(time.Second))
}

// typed mirrors the {"__type": ..., "value": ...} wrapper the game writes
// around every top-level field.
type typed[T any] struct {
	Type  string `json:"__type"`
	Value *T     `json:"value"`
}

type dictionaries struct {
	RunStats map[string]int `json:"runStats"`
}

type document struct {
	DictionaryOfDictionaries *typed[dictionaries]      `json:"dictionaryOfDictionaries"`
	PlayerNames              *typed[map[string]string] `json:"playerNames"`
	TimePlayed               *typed[float64]           `json:"timePlayed"`
	DateAndTime              *typed[string]            `json:"dateAndTime"`
	TeamName                 *typed[string]            `json:"teamName"`
}

// Decode parses a decrypted save document.
func Decode(data []byte) (*SaveGame, error) {
	var doc document

	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}

	switch {
	case doc.DictionaryOfDictionaries == nil || doc.DictionaryOfDictionaries.Value == nil:
		return nil, missing("dictionaryOfDictionaries")
	case doc.DictionaryOfDictionaries.Value.RunStats == nil:
		return nil, missing("dictionaryOfDictionaries.runStats")
	case doc.PlayerNames == nil || doc.PlayerNames.Value == nil:
		return nil, missing("playerNames")
	case doc.TimePlayed == nil || doc.TimePlayed.Value == nil:
		return nil, missing("timePlayed")
	case doc.DateAndTime == nil || doc.DateAndTime.Value == nil:
		return nil, missing("dateAndTime")
	case doc.TeamName == nil || doc.TeamName.Value == nil:
		return nil, missing("teamName")
	}

	return &SaveGame{
		RunStats:    doc.DictionaryOfDictionaries.Value.RunStats,
		PlayerNames: *doc.PlayerNames.Value,
		TimePlayed:  *doc.TimePlayed.Value,
		DateAndTime: *doc.DateAndTime.Value,
		TeamName:    *doc.TeamName.Value,
	}, nil
}

// ReadFile decrypts and decodes the save file at path.
func ReadFile(fsys afero.Fs, path string) (*SaveGame, error) {
	data, err := Decrypt(fsys, path, Passphrase)
	if err != nil {
		return nil, err
	}

	save, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return save, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing field %q", ErrSchemaMismatch, field)
}
