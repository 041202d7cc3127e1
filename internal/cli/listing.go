package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/joe/repo-saves/internal/config"
	"github.com/joe/repo-saves/internal/savebundle"
	"github.com/joe/repo-saves/internal/state"
)

// listing is the YAML form of the list command.
type listing struct {
	SaveDirectory   string        `yaml:"save_directory"`
	BackupDirectory string        `yaml:"backup_directory"`
	GameSaves       []bundleEntry `yaml:"game_saves"`
	Backups         []bundleEntry `yaml:"backups"`
}

type bundleEntry struct {
	Name         string   `yaml:"name"`
	Level        int      `yaml:"level"`
	Players      []string `yaml:"players,flow"`
	TeamName     string   `yaml:"team_name,omitempty"`
	TimePlayed   string   `yaml:"time_played"`
	SavedAt      string   `yaml:"saved_at,omitempty"`
	RotatedFiles int      `yaml:"rotated_files"`
	Location     string   `yaml:"location"`
}

func writeListing(w io.Writer, snap state.AppState, format config.Format) error {
	game := savebundle.SortByName(snap.GameSaveBundles)
	backups := savebundle.SortByName(snap.BackupSaveBundles)

	switch format {
	case config.FormatYAML:
		return writeYAML(w, listing{
			SaveDirectory:   snap.SaveDirectory,
			BackupDirectory: snap.BackupDirectory,
			GameSaves:       entries(game),
			Backups:         entries(backups),
		})
	case config.FormatTable:
		return writeTable(w, game, backups)
	default:
		return errors.NotValidf("format %v", format)
	}
}

func entries(bundles []savebundle.SaveBundle) []bundleEntry {
	out := make([]bundleEntry, 0, len(bundles))

	for _, b := range bundles {
		players := b.Players
		if players == nil {
			players = []string{}
		}

		out = append(out, bundleEntry{
			Name:         b.Name,
			Level:        b.DisplayLevel(),
			Players:      players,
			TeamName:     b.TeamName,
			TimePlayed:   playTime(b.TimePlayed),
			SavedAt:      b.SavedAt,
			RotatedFiles: b.RotatedFiles,
			Location:     b.Location,
		})
	}

	return out
}

func writeYAML(w io.Writer, doc listing) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2) //nolint:mnd // Conventional indent

	if err := enc.Encode(doc); err != nil { //nolint:noinlineerr // Scoped
		return errors.Annotate(err, "encoding listing")
	}

	return errors.Trace(enc.Close())
}

func writeTable(w io.Writer, game, backups []savebundle.SaveBundle) error {
	rows := make([][]string, 0, len(game)+len(backups))
	rows = appendRows(rows, "game", game)
	rows = appendRows(rows, "backup", backups)

	header := lipgloss.NewStyle().Bold(true)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderHeader(true).
		BorderRow(false).
		Headers("WHERE", "NAME", "LEVEL", "PLAYERS", "PLAYED", "SAVED").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}

			return lipgloss.NewStyle().Padding(0, 1)
		})

	_, err := fmt.Fprintf(w, "%s\n%s, %s\n", t.Render(),
		humanize.Comma(int64(len(game)))+" game saves",
		humanize.Comma(int64(len(backups)))+" backups")

	return errors.Trace(err)
}

func appendRows(rows [][]string, where string, bundles []savebundle.SaveBundle) [][]string {
	for _, b := range bundles {
		rows = append(rows, []string{
			where,
			b.Name,
			fmt.Sprintf("%d", b.DisplayLevel()),
			strings.Join(b.Players, ", "),
			playTime(b.TimePlayed),
			b.SavedAt,
		})
	}

	return rows
}

func playTime(d time.Duration) string {
	return d.Round(time.Second).String()
}
