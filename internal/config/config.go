// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexflint/go-arg"

	"github.com/joe/repo-saves/internal/savebundle"
	"github.com/joe/repo-saves/pkg/filesystem"
)

// ProgramName is the binary name shown in usage output.
const ProgramName = "repo-saves"

// Format selects the output of the list command
type Format int

const (
	// FormatTable - aligned table for terminals
	FormatTable Format = iota
	// FormatYAML - machine readable listing
	FormatYAML
)

// String returns the string representation of Format
func (f Format) String() string {
	switch f {
	case FormatTable:
		return "table"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// ParseFormat parses a string into a Format
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(s)
	switch s {
	case "table":
		return FormatTable, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatTable, fmt.Errorf("invalid format: %s (valid: table, yaml)", s) //nolint:err113 // User input validation
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}

	*f = parsed

	return nil
}

// ListCmd prints game saves and backups.
type ListCmd struct {
	Format Format `arg:"-f,--format" default:"table" help:"Output format: table|yaml"`
}

// BackupCmd copies a game save into the backup directory.
type BackupCmd struct {
	Name string `arg:"positional,required" help:"Name of the game save"`
}

// RestoreCmd copies a backup over the game save of the same name.
type RestoreCmd struct {
	Name string `arg:"positional,required" help:"Name of the backup"`
	Yes  bool   `arg:"-y,--yes" help:"Overwrite an existing game save without asking"`
}

// DeleteCmd removes a backup.
type DeleteCmd struct {
	Name string `arg:"positional,required" help:"Name of the backup"`
	Yes  bool   `arg:"-y,--yes" help:"Delete without asking"`
}

// Config holds the application configuration
type Config struct {
	SaveDir   string `arg:"-s,--save-dir" help:"Game save directory (overrides the saved setting)"`
	BackupDir string `arg:"-b,--backup-dir" help:"Backup directory or sftp://user@host/path (overrides the saved setting)"`
	Settings  string `arg:"--settings" help:"Settings file path"`
	LogFile   string `arg:"--log-file" help:"Log file path"`
	LogLevel  string `arg:"--log-level" help:"Logging configuration, e.g. <root>=DEBUG (default <root>=INFO)"`
	Watch     bool   `arg:"-w,--watch" help:"Rescan when files under the local directories change"`
	Verify    bool   `arg:"--verify" help:"Compare every copied file with its source"`

	List    *ListCmd    `arg:"subcommand:list" help:"List game saves and backups"`
	Backup  *BackupCmd  `arg:"subcommand:backup" help:"Back up a game save"`
	Restore *RestoreCmd `arg:"subcommand:restore" help:"Restore a backup"`
	Delete  *DeleteCmd  `arg:"subcommand:delete" help:"Delete a backup"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Back up, restore, and delete R.E.P.O. save games"
}

// BuildVersion is stamped by the release build with -ldflags -X.
var BuildVersion = "dev" //nolint:gochecknoglobals // Set by the linker

// Version returns the version string for go-arg
func (Config) Version() string {
	return ProgramName + " " + BuildVersion
}

// Interactive reports whether no subcommand was given, so the TUI runs.
func (cfg *Config) Interactive() bool {
	return cfg.List == nil && cfg.Backup == nil && cfg.Restore == nil && cfg.Delete == nil
}

func newConfig() *Config {
	return &Config{}
}

// ParseFlags parses command-line flags and returns configuration
func ParseFlags() (*Config, error) {
	cfg := newConfig()

	arg.MustParse(cfg)

	return PostProcessConfig(cfg)
}

// ParseArgs parses args (without the program name). Help and version
// requests come back as arg.ErrHelp and arg.ErrVersion.
func ParseArgs(args []string) (*Config, error) {
	cfg := newConfig()

	parser, err := arg.NewParser(arg.Config{Program: ProgramName}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build argument parser: %w", err)
	}

	err = parser.Parse(args)
	if err != nil {
		return nil, err //nolint:wrapcheck // Callers compare against arg.ErrHelp
	}

	return PostProcessConfig(cfg)
}

// PostProcessConfig applies post-processing logic to a parsed config
func PostProcessConfig(cfg *Config) (*Config, error) {
	var names []string

	switch {
	case cfg.Backup != nil:
		names = append(names, cfg.Backup.Name)
	case cfg.Restore != nil:
		names = append(names, cfg.Restore.Name)
	case cfg.Delete != nil:
		names = append(names, cfg.Delete.Name)
	}

	for _, name := range names {
		if err := savebundle.ValidateName(name); err != nil { //nolint:noinlineerr // Scoped validation
			return nil, err //nolint:wrapcheck // Already names the bad value
		}
	}

	if err := cfg.ValidatePaths(); err != nil { //nolint:noinlineerr // Scoped validation
		return nil, err
	}

	return cfg, nil
}

// ValidatePaths checks that sftp:// directories are well formed. Local
// directories are not required to exist yet.
func (cfg *Config) ValidatePaths() error {
	err := validateDir("save directory", cfg.SaveDir)
	if err != nil {
		return err
	}

	return validateDir("backup directory", cfg.BackupDir)
}

func validateDir(label, dir string) error {
	if !filesystem.IsSFTPURL(dir) {
		return nil
	}

	_, err := filesystem.ParsePath(dir)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", label, err)
	}

	return nil
}

// IsHelp reports whether err is a help or version request from ParseArgs.
func IsHelp(err error) bool {
	return errors.Is(err, arg.ErrHelp) || errors.Is(err, arg.ErrVersion)
}
