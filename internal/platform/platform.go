// Package platform knows where the game keeps its saves and where this tool
// keeps its own data on each operating system.
package platform

import (
	"path/filepath"
	"runtime"

	"github.com/juju/loggo"
	"github.com/spf13/afero"
)

// AppName names the tool's data directory.
const AppName = "repo-saves"

// steamAppID is R.E.P.O.'s Steam application id, used by Proton prefixes.
const steamAppID = "3241660"

var logger = loggo.GetLogger("repo-saves.platform")

// Env is the subset of the process environment path resolution needs.
type Env interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
}

// Paths is the per-OS path strategy.
type Paths interface {
	// SaveCandidates lists possible save directories, most likely first.
	SaveCandidates() []string
	// DataDir is the platform's per-user application data directory, or "".
	DataDir() string
}

// ForOS returns the strategy for goos.
func ForOS(goos string, env Env) Paths {
	switch goos {
	case "windows":
		return windowsPaths{env: env}
	case "darwin":
		return darwinPaths{env: env}
	case "linux":
		return linuxPaths{env: env}
	default:
		logger.Warningf("no known save locations for %s", goos)
		return otherPaths{env: env}
	}
}

// Current returns the strategy for the running OS.
func Current(env Env) Paths {
	return ForOS(runtime.GOOS, env)
}

// AppDataDir is <data dir>/repo-saves, or "" when the platform has none.
func AppDataDir(paths Paths) string {
	dataDir := paths.DataDir()
	if dataDir == "" {
		return ""
	}

	return filepath.Join(dataDir, AppName)
}

// DefaultBackupDir is <app data dir>/backups, falling back to ~/.repo-saves/backups.
func DefaultBackupDir(paths Paths, env Env) string {
	if appData := AppDataDir(paths); appData != "" {
		return filepath.Join(appData, "backups")
	}

	home, err := env.UserHomeDir()
	if err != nil {
		logger.Warningf("cannot determine home directory: %v", err)
		return filepath.Join("."+AppName, "backups")
	}

	return filepath.Join(home, "."+AppName, "backups")
}

// DefaultSaveDir returns the first candidate that is an existing directory on fsys.
func DefaultSaveDir(fsys afero.Fs, paths Paths) (string, bool) {
	return FirstExistingDir(fsys, paths.SaveCandidates())
}

// FirstExistingDir returns the first of candidates that is a directory on fsys.
func FirstExistingDir(fsys afero.Fs, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		ok, err := afero.DirExists(fsys, candidate)
		if err != nil {
			logger.Debugf("cannot stat %s: %v", candidate, err)
			continue
		}

		if ok {
			return candidate, true
		}
	}

	return "", false
}

// OSEnv reads the real process environment.
type OSEnv struct{}
