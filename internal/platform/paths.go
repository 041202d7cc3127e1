package platform

import (
	"os"
	"path/filepath"
)

// Getenv implements Env.
func (OSEnv) Getenv(key string) string {
	return os.Getenv(key)
}

// UserHomeDir implements Env.
func (OSEnv) UserHomeDir() (string, error) {
	return os.UserHomeDir() //nolint:wrapcheck // Callers log the error as is
}

// saveTail is where the game writes saves below a Windows user profile.
var saveTail = []string{"AppData", "LocalLow", "semiwork", "Repo", "saves"} //nolint:gochecknoglobals // Fixed game layout

func underProfile(profile string) string {
	return filepath.Join(append([]string{profile}, saveTail...)...)
}

type windowsPaths struct {
	env Env
}

func (p windowsPaths) SaveCandidates() []string {
	profile := p.env.Getenv("USERPROFILE")
	if profile == "" {
		return nil
	}

	return []string{underProfile(profile)}
}

func (p windowsPaths) DataDir() string {
	return p.env.Getenv("APPDATA")
}

type darwinPaths struct {
	env Env
}

func (p darwinPaths) SaveCandidates() []string {
	home, err := p.env.UserHomeDir()
	if err != nil {
		return nil
	}

	// CrossOver bottle running the Windows build.
	return []string{underProfile(filepath.Join(home,
		"Library", "Application Support", "CrossOver", "Bottles", "Steam", "drive_c", "users", "crossover"))}
}

func (p darwinPaths) DataDir() string {
	home, err := p.env.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, "Library", "Application Support")
}

type linuxPaths struct {
	env Env
}

func (p linuxPaths) SaveCandidates() []string {
	home, err := p.env.UserHomeDir()
	if err != nil {
		return nil
	}

	// Proton prefixes for the Debian package layout and the upstream Steam layout.
	steamRoots := []string{
		filepath.Join(home, ".steam", "debian-installation"),
		filepath.Join(home, ".local", "share", "Steam"),
	}

	candidates := make([]string, 0, len(steamRoots))
	for _, root := range steamRoots {
		candidates = append(candidates, underProfile(filepath.Join(root,
			"steamapps", "compatdata", steamAppID, "pfx", "drive_c", "users", "steamuser")))
	}

	return candidates
}

func (p linuxPaths) DataDir() string {
	if xdg := p.env.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg
	}

	home, err := p.env.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".local", "share")
}

type otherPaths struct {
	env Env
}

func (otherPaths) SaveCandidates() []string {
	return nil
}

func (otherPaths) DataDir() string {
	return ""
}
