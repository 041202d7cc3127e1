package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

// suggestionGenerator is the concrete implementation of SuggestionGenerator.
type suggestionGenerator struct{}

// Generate returns actionable suggestions based on the error category and affected path.
//
//nolint:cyclop // One case per category
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	switch category {
	case CategorySaveFile:
		return g.generateSaveFileSuggestions(affectedPath)
	case CategoryName:
		return g.generateNameSuggestions()
	case CategoryConflict:
		return g.generateConflictSuggestions(affectedPath)
	case CategoryConnection:
		return g.generateConnectionSuggestions()
	case CategoryPermission:
		return g.generatePermissionSuggestions(affectedPath)
	case CategoryDiskSpace:
		return g.generateDiskSpaceSuggestions(affectedPath)
	case CategoryPath:
		return g.generatePathSuggestions(affectedPath)
	case CategoryDelete:
		return g.generateDeleteSuggestions(affectedPath)
	case CategoryCopy:
		return g.generateCopySuggestions()
	case CategoryUnknown:
		return g.generateUnknownSuggestions(affectedPath)
	default:
		return g.generateUnknownSuggestions(affectedPath)
	}
}

func (g *suggestionGenerator) generateSaveFileSuggestions(path string) []string {
	suggestions := []string{
		"The save file is damaged, incomplete, or from an unsupported game version",
		"If the game is running, wait until it has finished writing the save",
	}

	if path != "" {
		suggestions = append(suggestions, "Look for the game's own rotated copies (*_BACKUP*.es3) next to "+path)
	}

	return append(suggestions, "Restore an older backup of this save if you have one")
}

func (g *suggestionGenerator) generateNameSuggestions() []string {
	return []string{
		"Save names are single directory names without slashes",
		"Pick a name from the list of game saves or backups",
	}
}

func (g *suggestionGenerator) generateConflictSuggestions(path string) []string {
	suggestions := []string{
		"The destination already holds a save with this name",
	}

	if path != "" {
		suggestions = append(suggestions, "Check what is stored at "+path)
	}

	return append(suggestions,
		"Make sure the save and backup directories are different and do not contain each other")
}

func (g *suggestionGenerator) generateConnectionSuggestions() []string {
	return []string{
		"Check that the backup host is reachable and its SSH server is running",
		"Make sure your key is loaded in ssh-agent or present in ~/.ssh",
		"Verify the user and port in the sftp:// URL",
	}
}

func (g *suggestionGenerator) generateCopySuggestions() []string {
	return []string{
		"Check if there is sufficient disk space on the destination",
		"Verify the source and destination media are functioning correctly",
		"Try the operation again - this may be a transient I/O error",
	}
}

func (g *suggestionGenerator) generateDeleteSuggestions(path string) []string {
	suggestions := []string{
		"Another program may still be writing into the backup",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("List contents with 'ls -la %s'", path))
	}

	return append(suggestions, "Try deleting again once nothing else uses the directory")
}

func (g *suggestionGenerator) generateDiskSpaceSuggestions(path string) []string {
	suggestions := []string{
		"Free up space on the destination device",
		"Delete old backups you no longer need",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify disk usage for the filesystem containing "+path)
	}

	return suggestions
}

func (g *suggestionGenerator) generatePathSuggestions(path string) []string {
	suggestions := []string{
		"Verify the path exists and is spelled correctly",
	}

	if path != "" {
		suggestions = append(suggestions, "Check if the path exists: "+path)
	}

	return append(suggestions, "Press F5 to rescan if saves were moved or renamed")
}

func (g *suggestionGenerator) generatePermissionSuggestions(path string) []string {
	suggestions := []string{
		"Ensure you have read/write permissions for the save and backup directories",
	}

	if path != "" {
		suggestions = append(suggestions, fmt.Sprintf("Check permissions with 'ls -la %s'", path))
	} else {
		suggestions = append(suggestions, "Check permissions with 'ls -la' on the affected path")
	}

	return suggestions
}

func (g *suggestionGenerator) generateUnknownSuggestions(path string) []string {
	suggestions := []string{
		"Check the error message and the log file for more details",
		"Verify file and directory permissions",
	}

	if path != "" {
		suggestions = append(suggestions, "Verify the path is accessible: "+path)
	}

	return suggestions
}
