package tui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/joe/repo-saves/internal/tui/shared"
	"github.com/joe/repo-saves/pkg/filesystem"
)

// dirInput edits one directory with tab completion against a local filesystem.
// sftp:// URLs are accepted as typed and never completed.
type dirInput struct {
	fsys  afero.Fs
	home  func() (string, error)
	input textinput.Model
	label string

	completions     []string
	completionIndex int
	showCompletions bool
}

func newDirInput(fsys afero.Fs) dirInput {
	input := textinput.New()
	input.Prompt = shared.PromptArrow
	input.Placeholder = "/path/to/directory or sftp://user@host/path"
	input.CharLimit = 4096

	return dirInput{
		fsys:  fsys,
		home:  os.UserHomeDir,
		input: input,
	}
}

// Start begins editing value under label.
func (d *dirInput) Start(label, value string) tea.Cmd {
	d.label = label
	d.input.SetValue(value)
	d.input.CursorEnd()
	d.resetCompletions()

	return d.input.Focus()
}

// Stop ends editing.
func (d *dirInput) Stop() {
	d.input.Blur()
	d.resetCompletions()
}

// SetWidth sizes the text field.
func (d *dirInput) SetWidth(width int) {
	d.input.Width = max(width, 1)
}

// Value returns the entered directory with ~ expanded.
func (d *dirInput) Value() string {
	value := strings.TrimSpace(d.input.Value())
	if value == "" || filesystem.IsSFTPURL(value) {
		return value
	}

	return d.expandHomePath(value)
}

// CompletionsVisible reports whether the completion list is open.
func (d *dirInput) CompletionsVisible() bool {
	return d.showCompletions && len(d.completions) > 1
}

// HideCompletions closes the completion list.
func (d *dirInput) HideCompletions() {
	d.showCompletions = false
}

// Update handles keys and cursor blinks while editing.
func (d *dirInput) Update(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab":
			d.handleTabCompletion()
			return nil
		case "shift+tab":
			d.handleShiftTabCompletion()
			return nil
		case "right":
			if d.showCompletions && len(d.completions) > 0 {
				d.handleRightArrow()
				return nil
			}
		}

		d.showCompletions = false
	}

	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)

	return cmd
}

// View renders the label, the field, and any open completion list.
func (d *dirInput) View() string {
	var builder strings.Builder

	builder.WriteString(shared.RenderLabel(d.label))
	builder.WriteString("\n")
	builder.WriteString(d.input.View())

	if d.CompletionsVisible() {
		builder.WriteString("\n")
		builder.WriteString(d.formatCompletionList())
	}

	builder.WriteString("\n\n")
	builder.WriteString(shared.RenderDim("tab complete • enter save • esc cancel"))

	return builder.String()
}

func (d *dirInput) resetCompletions() {
	d.completions = nil
	d.completionIndex = 0
	d.showCompletions = false
}

func (d *dirInput) applyCompletion(completion string) {
	d.input.SetValue(completion)
	d.input.CursorEnd()
}

func (d *dirInput) handleTabCompletion() {
	if !d.showCompletions {
		d.completions = d.getPathCompletions(d.input.Value())
		d.completionIndex = 0
		d.showCompletions = true

		if len(d.completions) == 1 {
			d.applyCompletion(d.completions[0])
			d.showCompletions = false
		}

		return
	}

	if len(d.completions) > 0 {
		d.completionIndex = (d.completionIndex + 1) % len(d.completions)
		d.applyCompletion(d.completions[d.completionIndex])
	}
}

func (d *dirInput) handleShiftTabCompletion() {
	if !d.showCompletions || len(d.completions) == 0 {
		return
	}

	d.completionIndex--
	if d.completionIndex < 0 {
		d.completionIndex = len(d.completions) - 1
	}

	d.applyCompletion(d.completions[d.completionIndex])
}

// handleRightArrow accepts the current completion and descends into it.
func (d *dirInput) handleRightArrow() {
	current := d.completions[d.completionIndex]
	d.applyCompletion(current)
	d.resetCompletions()

	d.completions = d.getPathCompletions(current)
	if len(d.completions) > 0 {
		d.showCompletions = true
		d.applyCompletion(d.completions[0])
	}
}

func (d *dirInput) formatCompletionList() string {
	lines := []string{shared.CompletionStyle().Render("  " + strings.Repeat("─", shared.CompletionRuleWidth))}

	start, end := calculateCompletionWindow(d.completionIndex, shared.MaxCompletionsShown, len(d.completions))

	if start > 0 {
		lines = append(lines, shared.CompletionStyle().Render("    ..."))
	}

	for i := start; i < end; i++ {
		base := getBaseName(d.completions[i])
		if i == d.completionIndex {
			lines = append(lines, shared.CompletionSelectedStyle().Render("  "+shared.PromptArrow+base))
		} else {
			lines = append(lines, shared.CompletionStyle().Render("    "+base))
		}
	}

	if end < len(d.completions) {
		lines = append(lines, shared.CompletionStyle().Render("    ..."))
	}

	return strings.Join(lines, "\n")
}

func calculateCompletionWindow(currentIndex, maxShow, totalCount int) (start, end int) {
	start = max(currentIndex-maxShow/2, 0) //nolint:mnd // Center the selection

	end = start + maxShow
	if end > totalCount {
		end = totalCount
		start = max(end-maxShow, 0)
	}

	return start, end
}

// getPathCompletions lists the directories that complete input. Only
// directories are offered since both fields name directories.
func (d *dirInput) getPathCompletions(input string) []string {
	if filesystem.IsSFTPURL(input) {
		return nil
	}

	input = d.expandHomePath(input)
	dir, prefix := parseCompletionPath(input)

	entries, err := afero.ReadDir(d.fsys, dir)
	if err != nil {
		return nil
	}

	completions := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !shouldIncludeEntry(name, prefix) {
			continue
		}

		completions = append(completions, filepath.Join(dir, name)+string(filepath.Separator))
	}

	sort.Strings(completions)

	return completions
}

func (d *dirInput) expandHomePath(input string) string {
	if input == "" {
		return "."
	}

	if input == "~" || strings.HasPrefix(input, "~"+string(filepath.Separator)) {
		home, err := d.home()
		if err == nil {
			return filepath.Join(home, input[1:]) + trailingSeparator(input)
		}
	}

	return input
}

func trailingSeparator(input string) string {
	if len(input) > 1 && strings.HasSuffix(input, string(filepath.Separator)) {
		return string(filepath.Separator)
	}

	return ""
}

func getBaseName(path string) string {
	trimmed := strings.TrimSuffix(path, string(filepath.Separator))
	if trimmed == "" {
		return path
	}

	return filepath.Base(trimmed) + string(filepath.Separator)
}

func parseCompletionPath(input string) (dir, prefix string) {
	if strings.HasSuffix(input, string(filepath.Separator)) {
		return input, ""
	}

	return filepath.Dir(input), filepath.Base(input)
}

func shouldIncludeEntry(name, prefix string) bool {
	if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
		return false
	}

	return prefix == "" || strings.HasPrefix(name, prefix)
}
