//nolint:varnamelen // Test files use idiomatic short variable names (g, etc.)
package shared_test

import (
	"regexp"
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/repo-saves/internal/tui/shared"
)

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*[A-Za-z]") //nolint:gochecknoglobals // Test helper

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestRenderFunctions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(shared.RenderBox("test")).Should(ContainSubstring("test"))
	g.Expect(shared.RenderDim("test")).Should(ContainSubstring("test"))
	g.Expect(shared.RenderError("test")).Should(ContainSubstring("test"))
	g.Expect(shared.RenderLabel("test")).Should(ContainSubstring("test"))
	g.Expect(shared.RenderSubtitle("test")).Should(ContainSubstring("test"))
	g.Expect(shared.RenderSuccess("test")).Should(ContainSubstring("test"))
	g.Expect(shared.RenderTitle("test")).Should(ContainSubstring("test"))
	g.Expect(shared.RenderWarning("test")).Should(ContainSubstring("test"))
}

func TestStyles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(shared.ModalStyle().Render("sure?")).Should(ContainSubstring("sure?"))
	g.Expect(shared.PaneStyle(true).Render("saves")).Should(ContainSubstring("saves"))
	g.Expect(shared.PaneStyle(false).Render("saves")).Should(ContainSubstring("saves"))
	g.Expect(shared.SelectedItemStyle().Render("row")).Should(ContainSubstring("row"))
	g.Expect(shared.ItemStyle().Render("row")).Should(ContainSubstring("row"))

	g.Expect(shared.AccentColor()).ShouldNot(BeEmpty())
	g.Expect(shared.DimColor()).ShouldNot(BeEmpty())
	g.Expect(shared.ErrorColor()).ShouldNot(BeEmpty())
	g.Expect(shared.HighlightColor()).ShouldNot(BeEmpty())
	g.Expect(shared.NormalColor()).ShouldNot(BeEmpty())
	g.Expect(shared.PrimaryColor()).ShouldNot(BeEmpty())
	g.Expect(shared.SubtleColor()).ShouldNot(BeEmpty())
	g.Expect(shared.SuccessColor()).ShouldNot(BeEmpty())
	g.Expect(shared.WarningColor()).ShouldNot(BeEmpty())
}

func TestRenderWidgetBox(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	result := stripANSI(shared.RenderWidgetBox("Backups", "SAVE_A", 40))

	g.Expect(result).To(ContainSubstring("Backups"))
	g.Expect(result).To(ContainSubstring("SAVE_A"))
}

func TestRenderTwoColumnLayout(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	result := stripANSI(shared.RenderTwoColumnLayout("left side", "right side", 60, 0))

	g.Expect(result).To(MatchRegexp(`left side\s+right side`))
}
