package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color styles for consistent output
var (
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(lipgloss.Color("99"))

	SubheaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("141"))

	BulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)
)

func FormatSuccess(msg string) string { return SuccessStyle.Render("✅ " + msg) }
func FormatError(msg string) string   { return ErrorStyle.Render("❌ " + msg) }
func FormatWarning(msg string) string { return WarningStyle.Render("⚠️ " + msg) }
func FormatInfo(msg string) string    { return InfoStyle.Render(msg) }
func FormatBullet(msg string) string  { return "  " + BulletStyle.Render("•") + " " + msg }

// RenderMarkdown styles a complete Markdown document line by line: headings
// and list markers are highlighted, everything else passes through.
func RenderMarkdown(text string) string {
	lines := strings.Split(Clean(text), "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case strings.HasPrefix(trimmed, "# "):
			lines[i] = HeaderStyle.Render(strings.TrimPrefix(trimmed, "# "))
		case strings.HasPrefix(trimmed, "#"):
			lines[i] = SubheaderStyle.Render(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
		case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
			indent := line[:len(line)-len(trimmed)]
			lines[i] = indent + BulletStyle.Render("•") + " " + trimmed[2:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
