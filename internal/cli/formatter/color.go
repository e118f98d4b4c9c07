package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/tranche/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StateBadge renders a milestone state such as "● PAID".
func StateBadge(s domain.MilestoneState) string {
	switch s {
	case domain.MilestoneApprovedPaid:
		return StyleGreen.Render("● PAID")
	case domain.MilestoneCompleted:
		return StyleYellow.Render("● AWAITING APPROVAL")
	case domain.MilestonePending:
		return StyleBlue.Render("● PENDING")
	default:
		return StyleDim.Render("● UNKNOWN")
	}
}

// ProjectBadge renders ACTIVE, COMPLETED or WITHDRAWN. A project closed before
// every milestone was paid was withdrawn.
func ProjectBadge(p *domain.Project) string {
	switch {
	case p.Active:
		return StyleGreen.Render("ACTIVE")
	case p.IsFullyPaid():
		return StylePurple.Render("COMPLETED")
	default:
		return StyleRed.Render("WITHDRAWN")
	}
}

func OutboxBadge(s domain.OutboxStatus) string {
	switch s {
	case domain.OutboxSent:
		return StyleGreen.Render(string(s))
	case domain.OutboxFailed:
		return StyleRed.Render(string(s))
	default:
		return StyleYellow.Render(string(s))
	}
}

// Header renders an upper-cased section title with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(strings.Repeat("─", len(upper))))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
