package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/tranche/internal/domain"
)

// RenderBox wraps content in a rounded border with an optional title.
func RenderBox(title, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		Padding(1, 2)
	if title == "" {
		return box.Render(content)
	}
	return box.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
}

// RelativeDateFrom describes t relative to now: "Today", "In 3d", "2w ago".
func RelativeDateFrom(t, now time.Time) string {
	days := int(math.Round(t.Sub(now).Hours() / 24))
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days == -1:
		return "Yesterday"
	case days > 0 && days < 14:
		return fmt.Sprintf("In %dd", days)
	case days > 0 && days < 60:
		return fmt.Sprintf("In %dw", days/7)
	case days > 0:
		return fmt.Sprintf("In %dmo", days/30)
	case days > -14:
		return fmt.Sprintf("%dd ago", -days)
	case days > -60:
		return fmt.Sprintf("%dw ago", -days/7)
	default:
		return fmt.Sprintf("%dmo ago", -days/30)
	}
}

// DueLabel is the due date with a relative hint. Pending milestones turn
// yellow inside a week and red once overdue.
func DueLabel(m *domain.Milestone, now time.Time) string {
	label := fmt.Sprintf("%s (%s)", m.DueDate.Format(time.DateOnly), RelativeDateFrom(m.DueDate, now))
	switch {
	case m.IsOverdue(now):
		return StyleRed.Render(label + " OVERDUE")
	case m.State == domain.MilestonePending && m.DueDate.Sub(now) < 7*24*time.Hour:
		return StyleYellow.Render(label)
	default:
		return label
	}
}
