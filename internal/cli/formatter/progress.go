package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/tranche/internal/domain"
)

const (
	filledBlock  = "█"
	pendingBlock = "▒"
	emptyBlock   = "░"
)

// RenderProgress renders a bar like [████░░░░]  45%, green above two
// thirds, yellow above one third, red below.
func RenderProgress(pct float64, width int) string {
	pct = min(max(pct, 0), 1)
	width = max(width, 2)

	filled := int(pct * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case pct < 0.33:
		style = StyleRed
	case pct < 0.66:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}

// RenderFunding draws a project's budget as released (solid), held in escrow
// (shaded) and not yet deposited or refunded (empty).
func RenderFunding(p *domain.Project, width int) string {
	width = max(width, 2)
	if p.TotalBudget <= 0 {
		return "[" + strings.Repeat(emptyBlock, width) + "]"
	}
	cells := func(a domain.Amount) int {
		return int(int64(a) * int64(width) / int64(p.TotalBudget))
	}
	paid := cells(p.TotalReleased)
	held := min(cells(p.TotalReleased+p.EscrowBalance())-paid, width-paid)
	rest := max(width-paid-held, 0)

	return fmt.Sprintf("[%s%s%s]",
		StyleGreen.Render(strings.Repeat(filledBlock, paid)),
		StyleYellow.Render(strings.Repeat(pendingBlock, held)),
		StyleDim.Render(strings.Repeat(emptyBlock, rest)),
	)
}
