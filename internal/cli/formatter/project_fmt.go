package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/service"
)

const fundingBarWidth = 24

// FormatProjectCard renders one project with its ledger and milestones.
func FormatProjectCard(p *domain.Project, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Bold(fmt.Sprintf("#%d %s", p.ID, p.Name)), ProjectBadge(p))
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n", Dim(p.Description))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Creator:    %s\n", p.Creator)
	fmt.Fprintf(&b, "Sponsor:    %s\n", p.Sponsor)
	fmt.Fprintf(&b, "Created:    %s\n", p.CreatedAt.Format(time.DateOnly))
	if p.ClosedAt != nil {
		fmt.Fprintf(&b, "Closed:     %s\n", p.ClosedAt.Format(time.DateOnly))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Budget:     %s\n", p.TotalBudget)
	fmt.Fprintf(&b, "Deposited:  %s\n", p.TotalDeposited)
	fmt.Fprintf(&b, "Released:   %s\n", p.TotalReleased)
	if p.TotalRefunded > 0 {
		fmt.Fprintf(&b, "Refunded:   %s\n", p.TotalRefunded)
	}
	fmt.Fprintf(&b, "Escrow:     %s\n", StyleYellow.Render(p.EscrowBalance().String()))
	fmt.Fprintf(&b, "Funding:    %s\n", RenderFunding(p, fundingBarWidth))
	fmt.Fprintf(&b, "Milestones: %s\n", RenderProgress(milestoneProgress(p), fundingBarWidth))

	body := RenderBox("project", strings.TrimRight(b.String(), "\n"))
	if len(p.Milestones) == 0 {
		return body + "\n"
	}
	return body + "\n\n" + FormatMilestones(p.Milestones, p.CurrentMilestone, now)
}

func milestoneProgress(p *domain.Project) float64 {
	if len(p.Milestones) == 0 {
		return 0
	}
	return float64(p.CurrentMilestone) / float64(len(p.Milestones))
}

// FormatMilestones renders the milestone table. current marks the next
// milestone eligible for completion.
func FormatMilestones(ms []domain.Milestone, current int, now time.Time) string {
	rows := make([][]string, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		marker := " "
		if m.Index == current {
			marker = StyleHeader.Render("▸")
		}
		rows = append(rows, []string{
			marker + strconv.Itoa(m.Index),
			m.Description,
			m.Amount.String(),
			DueLabel(m, now),
			StateBadge(m.State),
		})
	}
	return Header("milestones") + "\n" +
		RenderTable([]string{"#", "DESCRIPTION", "AMOUNT", "DUE", "STATE"}, rows, 2)
}

// FormatProjectList renders a compact listing. total is the size of the
// whole result set, which may exceed len(ps) when paging.
func FormatProjectList(ps []*domain.Project, total int) string {
	if len(ps) == 0 {
		return Dim("No projects found.") + "\n"
	}
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Creator.Short(),
			p.Sponsor.Short(),
			p.TotalBudget.String(),
			p.EscrowBalance().String(),
			fmt.Sprintf("%d/%d", p.CurrentMilestone, len(p.Milestones)),
			ProjectBadge(p),
		})
	}
	out := RenderTable([]string{"ID", "NAME", "CREATOR", "SPONSOR", "BUDGET", "ESCROW", "PAID", "STATUS"}, rows, 4, 5)
	if total > len(ps) {
		out += Dim(fmt.Sprintf("showing %d of %d", len(ps), total)) + "\n"
	}
	return out
}

// FormatStats renders the store-wide overview.
func FormatStats(s *service.Stats, contractBalance domain.Amount) string {
	rows := [][]string{
		{"Projects", strconv.Itoa(s.TotalProjects)},
		{"Active", strconv.Itoa(s.ActiveProjects)},
		{"Deposited", s.TotalDeposited.String()},
		{"Released", s.TotalReleased.String()},
		{"Refunded", s.TotalRefunded.String()},
		{"In escrow", s.EscrowBalance.String()},
		{"Contract balance", contractBalance.String()},
	}
	return Header("overview") + "\n" + RenderTable([]string{"METRIC", "VALUE"}, rows, 1)
}

// FormatOutbox renders per-status counts followed by the failed messages.
func FormatOutbox(counts map[domain.OutboxStatus]int, failed []domain.OutboxMessage) string {
	var b strings.Builder
	b.WriteString(Header("outbox") + "\n")
	for _, s := range []domain.OutboxStatus{domain.OutboxPending, domain.OutboxSent, domain.OutboxFailed} {
		fmt.Fprintf(&b, "%-8s %d\n", OutboxBadge(s), counts[s])
	}
	if len(failed) == 0 {
		return b.String()
	}
	rows := make([][]string, 0, len(failed))
	for _, m := range failed {
		rows = append(rows, []string{m.ID, m.RoutingKey, strconv.Itoa(m.Attempts), m.LastError})
	}
	b.WriteString("\n" + RenderTable([]string{"ID", "ROUTING KEY", "ATTEMPTS", "LAST ERROR"}, rows, 2))
	return b.String()
}
