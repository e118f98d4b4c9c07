package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/service"
	"github.com/alexanderramin/tranche/internal/testutil"
)

func TestRenderTable_AlignsColumns(t *testing.T) {
	out := RenderTable([]string{"NAME", "AMOUNT"}, [][]string{
		{"alpha", "1.5"},
		{"b", "120"},
	}, 1)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, lipgloss.Width(lines[2]), lipgloss.Width(lines[3]))
	assert.True(t, strings.HasSuffix(lines[2], "   1.5"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], "b    "), lines[3])
	assert.Empty(t, RenderTable(nil, nil))
}

func TestRenderProgress_Clamps(t *testing.T) {
	assert.Contains(t, RenderProgress(-1, 10), "  0%")
	assert.Contains(t, RenderProgress(2, 10), "100%")
	assert.Equal(t, 10, strings.Count(RenderProgress(0.5, 10), filledBlock)+strings.Count(RenderProgress(0.5, 10), emptyBlock))
}

func TestRenderFunding_Segments(t *testing.T) {
	p := testutil.NewTestProject(testutil.WithDeposited("4"), testutil.WithPaidThrough(1))
	bar := RenderFunding(p, 10)
	assert.Equal(t, 2, strings.Count(bar, filledBlock), bar)
	assert.Equal(t, 6, strings.Count(bar, pendingBlock), bar)
	assert.Equal(t, 2, strings.Count(bar, emptyBlock), bar)
}

func TestRelativeDateFrom(t *testing.T) {
	now := testutil.Epoch
	cases := map[time.Duration]string{
		0:                     "Today",
		24 * time.Hour:        "Tomorrow",
		-24 * time.Hour:       "Yesterday",
		5 * 24 * time.Hour:    "In 5d",
		21 * 24 * time.Hour:   "In 3w",
		90 * 24 * time.Hour:   "In 3mo",
		-10 * 24 * time.Hour:  "10d ago",
		-120 * 24 * time.Hour: "4mo ago",
	}
	for d, want := range cases {
		assert.Equal(t, want, RelativeDateFrom(now.Add(d), now), d.String())
	}
}

func TestDueLabel_Overdue(t *testing.T) {
	m := &domain.Milestone{DueDate: testutil.Epoch, State: domain.MilestonePending}
	assert.Contains(t, DueLabel(m, testutil.Epoch.Add(48*time.Hour)), "OVERDUE")

	m.State = domain.MilestoneApprovedPaid
	assert.NotContains(t, DueLabel(m, testutil.Epoch.Add(48*time.Hour)), "OVERDUE")
}

func TestFormatProjectCard(t *testing.T) {
	p := testutil.NewTestProject(testutil.WithDeposited("5"), testutil.WithPaidThrough(2))
	out := FormatProjectCard(p, testutil.Epoch)

	assert.Contains(t, out, "#1 Blockchain Development Project")
	assert.Contains(t, out, "ACTIVE")
	assert.Contains(t, out, string(testutil.Sponsor))
	assert.Contains(t, out, "MILESTONES")
	assert.Equal(t, 2, strings.Count(out, "● PAID"))
	assert.Equal(t, 2, strings.Count(out, "● PENDING"))
}

func TestProjectBadge(t *testing.T) {
	assert.Contains(t, ProjectBadge(testutil.NewTestProject()), "ACTIVE")
	assert.Contains(t, ProjectBadge(testutil.NewTestProject(testutil.Inactive())), "WITHDRAWN")
	done := testutil.NewTestProject(testutil.WithDeposited("5"), testutil.WithPaidThrough(4))
	assert.Contains(t, ProjectBadge(done), "COMPLETED")
}

func TestFormatProjectList(t *testing.T) {
	assert.Contains(t, FormatProjectList(nil, 0), "No projects found.")

	ps := []*domain.Project{testutil.NewTestProject(), testutil.NewTestProject(testutil.WithID(2))}
	out := FormatProjectList(ps, 7)
	assert.Contains(t, out, "BUDGET")
	assert.Contains(t, out, "0/4")
	assert.Contains(t, out, "showing 2 of 7")
}

func TestFormatStatsAndOutbox(t *testing.T) {
	out := FormatStats(&service.Stats{TotalProjects: 3, ActiveProjects: 2, EscrowBalance: domain.MustParseAmount("1.5")}, domain.MustParseAmount("1.5"))
	assert.Contains(t, out, "OVERVIEW")
	assert.Contains(t, out, "1.5")

	out = FormatOutbox(map[domain.OutboxStatus]int{domain.OutboxPending: 2}, []domain.OutboxMessage{
		{ID: "m-1", RoutingKey: "project.funds_deposited", Attempts: 5, LastError: "broker down"},
	})
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "broker down")
}

