// Package milestone drives a project's milestones through
// pending -> completed -> approved_paid, strictly in index order.
package milestone

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/tranche/internal/access"
	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/ledger"
)

// Complete marks the current milestone completed on behalf of the creator.
// On error p is unchanged.
func Complete(p *domain.Project, index int, caller domain.Identity, now time.Time) (domain.Event, error) {
	if err := access.Authorize(p, caller, domain.RoleCreator); err != nil {
		return domain.Event{}, fmt.Errorf("complete milestone: %w", err)
	}
	if err := p.RequireActive(); err != nil {
		return domain.Event{}, err
	}
	m, err := current(p, index)
	if err != nil {
		return domain.Event{}, err
	}
	if m.State != domain.MilestonePending {
		return domain.Event{}, fmt.Errorf("%w: milestone %d of project %d is already %s",
			domain.ErrOutOfOrder, index, p.ID, m.State)
	}

	m.State = domain.MilestoneCompleted
	m.CompletedAt = &now
	return domain.NewMilestoneCompleted(p, m, now), nil
}

// Approve approves the completed current milestone on behalf of the sponsor,
// pays its amount to the creator and advances the cursor. Approving the last
// milestone closes the project.
//
// Events are MilestoneApproved, FundsReleased and, for the last milestone,
// ProjectCompleted. On error p is unchanged.
func Approve(ctx context.Context, p *domain.Project, index int, caller domain.Identity, t ledger.Transferer, now time.Time) ([]domain.Event, error) {
	if err := access.Authorize(p, caller, domain.RoleSponsor); err != nil {
		return nil, fmt.Errorf("approve milestone: %w", err)
	}
	if err := p.RequireActive(); err != nil {
		return nil, err
	}
	m, err := p.MilestoneAt(index)
	if err != nil {
		return nil, err
	}
	if m.State != domain.MilestoneCompleted {
		return nil, fmt.Errorf("%w: milestone %d of project %d is %s, not completed",
			domain.ErrOutOfOrder, index, p.ID, m.State)
	}
	if index != p.CurrentMilestone {
		return nil, fmt.Errorf("%w: milestone %d is not the current milestone %d of project %d",
			domain.ErrOutOfOrder, index, p.CurrentMilestone, p.ID)
	}

	if err := ledger.Release(ctx, p, m.Amount, p.Creator, t); err != nil {
		return nil, err
	}

	m.State = domain.MilestoneApprovedPaid
	m.ApprovedAt = &now
	p.CurrentMilestone++

	events := []domain.Event{
		domain.NewMilestoneApproved(p, m, now),
		domain.NewFundsReleased(p, m, now),
	}
	if p.IsFullyPaid() {
		p.Close(now)
		events = append(events, domain.NewProjectCompleted(p, now))
	}
	return events, nil
}

// IsOverdue reports whether m is past due and still pending. Lateness never
// blocks a transition.
func IsOverdue(m *domain.Milestone, now time.Time) bool {
	return m.IsOverdue(now)
}

// Overdue lists the project's overdue milestones.
func Overdue(p *domain.Project, now time.Time) []domain.Milestone {
	var out []domain.Milestone
	for i := range p.Milestones {
		if p.Milestones[i].IsOverdue(now) {
			out = append(out, p.Milestones[i])
		}
	}
	return out
}

func current(p *domain.Project, index int) (*domain.Milestone, error) {
	m, err := p.MilestoneAt(index)
	if err != nil {
		return nil, err
	}
	if index != p.CurrentMilestone {
		return nil, fmt.Errorf("%w: milestone %d cannot be completed before milestone %d of project %d",
			domain.ErrOutOfOrder, index, p.CurrentMilestone, p.ID)
	}
	return m, nil
}
