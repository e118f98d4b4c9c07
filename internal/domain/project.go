package domain

import (
	"fmt"
	"time"
)

// Project is a sponsor-funded escrow whose budget is paid out milestone by milestone.
type Project struct {
	ID          int64
	Name        string
	Description string
	Creator     Identity
	Sponsor     Identity

	TotalBudget    Amount
	TotalDeposited Amount
	TotalReleased  Amount
	TotalRefunded  Amount

	// CurrentMilestone is the index of the next milestone eligible for completion.
	// It equals len(Milestones) once every milestone is approved and paid.
	CurrentMilestone int
	Active           bool

	CreatedAt time.Time
	ClosedAt  *time.Time

	Milestones []Milestone
}

// EscrowBalance is the deposited amount not yet released to the creator or refunded to the sponsor.
func (p *Project) EscrowBalance() Amount {
	return p.TotalDeposited - p.TotalReleased - p.TotalRefunded
}

// RemainingBudget is how much more the sponsor may deposit.
func (p *Project) RemainingBudget() Amount {
	return p.TotalBudget - p.TotalDeposited
}

// IsFullyPaid reports whether every milestone has been approved and paid.
func (p *Project) IsFullyPaid() bool {
	return len(p.Milestones) > 0 && p.CurrentMilestone >= len(p.Milestones)
}

// Current returns the milestone at the cursor, or nil once the project is fully paid.
func (p *Project) Current() *Milestone {
	if p.CurrentMilestone < 0 || p.CurrentMilestone >= len(p.Milestones) {
		return nil
	}
	return &p.Milestones[p.CurrentMilestone]
}

// MilestoneAt returns the milestone at index or an error if the index is out of range.
func (p *Project) MilestoneAt(index int) (*Milestone, error) {
	if index < 0 || index >= len(p.Milestones) {
		return nil, fmt.Errorf("%w: milestone index %d out of range (project has %d)",
			ErrValidation, index, len(p.Milestones))
	}
	return &p.Milestones[index], nil
}

// Close deactivates the project. It is a no-op on an already inactive project.
func (p *Project) Close(now time.Time) {
	if !p.Active {
		return
	}
	p.Active = false
	p.ClosedAt = &now
}

// RequireActive returns ErrInactiveProject if the project no longer accepts mutations.
func (p *Project) RequireActive() error {
	if !p.Active {
		return fmt.Errorf("%w: project %d", ErrInactiveProject, p.ID)
	}
	return nil
}

// CheckInvariants verifies the accounting and cursor invariants. A non-nil result
// means stored state is corrupt.
func (p *Project) CheckInvariants() error {
	if p.TotalBudget <= 0 {
		return fmt.Errorf("project %d: total budget %s must be positive", p.ID, p.TotalBudget)
	}
	if p.TotalDeposited < 0 || p.TotalReleased < 0 || p.TotalRefunded < 0 {
		return fmt.Errorf("project %d: negative ledger totals", p.ID)
	}
	if p.TotalReleased+p.TotalRefunded > p.TotalDeposited {
		return fmt.Errorf("project %d: released %s + refunded %s exceeds deposited %s",
			p.ID, p.TotalReleased, p.TotalRefunded, p.TotalDeposited)
	}
	if p.TotalDeposited > p.TotalBudget {
		return fmt.Errorf("project %d: deposited %s exceeds budget %s", p.ID, p.TotalDeposited, p.TotalBudget)
	}
	if p.CurrentMilestone < 0 || p.CurrentMilestone > len(p.Milestones) {
		return fmt.Errorf("project %d: cursor %d out of range", p.ID, p.CurrentMilestone)
	}

	var sum, paid Amount
	for i, m := range p.Milestones {
		sum += m.Amount
		switch {
		case i < p.CurrentMilestone && m.State != MilestoneApprovedPaid:
			return fmt.Errorf("project %d: milestone %d is before the cursor but %s", p.ID, i, m.State)
		case i > p.CurrentMilestone && m.State != MilestonePending:
			return fmt.Errorf("project %d: milestone %d is after the cursor but %s", p.ID, i, m.State)
		case i == p.CurrentMilestone && m.State == MilestoneApprovedPaid:
			return fmt.Errorf("project %d: milestone %d at the cursor is already paid", p.ID, i)
		}
		if m.Paid() {
			paid += m.Amount
		}
	}
	if len(p.Milestones) > 0 && sum != p.TotalBudget {
		return fmt.Errorf("project %d: milestone amounts sum to %s, budget is %s", p.ID, sum, p.TotalBudget)
	}
	if paid != p.TotalReleased {
		return fmt.Errorf("project %d: paid milestones total %s, released is %s", p.ID, paid, p.TotalReleased)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate a working copy without
// touching the original.
func (p *Project) Clone() *Project {
	c := *p
	if p.ClosedAt != nil {
		t := *p.ClosedAt
		c.ClosedAt = &t
	}
	c.Milestones = make([]Milestone, len(p.Milestones))
	for i, m := range p.Milestones {
		c.Milestones[i] = m.clone()
	}
	return &c
}
