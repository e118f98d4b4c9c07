package domain

import "time"

// Milestone is one amount-bound tranche of a project. Its position in
// Project.Milestones is its index and never changes.
type Milestone struct {
	ProjectID   int64
	Index       int
	Description string
	Amount      Amount
	DueDate     time.Time
	State       MilestoneState

	CompletedAt *time.Time
	ApprovedAt  *time.Time
}

func (m *Milestone) Completed() bool {
	return m.State == MilestoneCompleted || m.State == MilestoneApprovedPaid
}

func (m *Milestone) Approved() bool {
	return m.State == MilestoneApprovedPaid
}

// Paid is always equal to Approved: approval and payment are one transition.
func (m *Milestone) Paid() bool {
	return m.State == MilestoneApprovedPaid
}

// IsOverdue reports whether the due date has passed while the milestone is still
// pending. It is informational only and never gates a transition.
func (m *Milestone) IsOverdue(now time.Time) bool {
	return m.State == MilestonePending && now.After(m.DueDate)
}

func (m Milestone) clone() Milestone {
	if m.CompletedAt != nil {
		t := *m.CompletedAt
		m.CompletedAt = &t
	}
	if m.ApprovedAt != nil {
		t := *m.ApprovedAt
		m.ApprovedAt = &t
	}
	return m
}
