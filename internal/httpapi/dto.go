package httpapi

import (
	"time"

	"github.com/alexanderramin/tranche/internal/domain"
)

type milestoneResponse struct {
	Index       int           `json:"index"`
	Description string        `json:"description"`
	Amount      domain.Amount `json:"amount"`
	DueDate     time.Time     `json:"due_date"`
	State       string        `json:"state"`
	Completed   bool          `json:"completed"`
	Approved    bool          `json:"approved"`
	Paid        bool          `json:"paid"`
	Overdue     bool          `json:"overdue"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	ApprovedAt  *time.Time    `json:"approved_at,omitempty"`
}

type projectResponse struct {
	ID               int64               `json:"id"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Creator          domain.Identity     `json:"creator"`
	Sponsor          domain.Identity     `json:"sponsor"`
	TotalBudget      domain.Amount       `json:"total_budget"`
	TotalDeposited   domain.Amount       `json:"total_deposited"`
	TotalReleased    domain.Amount       `json:"total_released"`
	TotalRefunded    domain.Amount       `json:"total_refunded"`
	EscrowBalance    domain.Amount       `json:"escrow_balance"`
	CurrentMilestone int                 `json:"current_milestone"`
	Active           bool                `json:"active"`
	CreatedAt        time.Time           `json:"created_at"`
	ClosedAt         *time.Time          `json:"closed_at,omitempty"`
	Milestones       []milestoneResponse `json:"milestones"`
}

func toProjectResponse(p *domain.Project, now time.Time) projectResponse {
	resp := projectResponse{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Creator:          p.Creator,
		Sponsor:          p.Sponsor,
		TotalBudget:      p.TotalBudget,
		TotalDeposited:   p.TotalDeposited,
		TotalReleased:    p.TotalReleased,
		TotalRefunded:    p.TotalRefunded,
		EscrowBalance:    p.EscrowBalance(),
		CurrentMilestone: p.CurrentMilestone,
		Active:           p.Active,
		CreatedAt:        p.CreatedAt,
		ClosedAt:         p.ClosedAt,
		Milestones:       toMilestoneResponses(p.Milestones, now),
	}
	return resp
}

func toMilestoneResponses(ms []domain.Milestone, now time.Time) []milestoneResponse {
	out := make([]milestoneResponse, len(ms))
	for i := range ms {
		m := &ms[i]
		out[i] = milestoneResponse{
			Index:       m.Index,
			Description: m.Description,
			Amount:      m.Amount,
			DueDate:     m.DueDate,
			State:       string(m.State),
			Completed:   m.Completed(),
			Approved:    m.Approved(),
			Paid:        m.Paid(),
			Overdue:     m.IsOverdue(now),
			CompletedAt: m.CompletedAt,
			ApprovedAt:  m.ApprovedAt,
		}
	}
	return out
}

type createProjectRequest struct {
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	Sponsor               string          `json:"sponsor"`
	MilestoneDescriptions []string        `json:"milestone_descriptions"`
	MilestoneAmounts      []domain.Amount `json:"milestone_amounts"`
	MilestoneDueDates     []time.Time     `json:"milestone_due_dates"`
}

type depositRequest struct {
	Amount domain.Amount `json:"amount"`
}

type statsResponse struct {
	TotalProjects  int           `json:"total_projects"`
	ActiveProjects int           `json:"active_projects"`
	TotalDeposited domain.Amount `json:"total_deposited"`
	TotalReleased  domain.Amount `json:"total_released"`
	TotalRefunded  domain.Amount `json:"total_refunded"`
	EscrowBalance  domain.Amount `json:"escrow_balance"`
}
