package domain

import (
	"strings"
	"time"
	"unicode"
)

// Event is a committed state change reported to auditors and UIs.
// Payload is one of the *Payload structs below.
type Event struct {
	Type       EventType
	ProjectID  int64
	OccurredAt time.Time
	Payload    any
}

// RoutingKey returns the topic key used on the message bus, e.g. "project.funds_deposited".
func (e Event) RoutingKey() string {
	name := strings.TrimPrefix(string(e.Type), "Project")
	if name == "" {
		name = string(e.Type)
	}
	var b strings.Builder
	b.WriteString("project.")
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

type ProjectCreatedPayload struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Creator     Identity `json:"creator"`
	Sponsor     Identity `json:"sponsor"`
	TotalBudget Amount   `json:"total_budget"`
}

type FundsDepositedPayload struct {
	ID        int64    `json:"id"`
	Depositor Identity `json:"depositor"`
	Amount    Amount   `json:"amount"`
	NewTotal  Amount   `json:"new_total"`
}

type MilestoneCompletedPayload struct {
	ID          int64  `json:"id"`
	Index       int    `json:"index"`
	Description string `json:"description"`
}

type MilestoneApprovedPayload struct {
	ID     int64  `json:"id"`
	Index  int    `json:"index"`
	Amount Amount `json:"amount"`
}

type FundsReleasedPayload struct {
	ID        int64    `json:"id"`
	Recipient Identity `json:"recipient"`
	Amount    Amount   `json:"amount"`
	Index     int      `json:"index"`
}

type ProjectCompletedPayload struct {
	ID int64 `json:"id"`
}

type FundsRefundedPayload struct {
	ID        int64    `json:"id"`
	Recipient Identity `json:"recipient"`
	Amount    Amount   `json:"amount"`
}

func NewProjectCreated(p *Project, now time.Time) Event {
	return Event{Type: EventProjectCreated, ProjectID: p.ID, OccurredAt: now, Payload: ProjectCreatedPayload{
		ID: p.ID, Name: p.Name, Creator: p.Creator, Sponsor: p.Sponsor, TotalBudget: p.TotalBudget,
	}}
}

func NewFundsDeposited(p *Project, depositor Identity, amount Amount, now time.Time) Event {
	return Event{Type: EventFundsDeposited, ProjectID: p.ID, OccurredAt: now, Payload: FundsDepositedPayload{
		ID: p.ID, Depositor: depositor, Amount: amount, NewTotal: p.TotalDeposited,
	}}
}

func NewMilestoneCompleted(p *Project, m *Milestone, now time.Time) Event {
	return Event{Type: EventMilestoneCompleted, ProjectID: p.ID, OccurredAt: now, Payload: MilestoneCompletedPayload{
		ID: p.ID, Index: m.Index, Description: m.Description,
	}}
}

func NewMilestoneApproved(p *Project, m *Milestone, now time.Time) Event {
	return Event{Type: EventMilestoneApproved, ProjectID: p.ID, OccurredAt: now, Payload: MilestoneApprovedPayload{
		ID: p.ID, Index: m.Index, Amount: m.Amount,
	}}
}

func NewFundsReleased(p *Project, m *Milestone, now time.Time) Event {
	return Event{Type: EventFundsReleased, ProjectID: p.ID, OccurredAt: now, Payload: FundsReleasedPayload{
		ID: p.ID, Recipient: p.Creator, Amount: m.Amount, Index: m.Index,
	}}
}

func NewProjectCompleted(p *Project, now time.Time) Event {
	return Event{Type: EventProjectCompleted, ProjectID: p.ID, OccurredAt: now, Payload: ProjectCompletedPayload{ID: p.ID}}
}

func NewFundsRefunded(p *Project, amount Amount, now time.Time) Event {
	return Event{Type: EventFundsRefunded, ProjectID: p.ID, OccurredAt: now, Payload: FundsRefundedPayload{
		ID: p.ID, Recipient: p.Sponsor, Amount: amount,
	}}
}
