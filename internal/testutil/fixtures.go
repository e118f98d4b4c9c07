package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/tranche/internal/domain"
)

// Well-known parties used across tests.
var (
	Creator  = domain.Identity("0x1111111111111111111111111111111111111111")
	Sponsor  = domain.Identity("0x2222222222222222222222222222222222222222")
	Stranger = domain.Identity("0x3333333333333333333333333333333333333333")
)

// Epoch is the fixed "now" test projects are created at.
var Epoch = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Request options
type RequestOption func(*domain.NewProject)

func WithParties(creator, sponsor domain.Identity) RequestOption {
	return func(n *domain.NewProject) {
		n.Creator = creator
		n.Sponsor = sponsor
	}
}

func WithName(name string) RequestOption {
	return func(n *domain.NewProject) {
		n.Name = name
	}
}

// WithAmounts replaces the milestones with one per amount, due 15 days apart
// so that twenty milestones still fit inside the one-year horizon.
func WithAmounts(amounts ...string) RequestOption {
	return func(n *domain.NewProject) {
		n.Milestones = make([]domain.MilestoneSpec, len(amounts))
		for i, a := range amounts {
			n.Milestones[i] = domain.MilestoneSpec{
				Description: fmt.Sprintf("Milestone %d", i+1),
				Amount:      domain.MustParseAmount(a),
				DueDate:     Epoch.AddDate(0, 0, 15*(i+1)),
			}
		}
	}
}

func WithDueDate(index int, due time.Time) RequestOption {
	return func(n *domain.NewProject) {
		n.Milestones[index].DueDate = due
	}
}

// NewProjectRequest returns a valid four-milestone request (1.0, 2.0, 1.5, 0.5)
// created by Creator and sponsored by Sponsor.
func NewProjectRequest(opts ...RequestOption) domain.NewProject {
	n := domain.NewProject{
		Creator:     Creator,
		Sponsor:     Sponsor,
		Name:        "Blockchain Development Project",
		Description: "Building a DeFi platform",
		Milestones: []domain.MilestoneSpec{
			{Description: "Project Setup and Planning", Amount: domain.MustParseAmount("1.0"), DueDate: Epoch.AddDate(0, 0, 30)},
			{Description: "Smart Contract Development", Amount: domain.MustParseAmount("2.0"), DueDate: Epoch.AddDate(0, 0, 60)},
			{Description: "Frontend Development", Amount: domain.MustParseAmount("1.5"), DueDate: Epoch.AddDate(0, 0, 90)},
			{Description: "Testing and Deployment", Amount: domain.MustParseAmount("0.5"), DueDate: Epoch.AddDate(0, 0, 120)},
		},
	}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// Project options
type ProjectOption func(*domain.Project)

func WithID(id int64) ProjectOption {
	return func(p *domain.Project) {
		p.ID = id
		for i := range p.Milestones {
			p.Milestones[i].ProjectID = id
		}
	}
}

func WithDeposited(a string) ProjectOption {
	return func(p *domain.Project) {
		p.TotalDeposited = domain.MustParseAmount(a)
	}
}

// WithPaidThrough marks milestones [0, n) approved and paid, moving the
// cursor and released total to match. Deposits are raised if needed.
func WithPaidThrough(n int) ProjectOption {
	return func(p *domain.Project) {
		for i := 0; i < n; i++ {
			at := Epoch
			p.Milestones[i].State = domain.MilestoneApprovedPaid
			p.Milestones[i].CompletedAt = &at
			p.Milestones[i].ApprovedAt = &at
			p.TotalReleased += p.Milestones[i].Amount
		}
		p.CurrentMilestone = n
		if p.TotalDeposited < p.TotalReleased {
			p.TotalDeposited = p.TotalReleased
		}
		if n == len(p.Milestones) {
			p.Close(Epoch)
		}
	}
}

// WithCurrentCompleted marks the milestone at the cursor completed.
func WithCurrentCompleted() ProjectOption {
	return func(p *domain.Project) {
		at := Epoch
		p.Milestones[p.CurrentMilestone].State = domain.MilestoneCompleted
		p.Milestones[p.CurrentMilestone].CompletedAt = &at
	}
}

func Inactive() ProjectOption {
	return func(p *domain.Project) {
		p.Close(Epoch)
	}
}

// NewTestProject builds an in-memory project from NewProjectRequest() and
// applies opts in order. It panics if the request is invalid.
func NewTestProject(opts ...ProjectOption) *domain.Project {
	p, err := NewProjectRequest().Build(Epoch)
	if err != nil {
		panic(err)
	}
	p.ID = 1
	for i := range p.Milestones {
		p.Milestones[i].ProjectID = 1
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}
