package service

import (
	"context"
	"time"

	"github.com/alexanderramin/tranche/internal/domain"
)

// CreateProjectInput carries a creation request in the columnar form clients
// send: the three milestone lists are zipped by position.
type CreateProjectInput struct {
	Name                  string
	Description           string
	Sponsor               string
	MilestoneDescriptions []string
	MilestoneAmounts      []domain.Amount
	MilestoneDueDates     []time.Time
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Page selects a window of the newest-first project listing. A zero Limit
// means DefaultPageLimit.
type Page struct {
	Limit  int
	Offset int
}

type ProjectPage struct {
	Projects []*domain.Project
	Total    int
	Limit    int
	Offset   int
}

// Stats summarizes every project in the store.
type Stats struct {
	TotalProjects  int
	ActiveProjects int
	TotalDeposited domain.Amount
	TotalReleased  domain.Amount
	TotalRefunded  domain.Amount
	EscrowBalance  domain.Amount
}

// ProjectService is the only entry point for project mutations. Mutations on
// one project are serialized; each commits atomically with its events.
type ProjectService interface {
	CreateProject(ctx context.Context, caller domain.Identity, in CreateProjectInput) (int64, error)
	DepositFunds(ctx context.Context, caller domain.Identity, projectID int64, amount domain.Amount) error
	CompleteMilestone(ctx context.Context, caller domain.Identity, projectID int64, index int) error
	ApproveMilestone(ctx context.Context, caller domain.Identity, projectID int64, index int) error
	EmergencyWithdraw(ctx context.Context, caller domain.Identity, projectID int64) (domain.Amount, error)

	GetProject(ctx context.Context, projectID int64) (*domain.Project, error)
	GetMilestones(ctx context.Context, projectID int64) ([]domain.Milestone, error)
	GetProjectsByCreator(ctx context.Context, creator domain.Identity) ([]int64, error)
	GetProjectsBySponsor(ctx context.Context, sponsor domain.Identity) ([]int64, error)
	GetTotalProjects(ctx context.Context) (int, error)
	GetEscrowBalance(ctx context.Context, projectID int64) (domain.Amount, error)
	ListProjects(ctx context.Context, page Page) (*ProjectPage, error)
	GetStats(ctx context.Context) (*Stats, error)
	GetContractBalance(ctx context.Context) (domain.Amount, error)
}

// AccountService exposes the payout accounts escrow transfers credit.
type AccountService interface {
	GetAccountBalance(ctx context.Context, addr domain.Identity) (domain.Amount, error)
	GetAccount(ctx context.Context, addr domain.Identity) (*domain.Account, error)
	SetAccountRejectsFunds(ctx context.Context, addr domain.Identity, rejects bool) error
}
