package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/tranche/internal/domain"
)

// ProjectFilter narrows project listings. Zero values mean "no constraint".
type ProjectFilter struct {
	Creator     domain.Identity
	Sponsor     domain.Identity
	ActiveOnly  bool
	NewestFirst bool
	Limit       int
	Offset      int
}

// ProjectTotals aggregates ledger columns across every project.
type ProjectTotals struct {
	Projects       int
	ActiveProjects int
	Deposited      domain.Amount
	Released       domain.Amount
	Refunded       domain.Amount
}

// ProjectRepo stores project rows. Milestones live in MilestoneRepo; the
// Milestones field is neither written nor populated here.
type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	List(ctx context.Context, f ProjectFilter) ([]*domain.Project, error)
	Count(ctx context.Context, f ProjectFilter) (int, error)
	UpdateLedger(ctx context.Context, p *domain.Project) error
	Totals(ctx context.Context) (ProjectTotals, error)
}

type MilestoneRepo interface {
	CreateAll(ctx context.Context, projectID int64, ms []domain.Milestone) error
	ListByProject(ctx context.Context, projectID int64) ([]domain.Milestone, error)
	Update(ctx context.Context, m *domain.Milestone) error
}

// AccountRepo holds payout accounts. Transfer makes it usable as the ledger's
// funds transferer inside a unit of work.
type AccountRepo interface {
	Get(ctx context.Context, addr domain.Identity) (*domain.Account, error)
	Transfer(ctx context.Context, to domain.Identity, amount domain.Amount) error
	SetRejectsFunds(ctx context.Context, addr domain.Identity, rejects bool) error
}

type OutboxRepo interface {
	Insert(ctx context.Context, msgs ...domain.OutboxMessage) error
	GetByID(ctx context.Context, id string) (*domain.OutboxMessage, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxMessage, error)
	ListByProject(ctx context.Context, projectID int64) ([]domain.OutboxMessage, error)
	ListFailed(ctx context.Context, limit int) ([]domain.OutboxMessage, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkAttemptFailed(ctx context.Context, id string, cause string, maxAttempts int, backoff time.Duration, now time.Time) (domain.OutboxStatus, error)
	Requeue(ctx context.Context, id string, now time.Time) error
	CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error)
}
