package service

import (
	"context"

	"github.com/alexanderramin/tranche/internal/db"
	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/events"
	"github.com/alexanderramin/tranche/internal/repository"
)

// txStore groups the repositories bound to one transaction.
type txStore struct {
	projects   repository.ProjectRepo
	milestones repository.MilestoneRepo
	accounts   repository.AccountRepo
	outbox     repository.OutboxRepo
}

func newTxStore(tx db.DBTX) txStore {
	return txStore{
		projects:   repository.NewSQLiteProjectRepo(tx),
		milestones: repository.NewSQLiteMilestoneRepo(tx),
		accounts:   repository.NewSQLiteAccountRepo(tx),
		outbox:     repository.NewSQLiteOutboxRepo(tx),
	}
}

// loadProject reads a project together with its milestones.
func (st txStore) loadProject(ctx context.Context, id int64) (*domain.Project, error) {
	p, err := st.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Milestones, err = st.milestones.ListByProject(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (st txStore) appendEvents(ctx context.Context, evs []domain.Event) error {
	if len(evs) == 0 {
		return nil
	}
	msgs, err := events.NewOutboxMessages(evs)
	if err != nil {
		return err
	}
	return st.outbox.Insert(ctx, msgs...)
}
