package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/tranche/internal/access"
	"github.com/alexanderramin/tranche/internal/db"
	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/events"
	"github.com/alexanderramin/tranche/internal/ledger"
	"github.com/alexanderramin/tranche/internal/lock"
	"github.com/alexanderramin/tranche/internal/milestone"
	"github.com/alexanderramin/tranche/internal/repository"
)

type projectService struct {
	uow      db.UnitOfWork
	reads    db.UnitOfWork
	locker   lock.Locker
	sink     events.Sink
	now      func() time.Time
	observer UseCaseObserver
}

// Option configures a ProjectService.
type Option func(*projectService)

// WithLocker replaces the default in-process KeyedMutex, e.g. with a
// RedisLocker when several processes share one database.
func WithLocker(l lock.Locker) Option {
	return func(s *projectService) { s.locker = l }
}

// WithSink registers an in-process sink notified after each commit.
func WithSink(sink events.Sink) Option {
	return func(s *projectService) {
		if sink == nil {
			return
		}
		if existing, ok := s.sink.(events.MultiSink); ok {
			s.sink = append(existing, sink)
			return
		}
		s.sink = events.MultiSink{s.sink, sink}
	}
}

// WithReadUnitOfWork routes read-only queries through a separate unit of
// work, typically one backed by db.OpenReadDB, so they do not queue behind
// writers holding the write lock.
func WithReadUnitOfWork(uow db.UnitOfWork) Option {
	return func(s *projectService) { s.reads = uow }
}

func WithClock(now func() time.Time) Option {
	return func(s *projectService) { s.now = now }
}

func WithObservers(observers ...UseCaseObserver) Option {
	return func(s *projectService) { s.observer = useCaseObserverOrNoop(observers) }
}

func NewProjectService(uow db.UnitOfWork, opts ...Option) ProjectService {
	s := &projectService{
		uow:      uow,
		locker:   lock.NewKeyedMutex(),
		sink:     events.NopSink{},
		now:      func() time.Time { return time.Now().UTC() },
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reads == nil {
		s.reads = uow
	}
	return s
}

func (s *projectService) CreateProject(ctx context.Context, caller domain.Identity, in CreateProjectInput) (id int64, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"creator":    caller.String(),
		"milestones": len(in.MilestoneDescriptions),
	}
	defer func() {
		fields["project_id"] = id
		s.observe(ctx, "create-project", startedAt, err, fields)
	}()

	now := s.now()
	p, err := in.build(caller, now)
	if err != nil {
		return 0, err
	}

	var evs []domain.Event
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := newTxStore(tx)
		if err := st.projects.Create(ctx, p); err != nil {
			return err
		}
		for i := range p.Milestones {
			p.Milestones[i].ProjectID = p.ID
		}
		if err := st.milestones.CreateAll(ctx, p.ID, p.Milestones); err != nil {
			return err
		}
		evs = []domain.Event{domain.NewProjectCreated(p, now)}
		return st.appendEvents(ctx, evs)
	})
	if err != nil {
		return 0, fmt.Errorf("creating project: %w", err)
	}
	s.sink.Publish(ctx, evs)
	return p.ID, nil
}

// build turns the columnar input into an unsaved project, reporting every
// problem at once. Mismatched milestone lists stop validation early since the
// milestones cannot be paired.
func (in CreateProjectInput) build(caller domain.Identity, now time.Time) (*domain.Project, error) {
	v := &domain.ValidationError{}
	var sponsor domain.Identity
	sponsorUnparsed := false
	if in.Sponsor != "" {
		parsed, err := domain.ParseIdentity(in.Sponsor)
		if err != nil {
			v.Add("sponsor: " + err.Error())
			sponsorUnparsed = true
		}
		sponsor = parsed
	}

	specs, err := domain.ZipMilestoneSpecs(in.MilestoneDescriptions, in.MilestoneAmounts, in.MilestoneDueDates)
	if err != nil {
		mergeProblems(v, err)
		return nil, v
	}

	req := domain.NewProject{
		Creator:     caller,
		Sponsor:     sponsor,
		Name:        in.Name,
		Description: in.Description,
		Milestones:  specs,
	}
	if err := req.Validate(now); err != nil {
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		for _, p := range verr.Problems {
			// the parse error above already names the sponsor
			if sponsorUnparsed && p == domain.SponsorRequiredProblem {
				continue
			}
			v.Add(p)
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return req.Build(now)
}

func mergeProblems(v *domain.ValidationError, err error) bool {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	v.Problems = append(v.Problems, verr.Problems...)
	return true
}

func (s *projectService) DepositFunds(ctx context.Context, caller domain.Identity, projectID int64, amount domain.Amount) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observe(ctx, "deposit-funds", startedAt, err, map[string]any{
			"project_id": projectID,
			"caller":     caller.String(),
			"amount":     amount.String(),
		})
	}()

	err = s.mutate(ctx, projectID, func(ctx context.Context, st txStore, p *domain.Project, now time.Time) ([]domain.Event, error) {
		if err := access.Authorize(p, caller, domain.RoleSponsor); err != nil {
			return nil, fmt.Errorf("deposit funds: %w", err)
		}
		if err := p.RequireActive(); err != nil {
			return nil, err
		}
		if err := ledger.Deposit(p, amount); err != nil {
			return nil, err
		}
		return []domain.Event{domain.NewFundsDeposited(p, caller, amount, now)}, nil
	})
	return err
}

func (s *projectService) CompleteMilestone(ctx context.Context, caller domain.Identity, projectID int64, index int) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observe(ctx, "complete-milestone", startedAt, err, map[string]any{
			"project_id": projectID,
			"caller":     caller.String(),
			"index":      index,
		})
	}()

	err = s.mutate(ctx, projectID, func(ctx context.Context, st txStore, p *domain.Project, now time.Time) ([]domain.Event, error) {
		ev, err := milestone.Complete(p, index, caller, now)
		if err != nil {
			return nil, err
		}
		if err := st.milestones.Update(ctx, &p.Milestones[index]); err != nil {
			return nil, err
		}
		return []domain.Event{ev}, nil
	})
	return err
}

func (s *projectService) ApproveMilestone(ctx context.Context, caller domain.Identity, projectID int64, index int) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observe(ctx, "approve-milestone", startedAt, err, map[string]any{
			"project_id": projectID,
			"caller":     caller.String(),
			"index":      index,
		})
	}()

	err = s.mutate(ctx, projectID, func(ctx context.Context, st txStore, p *domain.Project, now time.Time) ([]domain.Event, error) {
		evs, err := milestone.Approve(ctx, p, index, caller, st.accounts, now)
		if err != nil {
			return nil, err
		}
		if err := st.milestones.Update(ctx, &p.Milestones[index]); err != nil {
			return nil, err
		}
		return evs, nil
	})
	return err
}

func (s *projectService) EmergencyWithdraw(ctx context.Context, caller domain.Identity, projectID int64) (refunded domain.Amount, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observe(ctx, "emergency-withdraw", startedAt, err, map[string]any{
			"project_id": projectID,
			"caller":     caller.String(),
			"refunded":   refunded.String(),
		})
	}()

	err = s.mutate(ctx, projectID, func(ctx context.Context, st txStore, p *domain.Project, now time.Time) ([]domain.Event, error) {
		if err := access.Authorize(p, caller, domain.RoleSponsor); err != nil {
			return nil, fmt.Errorf("emergency withdraw: %w", err)
		}
		amount, err := ledger.WithdrawRemainder(ctx, p, p.Sponsor, st.accounts, now)
		if err != nil {
			return nil, err
		}
		refunded = amount
		return []domain.Event{domain.NewFundsRefunded(p, amount, now)}, nil
	})
	if err != nil {
		return 0, err
	}
	return refunded, nil
}

type mutation func(ctx context.Context, st txStore, p *domain.Project, now time.Time) ([]domain.Event, error)

// mutate runs fn against a freshly loaded project under the project's lock
// and inside one transaction. The ledger row and the outbox rows commit
// together; sinks see the events only after commit, before the lock is
// released.
func (s *projectService) mutate(ctx context.Context, projectID int64, fn mutation) error {
	unlock, err := s.locker.Lock(ctx, lock.ProjectKey(projectID))
	if err != nil {
		return fmt.Errorf("locking project %d: %w", projectID, err)
	}
	defer unlock()

	var evs []domain.Event
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		st := newTxStore(tx)
		p, err := st.loadProject(ctx, projectID)
		if err != nil {
			return err
		}
		evs, err = fn(ctx, st, p, s.now())
		if err != nil {
			return err
		}
		if err := p.CheckInvariants(); err != nil {
			return fmt.Errorf("project %d ledger check: %w", projectID, err)
		}
		if err := st.projects.UpdateLedger(ctx, p); err != nil {
			return err
		}
		return st.appendEvents(ctx, evs)
	})
	if err != nil {
		return err
	}

	s.sink.Publish(ctx, evs)
	return nil
}

func (s *projectService) GetProject(ctx context.Context, projectID int64) (p *domain.Project, err error) {
	err = s.read(ctx, func(ctx context.Context, st txStore) error {
		p, err = st.loadProject(ctx, projectID)
		return err
	})
	return p, err
}

func (s *projectService) GetMilestones(ctx context.Context, projectID int64) ([]domain.Milestone, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return p.Milestones, nil
}

// A zero identity matches nothing; it must not fall through to an unfiltered list.
func (s *projectService) GetProjectsByCreator(ctx context.Context, creator domain.Identity) ([]int64, error) {
	if creator.IsZero() {
		return []int64{}, nil
	}
	return s.projectIDs(ctx, repository.ProjectFilter{Creator: creator})
}

func (s *projectService) GetProjectsBySponsor(ctx context.Context, sponsor domain.Identity) ([]int64, error) {
	if sponsor.IsZero() {
		return []int64{}, nil
	}
	return s.projectIDs(ctx, repository.ProjectFilter{Sponsor: sponsor})
}

func (s *projectService) projectIDs(ctx context.Context, f repository.ProjectFilter) ([]int64, error) {
	ids := []int64{}
	err := s.read(ctx, func(ctx context.Context, st txStore) error {
		projects, err := st.projects.List(ctx, f)
		if err != nil {
			return err
		}
		for _, p := range projects {
			ids = append(ids, p.ID)
		}
		return nil
	})
	return ids, err
}

func (s *projectService) GetTotalProjects(ctx context.Context) (n int, err error) {
	err = s.read(ctx, func(ctx context.Context, st txStore) error {
		n, err = st.projects.Count(ctx, repository.ProjectFilter{})
		return err
	})
	return n, err
}

func (s *projectService) GetEscrowBalance(ctx context.Context, projectID int64) (domain.Amount, error) {
	var balance domain.Amount
	err := s.read(ctx, func(ctx context.Context, st txStore) error {
		p, err := st.projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		balance = ledger.EscrowBalance(p)
		return nil
	})
	return balance, err
}

func (s *projectService) ListProjects(ctx context.Context, page Page) (*ProjectPage, error) {
	limit := page.Limit
	if limit == 0 {
		limit = DefaultPageLimit
	}
	v := &domain.ValidationError{}
	if limit < 1 || limit > MaxPageLimit {
		v.Add(fmt.Sprintf("limit must be between 1 and %d", MaxPageLimit))
	}
	if page.Offset < 0 {
		v.Add("offset cannot be negative")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	out := &ProjectPage{Projects: []*domain.Project{}, Limit: limit, Offset: page.Offset}
	err := s.read(ctx, func(ctx context.Context, st txStore) error {
		total, err := st.projects.Count(ctx, repository.ProjectFilter{})
		if err != nil {
			return err
		}
		out.Total = total
		projects, err := st.projects.List(ctx, repository.ProjectFilter{NewestFirst: true, Limit: limit, Offset: page.Offset})
		if err != nil {
			return err
		}
		for _, p := range projects {
			if p.Milestones, err = st.milestones.ListByProject(ctx, p.ID); err != nil {
				return err
			}
			out.Projects = append(out.Projects, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *projectService) GetStats(ctx context.Context) (*Stats, error) {
	var t repository.ProjectTotals
	err := s.read(ctx, func(ctx context.Context, st txStore) error {
		var err error
		t, err = st.projects.Totals(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalProjects:  t.Projects,
		ActiveProjects: t.ActiveProjects,
		TotalDeposited: t.Deposited,
		TotalReleased:  t.Released,
		TotalRefunded:  t.Refunded,
		EscrowBalance:  t.Deposited - t.Released - t.Refunded,
	}, nil
}

func (s *projectService) GetContractBalance(ctx context.Context) (domain.Amount, error) {
	stats, err := s.GetStats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.EscrowBalance, nil
}

// read runs fn in its own transaction so multi-row reads see one committed snapshot.
func (s *projectService) read(ctx context.Context, fn func(ctx context.Context, st txStore) error) error {
	return s.reads.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, newTxStore(tx))
	})
}

func (s *projectService) observe(ctx context.Context, name string, startedAt time.Time, err error, fields map[string]any) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}
