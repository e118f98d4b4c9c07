package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexanderramin/tranche/internal/config"
	"github.com/alexanderramin/tranche/internal/db"
	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/events"
	"github.com/alexanderramin/tranche/internal/service"
	"github.com/alexanderramin/tranche/internal/testutil"
)

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = db.MemoryPath
	a, err := New(cfg, zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func projectInput() service.CreateProjectInput {
	req := testutil.NewProjectRequest()
	in := service.CreateProjectInput{Name: req.Name, Description: req.Description, Sponsor: string(req.Sponsor)}
	for _, m := range req.Milestones {
		in.MilestoneDescriptions = append(in.MilestoneDescriptions, m.Description)
		in.MilestoneAmounts = append(in.MilestoneAmounts, m.Amount)
		in.MilestoneDueDates = append(in.MilestoneDueDates, m.DueDate)
	}
	return in
}

func TestNew_WiresServicesAndOutbox(t *testing.T) {
	rec := &events.Recorder{}
	a := newTestApp(t, WithSink(rec), WithClock(func() time.Time { return testutil.Epoch }))
	ctx := context.Background()

	id, err := a.Projects.CreateProject(ctx, testutil.Creator, projectInput())
	require.NoError(t, err)
	require.NoError(t, a.Projects.DepositFunds(ctx, testutil.Sponsor, id, domain.MustParseAmount("2")))

	assert.Equal(t, []domain.EventType{domain.EventProjectCreated, domain.EventFundsDeposited}, rec.Types())

	counts, err := a.Outbox.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.OutboxPending])

	pub, closePub, err := a.Publisher()
	require.NoError(t, err)
	defer closePub()
	res, err := a.Dispatcher(pub).DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = db.MemoryPath
	cfg.Redis.Addr = "127.0.0.1:1"
	_, err := New(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to redis")
}

func TestNew_FileDatabaseServesReadsFromReadPool(t *testing.T) {
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "tranche.db")
	a, err := New(cfg, zap.NewNop(), WithClock(func() time.Time { return testutil.Epoch }))
	require.NoError(t, err)
	ctx := context.Background()

	id, err := a.Projects.CreateProject(ctx, testutil.Creator, projectInput())
	require.NoError(t, err)
	p, err := a.Projects.GetProject(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Blockchain Development Project", p.Name)

	require.NoError(t, a.Close())
}
