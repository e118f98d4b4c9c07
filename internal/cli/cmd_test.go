package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexanderramin/tranche/internal/config"
	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/events"
	"github.com/alexanderramin/tranche/internal/httpapi"
	"github.com/alexanderramin/tranche/internal/repository"
	"github.com/alexanderramin/tranche/internal/service"
	"github.com/alexanderramin/tranche/internal/testutil"
)

// testApp wires an App backed by an in-memory DB with the clock at
// testutil.Epoch.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)
	clock := testutil.NewClock(testutil.Epoch)
	outbox := repository.NewSQLiteOutboxRepo(database)

	cfg := config.Default()
	cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"

	return &App{
		Projects: service.NewProjectService(testutil.NewTestUoW(database), service.WithClock(clock.Now)),
		Accounts: service.NewAccountService(database),
		Outbox:   outbox,
		Config:   cfg,
		Logger:   zap.NewNop(),
		Publisher: func() (events.Publisher, func(), error) {
			return events.NewLogPublisher(zap.NewNop()), func() {}, nil
		},
		Dispatcher: func(pub events.Publisher) *events.Dispatcher {
			return events.NewDispatcher(outbox, pub, zap.NewNop())
		},
		Now: clock.Now,
	}
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd(app)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := run(t, app, args...)
	require.NoError(t, err, out)
	return out
}

var (
	creator  = string(testutil.Creator)
	sponsor  = string(testutil.Sponsor)
	stranger = string(testutil.Stranger)
)

func createArgs() []string {
	return []string{
		"project", "create", "--as", creator,
		"--name", "DeFi platform",
		"--description", "Building a DeFi platform",
		"--sponsor", sponsor,
		"-m", "Setup|1.0|2025-07-15",
		"-m", "Contracts|2.0|2025-08-15",
		"-m", "Launch|2|2025-09-15",
	}
}

func TestProjectCreate(t *testing.T) {
	app := testApp(t)
	out := mustRun(t, app, createArgs()...)
	assert.Contains(t, out, "Created project #1")

	p, err := app.Projects.GetProject(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5*domain.Unit, p.TotalBudget)
	require.Len(t, p.Milestones, 3)
	assert.Equal(t, "Contracts", p.Milestones[1].Description)
}

func TestProjectCreate_Errors(t *testing.T) {
	app := testApp(t)

	_, err := run(t, app, "project", "create", "--name", "x", "--sponsor", sponsor, "-m", "a|1|2025-07-15")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "caller address required")

	_, err = run(t, app, "project", "create", "--as", creator, "--name", "x", "--sponsor", sponsor, "-m", "a|1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description|amount|YYYY-MM-DD")

	_, err = run(t, app, "project", "create", "--as", creator, "--name", "x", "--sponsor", creator, "-m", "a|1|2025-07-15")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = run(t, app, "project", "create", "--as", creator, "-i")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a terminal")
}

func TestLifecycle(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, createArgs()...)

	out := mustRun(t, app, "project", "deposit", "1", "--as", sponsor, "--amount", "5")
	assert.Contains(t, out, "Deposited 5 into project #1 (escrow 5)")

	out = mustRun(t, app, "milestone", "complete", "1", "0", "--as", creator)
	assert.Contains(t, out, "awaiting sponsor approval")

	out = mustRun(t, app, "milestone", "approve", "1", "0", "--as", sponsor)
	assert.Contains(t, out, "released 1 to")

	out = mustRun(t, app, "project", "show", "1")
	assert.Contains(t, out, "#1 DeFi platform")
	assert.Contains(t, out, "● PAID")
	assert.Contains(t, out, "ACTIVE")

	out = mustRun(t, app, "milestone", "list", "1")
	assert.Contains(t, out, "Contracts")

	out = mustRun(t, app, "account", "balance", creator)
	assert.Contains(t, out, creator)
	assert.Contains(t, out, "1")

	out = mustRun(t, app, "project", "withdraw", "1", "--as", sponsor)
	assert.Contains(t, out, "Refunded 4 to the sponsor")

	out = mustRun(t, app, "project", "stats")
	assert.Contains(t, out, "OVERVIEW")

	p, err := app.Projects.GetProject(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, p.Active)
	assert.Equal(t, domain.Amount(0), p.EscrowBalance())
}

func TestApproveLastMilestoneCompletesProject(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, "project", "create", "--as", creator, "--name", "One", "--description", "Single payout", "--sponsor", sponsor, "-m", "Only|1|2025-07-15")
	mustRun(t, app, "project", "deposit", "1", "--as", sponsor, "--amount", "1")
	mustRun(t, app, "milestone", "complete", "1", "0", "--as", creator)

	out := mustRun(t, app, "milestone", "approve", "1", "0", "--as", sponsor)
	assert.Contains(t, out, "project completed")
}

func TestMutationErrorsSurface(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, createArgs()...)

	_, err := run(t, app, "project", "deposit", "1", "--as", stranger, "--amount", "1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = run(t, app, "project", "deposit", "1", "--as", sponsor, "--amount", "6")
	assert.ErrorIs(t, err, domain.ErrExceedsBudget)

	_, err = run(t, app, "project", "deposit", "1", "--as", sponsor, "--amount", "-1")
	require.Error(t, err)

	_, err = run(t, app, "project", "deposit", "1", "--as", sponsor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")

	_, err = run(t, app, "milestone", "complete", "1", "1", "--as", creator)
	assert.ErrorIs(t, err, domain.ErrOutOfOrder)

	_, err = run(t, app, "project", "show", "9")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = run(t, app, "project", "show", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid project id")
}

func TestAccountReject(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, createArgs()...)
	mustRun(t, app, "project", "deposit", "1", "--as", sponsor, "--amount", "2")

	out := mustRun(t, app, "account", "reject", sponsor)
	assert.Contains(t, out, "now rejects")
	out = mustRun(t, app, "account", "balance", sponsor)
	assert.Contains(t, out, "rejects incoming transfers")

	_, err := run(t, app, "project", "withdraw", "1", "--as", sponsor)
	assert.ErrorIs(t, err, domain.ErrTransferFailure)

	mustRun(t, app, "account", "reject", sponsor, "--off")
	out = mustRun(t, app, "project", "withdraw", "1", "--as", sponsor)
	assert.Contains(t, out, "Refunded 2")
}

func TestProjectList(t *testing.T) {
	app := testApp(t)
	for i := 0; i < 3; i++ {
		mustRun(t, app, createArgs()...)
	}

	out := mustRun(t, app, "project", "list", "--limit", "2")
	assert.Contains(t, out, "showing 2 of 3")

	out = mustRun(t, app, "project", "list", "--sponsor", sponsor)
	assert.Equal(t, 3, strings.Count(out, "DeFi platform"))

	out = mustRun(t, app, "project", "list", "--creator", stranger)
	assert.Contains(t, out, "No projects found.")

	_, err := run(t, app, "project", "list", "--creator", creator, "--sponsor", sponsor)
	require.Error(t, err)

	_, err = run(t, app, "project", "list", "--limit", "500")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestOutboxCommands(t *testing.T) {
	app := testApp(t)
	mustRun(t, app, createArgs()...)
	mustRun(t, app, "project", "deposit", "1", "--as", sponsor, "--amount", "1")

	out := mustRun(t, app, "outbox", "status")
	assert.Contains(t, out, "pending")

	out = mustRun(t, app, "outbox", "dispatch")
	assert.Contains(t, out, "sent 2, retrying 0, failed 0")

	counts, err := app.Outbox.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.OutboxSent])

	msgs, err := app.Outbox.ListByProject(context.Background(), 1)
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	out = mustRun(t, app, "outbox", "replay", msgs[0].ID)
	assert.Contains(t, out, "Requeued")

	counts, err = app.Outbox.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.OutboxPending])
}

func TestTokenCommand(t *testing.T) {
	app := testApp(t)
	out := mustRun(t, app, "token", creator, "--ttl", "1h")

	id, err := httpapi.ParseToken(strings.TrimSpace(out), app.Config.JWT.Secret, app.Config.JWT.Issuer)
	require.NoError(t, err)
	assert.Equal(t, testutil.Creator, id)

	app.Config.JWT.Secret = ""
	_, err = run(t, app, "token", creator)
	require.Error(t, err)
}

func TestServeRequiresSecret(t *testing.T) {
	app := testApp(t)
	app.Config.JWT.Secret = ""
	_, err := run(t, app, "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestDefaultIdentity(t *testing.T) {
	app := testApp(t)
	app.DefaultIdentity = creator
	out := mustRun(t, app, "project", "create", "--name", "Env", "--description", "From env", "--sponsor", sponsor, "-m", "a|1|2025-07-15")
	assert.Contains(t, out, "Created project #1")
}

func TestParseMilestone(t *testing.T) {
	m, err := parseMilestone(" Setup | 1.25 | 2025-07-15 ")
	require.NoError(t, err)
	assert.Equal(t, "Setup", m.description)
	assert.Equal(t, domain.MustParseAmount("1.25"), m.amount)
	assert.Equal(t, 2025, m.due.Year())

	m, err = parseMilestone("Setup|1|2025-07-15T12:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 10, m.due.Hour())

	for _, bad := range []string{"", "a|b|c", "a|1|tomorrow", "a|1|2025-07-15|x"} {
		_, err := parseMilestone(bad)
		assert.Error(t, err, bad)
	}
	assert.Error(t, validateMilestoneLines("\n \n"))
	assert.NoError(t, validateMilestoneLines("a|1|2025-07-15\n\nb|2|2025-08-15\n"))
}

func TestProjectImport(t *testing.T) {
	app := testApp(t)
	dir := t.TempDir()

	good := filepath.Join(dir, "projects.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`projects:
  - name: Audit
    description: Security audit
    sponsor: "`+sponsor+`"
    milestones:
      - {description: Report, amount: "0.5", due_date: "2025-08-01"}
  - name: Docs
    description: User guide
    sponsor: "`+sponsor+`"
    milestones:
      - {description: Guide, amount: "1", due_date: "2025-08-01"}
`), 0o644))

	out := mustRun(t, app, "project", "import", good, "--as", creator)
	assert.Contains(t, out, "Created project #1 Audit")
	assert.Contains(t, out, "Created project #2 Docs")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"projects":[{"name":"","sponsor":"x","milestones":[]}]}`), 0o644))
	_, err := run(t, app, "project", "import", bad, "--as", creator)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid import file")

	undescribed := filepath.Join(dir, "undescribed.yaml")
	require.NoError(t, os.WriteFile(undescribed, []byte(`projects:
  - name: Fine
    description: Complete entry
    sponsor: "`+sponsor+`"
    milestones:
      - {description: Guide, amount: "1", due_date: "2025-08-01"}
  - name: Missing
    sponsor: "`+sponsor+`"
    milestones:
      - {description: Guide, amount: "1", due_date: "2025-08-01"}
`), 0o644))
	_, err = run(t, app, "project", "import", undescribed, "--as", creator)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projects[1].description is required")

	total, err := app.Projects.GetTotalProjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}
