package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/repository"
	"github.com/alexanderramin/tranche/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent() domain.Event {
	p := testutil.NewTestProject(testutil.WithDeposited("1.5"))
	return domain.NewFundsDeposited(p, testutil.Sponsor, domain.MustParseAmount("1.5"), testutil.Epoch)
}

func TestNewOutboxMessage_Envelope(t *testing.T) {
	m, err := NewOutboxMessage(sampleEvent())
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "project.funds_deposited", m.RoutingKey)
	assert.Equal(t, domain.OutboxPending, m.Status)

	var env Envelope
	require.NoError(t, json.Unmarshal(m.Payload, &env))
	assert.Equal(t, m.ID, env.ID)
	assert.Equal(t, domain.EventFundsDeposited, env.Type)
	assert.Equal(t, int64(1), env.ProjectID)
	assert.JSONEq(t, `{"id":1,"depositor":"0x2222222222222222222222222222222222222222","amount":"1.5","new_total":"1.5"}`, string(env.Payload))
}

func TestMultiSinkAndRecorder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	sink := MultiSink{a, nil, b}
	sink.Publish(context.Background(), []domain.Event{sampleEvent()})

	assert.Len(t, a.Events(), 1)
	assert.Equal(t, []domain.EventType{domain.EventFundsDeposited}, b.Types())
	assert.Equal(t, 1, b.Count(domain.EventFundsDeposited))
	b.Reset()
	assert.Empty(t, b.Events())
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	NewLogSink(zap.New(core)).Publish(context.Background(), []domain.Event{sampleEvent()})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "domain event", entry.Message)
	assert.Equal(t, "project.funds_deposited", entry.ContextMap()["routing_key"])
}

type fakePublisher struct {
	fail  int
	calls []string
}

func (f *fakePublisher) Publish(_ context.Context, routingKey, messageID string, body []byte) error {
	f.calls = append(f.calls, routingKey)
	if f.fail > 0 {
		f.fail--
		return errors.New("broker unavailable")
	}
	return nil
}

type countingObserver struct{ results []DispatchResult }

func (c *countingObserver) ObserveDispatch(r DispatchResult) { c.results = append(c.results, r) }

func seedOutbox(t *testing.T) repository.OutboxRepo {
	t.Helper()
	repo := repository.NewSQLiteOutboxRepo(testutil.NewTestDB(t))
	m, err := NewOutboxMessage(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), m))
	return repo
}

func TestDispatcher_SendsDueMessages(t *testing.T) {
	repo := seedOutbox(t)
	pub := &fakePublisher{}
	obs := &countingObserver{}
	clock := testutil.NewClock(testutil.Epoch)
	d := NewDispatcher(repo, pub, zap.NewNop(), WithDispatchClock(clock.Now), WithDispatchObserver(obs))

	res, err := d.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Sent: 1}, res)
	assert.Equal(t, []string{"project.funds_deposited"}, pub.calls)
	assert.Len(t, obs.results, 1)

	res, err = d.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, res, "sent messages are not republished")
	assert.Len(t, obs.results, 1, "empty passes are not observed")
}

func TestDispatcher_RetriesThenFails(t *testing.T) {
	repo := seedOutbox(t)
	pub := &fakePublisher{fail: 10}
	clock := testutil.NewClock(testutil.Epoch)
	d := NewDispatcher(repo, pub, zap.NewNop(),
		WithDispatchClock(clock.Now), WithMaxAttempts(2), WithBackoff(time.Second))
	ctx := context.Background()

	res, err := d.DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Retried: 1}, res)

	res, err = d.DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{}, res, "back-off not yet elapsed")

	clock.Advance(time.Second)
	res, err = d.DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Failed: 1}, res)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.OutboxFailed])

	failed, err := repo.ListFailed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	pub.fail = 0
	require.NoError(t, d.Replay(ctx, failed[0].ID))
	res, err = d.DispatchOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Sent: 1}, res)
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	repo := seedOutbox(t)
	pub := &fakePublisher{}
	d := NewDispatcher(repo, pub, zap.NewNop(), WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		counts, err := repo.CountByStatus(context.Background())
		return err == nil && counts[domain.OutboxSent] == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
