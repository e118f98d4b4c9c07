package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/tranche/internal/db"
	"github.com/alexanderramin/tranche/internal/domain"
)

// SQLiteOutboxRepo implements OutboxRepo. Insert is called inside the same
// transaction as the state change it records.
type SQLiteOutboxRepo struct {
	db db.DBTX
}

func NewSQLiteOutboxRepo(db db.DBTX) *SQLiteOutboxRepo {
	return &SQLiteOutboxRepo{db: db}
}

const outboxColumns = `id, project_id, event_type, routing_key, payload, status,
	attempts, last_error, occurred_at, next_attempt_at, sent_at`

func (r *SQLiteOutboxRepo) Insert(ctx context.Context, msgs ...domain.OutboxMessage) error {
	query := `INSERT INTO outbox_events (id, project_id, event_type, routing_key, payload, status,
		attempts, last_error, occurred_at, next_attempt_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, '', ?, ?)`
	for _, m := range msgs {
		status := m.Status
		if status == "" {
			status = domain.OutboxPending
		}
		next := m.NextAttemptAt
		if next.IsZero() {
			next = m.OccurredAt
		}
		_, err := r.db.ExecContext(ctx, query,
			m.ID,
			m.ProjectID,
			string(m.EventType),
			m.RoutingKey,
			string(m.Payload),
			string(status),
			formatTime(m.OccurredAt),
			formatTime(next),
		)
		if err != nil {
			return fmt.Errorf("inserting outbox event %s: %w", m.EventType, err)
		}
	}
	return nil
}

func (r *SQLiteOutboxRepo) GetByID(ctx context.Context, id string) (*domain.OutboxMessage, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+outboxColumns+` FROM outbox_events WHERE id = ?`, id)
	m, err := scanOutbox(row)
	if err != nil {
		return nil, notFound(err, "outbox event", id)
	}
	return &m, nil
}

// ListDue returns pending messages whose next attempt is at or before now,
// oldest first.
func (r *SQLiteOutboxRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.OutboxMessage, error) {
	return r.query(ctx, `SELECT `+outboxColumns+` FROM outbox_events
		WHERE status = 'pending' AND next_attempt_at <= ?
		ORDER BY rowid LIMIT ?`, formatTime(now), limit)
}

func (r *SQLiteOutboxRepo) ListByProject(ctx context.Context, projectID int64) ([]domain.OutboxMessage, error) {
	return r.query(ctx, `SELECT `+outboxColumns+` FROM outbox_events
		WHERE project_id = ? ORDER BY rowid`, projectID)
}

func (r *SQLiteOutboxRepo) ListFailed(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	return r.query(ctx, `SELECT `+outboxColumns+` FROM outbox_events
		WHERE status = 'failed' ORDER BY rowid DESC LIMIT ?`, limit)
}

func (r *SQLiteOutboxRepo) MarkSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET status = 'sent', sent_at = ?, last_error = '' WHERE id = ?`,
		formatTime(at), id)
	if err != nil {
		return fmt.Errorf("marking outbox event %s sent: %w", id, err)
	}
	return nil
}

// MarkAttemptFailed records a failed publish. The message is retried after
// attempts*backoff until maxAttempts is reached, then marked failed.
func (r *SQLiteOutboxRepo) MarkAttemptFailed(ctx context.Context, id string, cause string, maxAttempts int, backoff time.Duration, now time.Time) (domain.OutboxStatus, error) {
	var attempts int
	if err := r.db.QueryRowContext(ctx, `SELECT attempts FROM outbox_events WHERE id = ?`, id).Scan(&attempts); err != nil {
		return "", notFound(err, "outbox event", id)
	}
	attempts++

	status := domain.OutboxPending
	next := now.Add(time.Duration(attempts) * backoff)
	if attempts >= maxAttempts {
		status = domain.OutboxFailed
		next = now
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET status = ?, attempts = ?, last_error = ?, next_attempt_at = ? WHERE id = ?`,
		string(status), attempts, cause, formatTime(next), id)
	if err != nil {
		return "", fmt.Errorf("recording failed attempt for outbox event %s: %w", id, err)
	}
	return status, nil
}

// Requeue resets a message to pending with a clean attempt counter.
func (r *SQLiteOutboxRepo) Requeue(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET status = 'pending', attempts = 0, last_error = '', next_attempt_at = ?, sent_at = NULL WHERE id = ?`,
		formatTime(now), id)
	if err != nil {
		return fmt.Errorf("requeueing outbox event %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("outbox event %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *SQLiteOutboxRepo) CountByStatus(ctx context.Context) (map[domain.OutboxStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM outbox_events GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting outbox events: %w", err)
	}
	defer rows.Close()

	counts := map[domain.OutboxStatus]int{
		domain.OutboxPending: 0,
		domain.OutboxSent:    0,
		domain.OutboxFailed:  0,
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning outbox count: %w", err)
		}
		counts[domain.OutboxStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *SQLiteOutboxRepo) query(ctx context.Context, query string, args ...any) ([]domain.OutboxMessage, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying outbox: %w", err)
	}
	defer rows.Close()

	var msgs []domain.OutboxMessage
	for rows.Next() {
		m, err := scanOutbox(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning outbox row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating outbox: %w", err)
	}
	return msgs, nil
}

func scanOutbox(s scanner) (domain.OutboxMessage, error) {
	var m domain.OutboxMessage
	var eventType, payload, status, occurredStr, nextStr string
	var sentStr sql.NullString

	err := s.Scan(&m.ID, &m.ProjectID, &eventType, &m.RoutingKey, &payload, &status,
		&m.Attempts, &m.LastError, &occurredStr, &nextStr, &sentStr)
	if err != nil {
		return domain.OutboxMessage{}, err
	}
	m.EventType = domain.EventType(eventType)
	m.Payload = []byte(payload)
	m.Status = domain.OutboxStatus(status)
	if m.OccurredAt, err = parseTime("occurred_at", occurredStr); err != nil {
		return domain.OutboxMessage{}, err
	}
	if m.NextAttemptAt, err = parseTime("next_attempt_at", nextStr); err != nil {
		return domain.OutboxMessage{}, err
	}
	m.SentAt = parseNullableTime(sentStr, timeLayout)
	return m, nil
}
