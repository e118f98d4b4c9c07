package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/tranche/internal/db"
	"github.com/alexanderramin/tranche/internal/domain"
)

// SQLiteMilestoneRepo implements MilestoneRepo using a SQLite database.
type SQLiteMilestoneRepo struct {
	db db.DBTX
}

func NewSQLiteMilestoneRepo(db db.DBTX) *SQLiteMilestoneRepo {
	return &SQLiteMilestoneRepo{db: db}
}

// CreateAll inserts ms under projectID, stamping each milestone's ProjectID.
func (r *SQLiteMilestoneRepo) CreateAll(ctx context.Context, projectID int64, ms []domain.Milestone) error {
	query := `INSERT INTO milestones (project_id, idx, description, amount, due_date, state, completed_at, approved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for i := range ms {
		m := &ms[i]
		m.ProjectID = projectID
		_, err := r.db.ExecContext(ctx, query,
			projectID,
			m.Index,
			m.Description,
			int64(m.Amount),
			formatTime(m.DueDate),
			string(m.State),
			nullableTimeToString(m.CompletedAt, timeLayout),
			nullableTimeToString(m.ApprovedAt, timeLayout),
		)
		if err != nil {
			return fmt.Errorf("inserting milestone %d of project %d: %w", m.Index, projectID, err)
		}
	}
	return nil
}

// ListByProject returns the project's milestones ordered by index.
func (r *SQLiteMilestoneRepo) ListByProject(ctx context.Context, projectID int64) ([]domain.Milestone, error) {
	query := `SELECT project_id, idx, description, amount, due_date, state, completed_at, approved_at
		FROM milestones WHERE project_id = ? ORDER BY idx`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}
	defer rows.Close()

	var ms []domain.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating milestones: %w", err)
	}
	return ms, nil
}

// Update persists a milestone's state transition.
func (r *SQLiteMilestoneRepo) Update(ctx context.Context, m *domain.Milestone) error {
	query := `UPDATE milestones SET state = ?, completed_at = ?, approved_at = ?
		WHERE project_id = ? AND idx = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(m.State),
		nullableTimeToString(m.CompletedAt, timeLayout),
		nullableTimeToString(m.ApprovedAt, timeLayout),
		m.ProjectID,
		m.Index,
	)
	if err != nil {
		return fmt.Errorf("updating milestone %d of project %d: %w", m.Index, m.ProjectID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("milestone %d of project %d: %w", m.Index, m.ProjectID, domain.ErrNotFound)
	}
	return nil
}

func scanMilestone(s scanner) (domain.Milestone, error) {
	var m domain.Milestone
	var amount int64
	var dueStr, stateStr string
	var completedStr, approvedStr sql.NullString

	if err := s.Scan(&m.ProjectID, &m.Index, &m.Description, &amount, &dueStr, &stateStr, &completedStr, &approvedStr); err != nil {
		return domain.Milestone{}, fmt.Errorf("scanning milestone row: %w", err)
	}
	if !domain.ValidMilestoneStates[stateStr] {
		return domain.Milestone{}, fmt.Errorf("milestone %d of project %d has unknown state %q", m.Index, m.ProjectID, stateStr)
	}

	due, err := parseTime("due_date", dueStr)
	if err != nil {
		return domain.Milestone{}, err
	}
	m.Amount = domain.Amount(amount)
	m.DueDate = due
	m.State = domain.MilestoneState(stateStr)
	m.CompletedAt = parseNullableTime(completedStr, timeLayout)
	m.ApprovedAt = parseNullableTime(approvedStr, timeLayout)
	return m, nil
}
