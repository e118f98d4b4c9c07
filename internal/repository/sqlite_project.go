package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/tranche/internal/db"
	"github.com/alexanderramin/tranche/internal/domain"
)

// SQLiteProjectRepo implements ProjectRepo using a SQLite database.
type SQLiteProjectRepo struct {
	db db.DBTX
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(db db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: db}
}

const projectColumns = `id, name, description, creator, sponsor,
	total_budget, total_deposited, total_released, total_refunded,
	current_milestone, active, created_at, closed_at`

// Create inserts the project row and sets p.ID to the issued identifier.
func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	query := `INSERT INTO projects (name, description, creator, sponsor,
		total_budget, total_deposited, total_released, total_refunded,
		current_milestone, active, created_at, closed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		string(p.Creator),
		string(p.Sponsor),
		int64(p.TotalBudget),
		int64(p.TotalDeposited),
		int64(p.TotalReleased),
		int64(p.TotalRefunded),
		p.CurrentMilestone,
		boolToInt(p.Active),
		formatTime(p.CreatedAt),
		nullableTimeToString(p.ClosedAt, timeLayout),
		formatTime(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading project id: %w", err)
	}
	p.ID = id
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "project", id)
	}
	return p, nil
}

func (r *SQLiteProjectRepo) List(ctx context.Context, f ProjectFilter) ([]*domain.Project, error) {
	where, args := f.where()
	query := `SELECT ` + projectColumns + ` FROM projects` + where
	if f.NewestFirst {
		query += ` ORDER BY id DESC`
	} else {
		query += ` ORDER BY id`
	}
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) Count(ctx context.Context, f ProjectFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	return n, nil
}

// UpdateLedger persists the mutable columns: totals, cursor and activity.
// Identity, budget and description never change after creation.
func (r *SQLiteProjectRepo) UpdateLedger(ctx context.Context, p *domain.Project) error {
	query := `UPDATE projects SET total_deposited = ?, total_released = ?, total_refunded = ?,
		current_milestone = ?, active = ?, closed_at = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		int64(p.TotalDeposited),
		int64(p.TotalReleased),
		int64(p.TotalRefunded),
		p.CurrentMilestone,
		boolToInt(p.Active),
		nullableTimeToString(p.ClosedAt, timeLayout),
		formatTime(time.Now()),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating project %d: %w", p.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating project %d: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *SQLiteProjectRepo) Totals(ctx context.Context) (ProjectTotals, error) {
	query := `SELECT COUNT(*),
		COALESCE(SUM(active), 0),
		COALESCE(SUM(total_deposited), 0),
		COALESCE(SUM(total_released), 0),
		COALESCE(SUM(total_refunded), 0)
		FROM projects`
	var t ProjectTotals
	var deposited, released, refunded int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&t.Projects, &t.ActiveProjects, &deposited, &released, &refunded); err != nil {
		return ProjectTotals{}, fmt.Errorf("summing project totals: %w", err)
	}
	t.Deposited = domain.Amount(deposited)
	t.Released = domain.Amount(released)
	t.Refunded = domain.Amount(refunded)
	return t, nil
}

func (f ProjectFilter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Creator != "" {
		clauses = append(clauses, "creator = ?")
		args = append(args, string(f.Creator))
	}
	if f.Sponsor != "" {
		clauses = append(clauses, "sponsor = ?")
		args = append(args, string(f.Sponsor))
	}
	if f.ActiveOnly {
		clauses = append(clauses, "active = 1")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanProject(s scanner) (*domain.Project, error) {
	var p domain.Project
	var creator, sponsor, createdAtStr string
	var budget, deposited, released, refunded int64
	var active int
	var closedAtStr sql.NullString

	err := s.Scan(
		&p.ID, &p.Name, &p.Description, &creator, &sponsor,
		&budget, &deposited, &released, &refunded,
		&p.CurrentMilestone, &active, &createdAtStr, &closedAtStr,
	)
	if err != nil {
		return nil, err
	}

	p.Creator = domain.Identity(creator)
	p.Sponsor = domain.Identity(sponsor)
	p.TotalBudget = domain.Amount(budget)
	p.TotalDeposited = domain.Amount(deposited)
	p.TotalReleased = domain.Amount(released)
	p.TotalRefunded = domain.Amount(refunded)
	p.Active = intToBool(active)

	p.CreatedAt, err = parseTime("created_at", createdAtStr)
	if err != nil {
		return nil, err
	}
	p.ClosedAt = parseNullableTime(closedAtStr, timeLayout)
	return &p, nil
}
