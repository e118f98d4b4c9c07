package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/tranche/internal/db"
	"github.com/alexanderramin/tranche/internal/domain"
)

// SQLiteAccountRepo implements AccountRepo. Unknown addresses read as an
// empty account that accepts funds.
type SQLiteAccountRepo struct {
	db  db.DBTX
	now func() time.Time
}

func NewSQLiteAccountRepo(db db.DBTX) *SQLiteAccountRepo {
	return &SQLiteAccountRepo{db: db, now: time.Now}
}

func (r *SQLiteAccountRepo) Get(ctx context.Context, addr domain.Identity) (*domain.Account, error) {
	var balance int64
	var rejects int
	var updatedStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT balance, rejects_funds, updated_at FROM accounts WHERE address = ?`, string(addr),
	).Scan(&balance, &rejects, &updatedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Account{Address: addr}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading account %s: %w", addr, err)
	}
	updated, err := parseTime("updated_at", updatedStr)
	if err != nil {
		return nil, err
	}
	return &domain.Account{
		Address:      addr,
		Balance:      domain.Amount(balance),
		RejectsFunds: intToBool(rejects),
		UpdatedAt:    updated,
	}, nil
}

// Transfer credits amount to the account at to. Accounts that reject funds fail
// with domain.ErrTransferFailure and are left untouched.
func (r *SQLiteAccountRepo) Transfer(ctx context.Context, to domain.Identity, amount domain.Amount) error {
	if amount <= 0 {
		return fmt.Errorf("%w: transfer amount %s must be positive", domain.ErrTransferFailure, amount)
	}
	acct, err := r.Get(ctx, to)
	if err != nil {
		return err
	}
	if acct.RejectsFunds {
		return fmt.Errorf("%w: account %s rejects incoming funds", domain.ErrTransferFailure, to)
	}
	if _, ok := domain.SumAmounts(acct.Balance, amount); !ok {
		return fmt.Errorf("%w: account %s balance would overflow", domain.ErrTransferFailure, to)
	}

	query := `INSERT INTO accounts (address, balance, rejects_funds, updated_at) VALUES (?, ?, 0, ?)
		ON CONFLICT(address) DO UPDATE SET balance = balance + excluded.balance, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, string(to), int64(amount), formatTime(r.now())); err != nil {
		return fmt.Errorf("crediting account %s: %w", to, err)
	}
	return nil
}

func (r *SQLiteAccountRepo) SetRejectsFunds(ctx context.Context, addr domain.Identity, rejects bool) error {
	query := `INSERT INTO accounts (address, balance, rejects_funds, updated_at) VALUES (?, 0, ?, ?)
		ON CONFLICT(address) DO UPDATE SET rejects_funds = excluded.rejects_funds, updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, string(addr), boolToInt(rejects), formatTime(r.now())); err != nil {
		return fmt.Errorf("flagging account %s: %w", addr, err)
	}
	return nil
}
