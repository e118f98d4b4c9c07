// Package ledger keeps a project's escrow accounting: deposits in, releases to
// the creator, and the emergency refund of whatever remains to the sponsor.
//
// Functions validate first and mutate the project only after every check and
// the transfer have succeeded, so a returned error leaves p unchanged.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/tranche/internal/domain"
)

// Transferer moves funds out of escrow to a recipient.
type Transferer interface {
	Transfer(ctx context.Context, to domain.Identity, amount domain.Amount) error
}

// TransferFunc adapts a function to Transferer.
type TransferFunc func(ctx context.Context, to domain.Identity, amount domain.Amount) error

func (f TransferFunc) Transfer(ctx context.Context, to domain.Identity, amount domain.Amount) error {
	return f(ctx, to, amount)
}

// EscrowBalance is the amount held for p: deposited minus released and refunded.
func EscrowBalance(p *domain.Project) domain.Amount {
	return p.EscrowBalance()
}

// Deposit adds amount to the project's deposits. It does not check the caller
// or whether the project is active.
func Deposit(p *domain.Project, amount domain.Amount) error {
	if amount <= 0 {
		return &domain.ValidationError{Problems: []string{"deposit amount must be positive"}}
	}
	if amount > p.RemainingBudget() {
		return fmt.Errorf("%w: deposit %s exceeds remaining budget %s of project %d",
			domain.ErrExceedsBudget, amount, p.RemainingBudget(), p.ID)
	}
	p.TotalDeposited += amount
	return nil
}

// Release pays amount from escrow to recipient. TotalReleased grows only once
// the transfer has succeeded.
func Release(ctx context.Context, p *domain.Project, amount domain.Amount, recipient domain.Identity, t Transferer) error {
	if amount <= 0 {
		return &domain.ValidationError{Problems: []string{"release amount must be positive"}}
	}
	if bal := p.EscrowBalance(); amount > bal {
		return fmt.Errorf("%w: release of %s requested, project %d holds %s",
			domain.ErrInsufficientEscrow, amount, p.ID, bal)
	}
	if err := transfer(ctx, t, recipient, amount); err != nil {
		return err
	}
	p.TotalReleased += amount
	return nil
}

// WithdrawRemainder refunds the entire escrow balance to recipient and closes
// the project. A zero balance skips the transfer but still closes. It returns
// the refunded amount.
func WithdrawRemainder(ctx context.Context, p *domain.Project, recipient domain.Identity, t Transferer, now time.Time) (domain.Amount, error) {
	if err := p.RequireActive(); err != nil {
		return 0, err
	}
	remaining := p.EscrowBalance()
	if remaining > 0 {
		if err := transfer(ctx, t, recipient, remaining); err != nil {
			return 0, err
		}
		p.TotalRefunded += remaining
	}
	p.Close(now)
	return remaining, nil
}

func transfer(ctx context.Context, t Transferer, to domain.Identity, amount domain.Amount) error {
	if err := t.Transfer(ctx, to, amount); err != nil {
		if domain.KindOf(err) == domain.KindTransferFailure {
			return err
		}
		return fmt.Errorf("%w: paying %s to %s: %w", domain.ErrTransferFailure, amount, to.Short(), err)
	}
	return nil
}
