package service

import (
	"context"
	"time"

	"github.com/alexanderramin/tranche/internal/db"
	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/repository"
)

type accountService struct {
	accounts repository.AccountRepo
	observer UseCaseObserver
}

func NewAccountService(database db.DBTX, observers ...UseCaseObserver) AccountService {
	return &accountService{
		accounts: repository.NewSQLiteAccountRepo(database),
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *accountService) GetAccountBalance(ctx context.Context, addr domain.Identity) (domain.Amount, error) {
	acct, err := s.accounts.Get(ctx, addr)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func (s *accountService) GetAccount(ctx context.Context, addr domain.Identity) (*domain.Account, error) {
	return s.accounts.Get(ctx, addr)
}

// SetAccountRejectsFunds flags an account so every transfer to it fails,
// the way a recipient contract that reverts on receive would.
func (s *accountService) SetAccountRejectsFunds(ctx context.Context, addr domain.Identity, rejects bool) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "set-account-rejects-funds",
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Success:   err == nil,
			Err:       err,
			Fields:    map[string]any{"address": addr.String(), "rejects": rejects},
		})
	}()
	return s.accounts.SetRejectsFunds(ctx, addr, rejects)
}
