package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepo_UnknownAccountIsEmpty(t *testing.T) {
	db := testutil.NewTestDB(t)
	acct, err := NewSQLiteAccountRepo(db).Get(context.Background(), testutil.Creator)
	require.NoError(t, err)
	assert.Equal(t, testutil.Creator, acct.Address)
	assert.Equal(t, domain.Amount(0), acct.Balance)
	assert.False(t, acct.RejectsFunds)
}

func TestAccountRepo_TransferAccumulates(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAccountRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Transfer(ctx, testutil.Creator, domain.Unit))
	require.NoError(t, repo.Transfer(ctx, testutil.Creator, domain.MustParseAmount("2.5")))

	acct, err := repo.Get(ctx, testutil.Creator)
	require.NoError(t, err)
	assert.Equal(t, domain.MustParseAmount("3.5"), acct.Balance)
}

func TestAccountRepo_RejectingAccount(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteAccountRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.SetRejectsFunds(ctx, testutil.Creator, true))
	err := repo.Transfer(ctx, testutil.Creator, domain.Unit)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransferFailure)

	acct, err := repo.Get(ctx, testutil.Creator)
	require.NoError(t, err)
	assert.True(t, acct.RejectsFunds)
	assert.Equal(t, domain.Amount(0), acct.Balance)

	require.NoError(t, repo.SetRejectsFunds(ctx, testutil.Creator, false))
	require.NoError(t, repo.Transfer(ctx, testutil.Creator, domain.Unit))
	acct, err = repo.Get(ctx, testutil.Creator)
	require.NoError(t, err)
	assert.Equal(t, domain.Unit, acct.Balance)
}

func TestAccountRepo_TransferRejectsNonPositive(t *testing.T) {
	db := testutil.NewTestDB(t)
	err := NewSQLiteAccountRepo(db).Transfer(context.Background(), testutil.Creator, 0)
	assert.ErrorIs(t, err, domain.ErrTransferFailure)
}
