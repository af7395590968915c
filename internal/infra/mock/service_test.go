package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/mock"
	"github.com/boddenberg/payments-backoffice-go/internal/port"
	"github.com/boddenberg/payments-backoffice-go/internal/txpipeline"
)

var _ port.BackofficeAPI = (*mock.Service)(nil)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func newMock() *mock.Service {
	return mock.New(mock.Options{Seed: 7, TransactionCount: 120, Now: now}, nil)
}

func TestNew_IsDeterministic(t *testing.T) {
	ctx := context.Background()
	a, _ := newMock().GetAllTransactions(ctx)
	b, _ := newMock().GetAllTransactions(ctx)
	require.Len(t, a, 120)
	assert.Equal(t, a, b)
}

func TestTransactions_NormalizeAcrossShapes(t *testing.T) {
	raws, err := newMock().GetAllTransactions(context.Background())
	require.NoError(t, err)

	txs := txpipeline.NormalizeAll(raws)
	undated := 0
	for _, tx := range txs {
		assert.NotEqual(t, domain.TypeUnknown, tx.Type)
		if !tx.HasDate() {
			undated++
			continue
		}
		assert.False(t, tx.Date.After(now), tx.Date)
		assert.True(t, tx.Date.After(now.AddDate(0, 0, -61)), tx.Date)
	}
	assert.Positive(t, undated)
	assert.Less(t, undated, len(txs)/5)
}

func TestSearchUsers(t *testing.T) {
	m := newMock()
	ctx := context.Background()

	all, err := m.SearchUsers(ctx, domain.UserSearchParams{})
	require.NoError(t, err)
	require.Len(t, all, 30)

	got, err := m.SearchUsers(ctx, domain.UserSearchParams{"id": "u001"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = m.SearchUsers(ctx, domain.UserSearchParams{"userType": "business"})
	require.NoError(t, err)
	for _, u := range got {
		assert.Equal(t, "business", u.UserType)
	}
	assert.Equal(t, 3, m.Calls("SearchUsers"))
}

func TestBlockAndUnblock(t *testing.T) {
	m := newMock()
	ctx := context.Background()

	require.NoError(t, m.BlockUser(ctx, "u002", "chargeback"))
	got, _ := m.SearchUsers(ctx, domain.UserSearchParams{"id": "u002"})
	assert.Equal(t, domain.UserBlocked, got[0].Status)
	assert.Equal(t, "chargeback", got[0].BlockReason)

	require.NoError(t, m.UnblockUser(ctx, "u002"))
	got, _ = m.SearchUsers(ctx, domain.UserSearchParams{"id": "u002"})
	assert.Equal(t, domain.UserActive, got[0].Status)

	err := m.BlockUser(ctx, "nobody", "x")
	var nf *domain.ErrNotFound
	assert.True(t, errors.As(err, &nf))
	assert.Contains(t, err.Error(), "Not Found")
}

func TestCompensateCustomer_AppendsTransaction(t *testing.T) {
	m := newMock()
	ctx := context.Background()

	wallets, err := m.ListUserWallets(ctx, "u001")
	require.NoError(t, err)
	require.NotEmpty(t, wallets)
	w := wallets[0]

	before, _ := m.GetWalletTransactions(ctx, "u001", w.ID)
	tx, err := m.CompensateCustomer(ctx, mock.DefaultCompanyID, "u001", w.ID, domain.CompensationRequest{
		OriginWalletID: "ops", Amount: decimal.RequireFromString("15.25"), Currency: w.Currency, Reason: "goodwill",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeCompensation, tx.TransactionType)

	after, _ := m.GetWalletTransactions(ctx, "u001", w.ID)
	assert.Len(t, after, len(before)+1)
}

func TestChangeTransactionStatus(t *testing.T) {
	m := newMock()
	ctx := context.Background()

	raws, _ := m.GetAllTransactions(ctx)
	target := raws[1]
	require.NotEmpty(t, target.TransactionID)

	err := m.ChangeTransactionStatus(ctx, target.WalletID, target.TransactionID, domain.StatusChangeRequest{NewStatus: domain.StatusCancelled, Reason: "dup"})
	require.NoError(t, err)

	raws, _ = m.GetAllTransactions(ctx)
	assert.Equal(t, domain.StatusCancelled, raws[1].Status)
}

func TestAuthenticate(t *testing.T) {
	m := newMock()
	ctx := context.Background()

	acc := mock.SeedAccounts[3]
	u, err := m.Authenticate(ctx, acc.Email, acc.Password)
	require.NoError(t, err)
	assert.Equal(t, acc.Roles, u.Roles)

	_, err = m.Authenticate(ctx, acc.Email, "wrong")
	var ua *domain.ErrUnauthorized
	assert.True(t, errors.As(err, &ua))
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestBackofficeUsers(t *testing.T) {
	m := newMock()
	ctx := context.Background()

	created, err := m.CreateBackofficeUser(ctx, domain.CreateBackofficeUserRequest{
		Name: "Nora", Surname: "Paz", Email: "nora@backoffice.test", Password: "longpassword", Roles: []string{"analista"},
	})
	require.NoError(t, err)

	_, err = m.CreateBackofficeUser(ctx, domain.CreateBackofficeUserRequest{Email: "NORA@backoffice.test"})
	var conflict *domain.ErrConflict
	assert.True(t, errors.As(err, &conflict))

	updated, err := m.ModifyUserRoles(ctx, created.ID, []string{"operador", "analista"})
	require.NoError(t, err)
	assert.Equal(t, []string{"operador", "analista"}, updated.Roles)

	_, err = m.Authenticate(ctx, "nora@backoffice.test", "longpassword")
	assert.NoError(t, err)

	users, _ := m.ListBackofficeUsers(ctx)
	assert.Len(t, users, len(mock.SeedAccounts)+1)
}

func TestFailNext(t *testing.T) {
	m := newMock()
	boom := errors.New("503 Service Unavailable")
	m.FailNext("GetAllTransactions", boom)

	_, err := m.GetAllTransactions(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = m.GetAllTransactions(context.Background())
	assert.NoError(t, err)
}

func TestUpdateAntiFraudRule(t *testing.T) {
	m := newMock()
	enabled := false
	r, err := m.UpdateAntiFraudRule(context.Background(), "r1", domain.AntiFraudRuleUpdate{Threshold: "7500", Enabled: &enabled}, "bo-1")
	require.NoError(t, err)
	assert.Equal(t, "7500", r.Threshold)
	assert.False(t, r.Enabled)
	assert.Equal(t, "bo-1", r.UpdatedBy)
}
