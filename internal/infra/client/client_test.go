package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/client"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/resilience"
)

func newClient(t *testing.T, h http.HandlerFunc) (*client.BackofficeClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	c := client.NewBackofficeClient(srv.Client(), srv.URL, "secret-token", resilience.NewCircuitBreaker(t.Name(), nil), cfg)
	return c, srv
}

func TestGetAllTransactions_DecodesMixedShapes(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"id": 1, "amount": 10.5, "transactionType": "deposit"},
			{"transactionId": "T2", "amount": "3", "transaction_type": "refund"}
		]`))
	})

	txs, err := c.GetAllTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "deposit", txs[0].TransactionType)
	assert.Equal(t, "refund", txs[1].TransactionTypeSnake)
	assert.True(t, txs[1].Amount.Equal(decimal.NewFromInt(3)))
}

func TestSearchUsers_SendsParams(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/search", r.URL.Path)
		assert.Equal(t, "Ana", r.URL.Query().Get("name"))
		_ = json.NewEncoder(w).Encode([]domain.CustomerUser{{ID: "u1", Name: "Ana"}})
	})

	users, err := c.SearchUsers(context.Background(), domain.UserSearchParams{"name": "Ana"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
}

func TestChangeTransactionStatus_SendsBody(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/wallets/w1/transactions/t1/status", r.URL.Path)
		var body domain.StatusChangeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cancelled", body.NewStatus)
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.ChangeTransactionStatus(context.Background(), "w1", "t1", domain.StatusChangeRequest{NewStatus: "cancelled", Reason: "fraud"})
	assert.NoError(t, err)
}

func TestClientErrors_AreNotRetried(t *testing.T) {
	var calls int32
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "invalid status"}`))
	})

	err := c.BlockUser(context.Background(), "u1", "fraud")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Contains(t, err.Error(), "Bad Request")
	assert.Contains(t, err.Error(), "invalid status")

	var ext *domain.ErrExternalService
	assert.True(t, errors.As(err, &ext))
	var se *client.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
}

func TestNotFound_MapsToDomainError(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.ListUserWallets(context.Background(), "u404")
	var nf *domain.ErrNotFound
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, "wallets", nf.Resource)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestServerErrors_AreRetried(t *testing.T) {
	var calls int32
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	rules, err := c.ListAntiFraudRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTimeout_MapsToErrTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	hc := &http.Client{Timeout: 20 * time.Millisecond}
	c := client.NewBackofficeClient(hc, srv.URL, "", resilience.NewCircuitBreaker("timeout", nil), resilience.Config{MaxConcurrency: 1})

	_, err := c.GetAllTransactions(context.Background())
	var te *domain.ErrTimeout
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, "GetAllTransactions", te.Operation)
}

func TestCompensateCustomer(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/companies/acme/users/u1/wallets/w1/compensations"))
		var req domain.CompensationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "25", req.Amount.String())
		_, _ = w.Write([]byte(`{"transactionId": "C-1", "amount": "25", "type": "compensation", "status": "completed"}`))
	})

	tx, err := c.CompensateCustomer(context.Background(), "acme", "u1", "w1", domain.CompensationRequest{
		OriginWalletID: "w0", Amount: decimal.NewFromInt(25), Currency: "USD", Reason: "goodwill",
	})
	require.NoError(t, err)
	assert.Equal(t, "C-1", tx.TransactionID)
}
