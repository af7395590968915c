package client

import (
	"context"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// GetAllTransactions fetches the company-wide transaction list.
func (c *BackofficeClient) GetAllTransactions(ctx context.Context) ([]domain.RawTransaction, error) {
	var txs []domain.RawTransaction
	if err := c.do(ctx, "GetAllTransactions", http.MethodGet, "/transactions", nil, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetWalletTransactions fetches the transactions of one customer wallet.
func (c *BackofficeClient) GetWalletTransactions(ctx context.Context, userID, walletID string) ([]domain.RawTransaction, error) {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("wallet.id", walletID),
	)
	var txs []domain.RawTransaction
	path := "/users/" + url.PathEscape(userID) + "/wallets/" + url.PathEscape(walletID) + "/transactions"
	if err := c.do(ctx, "GetWalletTransactions", http.MethodGet, path, nil, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetCardTransactions fetches the transactions of a card.
func (c *BackofficeClient) GetCardTransactions(ctx context.Context, cardID, userID string) ([]domain.RawTransaction, error) {
	var txs []domain.RawTransaction
	path := "/cards/" + url.PathEscape(cardID) + "/transactions"
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, "GetCardTransactions", http.MethodGet, path, q, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// ChangeTransactionStatus asks upstream to move a transaction to a new
// status. Upstream stays authoritative; nothing is changed locally.
func (c *BackofficeClient) ChangeTransactionStatus(ctx context.Context, walletID, transactionID string, req domain.StatusChangeRequest) error {
	path := "/wallets/" + url.PathEscape(walletID) + "/transactions/" + url.PathEscape(transactionID) + "/status"
	return c.do(ctx, "ChangeTransactionStatus", http.MethodPatch, path, nil, req, nil)
}

// CompensateCustomer credits walletID from req.OriginWalletID and returns
// the created transaction.
func (c *BackofficeClient) CompensateCustomer(ctx context.Context, companyID, userID, walletID string, req domain.CompensationRequest) (*domain.RawTransaction, error) {
	var tx domain.RawTransaction
	path := "/companies/" + url.PathEscape(companyID) +
		"/users/" + url.PathEscape(userID) +
		"/wallets/" + url.PathEscape(walletID) + "/compensations"
	if err := c.do(ctx, "CompensateCustomer", http.MethodPost, path, nil, req, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}
