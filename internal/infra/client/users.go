package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// SearchUsers finds customers matching every given parameter.
func (c *BackofficeClient) SearchUsers(ctx context.Context, params domain.UserSearchParams) ([]domain.CustomerUser, error) {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	var users []domain.CustomerUser
	if err := c.do(ctx, "SearchUsers", http.MethodGet, "/users/search", q, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *BackofficeClient) ListUserWallets(ctx context.Context, userID string) ([]domain.Wallet, error) {
	var wallets []domain.Wallet
	path := "/users/" + url.PathEscape(userID) + "/wallets"
	if err := c.do(ctx, "ListUserWallets", http.MethodGet, path, nil, nil, &wallets); err != nil {
		return nil, err
	}
	return wallets, nil
}

func (c *BackofficeClient) BlockUser(ctx context.Context, userID, reason string) error {
	path := "/users/" + url.PathEscape(userID) + "/block"
	return c.do(ctx, "BlockUser", http.MethodPost, path, nil, domain.BlockRequest{Reason: reason}, nil)
}

func (c *BackofficeClient) UnblockUser(ctx context.Context, userID string) error {
	path := "/users/" + url.PathEscape(userID) + "/unblock"
	return c.do(ctx, "UnblockUser", http.MethodPost, path, nil, nil, nil)
}
