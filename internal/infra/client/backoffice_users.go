package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

func (c *BackofficeClient) ListBackofficeUsers(ctx context.Context) ([]domain.BackofficeUser, error) {
	var users []domain.BackofficeUser
	if err := c.do(ctx, "ListBackofficeUsers", http.MethodGet, "/backoffice/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *BackofficeClient) CreateBackofficeUser(ctx context.Context, req domain.CreateBackofficeUserRequest) (*domain.BackofficeUser, error) {
	var u domain.BackofficeUser
	if err := c.do(ctx, "CreateBackofficeUser", http.MethodPost, "/backoffice/users", nil, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *BackofficeClient) ModifyUserRoles(ctx context.Context, userID string, roles []string) (*domain.BackofficeUser, error) {
	var u domain.BackofficeUser
	path := "/backoffice/users/" + url.PathEscape(userID) + "/roles"
	if err := c.do(ctx, "ModifyUserRoles", http.MethodPut, path, nil, domain.ModifyRolesRequest{Roles: roles}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate checks backoffice credentials upstream. A 401 surfaces as an
// external error whose text contains "Unauthorized".
func (c *BackofficeClient) Authenticate(ctx context.Context, email, password string) (*domain.BackofficeUser, error) {
	var u domain.BackofficeUser
	body := domain.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, "Authenticate", http.MethodPost, "/backoffice/auth", nil, body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
