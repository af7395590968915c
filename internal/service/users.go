package service

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/access"
	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// UserSearchResult holds the customer users found by a search, projected
// to the fields the caller may see.
type UserSearchResult struct {
	Fields []string         `json:"fields"`
	Users  []map[string]any `json:"users"`
	Total  int              `json:"total"`
}

// SearchUsers runs the dynamic user search. Only fields the caller may
// search are sent upstream, and at least one must hold a valid value.
func (s *BackofficeService) SearchUsers(ctx context.Context, p domain.Principal, params domain.UserSearchParams) (*UserSearchResult, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.SearchUsers")
	defer span.End()

	policy := s.FieldPolicy(ctx, p)
	params = policy.SearchParams(params)
	if err := access.ValidateSearch(params); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("search.fields", len(params)))

	users, err := cached(ctx, s, searchKey(params), "users.search", func(ctx context.Context) ([]domain.CustomerUser, error) {
		return s.api.SearchUsers(ctx, params)
	})
	if err != nil {
		return nil, s.fail(ctx, p, "users.search", err)
	}

	if s.settings != nil {
		if err := s.settings.RecordSearch(ctx, p.UserID, params); err != nil {
			s.logger.Warn("search history not saved", zap.String("user_id", p.UserID), zap.Error(err))
		}
	}

	out := &UserSearchResult{
		Fields: policy.VisibleFields(),
		Users:  make([]map[string]any, 0, len(users)),
		Total:  len(users),
	}
	for _, u := range users {
		rec, err := toRecord(u)
		if err != nil {
			return nil, err
		}
		out.Users = append(out.Users, policy.Project(rec))
	}
	return out, nil
}

// toRecord flattens v into its JSON object form.
func toRecord(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUserWallets returns the wallets of a customer.
func (s *BackofficeService) ListUserWallets(ctx context.Context, p domain.Principal, userID string) ([]domain.Wallet, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.ListUserWallets")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	wallets, err := cached(ctx, s, prefixWallets+userID, "users.wallets", func(ctx context.Context) ([]domain.Wallet, error) {
		return s.api.ListUserWallets(ctx, userID)
	})
	if err != nil {
		return nil, s.fail(ctx, p, "users.wallets", err, zap.String("customer_id", userID))
	}
	return wallets, nil
}

// ============================================================
// Block / unblock
// ============================================================

// BlockUser blocks a customer with a reason and drops cached searches.
func (s *BackofficeService) BlockUser(ctx context.Context, p domain.Principal, userID string, req domain.BlockRequest) error {
	ctx, span := tracer.Start(ctx, "BackofficeService.BlockUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := s.require(ctx, p, domain.CapBlockUser); err != nil {
		return err
	}
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}
	if err := s.api.BlockUser(ctx, userID, req.Reason); err != nil {
		return s.fail(ctx, p, "users.block", err, zap.String("customer_id", userID))
	}

	s.cache.DeletePrefix(prefixUserSearch)
	s.record(ctx, p, domain.AuditBlockUser, "user", userID, map[string]string{"reason": req.Reason})
	s.succeed(ctx, p, "notify.userBlocked")
	s.logger.Info("customer blocked", zap.String("customer_id", userID), zap.String("actor_id", p.UserID))
	return nil
}

// UnblockUser lifts a customer block.
func (s *BackofficeService) UnblockUser(ctx context.Context, p domain.Principal, userID string) error {
	ctx, span := tracer.Start(ctx, "BackofficeService.UnblockUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if err := s.require(ctx, p, domain.CapUnblockUser); err != nil {
		return err
	}
	if err := s.api.UnblockUser(ctx, userID); err != nil {
		return s.fail(ctx, p, "users.unblock", err, zap.String("customer_id", userID))
	}

	s.cache.DeletePrefix(prefixUserSearch)
	s.record(ctx, p, domain.AuditUnblockUser, "user", userID, nil)
	s.succeed(ctx, p, "notify.userUnblocked")
	s.logger.Info("customer unblocked", zap.String("customer_id", userID), zap.String("actor_id", p.UserID))
	return nil
}
