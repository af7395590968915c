package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/txpipeline"
)

// ============================================================
// Backoffice users
// ============================================================

func (s *BackofficeService) backofficeUsers(ctx context.Context) ([]domain.BackofficeUser, error) {
	return cached(ctx, s, keyBackofficeUsers, "backoffice_users.list", s.api.ListBackofficeUsers)
}

// ListBackofficeUsers lists the backoffice accounts.
func (s *BackofficeService) ListBackofficeUsers(ctx context.Context, p domain.Principal) ([]domain.BackofficeUser, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.ListBackofficeUsers")
	defer span.End()

	if err := s.require(ctx, p, domain.CapManageBackofficeUsers); err != nil {
		return nil, err
	}
	users, err := s.backofficeUsers(ctx)
	if err != nil {
		return nil, s.fail(ctx, p, "backoffice_users.list", err)
	}
	return users, nil
}

// CreateBackofficeUser registers a backoffice account upstream.
func (s *BackofficeService) CreateBackofficeUser(ctx context.Context, p domain.Principal, req domain.CreateBackofficeUserRequest) (*domain.BackofficeUser, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.CreateBackofficeUser")
	defer span.End()

	if err := s.require(ctx, p, domain.CapManageBackofficeUsers); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}

	u, err := s.api.CreateBackofficeUser(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, p, "backoffice_users.create", err)
	}

	s.cache.Delete(keyBackofficeUsers)
	s.record(ctx, p, domain.AuditCreateBackofficeUser, "backoffice_user", u.ID, map[string]string{
		"email": u.Email,
		"roles": strings.Join(u.Roles, ","),
	})
	s.succeed(ctx, p, "notify.backofficeUserCreated")
	return u, nil
}

// ModifyUserRoles replaces the roles of another backoffice user.
func (s *BackofficeService) ModifyUserRoles(ctx context.Context, p domain.Principal, userID string, req domain.ModifyRolesRequest) (*domain.BackofficeUser, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.ModifyUserRoles")
	defer span.End()
	span.SetAttributes(attribute.String("backoffice_user.id", userID))

	if err := s.require(ctx, p, domain.CapManageBackofficeUsers); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if userID == p.UserID {
		return nil, &domain.ErrValidation{Field: "roles", Message: "You cannot change your own roles"}
	}

	u, err := s.api.ModifyUserRoles(ctx, userID, req.Roles)
	if err != nil {
		return nil, s.fail(ctx, p, "backoffice_users.roles", err, zap.String("backoffice_user_id", userID))
	}

	s.cache.Delete(keyBackofficeUsers)
	s.record(ctx, p, domain.AuditModifyRoles, "backoffice_user", userID, map[string]string{
		"roles": strings.Join(req.Roles, ","),
	})
	s.succeed(ctx, p, "notify.rolesModified")
	return u, nil
}

// ============================================================
// Anti-fraud
// ============================================================

// ListAntiFraudRules returns the anti-fraud rules, cached.
func (s *BackofficeService) ListAntiFraudRules(ctx context.Context, p domain.Principal) ([]domain.AntiFraudRule, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.ListAntiFraudRules")
	defer span.End()

	rules, err := cached(ctx, s, keyAntiFraudRules, "antifraud.list", s.api.ListAntiFraudRules)
	if err != nil {
		return nil, s.fail(ctx, p, "antifraud.list", err)
	}
	return rules, nil
}

// UpdateAntiFraudRule changes a rule threshold or toggles it.
func (s *BackofficeService) UpdateAntiFraudRule(ctx context.Context, p domain.Principal, ruleID string, upd domain.AntiFraudRuleUpdate) (*domain.AntiFraudRule, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.UpdateAntiFraudRule")
	defer span.End()
	span.SetAttributes(attribute.String("rule.id", ruleID))

	if err := s.require(ctx, p, domain.CapConfigureAntiFraud); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, upd); err != nil {
		return nil, err
	}

	rule, err := s.api.UpdateAntiFraudRule(ctx, ruleID, upd, p.Email)
	if err != nil {
		return nil, s.fail(ctx, p, "antifraud.update", err, zap.String("rule_id", ruleID))
	}

	s.cache.Delete(keyAntiFraudRules)
	details := map[string]string{"threshold": upd.Threshold}
	if upd.Enabled != nil && !*upd.Enabled {
		details["enabled"] = "false"
	} else {
		details["enabled"] = "true"
	}
	s.record(ctx, p, domain.AuditUpdateAntiFraudRule, "antifraud_rule", ruleID, details)
	s.succeed(ctx, p, "notify.ruleUpdated")
	return rule, nil
}

// ============================================================
// Audit
// ============================================================

// ListAuditLogs returns audit entries of the caller's company.
func (s *BackofficeService) ListAuditLogs(ctx context.Context, p domain.Principal, f domain.AuditFilter) ([]domain.AuditEntry, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.ListAuditLogs")
	defer span.End()

	if err := s.require(ctx, p, domain.CapViewAuditLogs); err != nil {
		return nil, err
	}
	f.CompanyID = p.CompanyID
	return s.audit.List(ctx, f)
}

// ============================================================
// Dashboard
// ============================================================

// Dashboard summarizes transactions and backoffice users. Both lists are
// fetched concurrently.
func (s *BackofficeService) Dashboard(ctx context.Context, p domain.Principal, spec domain.FilterSpec) (*domain.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.Dashboard")
	defer span.End()

	var (
		txs   []domain.Transaction
		users []domain.BackofficeUser
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.allTransactions(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.backofficeUsers(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, p, "dashboard", err)
	}

	res := txpipeline.FilterAndAggregate(txs, spec)
	byCurrency := make(map[string]string)
	for cur, amount := range txpipeline.AmountByCurrency(res.Filtered) {
		byCurrency[cur] = amount.StringFixed(2)
	}
	active := 0
	for _, u := range users {
		if u.Active && !u.Blocked {
			active++
		}
	}

	return &domain.Dashboard{
		TransactionCount:     len(res.Filtered),
		TotalAmount:          res.Total().StringFixed(2),
		AmountByCurrency:     byCurrency,
		CountByStatus:        txpipeline.CountByStatus(res.Filtered),
		ByType:               res.ByType,
		ByMonth:              res.ByMonth,
		BackofficeUsers:      len(users),
		ActiveBackofficeUser: active,
		GeneratedAt:          s.now().UTC(),
	}, nil
}
