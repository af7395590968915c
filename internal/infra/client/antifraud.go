package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

func (c *BackofficeClient) ListAntiFraudRules(ctx context.Context) ([]domain.AntiFraudRule, error) {
	var rules []domain.AntiFraudRule
	if err := c.do(ctx, "ListAntiFraudRules", http.MethodGet, "/antifraud/rules", nil, nil, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *BackofficeClient) UpdateAntiFraudRule(ctx context.Context, ruleID string, upd domain.AntiFraudRuleUpdate, updatedBy string) (*domain.AntiFraudRule, error) {
	body := struct {
		domain.AntiFraudRuleUpdate
		UpdatedBy string `json:"updatedBy"`
	}{upd, updatedBy}

	var rule domain.AntiFraudRule
	path := "/antifraud/rules/" + url.PathEscape(ruleID)
	if err := c.do(ctx, "UpdateAntiFraudRule", http.MethodPut, path, nil, body, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}
