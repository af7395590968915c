package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/i18n"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/audit"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/cache"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/mock"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/notify"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/observability"
	"github.com/boddenberg/payments-backoffice-go/internal/infra/store"
	"github.com/boddenberg/payments-backoffice-go/internal/service"
)

type fixture struct {
	api      *mock.Service
	cache    *cache.InMemory[any]
	svc      *service.BackofficeService
	settings *service.SettingsService
	notes    *notify.Center
	audit    *audit.Memory
	metrics  *observability.Metrics
}

func newFixture(t *testing.T, opts mock.Options) *fixture {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 7
	}
	api := mock.New(opts, nil)
	c := cache.New[any](5 * time.Minute)
	t.Cleanup(c.Close)

	metrics := observability.NewMetrics()
	settings := service.NewSettingsService(store.NewMemory(), service.DefaultSettings("en"), nil)
	f := &fixture{
		api:      api,
		cache:    c,
		settings: settings,
		notes:    notify.NewCenter(0, metrics, nil),
		audit:    audit.NewMemory(),
		metrics:  metrics,
	}
	f.svc = service.NewBackofficeService(service.Deps{
		API:        api,
		Cache:      c,
		Settings:   settings,
		Audit:      f.audit,
		Notifier:   f.notes,
		Translator: i18n.Default(),
		Metrics:    metrics,
	})
	return f
}

func principal(roles ...string) domain.Principal {
	return domain.Principal{
		UserID:    "bo-test",
		Email:     "tester@backoffice.test",
		CompanyID: mock.DefaultCompanyID,
		Roles:     domain.NewRoleSet(roles...),
	}
}

// firstWalletTx returns a dated transaction with a string id and its owner.
func firstWalletTx(t *testing.T, api *mock.Service) domain.RawTransaction {
	t.Helper()
	raws, err := api.GetAllTransactions(context.Background())
	require.NoError(t, err)
	for _, r := range raws {
		if r.TransactionID != "" && r.Status != domain.StatusApproved {
			return r
		}
	}
	t.Fatal("no suitable transaction in seed")
	return domain.RawTransaction{}
}

// ============================================================
// Access denial
// ============================================================

func TestCancelTransaction_OperatorIsDeniedBeforeAnyCall(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("operador")
	before := f.api.TotalCalls()

	err := f.svc.CancelTransaction(context.Background(), p, service.TransactionRef{
		UserID: "u001", WalletID: "w001-1", TransactionID: "TX-001001",
	}, "customer asked")

	var forbidden *domain.ErrForbidden
	require.ErrorAs(t, err, &forbidden)
	assert.Equal(t, string(domain.CapCancelTransaction), forbidden.Action)
	assert.Equal(t, before, f.api.TotalCalls(), "no API call on denial")

	notes := f.notes.List(p.UserID)
	require.Len(t, notes, 1)
	assert.Equal(t, "errors.accessDenied", notes[0].MessageKey)
	assert.Equal(t, domain.LevelError, notes[0].Level)
	assert.Equal(t, float64(1), f.metrics.CounterValue("access_denied_total", string(domain.CapCancelTransaction)))

	entries, _ := f.audit.List(context.Background(), domain.AuditFilter{})
	assert.Empty(t, entries)
}

func TestAdminActions_DeniedForAnalyst(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("analista")
	ctx := context.Background()

	_, err := f.svc.ListBackofficeUsers(ctx, p)
	assert.Error(t, err)
	_, err = f.svc.UpdateAntiFraudRule(ctx, p, "r1", domain.AntiFraudRuleUpdate{Threshold: "10"})
	assert.Error(t, err)
	assert.Equal(t, 0, f.api.TotalCalls())
	assert.Len(t, f.notes.List(p.UserID), 2)
}

// ============================================================
// Transactions & query cache
// ============================================================

func TestListTransactions_CachesAndPaginates(t *testing.T) {
	f := newFixture(t, mock.Options{TransactionCount: 45})
	p := principal("analista")
	ctx := context.Background()

	page, err := f.svc.ListTransactions(ctx, p, service.TransactionQuery{Page: 5, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 45, page.Total)
	assert.Equal(t, 5, page.TotalPages)
	assert.Len(t, page.Items, 5)
	assert.NotEmpty(t, page.AvailableTypes)

	_, err = f.svc.ListTransactions(ctx, p, service.TransactionQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.Calls("GetAllTransactions"))
	assert.Equal(t, float64(1), f.metrics.CounterValue("cache_hits_total", "transactions.all"))
}

func TestListTransactions_PageSizeChangeReturnsToFirstPage(t *testing.T) {
	f := newFixture(t, mock.Options{TransactionCount: 80})
	p := principal("analista")
	ctx := context.Background()

	first, err := f.svc.ListTransactions(ctx, p, service.TransactionQuery{Page: 1, PageSize: 25})
	require.NoError(t, err)

	changed, err := f.svc.ListTransactions(ctx, p, service.TransactionQuery{Page: 3, PageSize: 25, PrevPageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, changed.Page)
	assert.Equal(t, first.Items, changed.Items)

	same, err := f.svc.ListTransactions(ctx, p, service.TransactionQuery{Page: 3, PageSize: 25, PrevPageSize: 25})
	require.NoError(t, err)
	assert.Equal(t, 3, same.Page)
}

func TestListTransactions_ConcurrentFetchesAreShared(t *testing.T) {
	f := newFixture(t, mock.Options{Latency: 30 * time.Millisecond})
	p := principal("analista")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ListTransactions(context.Background(), p, service.TransactionQuery{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, f.api.Calls("GetAllTransactions"))
}

func TestListTransactions_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	f := newFixture(t, mock.Options{Latency: 80 * time.Millisecond})
	first := principal("analista")
	second := principal("analista")
	second.UserID = "bo-other"

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.svc.ListTransactions(ctx, first, service.TransactionQuery{})
		firstErr <- err
	}()
	time.Sleep(10 * time.Millisecond)

	secondDone := make(chan error, 1)
	go func() {
		page, err := f.svc.ListTransactions(context.Background(), second, service.TransactionQuery{})
		if err == nil && page.Total == 0 {
			err = errors.New("empty page")
		}
		secondDone <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	var timeout *domain.ErrTimeout
	assert.ErrorAs(t, <-firstErr, &timeout)
	require.NoError(t, <-secondDone)

	assert.Empty(t, f.notes.List(second.UserID))
	assert.Equal(t, 1, f.api.Calls("GetAllTransactions"))

	_, err := f.svc.ListTransactions(context.Background(), first, service.TransactionQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.Calls("GetAllTransactions"), "result cached despite the cancelled caller")
}

func TestListTransactions_FailureNotifiesWithMappedMessage(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("analista")
	f.api.FailNext("GetAllTransactions", &domain.ErrTimeout{Operation: "GetAllTransactions"})

	_, err := f.svc.ListTransactions(context.Background(), p, service.TransactionQuery{})
	require.Error(t, err)

	notes := f.notes.List(p.UserID)
	require.Len(t, notes, 1)
	assert.Equal(t, "errors.timeout", notes[0].MessageKey)
	assert.Equal(t, float64(1), f.metrics.CounterValue("external_errors_total", "transactions.all"))

	_, err = f.svc.ListTransactions(context.Background(), p, service.TransactionQuery{})
	assert.NoError(t, err, "failures are not cached")
}

func TestTransactionReport_SumsMatchFiltered(t *testing.T) {
	f := newFixture(t, mock.Options{TransactionCount: 120})
	p := principal("analista")

	spec := domain.FilterSpec{Types: []string{domain.TypeDeposit, domain.TypePayment}}
	rep, err := f.svc.TransactionReport(context.Background(), p, spec)
	require.NoError(t, err)

	count := 0
	total := decimal.Zero
	for _, b := range rep.ByType {
		assert.Contains(t, spec.Types, b.Type)
		count += b.Count
		total = total.Add(b.Amount)
	}
	assert.Equal(t, rep.Count, count)
	assert.True(t, rep.TotalAmount.Equal(total))
}

func TestExportTransactions_TranslatedCSV(t *testing.T) {
	f := newFixture(t, mock.Options{TransactionCount: 20})
	p := principal("analista")

	var buf bytes.Buffer
	n, err := f.svc.ExportTransactions(context.Background(), p, service.TransactionQuery{Lang: "es"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 21)
	assert.Equal(t, "ID de transacción", records[0][0])
	assert.Equal(t, "Monto", records[0][4])

	entries, _ := f.audit.List(context.Background(), domain.AuditFilter{Action: domain.AuditExportTransactions})
	require.Len(t, entries, 1)
	assert.Equal(t, "20", entries[0].Details["rows"])
}

func TestExportTransactions_RequiresCapability(t *testing.T) {
	f := newFixture(t, mock.Options{})
	var buf bytes.Buffer
	_, err := f.svc.ExportTransactions(context.Background(), principal("operador"), service.TransactionQuery{}, &buf)

	var forbidden *domain.ErrForbidden
	assert.ErrorAs(t, err, &forbidden)
	assert.Zero(t, buf.Len())
}

// ============================================================
// Operations
// ============================================================

func TestChangeTransactionStatus_RefetchesAfterSuccess(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("compensador")
	ctx := context.Background()
	raw := firstWalletTx(t, f.api)

	_, err := f.svc.ListTransactions(ctx, p, service.TransactionQuery{})
	require.NoError(t, err)
	_, err = f.svc.WalletTransactions(ctx, p, raw.CustomerID, raw.WalletID, service.TransactionQuery{PageSize: 100})
	require.NoError(t, err)

	ref := service.TransactionRef{UserID: raw.CustomerID, WalletID: raw.WalletID, TransactionID: raw.TransactionID}
	err = f.svc.ChangeTransactionStatus(ctx, p, ref, domain.StatusChangeRequest{NewStatus: domain.StatusApproved, Reason: "manual review"})
	require.NoError(t, err)

	page, err := f.svc.WalletTransactions(ctx, p, raw.CustomerID, raw.WalletID, service.TransactionQuery{PageSize: 100, Spec: domain.FilterSpec{ID: raw.TransactionID}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.StatusApproved, page.Items[0].Status)
	assert.Equal(t, 2, f.api.Calls("GetWalletTransactions"), "wallet list refetched from upstream")

	_, err = f.svc.ListTransactions(ctx, p, service.TransactionQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, f.api.Calls("GetAllTransactions"), "global list refetched")

	entries, _ := f.audit.List(ctx, domain.AuditFilter{Action: domain.AuditChangeTransactionStatus})
	require.Len(t, entries, 1)
	assert.Equal(t, raw.TransactionID, entries[0].TargetID)
	assert.Equal(t, "notify.statusChanged", f.notes.List(p.UserID)[0].MessageKey)
}

func TestChangeTransactionStatus_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("compensador")
	ctx := context.Background()
	raw := firstWalletTx(t, f.api)

	_, err := f.svc.WalletTransactions(ctx, p, raw.CustomerID, raw.WalletID, service.TransactionQuery{})
	require.NoError(t, err)

	f.api.FailNext("ChangeTransactionStatus", errors.New("PATCH /wallets: 400 Bad Request"))
	ref := service.TransactionRef{UserID: raw.CustomerID, WalletID: raw.WalletID, TransactionID: raw.TransactionID}
	err = f.svc.ChangeTransactionStatus(ctx, p, ref, domain.StatusChangeRequest{NewStatus: domain.StatusApproved, Reason: "manual review"})
	require.Error(t, err)

	page, err := f.svc.WalletTransactions(ctx, p, raw.CustomerID, raw.WalletID, service.TransactionQuery{Spec: domain.FilterSpec{ID: raw.TransactionID}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, raw.Status, page.Items[0].Status)
	assert.Equal(t, "errors.badRequest", f.notes.List(p.UserID)[0].MessageKey)
}

func TestChangeTransactionStatus_RollbackKeepsConcurrentChanges(t *testing.T) {
	f := newFixture(t, mock.Options{Latency: 60 * time.Millisecond})
	p := principal("compensador")
	ctx := context.Background()
	raw := firstWalletTx(t, f.api)

	page, err := f.svc.WalletTransactions(ctx, p, raw.CustomerID, raw.WalletID, service.TransactionQuery{PageSize: 100})
	require.NoError(t, err)
	var other domain.Transaction
	for _, tx := range page.Items {
		if tx.TransactionID != "" && tx.TransactionID != raw.TransactionID {
			other = tx
			break
		}
	}
	if other.TransactionID == "" {
		t.Skip("seeded wallet has a single addressable transaction")
	}

	f.api.FailNext("ChangeTransactionStatus", errors.New("PATCH /wallets: 400 Bad Request"))
	ref := service.TransactionRef{UserID: raw.CustomerID, WalletID: raw.WalletID, TransactionID: raw.TransactionID}
	done := make(chan error, 1)
	go func() {
		done <- f.svc.ChangeTransactionStatus(ctx, p, ref, domain.StatusChangeRequest{NewStatus: domain.StatusApproved, Reason: "manual review"})
	}()

	time.Sleep(20 * time.Millisecond)
	key := "transactions:wallet:" + raw.CustomerID + ":" + raw.WalletID
	require.True(t, f.cache.Update(key, func(v any) any {
		txs := append([]domain.Transaction(nil), v.([]domain.Transaction)...)
		for i := range txs {
			if txs[i].TransactionID == other.TransactionID {
				txs[i].Status = domain.StatusRejected
			}
		}
		return txs
	}))
	require.Error(t, <-done)

	v, ok := f.cache.Get(key)
	require.True(t, ok)
	for _, tx := range v.([]domain.Transaction) {
		switch tx.TransactionID {
		case raw.TransactionID:
			assert.Equal(t, raw.Status, tx.Status, "patched transaction restored")
		case other.TransactionID:
			assert.Equal(t, domain.StatusRejected, tx.Status, "concurrent change kept")
		}
	}
}

func TestChangeTransactionStatus_ValidatesBeforeCalling(t *testing.T) {
	f := newFixture(t, mock.Options{})
	err := f.svc.ChangeTransactionStatus(context.Background(), principal("compensador"),
		service.TransactionRef{UserID: "u001", WalletID: "w001-1", TransactionID: "x"},
		domain.StatusChangeRequest{NewStatus: "teleported", Reason: "why not"})

	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "newStatus", verr.Field)
	assert.Equal(t, 0, f.api.Calls("ChangeTransactionStatus"))
}

func TestCompensate(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("compensador")
	ctx := context.Background()

	_, err := f.svc.Compensate(ctx, p, "u001", "w001-1", domain.CompensationRequest{
		OriginWalletID: "w002-1", Amount: decimal.Zero, Currency: "USD", Reason: "chargeback",
	})
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)

	res, err := f.svc.Compensate(ctx, p, "u001", "w001-1", domain.CompensationRequest{
		OriginWalletID: "w002-1", Amount: decimal.RequireFromString("12.50"), Currency: "USD", Reason: "chargeback",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeCompensation, res.Transaction.Type)
	assert.True(t, res.Transaction.Amount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "Compensation created", res.Message)

	entries, _ := f.audit.List(ctx, domain.AuditFilter{Action: domain.AuditCompensate})
	require.Len(t, entries, 1)
	assert.Equal(t, "12.5", entries[0].Details["amount"])
}

// ============================================================
// Users
// ============================================================

func TestSearchUsers_DropsUnsearchableFieldsAndProjects(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("analista")
	ctx := context.Background()

	_, err := f.svc.SearchUsers(ctx, p, domain.UserSearchParams{"name": "Ana"})
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr, "name is not searchable for analysts")
	assert.Equal(t, 0, f.api.Calls("SearchUsers"))

	res, err := f.svc.SearchUsers(ctx, p, domain.UserSearchParams{"name": "Ana", "userType": "business"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Users)
	for _, u := range res.Users {
		assert.Equal(t, "business", u["userType"])
		assert.NotContains(t, u, "phone")
		assert.NotContains(t, u, "document")
	}

	last, err := f.settings.LastSearch(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserSearchParams{"userType": "business"}, last)
}

func TestBlockUser_InvalidatesSearches(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("operador")
	ctx := context.Background()
	params := domain.UserSearchParams{"id": "u003"}

	res, err := f.svc.SearchUsers(ctx, p, params)
	require.NoError(t, err)
	require.Len(t, res.Users, 1)
	assert.Equal(t, domain.UserActive, res.Users[0]["status"])

	require.NoError(t, f.svc.BlockUser(ctx, p, "u003", domain.BlockRequest{Reason: "fraud suspicion"}))

	res, err = f.svc.SearchUsers(ctx, p, params)
	require.NoError(t, err)
	assert.Equal(t, domain.UserBlocked, res.Users[0]["status"])
	assert.Equal(t, 2, f.api.Calls("SearchUsers"))

	err = f.svc.BlockUser(ctx, p, "u003", domain.BlockRequest{Reason: ""})
	var verr *domain.ErrValidation
	assert.ErrorAs(t, err, &verr)
}

// ============================================================
// Backoffice users, anti-fraud, dashboard
// ============================================================

func TestModifyUserRoles_CannotChangeOwnRoles(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("configurador")
	p.UserID = "bo-2"

	_, err := f.svc.ModifyUserRoles(context.Background(), p, "bo-2", domain.ModifyRolesRequest{Roles: []string{"admin"}})
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)

	u, err := f.svc.ModifyUserRoles(context.Background(), p, "bo-4", domain.ModifyRolesRequest{Roles: []string{"operador", "analista"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"operador", "analista"}, u.Roles)
}

func TestUpdateAntiFraudRule_InvalidatesRules(t *testing.T) {
	f := newFixture(t, mock.Options{})
	p := principal("configurador")
	ctx := context.Background()

	_, err := f.svc.ListAntiFraudRules(ctx, p)
	require.NoError(t, err)

	enabled := false
	rule, err := f.svc.UpdateAntiFraudRule(ctx, p, "r1", domain.AntiFraudRuleUpdate{Threshold: "7500", Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, "7500", rule.Threshold)
	assert.Equal(t, p.Email, rule.UpdatedBy)

	rules, err := f.svc.ListAntiFraudRules(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 2, f.api.Calls("ListAntiFraudRules"))
	for _, r := range rules {
		if r.ID == "r1" {
			assert.False(t, r.Enabled)
		}
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, mock.Options{TransactionCount: 80})
	d, err := f.svc.Dashboard(context.Background(), principal("analista"), domain.FilterSpec{})
	require.NoError(t, err)

	assert.Equal(t, 80, d.TransactionCount)
	assert.Equal(t, len(mock.SeedAccounts), d.BackofficeUsers)
	assert.Equal(t, len(mock.SeedAccounts), d.ActiveBackofficeUser)

	byStatus := 0
	for _, n := range d.CountByStatus {
		byStatus += n
	}
	assert.Equal(t, 80, byStatus)
}

func TestListAuditLogs_ScopedToCompany(t *testing.T) {
	f := newFixture(t, mock.Options{})
	ctx := context.Background()
	require.NoError(t, f.audit.Record(ctx, domain.AuditEntry{CompanyID: "other", Action: domain.AuditBlockUser}))
	require.NoError(t, f.audit.Record(ctx, domain.AuditEntry{CompanyID: mock.DefaultCompanyID, Action: domain.AuditBlockUser}))

	entries, err := f.svc.ListAuditLogs(ctx, principal("analista"), domain.AuditFilter{CompanyID: "other"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, mock.DefaultCompanyID, entries[0].CompanyID)
}

func TestMessageKeyFor(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&domain.ErrNotFound{Resource: "wallet", ID: "w1"}, "errors.notFound"},
		{errors.New("PATCH /x: 400 Bad Request"), "errors.badRequest"},
		{errors.New("401 Unauthorized"), "errors.unauthorized"},
		{errors.New("403 Forbidden"), "errors.forbidden"},
		{&domain.ErrTimeout{Operation: "op"}, "errors.timeout"},
		{errors.New("dial tcp: i/o timeout"), "errors.timeout"},
		{&domain.ErrCircuitOpen{Service: "api"}, "errors.unavailable"},
		{&domain.ErrForbidden{Action: "compensate"}, "errors.accessDenied"},
		{errors.New("boom"), "errors.generic"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, service.MessageKeyFor(tt.err), tt.err.Error())
	}
}

func zapNop() *zap.Logger { return zap.NewNop() }
