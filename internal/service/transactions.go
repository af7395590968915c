package service

import (
	"context"
	"io"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/export"
	"github.com/boddenberg/payments-backoffice-go/internal/txpipeline"
)

// TransactionQuery is a filtered, paginated transaction listing.
type TransactionQuery struct {
	Spec     domain.FilterSpec
	Page     int
	PageSize int
	Lang     string
	// Location formats exported dates. Defaults to UTC.
	Location *time.Location

	// PrevPageSize is the page size the client was showing. When it
	// differs from PageSize the listing returns to page 1.
	PrevPageSize int
}

// TransactionOptions are the filter dropdown values of a working set.
type TransactionOptions struct {
	Types    []domain.Option `json:"types"`
	Statuses []domain.Option `json:"statuses"`
}

// ============================================================
// Fetching
// ============================================================

func (s *BackofficeService) allTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return cached(ctx, s, keyAllTransactions, "transactions.all", func(ctx context.Context) ([]domain.Transaction, error) {
		raws, err := s.api.GetAllTransactions(ctx)
		if err != nil {
			return nil, err
		}
		return txpipeline.NormalizeAll(raws), nil
	})
}

func (s *BackofficeService) walletTransactions(ctx context.Context, userID, walletID string) ([]domain.Transaction, error) {
	return cached(ctx, s, walletTxKey(userID, walletID), "transactions.wallet", func(ctx context.Context) ([]domain.Transaction, error) {
		raws, err := s.api.GetWalletTransactions(ctx, userID, walletID)
		if err != nil {
			return nil, err
		}
		return txpipeline.NormalizeAll(raws), nil
	})
}

func (s *BackofficeService) cardTransactions(ctx context.Context, cardID, userID string) ([]domain.Transaction, error) {
	return cached(ctx, s, cardTxKey(cardID, userID), "transactions.card", func(ctx context.Context) ([]domain.Transaction, error) {
		raws, err := s.api.GetCardTransactions(ctx, cardID, userID)
		if err != nil {
			return nil, err
		}
		return txpipeline.NormalizeAll(raws), nil
	})
}

// ============================================================
// Listings
// ============================================================

// ListTransactions returns one page of the filtered global transaction
// list. Dropdown options are derived from the unfiltered set.
func (s *BackofficeService) ListTransactions(ctx context.Context, p domain.Principal, q TransactionQuery) (*domain.TransactionPage, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.ListTransactions")
	defer span.End()

	txs, err := s.allTransactions(ctx)
	if err != nil {
		return nil, s.fail(ctx, p, "transactions.all", err)
	}
	page := s.page(txs, q)
	span.SetAttributes(attribute.Int("transactions.total", page.Total))
	return page, nil
}

// WalletTransactions lists the transactions of one customer wallet.
func (s *BackofficeService) WalletTransactions(ctx context.Context, p domain.Principal, userID, walletID string, q TransactionQuery) (*domain.TransactionPage, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.WalletTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("wallet.id", walletID))

	txs, err := s.walletTransactions(ctx, userID, walletID)
	if err != nil {
		return nil, s.fail(ctx, p, "transactions.wallet", err, zap.String("wallet_id", walletID))
	}
	return s.page(txs, q), nil
}

// CardTransactions lists the transactions of one customer card.
func (s *BackofficeService) CardTransactions(ctx context.Context, p domain.Principal, cardID, userID string, q TransactionQuery) (*domain.TransactionPage, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.CardTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("card.id", cardID))

	txs, err := s.cardTransactions(ctx, cardID, userID)
	if err != nil {
		return nil, s.fail(ctx, p, "transactions.card", err, zap.String("card_id", cardID))
	}
	return s.page(txs, q), nil
}

func (s *BackofficeService) page(txs []domain.Transaction, q TransactionQuery) *domain.TransactionPage {
	pager := txpipeline.NewPaginator(q.PageSize)
	pager.SetPage(q.Page)
	if q.PrevPageSize > 0 && q.PrevPageSize != pager.PageSize {
		pager.SetPageSize(q.PageSize)
	}

	res := txpipeline.FilterAndAggregate(txs, q.Spec)
	return &domain.TransactionPage{
		Items:             txpipeline.Paginate(res.Filtered, pager.Page, pager.PageSize),
		Page:              pager.Page,
		PageSize:          pager.PageSize,
		TotalPages:        txpipeline.TotalPages(len(res.Filtered), pager.PageSize),
		Total:             len(res.Filtered),
		AvailableTypes:    txpipeline.AvailableTypes(txs, s.translator, q.Lang),
		AvailableStatuses: txpipeline.AvailableStatuses(txs, s.translator, q.Lang),
	}
}

// TransactionOptions returns the type and status dropdowns of the global
// transaction list.
func (s *BackofficeService) TransactionOptions(ctx context.Context, p domain.Principal, lang string) (*TransactionOptions, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.TransactionOptions")
	defer span.End()

	txs, err := s.allTransactions(ctx)
	if err != nil {
		return nil, s.fail(ctx, p, "transactions.all", err)
	}
	return &TransactionOptions{
		Types:    txpipeline.AvailableTypes(txs, s.translator, lang),
		Statuses: txpipeline.AvailableStatuses(txs, s.translator, lang),
	}, nil
}

// ============================================================
// Report & export
// ============================================================

// TransactionReport aggregates the filtered global list by type and month.
func (s *BackofficeService) TransactionReport(ctx context.Context, p domain.Principal, spec domain.FilterSpec) (*domain.TransactionReport, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.TransactionReport")
	defer span.End()

	txs, err := s.allTransactions(ctx)
	if err != nil {
		return nil, s.fail(ctx, p, "transactions.all", err)
	}
	res := txpipeline.FilterAndAggregate(txs, spec)
	return &domain.TransactionReport{
		Count:       len(res.Filtered),
		TotalAmount: res.Total(),
		ByType:      res.ByType,
		ByMonth:     res.ByMonth,
	}, nil
}

// exportHeaders are the CSV columns, as translation keys.
var exportHeaders = []string{
	"transaction.header.id",
	"transaction.header.date",
	"transaction.header.type",
	"transaction.header.status",
	"transaction.header.amount",
	"transaction.header.currency",
	"transaction.header.wallet",
	"transaction.header.customer",
	"transaction.header.merchant",
	"transaction.header.paymentType",
}

// ExportTransactions writes the filtered global list as CSV with translated
// headers and labels. It returns the number of exported rows.
func (s *BackofficeService) ExportTransactions(ctx context.Context, p domain.Principal, q TransactionQuery, w io.Writer) (int, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.ExportTransactions")
	defer span.End()

	if err := s.require(ctx, p, domain.CapExportData); err != nil {
		return 0, err
	}

	txs, err := s.allTransactions(ctx)
	if err != nil {
		return 0, s.fail(ctx, p, "transactions.all", err)
	}
	filtered := txpipeline.FilterAndAggregate(txs, q.Spec).Filtered

	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}
	headers := make([]string, len(exportHeaders))
	for i, key := range exportHeaders {
		headers[i] = s.translator.Translate(key, q.Lang)
	}

	err = export.WriteMapped(w, headers, filtered, func(t domain.Transaction) []string {
		id := t.TransactionID
		if id == "" && t.ID != 0 {
			id = strconv.FormatInt(t.ID, 10)
		}
		date := ""
		if t.HasDate() {
			date = t.Date.In(loc).Format("2006-01-02 15:04:05")
		}
		return []string{
			id,
			date,
			txpipeline.TypeLabel(s.translator, t.Type, q.Lang),
			txpipeline.StatusLabel(s.translator, t.Status, q.Lang),
			t.Amount.StringFixed(2),
			t.Currency,
			t.WalletID,
			t.CustomerID,
			t.Merchant,
			t.PaymentType,
		}
	})
	if err != nil {
		return 0, err
	}

	s.record(ctx, p, domain.AuditExportTransactions, "transactions", "", map[string]string{
		"rows": strconv.Itoa(len(filtered)),
	})
	return len(filtered), nil
}
