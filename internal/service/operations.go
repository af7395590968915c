package service

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
	"github.com/boddenberg/payments-backoffice-go/internal/txpipeline"
)

// TransactionRef locates a transaction inside a customer wallet.
type TransactionRef struct {
	UserID        string
	WalletID      string
	TransactionID string
}

// ChangeTransactionStatus asks upstream to move a transaction to a new
// status. The cached wallet list is patched before the call. On failure only
// the patched transaction is restored; on success the wallet, global and
// card lists are refetched on next read.
func (s *BackofficeService) ChangeTransactionStatus(ctx context.Context, p domain.Principal, ref TransactionRef, req domain.StatusChangeRequest) error {
	ctx, span := tracer.Start(ctx, "BackofficeService.ChangeTransactionStatus")
	defer span.End()

	if err := s.require(ctx, p, domain.CapChangeTransactionStatus); err != nil {
		return err
	}
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}
	if err := s.changeStatus(ctx, p, ref, req); err != nil {
		return err
	}

	s.record(ctx, p, domain.AuditChangeTransactionStatus, "transaction", ref.TransactionID, map[string]string{
		"wallet_id":  ref.WalletID,
		"new_status": req.NewStatus,
		"reason":     req.Reason,
	})
	s.succeed(ctx, p, "notify.statusChanged")
	return nil
}

// CancelTransaction is a status change to cancelled, gated by its own
// capability.
func (s *BackofficeService) CancelTransaction(ctx context.Context, p domain.Principal, ref TransactionRef, reason string) error {
	ctx, span := tracer.Start(ctx, "BackofficeService.CancelTransaction")
	defer span.End()

	if err := s.require(ctx, p, domain.CapCancelTransaction); err != nil {
		return err
	}
	req := domain.StatusChangeRequest{NewStatus: domain.StatusCancelled, Reason: reason}
	if err := validateStruct(s.validate, req); err != nil {
		return err
	}
	if err := s.changeStatus(ctx, p, ref, req); err != nil {
		return err
	}

	s.record(ctx, p, domain.AuditCancelTransaction, "transaction", ref.TransactionID, map[string]string{
		"wallet_id": ref.WalletID,
		"reason":    reason,
	})
	s.succeed(ctx, p, "notify.transactionCancelled")
	return nil
}

func (s *BackofficeService) changeStatus(ctx context.Context, p domain.Principal, ref TransactionRef, req domain.StatusChangeRequest) error {
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("wallet.id", ref.WalletID),
		attribute.String("transaction.id", ref.TransactionID),
	)

	key := walletTxKey(ref.UserID, ref.WalletID)
	previous, patched := "", false
	s.cache.Update(key, func(v any) any {
		txs, ok := v.([]domain.Transaction)
		if !ok {
			return v
		}
		if prev, found := statusOf(txs, ref.TransactionID); found {
			previous, patched = prev, true
		}
		return withStatus(txs, ref.TransactionID, req.NewStatus)
	})

	if err := s.api.ChangeTransactionStatus(ctx, ref.WalletID, ref.TransactionID, req); err != nil {
		if patched {
			// undo only this transaction; other changes to the list stay
			s.cache.Update(key, func(v any) any {
				txs, ok := v.([]domain.Transaction)
				if !ok {
					return v
				}
				return withStatus(txs, ref.TransactionID, previous)
			})
		}
		return s.fail(ctx, p, "transactions.status", err,
			zap.String("wallet_id", ref.WalletID),
			zap.String("transaction_id", ref.TransactionID),
		)
	}

	// the patch showed the change immediately; the next read refetches
	s.cache.Delete(key)
	s.cache.Delete(keyAllTransactions)
	s.cache.DeletePrefix(prefixCardTx)
	s.logger.Info("transaction status changed",
		zap.String("wallet_id", ref.WalletID),
		zap.String("transaction_id", ref.TransactionID),
		zap.String("status", req.NewStatus),
		zap.String("actor_id", p.UserID),
	)
	return nil
}

// statusOf returns the status of the transaction identified by id.
func statusOf(txs []domain.Transaction, id string) (string, bool) {
	for _, t := range txs {
		if matchesRef(t, id) {
			return t.Status, true
		}
	}
	return "", false
}

func matchesRef(t domain.Transaction, id string) bool {
	return t.TransactionID == id || (t.ID != 0 && strconv.FormatInt(t.ID, 10) == id)
}

// withStatus returns a copy of txs where the transaction identified by id
// (its transaction ID or numeric ID) carries status.
func withStatus(txs []domain.Transaction, id, status string) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	copy(out, txs)
	for i := range out {
		if matchesRef(out[i], id) {
			out[i].Status = status
		}
	}
	return out
}

// ============================================================
// Compensation
// ============================================================

// Compensate credits a customer wallet from an origin wallet of the
// caller's company.
func (s *BackofficeService) Compensate(ctx context.Context, p domain.Principal, userID, walletID string, req domain.CompensationRequest) (*domain.CompensationResult, error) {
	ctx, span := tracer.Start(ctx, "BackofficeService.Compensate")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("wallet.id", walletID))

	if err := s.require(ctx, p, domain.CapCompensate); err != nil {
		return nil, err
	}
	if err := validateStruct(s.validate, req); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "Must be greater than 0"}
	}
	if req.OriginWalletID == walletID {
		return nil, &domain.ErrValidation{Field: "originWalletId", Message: "Origin and destination wallets must differ"}
	}

	raw, err := s.api.CompensateCustomer(ctx, p.CompanyID, userID, walletID, req)
	if err != nil {
		return nil, s.fail(ctx, p, "transactions.compensate", err,
			zap.String("customer_id", userID),
			zap.String("wallet_id", walletID),
		)
	}

	s.cache.DeletePrefix(prefixTransactions)
	s.cache.Delete(prefixWallets + userID)
	s.record(ctx, p, domain.AuditCompensate, "wallet", walletID, map[string]string{
		"customer_id":      userID,
		"origin_wallet_id": req.OriginWalletID,
		"amount":           req.Amount.String(),
		"currency":         req.Currency,
		"reason":           req.Reason,
	})
	s.succeed(ctx, p, "notify.compensated")

	result := &domain.CompensationResult{Message: s.translator.Translate("notify.compensated", s.lang)}
	if raw != nil {
		result.Transaction = txpipeline.Normalize(*raw)
	}
	return result, nil
}
