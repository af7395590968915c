// Package domain defines the core backoffice entities.
// These models are independent of the upstream API and represent the
// canonical data structures used throughout the BFF.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Transactions
// ============================================================

// Transaction statuses known to the backoffice. Upstream may send others;
// they are passed through untouched.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
	StatusConfirmed = "confirmed"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

// Transaction types known to the backoffice. Provider-specific codes are
// kept verbatim.
const (
	TypeDeposit      = "deposit"
	TypeWithdrawal   = "withdrawal"
	TypeTransfer     = "transfer"
	TypePayment      = "payment"
	TypeRefund       = "refund"
	TypeCompensation = "compensation"

	// TypeUnknown is used when none of the type fields is populated.
	TypeUnknown = "unknown"
)

// Keys of RawTransaction.AdditionalInfo read by the backoffice.
const (
	InfoPaymentType = "payment_type"
	InfoMerchant    = "merchant"
	InfoCategory    = "category"
	InfoUserType    = "user_type"
)

// RawTransaction is the transaction shape as returned by the backoffice API.
// The same concept is spread over several optional fields because the
// upstream payload evolved over time; use txpipeline.Normalize to turn it
// into a Transaction.
type RawTransaction struct {
	ID                   int64            `json:"id,omitempty"`
	TransactionID        string           `json:"transactionId,omitempty"`
	Date                 string           `json:"date,omitempty"`
	CreatedAt            string           `json:"createdAt,omitempty"`
	Amount               *decimal.Decimal `json:"amount,omitempty"`
	Currency             string           `json:"currency,omitempty"`
	Status               string           `json:"status,omitempty"`
	Type                 string           `json:"type,omitempty"`
	TransactionType      string           `json:"transactionType,omitempty"`
	TransactionTypeSnake string           `json:"transaction_type,omitempty"`
	WalletID             string           `json:"walletId,omitempty"`
	CustomerID           string           `json:"customerId,omitempty"`
	UserID               string           `json:"userId,omitempty"`
	AdditionalInfo       map[string]any   `json:"additionalInfo,omitempty"`
}

// Transaction is the normalized transaction used by every view.
// Date is the zero time when upstream sent no parseable date.
type Transaction struct {
	ID             int64           `json:"id,omitempty"`
	TransactionID  string          `json:"transactionId"`
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	Type           string          `json:"type"`
	WalletID       string          `json:"walletId,omitempty"`
	CustomerID     string          `json:"customerId,omitempty"`
	PaymentType    string          `json:"paymentType,omitempty"`
	Merchant       string          `json:"merchant,omitempty"`
	Category       string          `json:"category,omitempty"`
	UserType       string          `json:"userType,omitempty"`
	AdditionalInfo map[string]any  `json:"additionalInfo,omitempty"`
}

// HasDate reports whether the transaction carries a date.
func (t Transaction) HasDate() bool {
	return !t.Date.IsZero()
}

// FilterSpec describes the transaction filters. A nil or empty field imposes
// no constraint; set fields are combined with logical AND.
type FilterSpec struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Types     []string   `json:"types,omitempty"`
	Status    string     `json:"status,omitempty"`
	Currency  string     `json:"currency,omitempty"`
	ID        string     `json:"id,omitempty"`
	UserType  string     `json:"userType,omitempty"`

	// Location is the caller's timezone. Month buckets are computed in it,
	// with or without date bounds. Nil means UTC.
	Location *time.Location `json:"-"`
}

// IsEmpty reports whether no filter is set.
func (f FilterSpec) IsEmpty() bool {
	return f.StartDate == nil && f.EndDate == nil && len(f.Types) == 0 &&
		f.Status == "" && f.Currency == "" && f.ID == "" && f.UserType == ""
}

// TypeBucket aggregates transactions of one resolved type.
type TypeBucket struct {
	Type   string          `json:"type"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthBucket aggregates transactions of one type within one month.
// Month is "YYYY-MM", or "unknown" for undated transactions.
type MonthBucket struct {
	Month  string          `json:"month"`
	Type   string          `json:"type"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Option is a filter dropdown entry.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// TransactionPage is returned by the transaction list endpoints.
type TransactionPage struct {
	Items             []Transaction `json:"items"`
	Page              int           `json:"page"`
	PageSize          int           `json:"pageSize"`
	TotalPages        int           `json:"totalPages"`
	Total             int           `json:"total"`
	AvailableTypes    []Option      `json:"availableTypes"`
	AvailableStatuses []Option      `json:"availableStatuses"`
}

// TransactionReport is returned by the report endpoint.
type TransactionReport struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ByType      []TypeBucket    `json:"byType"`
	ByMonth     []MonthBucket   `json:"byMonth"`
}

// StatusChangeRequest asks upstream to move a transaction to a new status.
type StatusChangeRequest struct {
	NewStatus string `json:"newStatus" validate:"required,oneof=pending completed cancelled failed confirmed approved rejected"`
	Reason    string `json:"reason" validate:"required,min=3,max=500"`
}

// CompensationRequest credits a customer wallet from an origin wallet.
type CompensationRequest struct {
	OriginWalletID string          `json:"originWalletId" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"required,len=3"`
	Reason         string          `json:"reason" validate:"required,min=3,max=500"`
}

// CompensationResult is returned after a successful compensation.
type CompensationResult struct {
	Transaction Transaction `json:"transaction"`
	Message     string      `json:"message"`
}
