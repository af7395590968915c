// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/boddenberg/payments-backoffice-go/internal/domain"
)

// BackofficeAPI is the upstream payments backoffice REST API. It is
// implemented by the live HTTP client and by the in-process mock.
type BackofficeAPI interface {
	// Customers & wallets
	SearchUsers(ctx context.Context, params domain.UserSearchParams) ([]domain.CustomerUser, error)
	ListUserWallets(ctx context.Context, userID string) ([]domain.Wallet, error)
	BlockUser(ctx context.Context, userID, reason string) error
	UnblockUser(ctx context.Context, userID string) error

	// Transactions
	GetAllTransactions(ctx context.Context) ([]domain.RawTransaction, error)
	GetWalletTransactions(ctx context.Context, userID, walletID string) ([]domain.RawTransaction, error)
	GetCardTransactions(ctx context.Context, cardID, userID string) ([]domain.RawTransaction, error)
	ChangeTransactionStatus(ctx context.Context, walletID, transactionID string, req domain.StatusChangeRequest) error
	CompensateCustomer(ctx context.Context, companyID, userID, walletID string, req domain.CompensationRequest) (*domain.RawTransaction, error)

	// Backoffice users
	ListBackofficeUsers(ctx context.Context) ([]domain.BackofficeUser, error)
	CreateBackofficeUser(ctx context.Context, req domain.CreateBackofficeUserRequest) (*domain.BackofficeUser, error)
	ModifyUserRoles(ctx context.Context, userID string, roles []string) (*domain.BackofficeUser, error)
	Authenticate(ctx context.Context, email, password string) (*domain.BackofficeUser, error)

	// Anti-fraud
	ListAntiFraudRules(ctx context.Context) ([]domain.AntiFraudRule, error)
	UpdateAntiFraudRule(ctx context.Context, ruleID string, upd domain.AntiFraudRuleUpdate, updatedBy string) (*domain.AntiFraudRule, error)
}

// Pinger is implemented by dependencies that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string) int
	// Update applies fn to a live entry in place, keeping its expiry.
	Update(key string, fn func(T) T) bool
}

// PreferencesStore persists per-user JSON documents (settings, search
// history, field overrides, sessions).
type PreferencesStore interface {
	// Get decodes the value stored at key into dst. It reports false when
	// the key does not exist or has expired.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Put stores v at key. A zero ttl never expires.
	Put(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// AuditLog records backoffice actions.
type AuditLog interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
	List(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error)
}

// Notifier queues user-facing toasts.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) domain.Notification
	List(userID string) []domain.Notification
	Clear(userID string) int
}
