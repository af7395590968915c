package domain

import "time"

// ============================================================
// Customers & wallets
// ============================================================

// CustomerUser is an end user of the payments platform, as returned by the
// user search.
type CustomerUser struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	CellPhone    string    `json:"cellPhone,omitempty"`
	Document     string    `json:"document,omitempty"`
	DocumentType string    `json:"documentType,omitempty"`
	BirthDate    string    `json:"birthDate,omitempty"`
	Address      string    `json:"address,omitempty"`
	City         string    `json:"city,omitempty"`
	Country      string    `json:"country,omitempty"`
	UserType     string    `json:"userType,omitempty"`
	Status       string    `json:"status"` // active, blocked
	BlockReason  string    `json:"blockReason,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Customer statuses.
const (
	UserActive  = "active"
	UserBlocked = "blocked"
)

// UserSearchParams holds the user search form values keyed by field name.
type UserSearchParams map[string]string

// Wallet is a customer wallet.
type Wallet struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Status    string `json:"status"`
	CardID    string `json:"cardId,omitempty"`
	CompanyID string `json:"companyId,omitempty"`
}

// BlockRequest is the body of a block action.
type BlockRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// ============================================================
// Backoffice users
// ============================================================

// BackofficeUser is an operator of the backoffice itself.
type BackofficeUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CompanyID string    `json:"companyId"`
	Active    bool      `json:"active"`
	Blocked   bool      `json:"blocked"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateBackofficeUserRequest is the body of the create-user dialog.
type CreateBackofficeUserRequest struct {
	Name     string   `json:"name" validate:"required,min=2,max=80"`
	Surname  string   `json:"surname" validate:"required,min=2,max=80"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password,omitempty" validate:"omitempty,min=8"`
	Roles    []string `json:"roles" validate:"required,min=1,dive,oneof=configurador compensador operador analista admin"`
}

// ModifyRolesRequest replaces the roles of a backoffice user.
type ModifyRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=configurador compensador operador analista admin"`
}

// ============================================================
// Anti-fraud
// ============================================================

// AntiFraudRule is a configurable anti-fraud threshold.
type AntiFraudRule struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"` // max_amount, max_daily_count, ...
	Threshold   string    `json:"threshold"`
	Currency    string    `json:"currency,omitempty"`
	Enabled     bool      `json:"enabled"`
	UpdatedBy   string    `json:"updatedBy,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AntiFraudRuleUpdate is the body of a rule update.
type AntiFraudRuleUpdate struct {
	Threshold string `json:"threshold" validate:"required,numeric"`
	Enabled   *bool  `json:"enabled" validate:"required"`
}
