package domain

import "time"

// ============================================================
// Notifications (toasts)
// ============================================================

// Notification levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notification is a user-facing toast queued for a backoffice user.
type Notification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Level      string    `json:"level"`
	MessageKey string    `json:"messageKey"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ============================================================
// Audit
// ============================================================

// Audit actions recorded by the backoffice.
const (
	AuditBlockUser               = "block_user"
	AuditUnblockUser             = "unblock_user"
	AuditChangeTransactionStatus = "change_transaction_status"
	AuditCancelTransaction       = "cancel_transaction"
	AuditCompensate              = "compensate"
	AuditCreateBackofficeUser    = "create_backoffice_user"
	AuditModifyRoles             = "modify_roles"
	AuditUpdateAntiFraudRule     = "update_antifraud_rule"
	AuditExportTransactions      = "export_transactions"
)

// AuditEntry is one backoffice action in the audit trail.
type AuditEntry struct {
	ID         string            `json:"id" db:"id"`
	ActorID    string            `json:"actorId" db:"actor_id"`
	ActorEmail string            `json:"actorEmail" db:"actor_email"`
	CompanyID  string            `json:"companyId" db:"company_id"`
	Action     string            `json:"action" db:"action"`
	TargetType string            `json:"targetType" db:"target_type"`
	TargetID   string            `json:"targetId" db:"target_id"`
	Details    map[string]string `json:"details,omitempty" db:"-"`
	CreatedAt  time.Time         `json:"createdAt" db:"created_at"`
}

// AuditFilter narrows an audit log listing.
type AuditFilter struct {
	CompanyID string
	ActorID   string
	Action    string
	From      *time.Time
	To        *time.Time
	Limit     int
}

// ============================================================
// Persisted backoffice preferences
// ============================================================

// BackofficeSettings are the per-user display settings (theme, colors,
// locale) the SPA used to keep in local storage.
type BackofficeSettings struct {
	Language       string `json:"language" validate:"required,oneof=en es pt"`
	Timezone       string `json:"timezone" validate:"required,timezone"`
	Theme          string `json:"theme" validate:"required,oneof=light dark system"`
	PrimaryColor   string `json:"primaryColor" validate:"omitempty,hexcolor"`
	SecondaryColor string `json:"secondaryColor" validate:"omitempty,hexcolor"`
	PageSize       int    `json:"pageSize" validate:"omitempty,oneof=10 25 50 100"`
}

// Location returns the settings timezone, falling back to UTC.
func (s BackofficeSettings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SearchHistoryEntry is one past user search.
type SearchHistoryEntry struct {
	Params     UserSearchParams `json:"params"`
	SearchedAt time.Time        `json:"searchedAt"`
}

// FieldOverrides maps a field name to a per-user visibility override.
type FieldOverrides map[string]bool

// Session is the refresh-token record kept for a backoffice user.
type Session struct {
	UserID           string    `json:"userId"`
	RefreshTokenHash string    `json:"refreshTokenHash"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest is the body of POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LoginResponse is returned by login and refresh.
type LoginResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresIn    int            `json:"expiresIn"`
	User         BackofficeUser `json:"user"`
}

// MeResponse describes the authenticated backoffice user.
type MeResponse struct {
	UserID      string      `json:"userId"`
	Email       string      `json:"email"`
	CompanyID   string      `json:"companyId"`
	Roles       []string    `json:"roles"`
	Permissions Permissions `json:"permissions"`
	FieldConfig FieldConfig `json:"fieldConfig"`
}

// ============================================================
// Dashboard
// ============================================================

// Dashboard is the landing page summary.
type Dashboard struct {
	TransactionCount     int               `json:"transactionCount"`
	TotalAmount          string            `json:"totalAmount"`
	AmountByCurrency     map[string]string `json:"amountByCurrency"`
	CountByStatus        map[string]int    `json:"countByStatus"`
	ByType               []TypeBucket      `json:"byType"`
	ByMonth              []MonthBucket     `json:"byMonth"`
	BackofficeUsers      int               `json:"backofficeUsers"`
	ActiveBackofficeUser int               `json:"activeBackofficeUsers"`
	GeneratedAt          time.Time         `json:"generatedAt"`
}
