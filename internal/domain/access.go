package domain

import "sort"

// ============================================================
// Roles & capabilities
// ============================================================

// Role is a backoffice role. The vocabulary is closed.
type Role string

const (
	RoleConfigurador Role = "configurador"
	RoleCompensador  Role = "compensador"
	RoleOperador     Role = "operador"
	RoleAnalista     Role = "analista"

	// RoleAdmin is the implicit superset role used by some company configs.
	RoleAdmin Role = "admin"
)

// KnownRoles lists the assignable roles.
var KnownRoles = []Role{RoleConfigurador, RoleCompensador, RoleOperador, RoleAnalista, RoleAdmin}

// IsKnown reports whether r is part of the role vocabulary.
func (r Role) IsKnown() bool {
	for _, k := range KnownRoles {
		if r == k {
			return true
		}
	}
	return false
}

// RoleSet is the set of roles held by a backoffice user.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from raw role names, dropping unknown ones.
func NewRoleSet(names ...string) RoleSet {
	rs := make(RoleSet, len(names))
	for _, n := range names {
		r := Role(n)
		if r.IsKnown() {
			rs[r] = struct{}{}
		}
	}
	return rs
}

// Has reports whether the set contains r.
func (rs RoleSet) Has(r Role) bool {
	_, ok := rs[r]
	return ok
}

// Strings returns the role names sorted.
func (rs RoleSet) Strings() []string {
	out := make([]string, 0, len(rs))
	for r := range rs {
		out = append(out, string(r))
	}
	sort.Strings(out)
	return out
}

// Capability names a gated backoffice action.
type Capability string

const (
	CapCancelTransaction       Capability = "cancel_transaction"
	CapChangeTransactionStatus Capability = "change_transaction_status"
	CapCompensate              Capability = "compensate"
	CapBlockUser               Capability = "block_user"
	CapUnblockUser             Capability = "unblock_user"
	CapManageBackofficeUsers   Capability = "manage_backoffice_users"
	CapConfigureAntiFraud      Capability = "configure_antifraud"
	CapViewAuditLogs           Capability = "view_audit_logs"
	CapExportData              Capability = "export_data"
	CapEditCompanySettings     Capability = "edit_company_settings"
)

// Permissions is the derived capability view sent to the frontend.
type Permissions struct {
	CanCancelTransaction       bool `json:"canCancelTransaction"`
	CanChangeTransactionStatus bool `json:"canChangeTransactionStatus"`
	CanCompensate              bool `json:"canCompensate"`
	CanBlockUser               bool `json:"canBlockUser"`
	CanUnblockUser             bool `json:"canUnblockUser"`
	CanManageBackofficeUsers   bool `json:"canManageBackofficeUsers"`
	CanConfigureAntiFraud      bool `json:"canConfigureAntiFraud"`
	CanViewAuditLogs           bool `json:"canViewAuditLogs"`
	CanExportData              bool `json:"canExportData"`
	CanEditCompanySettings     bool `json:"canEditCompanySettings"`
}

// Allows reports whether the permission set grants c.
func (p Permissions) Allows(c Capability) bool {
	switch c {
	case CapCancelTransaction:
		return p.CanCancelTransaction
	case CapChangeTransactionStatus:
		return p.CanChangeTransactionStatus
	case CapCompensate:
		return p.CanCompensate
	case CapBlockUser:
		return p.CanBlockUser
	case CapUnblockUser:
		return p.CanUnblockUser
	case CapManageBackofficeUsers:
		return p.CanManageBackofficeUsers
	case CapConfigureAntiFraud:
		return p.CanConfigureAntiFraud
	case CapViewAuditLogs:
		return p.CanViewAuditLogs
	case CapExportData:
		return p.CanExportData
	case CapEditCompanySettings:
		return p.CanEditCompanySettings
	}
	return false
}

// ============================================================
// Field configuration
// ============================================================

// FieldConfig lists the user/profile fields a role may see, edit and search.
// Upstream does not guarantee mutable ⊆ visible.
type FieldConfig struct {
	VisibleFields     []string `json:"visible_fields"`
	MutableFields     []string `json:"mutable_fields"`
	SearcheableFields []string `json:"searcheable_fields"`
}

// FormField is an instantiated dynamic search-form field.
type FormField struct {
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	InputType   string   `json:"inputType"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// Principal is the authenticated backoffice user attached to a request.
type Principal struct {
	UserID    string  `json:"userId"`
	Email     string  `json:"email"`
	CompanyID string  `json:"companyId"`
	Roles     RoleSet `json:"-"`
}
