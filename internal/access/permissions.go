package access

import "github.com/boddenberg/payments-backoffice-go/internal/domain"

// roleCapabilities is the static role to capability table.
var roleCapabilities = map[domain.Role][]domain.Capability{
	domain.RoleConfigurador: {
		domain.CapManageBackofficeUsers,
		domain.CapConfigureAntiFraud,
		domain.CapEditCompanySettings,
		domain.CapViewAuditLogs,
		domain.CapExportData,
	},
	domain.RoleCompensador: {
		domain.CapCompensate,
		domain.CapCancelTransaction,
		domain.CapChangeTransactionStatus,
		domain.CapExportData,
	},
	domain.RoleOperador: {
		domain.CapBlockUser,
		domain.CapUnblockUser,
	},
	domain.RoleAnalista: {
		domain.CapExportData,
		domain.CapViewAuditLogs,
	},
	domain.RoleAdmin: {
		domain.CapCancelTransaction,
		domain.CapChangeTransactionStatus,
		domain.CapCompensate,
		domain.CapBlockUser,
		domain.CapUnblockUser,
		domain.CapManageBackofficeUsers,
		domain.CapConfigureAntiFraud,
		domain.CapViewAuditLogs,
		domain.CapExportData,
		domain.CapEditCompanySettings,
	},
}

// DerivePermissions grants every capability held by at least one role.
func DerivePermissions(roles domain.RoleSet) domain.Permissions {
	var p domain.Permissions
	for role := range roles {
		for _, c := range roleCapabilities[role] {
			grant(&p, c)
		}
	}
	return p
}

// Capabilities lists the capabilities granted to role.
func Capabilities(role domain.Role) []domain.Capability {
	return append([]domain.Capability(nil), roleCapabilities[role]...)
}

func grant(p *domain.Permissions, c domain.Capability) {
	switch c {
	case domain.CapCancelTransaction:
		p.CanCancelTransaction = true
	case domain.CapChangeTransactionStatus:
		p.CanChangeTransactionStatus = true
	case domain.CapCompensate:
		p.CanCompensate = true
	case domain.CapBlockUser:
		p.CanBlockUser = true
	case domain.CapUnblockUser:
		p.CanUnblockUser = true
	case domain.CapManageBackofficeUsers:
		p.CanManageBackofficeUsers = true
	case domain.CapConfigureAntiFraud:
		p.CanConfigureAntiFraud = true
	case domain.CapViewAuditLogs:
		p.CanViewAuditLogs = true
	case domain.CapExportData:
		p.CanExportData = true
	case domain.CapEditCompanySettings:
		p.CanEditCompanySettings = true
	}
}
