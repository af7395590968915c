package access

import "github.com/boddenberg/payments-backoffice-go/internal/domain"

// Gate checks capabilities before an action is attempted.
type Gate struct{}

// Permissions returns the derived permissions of p.
func (Gate) Permissions(p domain.Principal) domain.Permissions {
	return DerivePermissions(p.Roles)
}

// Require returns *domain.ErrForbidden unless p holds capability c.
func (g Gate) Require(p domain.Principal, c domain.Capability) error {
	if g.Permissions(p).Allows(c) {
		return nil
	}
	return &domain.ErrForbidden{Action: string(c)}
}
