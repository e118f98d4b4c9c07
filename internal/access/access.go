// Package access decides whether a caller may act on a project.
package access

import (
	"fmt"

	"github.com/alexanderramin/tranche/internal/domain"
)

// RoleOf reports the role caller holds on p.
func RoleOf(p *domain.Project, caller domain.Identity) domain.Role {
	switch {
	case caller.IsZero():
		return domain.RoleNone
	case caller == p.Creator:
		return domain.RoleCreator
	case caller == p.Sponsor:
		return domain.RoleSponsor
	default:
		return domain.RoleNone
	}
}

// Authorize returns nil when caller holds role on p and a wrapped
// domain.ErrUnauthorized otherwise.
func Authorize(p *domain.Project, caller domain.Identity, role domain.Role) error {
	if role == domain.RoleNone || RoleOf(p, caller) != role {
		return fmt.Errorf("%w: only the project %s can do this (project %d, caller %s)",
			domain.ErrUnauthorized, role, p.ID, caller.Short())
	}
	return nil
}
