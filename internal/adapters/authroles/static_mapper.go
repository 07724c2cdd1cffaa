package authroles

import (
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
)

// StaticRoleMapper maps identities to roles by simple membership rules.
// An explicit role claim from the IdP wins over group membership; anyone
// who matches neither staff group is a customer.
type StaticRoleMapper struct {
	AdminGroup   string
	CashierGroup string
}

func (m StaticRoleMapper) Map(id domainauth.Identity) domainauth.Role {
	if r := domainauth.ParseRole(id.RoleClaim); r.Valid() {
		return r
	}
	if m.member(id.Groups, m.AdminGroup) {
		return domainauth.RoleAdmin
	}
	if m.member(id.Groups, m.CashierGroup) {
		return domainauth.RoleCashier
	}
	return domainauth.RoleCustomer
}

func (StaticRoleMapper) member(groups []string, want string) bool {
	if want == "" {
		return false
	}
	for _, g := range groups {
		if g == want {
			return true
		}
	}
	return false
}
