package access

import (
	"net/url"

	domainauth "github.com/target/coffeehouse/internal/domain/auth"
)

// State is the authentication state derived from the two request cookies.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticatedNoRole
	StateAuthenticatedAdmin
	StateAuthenticatedCashier
	StateAuthenticatedCustomer
	StateAuthenticatedUnknownRole
)

func (s State) String() string {
	switch s {
	case StateAuthenticatedNoRole:
		return "authenticated_no_role"
	case StateAuthenticatedAdmin:
		return "authenticated_admin"
	case StateAuthenticatedCashier:
		return "authenticated_cashier"
	case StateAuthenticatedCustomer:
		return "authenticated_customer"
	case StateAuthenticatedUnknownRole:
		return "authenticated_unknown_role"
	default:
		return "unauthenticated"
	}
}

// Kind is the outcome of a gatekeeper evaluation.
type Kind int

const (
	Allow Kind = iota
	RedirectLogin
	RedirectRoleHome
)

func (k Kind) String() string {
	switch k {
	case RedirectLogin:
		return "redirect_login"
	case RedirectRoleHome:
		return "redirect_role_home"
	default:
		return "allow"
	}
}

// Decision is the per-request route decision. Location is empty for Allow.
type Decision struct {
	Kind     Kind
	Location string
	State    State
	Class    PathClass
}

// Request is everything the gatekeeper looks at.
type Request struct {
	Path     string
	RawQuery string
	// HasSession is true when the session presence cookie carries any value.
	HasSession bool
	// RoleCookie is true when a role cookie was sent at all.
	RoleCookie bool
	// Role is the decoded role claim; RoleUnknown when absent or unrecognized.
	Role domainauth.Role
}

// StateOf derives the authentication state from the request cookies.
func StateOf(req Request) State {
	if !req.HasSession {
		return StateUnauthenticated
	}
	switch req.Role {
	case domainauth.RoleAdmin:
		return StateAuthenticatedAdmin
	case domainauth.RoleCashier:
		return StateAuthenticatedCashier
	case domainauth.RoleCustomer:
		return StateAuthenticatedCustomer
	case domainauth.RoleUnknown:
		if !req.RoleCookie {
			return StateAuthenticatedNoRole
		}
		return StateAuthenticatedUnknownRole
	default:
		return StateAuthenticatedUnknownRole
	}
}

// Evaluate decides whether the request may proceed. It is a deterministic
// function of path, session presence and role claim.
func (p Policy) Evaluate(req Request) Decision {
	class := p.Classify(req.Path)
	state := StateOf(req)
	d := Decision{Kind: Allow, State: state, Class: class}

	if class == ClassExempt {
		return d
	}
	if !req.HasSession {
		if class.Protected() {
			return d.toLogin(req)
		}
		return d
	}

	role := req.Role
	if !role.Valid() {
		role = domainauth.RoleUnknown
	}

	switch role {
	case domainauth.RoleAdmin:
		switch class {
		case ClassCustomer, ClassCashierDashboard, ClassDashboardRoot, ClassDashboardOther, ClassPublic:
			return d.toHome(domainauth.AdminHome)
		case ClassAdminDashboard, ClassOther, ClassExempt:
			return d
		}
	case domainauth.RoleCashier:
		switch class {
		case ClassCustomer, ClassAdminDashboard, ClassDashboardRoot, ClassDashboardOther, ClassPublic:
			return d.toHome(domainauth.CashierHome)
		case ClassCashierDashboard, ClassOther, ClassExempt:
			return d
		}
	case domainauth.RoleCustomer:
		switch class {
		case ClassAdminDashboard, ClassCashierDashboard, ClassDashboardRoot, ClassDashboardOther:
			return d.toHome(domainauth.CustomerHome)
		case ClassCustomer, ClassPublic, ClassOther, ClassExempt:
			return d
		}
	case domainauth.RoleUnknown:
		// Missing or unrecognized role: no dashboard access at all; every other
		// page is evaluated as for the least privileged role.
		if class.Dashboard() {
			return d.toLogin(req)
		}
		return d
	}
	return d
}

// EvaluateFailure is the decision used when evaluation itself failed (for
// example an undecodable role cookie): protected paths fail closed to the
// login page, everything else fails open.
func (p Policy) EvaluateFailure(req Request) Decision {
	class := p.Classify(req.Path)
	d := Decision{Kind: Allow, State: StateOf(req), Class: class}
	if class.Protected() {
		return d.toLogin(req)
	}
	return d
}

func (d Decision) toLogin(req Request) Decision {
	d.Kind = RedirectLogin
	d.Location = LoginURL(req.Path, req.RawQuery)
	return d
}

func (d Decision) toHome(home string) Decision {
	d.Kind = RedirectRoleHome
	d.Location = home
	return d
}

// LoginURL builds /login?redirect=<path+query> so the login flow can return
// the user to where they were going.
func LoginURL(reqPath, rawQuery string) string {
	target := reqPath
	if target == "" {
		target = "/"
	}
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return domainauth.LoginPath + "?" + url.Values{"redirect": {target}}.Encode()
}
