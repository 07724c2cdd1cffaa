// Package access holds the page access policy and the per-request gatekeeper
// decision. Everything here is pure: decisions are computed from the request
// path and the two cookies already attached to the request.
package access

import (
	"path"
	"strings"
)

// PathClass is the policy category of a request path.
type PathClass int

const (
	// ClassOther is any path the policy has no opinion about.
	ClassOther PathClass = iota
	// ClassExempt paths skip authorization entirely.
	ClassExempt
	// ClassAdminDashboard is /dashboard/admin and everything below it.
	ClassAdminDashboard
	// ClassCashierDashboard is /dashboard/cashier and everything below it.
	ClassCashierDashboard
	// ClassDashboardRoot is /dashboard exactly.
	ClassDashboardRoot
	// ClassCustomer is a customer-only page.
	ClassCustomer
	// ClassPublic is a storefront page.
	ClassPublic
	// ClassDashboardOther is any other path below /dashboard.
	ClassDashboardOther
)

func (c PathClass) String() string {
	switch c {
	case ClassExempt:
		return "exempt"
	case ClassAdminDashboard:
		return "admin-dashboard"
	case ClassCashierDashboard:
		return "cashier-dashboard"
	case ClassDashboardRoot:
		return "dashboard-root"
	case ClassCustomer:
		return "customer"
	case ClassPublic:
		return "public"
	case ClassDashboardOther:
		return "dashboard-other"
	default:
		return "other"
	}
}

// Dashboard reports whether the class is any staff dashboard path.
func (c PathClass) Dashboard() bool {
	switch c {
	case ClassAdminDashboard, ClassCashierDashboard, ClassDashboardRoot, ClassDashboardOther:
		return true
	default:
		return false
	}
}

// Protected reports whether the class requires an authenticated session.
func (c PathClass) Protected() bool {
	return c.Dashboard() || c == ClassCustomer
}

//nolint:gochecknoglobals // read-only policy table
var customerPrefixes = []string{
	"/cart",
	"/order",
	"/order-history",
	"/payment",
	"/payment-complete",
	"/profile",
}

//nolint:gochecknoglobals // read-only policy table
var publicPrefixes = []string{
	"/coffee-list",
	"/coffee",
}

// Matcher decides which requests the gatekeeper never evaluates. Changing it
// changes which requests are authorized at all, so it is one value that the
// router and the policy share.
type Matcher struct {
	// Prefixes are path namespaces skipped entirely (matched on segment boundaries).
	Prefixes []string
	// Exact paths skipped entirely.
	Exact []string
	// Extensions are file extensions (with dot, lowercase) skipped entirely.
	Extensions []string
}

// DefaultMatcher returns the standard exclusion list: the API namespace,
// static assets, favicon, common image extensions, and the login/register pages.
func DefaultMatcher() Matcher {
	return Matcher{
		Prefixes:   []string{"/api", "/static", "/_assets"},
		Exact:      []string{"/favicon.ico", "/login", "/register"},
		Extensions: []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico"},
	}
}

// Matches reports whether p is exempt from evaluation.
func (m Matcher) Matches(p string) bool {
	for _, e := range m.Exact {
		if p == e {
			return true
		}
	}
	for _, pre := range m.Prefixes {
		if hasSegmentPrefix(p, pre) {
			return true
		}
	}
	if ext := strings.ToLower(path.Ext(p)); ext != "" {
		for _, e := range m.Extensions {
			if ext == e {
				return true
			}
		}
	}
	return false
}

// Policy is the access policy table.
type Policy struct {
	Exempt Matcher
}

// DefaultPolicy returns the policy with the default matcher.
func DefaultPolicy() Policy { return Policy{Exempt: DefaultMatcher()} }

// Classify maps a request path to its policy class. Most specific rules win:
// exemptions, then role-exclusive dashboards, then the bare /dashboard and the
// rest of its namespace, then customer pages, then storefront pages.
func (p Policy) Classify(reqPath string) PathClass {
	clean := normalize(reqPath)
	switch {
	case p.Exempt.Matches(clean):
		return ClassExempt
	case hasSegmentPrefix(clean, "/dashboard/admin"):
		return ClassAdminDashboard
	case hasSegmentPrefix(clean, "/dashboard/cashier"):
		return ClassCashierDashboard
	case clean == "/dashboard":
		return ClassDashboardRoot
	case hasSegmentPrefix(clean, "/dashboard"):
		return ClassDashboardOther
	case hasAnySegmentPrefix(clean, customerPrefixes):
		return ClassCustomer
	case clean == "/" || hasAnySegmentPrefix(clean, publicPrefixes):
		return ClassPublic
	default:
		return ClassOther
	}
}

// normalize cleans the path so that "/cart/", "//cart" and "/a/../cart" all
// classify like "/cart".
func normalize(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func hasSegmentPrefix(p, prefix string) bool {
	if p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}

func hasAnySegmentPrefix(p string, prefixes []string) bool {
	for _, pre := range prefixes {
		if hasSegmentPrefix(p, pre) {
			return true
		}
	}
	return false
}
