package routegate

import "strings"

// Class groups paths that share a rule.
type Class int

const (
	ClassUnclassified Class = iota
	ClassCustomer
	ClassAdmin
	ClassAuthEntry
)

func (c Class) String() string {
	switch c {
	case ClassCustomer:
		return "customer"
	case ClassAdmin:
		return "admin"
	case ClassAuthEntry:
		return "auth-entry"
	default:
		return "unclassified"
	}
}

// Redirect targets.
const (
	LoginPath          = "/login"
	RegisterPath       = "/register"
	AdminLoginPath     = "/admin-login"
	AdminDashboard     = "/admin/dashboard"
	CustomerDashboard  = "/customer/dashboard"
	customerPrefix     = "/customer"
	adminPrefix        = "/admin"
	nextQueryParameter = "next"
)

// Classify maps a request path to its Class. "/admin-login" and look-alikes
// such as "/customers" are unclassified, only whole path segments count.
func Classify(path string) Class {
	switch {
	case underPrefix(path, customerPrefix):
		return ClassCustomer
	case underPrefix(path, adminPrefix):
		return ClassAdmin
	case path == LoginPath || path == RegisterPath:
		return ClassAuthEntry
	default:
		return ClassUnclassified
	}
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Patterns are the ServeMux patterns the gate has to sit in front of. Every
// other path bypasses it.
func Patterns() []string {
	return []string{
		customerPrefix, customerPrefix + "/",
		adminPrefix, adminPrefix + "/",
		LoginPath, RegisterPath,
	}
}

// Matches reports whether path is in the gate's scope.
func Matches(path string) bool {
	return Classify(path) != ClassUnclassified
}

// Outcome is what a rule does for one kind of visitor. The zero value allows.
type Outcome struct {
	// Location, when set, redirects the visitor there.
	Location string
	// KeepNext appends the requested path as ?next= to Location.
	KeepNext bool
}

// Allow reports whether the outcome lets the request through.
func (o Outcome) Allow() bool { return o.Location == "" }

// Rule holds the outcome for each kind of visitor on one Class.
type Rule struct {
	Class     Class
	Anonymous Outcome
	Admin     Outcome
	Member    Outcome // authenticated, any role other than ADMIN
}

// Policy is the full routing table. Classes without a rule allow everything.
type Policy struct {
	Rules []Rule
}

// DefaultPolicy is the table the web client ships with.
func DefaultPolicy() Policy {
	return Policy{Rules: []Rule{
		{
			Class:     ClassCustomer,
			Anonymous: Outcome{Location: LoginPath, KeepNext: true},
			Admin:     Outcome{Location: AdminDashboard},
		},
		{
			Class:     ClassAdmin,
			Anonymous: Outcome{Location: AdminLoginPath},
			Member:    Outcome{Location: CustomerDashboard},
		},
		{
			Class: ClassAuthEntry,
			Admin: Outcome{Location: AdminDashboard},
			// Members are already logged in, send them home.
			Member: Outcome{Location: CustomerDashboard},
		},
	}}
}

// Outcome looks up the cell for class and visitor.
func (p Policy) Outcome(class Class, authenticated, admin bool) Outcome {
	for _, r := range p.Rules {
		if r.Class != class {
			continue
		}
		switch {
		case !authenticated:
			return r.Anonymous
		case admin:
			return r.Admin
		default:
			return r.Member
		}
	}
	return Outcome{}
}
