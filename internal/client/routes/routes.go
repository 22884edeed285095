// Package routes decides which screens a session may open. Everything here
// is pure: decisions depend only on the Session snapshot and the route.
package routes

import (
	"strings"

	"github.com/dmitrijs2005/gymkeeper/internal/client/models"
	"github.com/dmitrijs2005/gymkeeper/internal/client/session"
)

// Route identifies a screen of the client.
type Route string

const (
	Root             Route = "/"
	Login            Route = "/login"
	Register         Route = "/register"
	MemberDashboard  Route = "/member-dashboard"
	TrainerDashboard Route = "/trainer-dashboard"
	AdminDashboard   Route = "/admin-dashboard"
)

// Parse normalises user input such as "admin-dashboard" or "/login/".
func Parse(s string) Route {
	s = strings.TrimSpace(s)
	s = "/" + strings.Trim(s, "/")
	return Route(s)
}

// Decision is the outcome of a guard check.
type Decision int

const (
	// Pending means the session is not settled yet; render a loading state
	// and ask again. It is not a decision.
	Pending Decision = iota
	Allow
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	default:
		return "unknown"
	}
}

// DefaultRouteForRole is the home screen of each role. Every role, including
// unknown ones, maps to exactly one route.
func DefaultRouteForRole(role models.Role) Route {
	switch role {
	case models.RoleAdmin, models.RoleSuperAdmin:
		return AdminDashboard
	case models.RoleTrainer:
		return TrainerDashboard
	default:
		return MemberDashboard
	}
}

// Policy maps protected routes to the roles allowed to open them.
type Policy struct {
	protected map[Route]map[models.Role]bool
	public    map[Route]bool
}

// NewPolicy builds an immutable policy. Routes absent from both protected
// and public are unknown and send the user home.
func NewPolicy(protected map[Route][]models.Role, public ...Route) *Policy {
	p := &Policy{
		protected: make(map[Route]map[models.Role]bool, len(protected)),
		public:    map[Route]bool{Root: true},
	}
	for route, roles := range protected {
		set := make(map[models.Role]bool, len(roles))
		for _, r := range roles {
			set[r] = true
		}
		p.protected[route] = set
	}
	for _, route := range public {
		p.public[route] = true
	}
	return p
}

// DefaultPolicy is the route table of the gym client.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Route][]models.Role{
		MemberDashboard:  {models.RoleMember, models.RoleAdmin, models.RoleSuperAdmin},
		TrainerDashboard: {models.RoleTrainer, models.RoleAdmin, models.RoleSuperAdmin},
		AdminDashboard:   {models.RoleAdmin, models.RoleSuperAdmin},
	}, Login, Register)
}

// Known reports whether the policy has an entry for route.
func (p *Policy) Known(route Route) bool {
	_, ok := p.protected[route]
	return ok || p.public[route]
}

// Routes lists the protected routes s may open.
func (p *Policy) Routes(s session.Session) []Route {
	var out []Route
	for _, r := range []Route{MemberDashboard, TrainerDashboard, AdminDashboard} {
		if p.Decide(s, r) == Allow {
			out = append(out, r)
		}
	}
	return out
}

// Decide checks whether s may open route.
func (p *Policy) Decide(s session.Session, route Route) Decision {
	if !s.Status.Settled() {
		return Pending
	}
	if p.public[route] {
		return Allow
	}

	roles, ok := p.protected[route]
	if !ok {
		return RedirectHome
	}
	if s.Status != session.StatusAuthenticated {
		return RedirectLogin
	}
	if roles[s.Role()] {
		return Allow
	}
	return RedirectHome
}

// Outcome is a resolved navigation: where the user actually ends up.
type Outcome struct {
	Decision Decision
	Target   Route
}

// Navigate resolves a request for route into the screen to show. The root
// route sends authenticated users to their role's home, and every
// RedirectHome lands on that same home.
func (p *Policy) Navigate(s session.Session, route Route) Outcome {
	if !s.Status.Settled() {
		return Outcome{Decision: Pending, Target: route}
	}

	if route == Root {
		if s.Status == session.StatusAuthenticated {
			return Outcome{Decision: RedirectHome, Target: DefaultRouteForRole(s.Role())}
		}
		return Outcome{Decision: Allow, Target: Root}
	}

	switch d := p.Decide(s, route); d {
	case Allow:
		return Outcome{Decision: Allow, Target: route}
	case RedirectLogin:
		return Outcome{Decision: RedirectLogin, Target: Login}
	default:
		if s.Status == session.StatusAuthenticated {
			return Outcome{Decision: RedirectHome, Target: DefaultRouteForRole(s.Role())}
		}
		return Outcome{Decision: RedirectHome, Target: Root}
	}
}
