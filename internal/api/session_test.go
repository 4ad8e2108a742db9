package api

import "testing"

type recordingNav struct {
	location string
	visits   []string
}

func (n *recordingNav) Location() string { return n.location }
func (n *recordingNav) Navigate(path string) {
	n.visits = append(n.visits, path)
	n.location = path
}

func TestGuardAllowList(t *testing.T) {
	g := NewGuard(nil)
	allowed := []string{"/auth/login", "/planejai/termos", "/planejai/usuario", "/planejai/usuario/me"}
	for _, p := range allowed {
		if !g.Allowed(p) {
			t.Fatalf("%s should be allowed", p)
		}
		if g.Intercepts(p, 401) {
			t.Fatalf("%s should not be intercepted", p)
		}
	}
	for _, p := range []string{"/planejai/categorias", "/planejai/lancamentos/1", "/auth/logout"} {
		if !g.Intercepts(p, 401) {
			t.Fatalf("%s should be intercepted on 401", p)
		}
		if g.Intercepts(p, 403) {
			t.Fatalf("%s should only be intercepted on 401", p)
		}
	}
}

func TestGuardExpireNavigatesOnce(t *testing.T) {
	nav := &recordingNav{location: "/dashboard"}
	g := NewGuard(nav)

	var states []SessionState
	g.OnChange(func(s SessionState) { states = append(states, s) })

	g.Expire()
	g.Expire()

	if len(nav.visits) != 1 || nav.visits[0] != LoginPath {
		t.Fatalf("expected exactly one navigation to /login, got %v", nav.visits)
	}
	if g.State() != SessionExpired {
		t.Fatalf("expected expired state, got %v", g.State())
	}
	if len(states) != 1 || states[0] != SessionExpired {
		t.Fatalf("expected a single transition, got %v", states)
	}
}

func TestGuardExpireAlreadyOnLogin(t *testing.T) {
	nav := &recordingNav{location: LoginPath}
	g := NewGuard(nav)
	g.Expire()
	if len(nav.visits) != 0 {
		t.Fatalf("expected no navigation, got %v", nav.visits)
	}
	if g.State() != SessionExpired {
		t.Fatalf("state should still be expired")
	}
}

func TestGuardTransitions(t *testing.T) {
	g := NewGuard(nil)
	if g.State() != SessionUnknown {
		t.Fatalf("initial state should be unknown")
	}
	g.MarkAuthenticated()
	if g.State() != SessionAuthenticated {
		t.Fatalf("expected authenticated")
	}
	g.MarkUnknown()
	if g.State() != SessionUnknown {
		t.Fatalf("expected unknown")
	}
	if SessionExpired.String() != "expired" {
		t.Fatalf("unexpected string: %s", SessionExpired)
	}
}

func TestPathNavigator(t *testing.T) {
	var seen string
	n := NewPathNavigator("/", func(p string) { seen = p })
	n.Navigate(LoginPath)
	if n.Location() != LoginPath || seen != LoginPath {
		t.Fatalf("unexpected navigator state: %s %s", n.Location(), seen)
	}
}
