package api

import (
	"strings"
	"sync"
)

// LoginPath is where the guard sends the user when the session expires.
const LoginPath = "/login"

// DefaultAllowList holds the routes whose 401 is an ordinary auth failure
// rather than an expired session. Matching is by substring.
var DefaultAllowList = []string{"/auth/login", "/termos", "/usuario"}

// SessionState is the client's view of the server session.
type SessionState int

const (
	SessionUnknown SessionState = iota
	SessionAuthenticated
	SessionExpired
)

func (s SessionState) String() string {
	switch s {
	case SessionAuthenticated:
		return "authenticated"
	case SessionExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Navigator abstracts "where the user is" and "send the user elsewhere".
type Navigator interface {
	Location() string
	Navigate(path string)
}

// Guard watches transport outcomes and tracks the session state.
type Guard struct {
	mu        sync.Mutex
	state     SessionState
	allowList []string
	nav       Navigator
	listeners []func(SessionState)
}

// NewGuard returns a guard using DefaultAllowList. nav may be nil, in which
// case expiry only changes the state.
func NewGuard(nav Navigator) *Guard {
	return &Guard{
		allowList: append([]string(nil), DefaultAllowList...),
		nav:       nav,
	}
}

// WithAllowList replaces the allow-list.
func (g *Guard) WithAllowList(paths ...string) *Guard {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.allowList = append([]string(nil), paths...)
	return g
}

// OnChange registers fn to be called after every state transition.
func (g *Guard) OnChange(fn func(SessionState)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// State returns the current session state.
func (g *Guard) State() SessionState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Allowed reports whether path is on the allow-list.
func (g *Guard) Allowed(path string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.allowList {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// Intercepts reports whether a response with the given status on path is a
// session expiry.
func (g *Guard) Intercepts(path string, status int) bool {
	return status == 401 && !g.Allowed(path)
}

// Expire marks the session expired and navigates to the login screen unless
// the user is already there.
func (g *Guard) Expire() {
	g.setState(SessionExpired)
	if g.nav == nil {
		return
	}
	if g.nav.Location() != LoginPath {
		g.nav.Navigate(LoginPath)
	}
}

// MarkAuthenticated records a successful authenticated exchange.
func (g *Guard) MarkAuthenticated() {
	g.setState(SessionAuthenticated)
}

// MarkUnknown drops back to the initial state, used on logout.
func (g *Guard) MarkUnknown() {
	g.setState(SessionUnknown)
}

func (g *Guard) setState(s SessionState) {
	g.mu.Lock()
	if g.state == s {
		g.mu.Unlock()
		return
	}
	g.state = s
	listeners := make([]func(SessionState), len(g.listeners))
	copy(listeners, g.listeners)
	g.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

// PathNavigator is a Navigator that only remembers the current location.
type PathNavigator struct {
	mu       sync.Mutex
	location string
	onChange func(path string)
}

// NewPathNavigator starts at location and calls onChange (if non-nil) on each
// navigation.
func NewPathNavigator(location string, onChange func(path string)) *PathNavigator {
	return &PathNavigator{location: location, onChange: onChange}
}

func (n *PathNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *PathNavigator) Navigate(path string) {
	n.mu.Lock()
	n.location = path
	fn := n.onChange
	n.mu.Unlock()
	if fn != nil {
		fn(path)
	}
}
