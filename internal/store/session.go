package store

import (
	"context"
	"errors"
	"fmt"

	"planejai/internal/api"
	"planejai/internal/cache"
	"planejai/internal/core"
	applog "planejai/internal/log"
	"planejai/internal/resources"
)

// Session bundles the per-login client state. Logout clears all of it so one
// user's data never leaks into the next session.
type Session struct {
	Guard      *api.Guard
	Users      *UserStore
	Categories *CategoryStore
	Wallet     *WalletID

	auth   Authenticator
	logger *applog.Logger
}

// NewSession wires fresh stores over the given resource clients.
func NewSession(guard *api.Guard, auth Authenticator, perfil PerfilReader, cats CategoriaReader, logger *applog.Logger, opts ...cache.Option) *Session {
	if guard == nil {
		guard = api.NewGuard(nil)
	}
	wallet := &WalletID{}
	logger = applog.OrDefault(logger, applog.ComponentSession)
	return &Session{
		Guard:      guard,
		Users:      NewUserStore(perfil, wallet, opts...),
		Categories: NewCategoryStore(cats, logger, opts...),
		Wallet:     wallet,
		auth:       auth,
		logger:     logger,
	}
}

// NewSessionFromClient is NewSession over a full resources.Client.
func NewSessionFromClient(guard *api.Guard, rc *resources.Client, logger *applog.Logger, opts ...cache.Option) *Session {
	return NewSession(guard, rc.Auth, rc.Usuarios, rc.Categorias, logger, opts...)
}

// Login authenticates and then loads the user profile. The returned snapshot
// reflects the profile fetch; a failed login returns the transport error.
func (s *Session) Login(ctx context.Context, cred core.Credenciais) (cache.Snapshot[core.Perfil], error) {
	resp, err := s.auth.Login(ctx, cred)
	if err != nil {
		s.logger.WarnContext(ctx, "Login failed", applog.FieldOperation, applog.OpLogin, applog.FieldError, err.Error())
		return cache.Snapshot[core.Perfil]{}, err
	}
	s.Guard.MarkAuthenticated()

	// A previous user's snapshot must not survive a new login.
	s.Users.Reset()
	s.Categories.Reset()

	snap := s.Users.FetchUsuario(ctx)
	if err := s.FetchErr(ctx, snap.Err, snap.Fetched); err != nil {
		return snap, fmt.Errorf("load profile: %w", err)
	}
	s.logger.InfoContext(ctx, "Logged in",
		applog.FieldOperation, applog.OpLogin,
		"message", resp.Message,
		applog.FieldWalletID, snap.Data.CarteiraID)
	return snap, nil
}

// Logout ends the server session and clears local state. Local state is
// cleared even when the server call fails; that error is still returned.
func (s *Session) Logout(ctx context.Context) error {
	err := s.auth.Logout(ctx)
	s.Reset()
	if err != nil {
		s.logger.WarnContext(ctx, "Logout request failed", applog.FieldOperation, applog.OpLogout, applog.FieldError, err.Error())
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.InfoContext(ctx, "Logged out", applog.FieldOperation, applog.OpLogout)
	return nil
}

// Reset clears every store and the session state without calling the server.
func (s *Session) Reset() {
	s.Users.Reset()
	s.Categories.Reset()
	s.Guard.MarkUnknown()
}

// ResetOnExpiry clears local state whenever the guard reports an expired
// session.
func (s *Session) ResetOnExpiry() {
	s.Guard.OnChange(func(st api.SessionState) {
		if st == api.SessionExpired {
			s.Users.Reset()
			s.Categories.Reset()
		}
	})
}

// CarteiraID returns the selected wallet, loading the profile if needed.
func (s *Session) CarteiraID(ctx context.Context) (string, error) {
	if id, ok := s.Wallet.Get(); ok {
		return id, nil
	}
	snap := s.Users.FetchUsuario(ctx)
	if err := s.FetchErr(ctx, snap.Err, snap.Fetched); err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	id, ok := s.Wallet.Get()
	if !ok {
		return "", core.ErrEmptyWallet
	}
	return id, nil
}

// FetchErr turns the outcome of a store fetch into an error. A fetch dropped
// because the session expired while it ran reports api.ErrSessionExpired; one
// abandoned by a cancelled caller reports ctx.Err().
func (s *Session) FetchErr(ctx context.Context, snapErr string, fetched bool) error {
	if snapErr != "" {
		return errors.New(snapErr)
	}
	if fetched {
		return nil
	}
	if s.Guard.State() == api.SessionExpired {
		return api.ErrSessionExpired
	}
	return ctx.Err()
}
