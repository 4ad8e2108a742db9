package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"planejai/internal/api"
	"planejai/internal/cache"
	"planejai/internal/core"
)

type fakePerfil struct {
	calls  atomic.Int32
	perfil core.Perfil
	err    error
}

func (f *fakePerfil) Atual(context.Context) (core.Perfil, error) {
	f.calls.Add(1)
	return f.perfil, f.err
}

type fakeCategorias struct {
	listCalls atomic.Int32
	byIDCalls atomic.Int32
	cats      []core.Categoria
	err       error
}

func (f *fakeCategorias) Listar(context.Context) ([]core.Categoria, error) {
	f.listCalls.Add(1)
	return f.cats, f.err
}

func (f *fakeCategorias) BuscarPorID(_ context.Context, id string) (core.Categoria, error) {
	f.byIDCalls.Add(1)
	if f.err != nil {
		return core.Categoria{}, f.err
	}
	for _, c := range f.cats {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Categoria{}, errors.New("not found")
}

type fakeAuth struct {
	loginErr  error
	logoutErr error
	logins    int
}

func (f *fakeAuth) Login(context.Context, core.Credenciais) (core.Resposta, error) {
	f.logins++
	if f.loginErr != nil {
		return core.Resposta{}, f.loginErr
	}
	return core.Resposta{StatusCode: 200, Message: "ok"}, nil
}

func (f *fakeAuth) Logout(context.Context) error { return f.logoutErr }

func TestWalletID(t *testing.T) {
	var w WalletID
	if _, ok := w.Get(); ok {
		t.Fatalf("zero value should have no wallet")
	}
	w.Set("w1")
	if id, ok := w.Get(); !ok || id != "w1" {
		t.Fatalf("unexpected wallet: %q %v", id, ok)
	}
	w.Clear()
	if _, ok := w.Get(); ok {
		t.Fatalf("wallet should be cleared")
	}
}

func TestUserStoreSyncsWallet(t *testing.T) {
	fp := &fakePerfil{perfil: core.Perfil{Usuario: core.Usuario{ID: "u1", Nome: "Ana"}, CarteiraID: "w9"}}
	s := NewUserStore(fp, nil)

	snap := s.FetchUsuario(context.Background())
	if snap.State() != cache.Ready || snap.Data.Usuario.Nome != "Ana" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if id, ok := s.Wallet().Get(); !ok || id != "w9" {
		t.Fatalf("wallet not synced: %q %v", id, ok)
	}
	if u, ok := s.Usuario(); !ok || u.ID != "u1" {
		t.Fatalf("unexpected user: %+v %v", u, ok)
	}

	s.FetchUsuario(context.Background())
	if fp.calls.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", fp.calls.Load())
	}

	s.Reset()
	if _, ok := s.Wallet().Get(); ok {
		t.Fatalf("reset should clear the wallet")
	}
	s.FetchUsuario(context.Background())
	if fp.calls.Load() != 2 {
		t.Fatalf("expected refetch after reset, got %d", fp.calls.Load())
	}
}

func TestUserStoreResetRacingFetchKeepsWalletInStep(t *testing.T) {
	for i := 0; i < 200; i++ {
		wallet := &WalletID{}
		s := NewUserStore(&fakePerfil{perfil: core.Perfil{CarteiraID: "w1"}}, wallet)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.FetchUsuario(context.Background())
		}()
		go func() {
			defer wg.Done()
			s.Reset()
		}()
		wg.Wait()

		id, ok := wallet.Get()
		if snap := s.Snapshot(); snap.Fetched {
			if !ok || id != "w1" {
				t.Fatalf("run %d: profile ready but wallet = %q %v", i, id, ok)
			}
		} else if ok {
			t.Fatalf("run %d: wallet %q survived reset", i, id)
		}
	}
}

func TestUserStoreFailure(t *testing.T) {
	fp := &fakePerfil{err: errors.New("internal server error")}
	s := NewUserStore(fp, nil)
	snap := s.FetchUsuario(context.Background())
	if snap.State() != cache.Failed || snap.Err != "internal server error" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if _, ok := s.Wallet().Get(); ok {
		t.Fatalf("failed fetch must not set a wallet")
	}
}

func TestCategoryStoreConcurrentFetch(t *testing.T) {
	fc := &fakeCategorias{cats: []core.Categoria{{ID: "1", Nome: "Casa"}, {ID: "2", Nome: "Lazer"}}}
	s := NewCategoryStore(fc, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if snap := s.FetchCategorias(context.Background()); len(snap.Data) != 2 {
				t.Errorf("unexpected snapshot: %+v", snap)
			}
		}()
	}
	wg.Wait()

	if fc.listCalls.Load() != 1 {
		t.Fatalf("expected a single list call, got %d", fc.listCalls.Load())
	}
	if s.Nome("2") != "Lazer" || s.Nome("99") != "99" {
		t.Fatalf("unexpected name lookup")
	}
}

func TestCategoryLookupBypassesCache(t *testing.T) {
	fc := &fakeCategorias{cats: []core.Categoria{{ID: "1", Nome: "Casa"}}}
	s := NewCategoryStore(fc, nil)
	s.FetchCategorias(context.Background())

	if c := s.BuscarPorID(context.Background(), "1"); c == nil || c.Nome != "Casa" {
		t.Fatalf("unexpected lookup: %+v", c)
	}
	if c := s.BuscarPorID(context.Background(), "1"); c == nil {
		t.Fatalf("second lookup should also hit the server")
	}
	if fc.byIDCalls.Load() != 2 {
		t.Fatalf("expected two server lookups, got %d", fc.byIDCalls.Load())
	}
	if c := s.BuscarPorID(context.Background(), "404"); c != nil {
		t.Fatalf("errors should map to nil, got %+v", c)
	}

	fc.err = errors.New("boom")
	if c := s.BuscarPorID(context.Background(), "1"); c != nil {
		t.Fatalf("errors should map to nil")
	}
	if c := s.BuscarPorID(context.Background(), ""); c != nil {
		t.Fatalf("empty id should map to nil")
	}
}

func newTestSession(auth *fakeAuth, fp *fakePerfil, fc *fakeCategorias) *Session {
	return NewSession(api.NewGuard(nil), auth, fp, fc, nil)
}

func TestSessionLoginAndLogout(t *testing.T) {
	auth := &fakeAuth{}
	fp := &fakePerfil{perfil: core.Perfil{Usuario: core.Usuario{ID: "u1"}, CarteiraID: "w1"}}
	fc := &fakeCategorias{cats: []core.Categoria{{ID: "1"}}}
	s := newTestSession(auth, fp, fc)

	snap, err := s.Login(context.Background(), core.Credenciais{Email: "a@b.c", Senha: "x"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if snap.Data.CarteiraID != "w1" || s.Guard.State() != api.SessionAuthenticated {
		t.Fatalf("unexpected state after login: %+v %v", snap, s.Guard.State())
	}
	s.Categories.FetchCategorias(context.Background())

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if s.Users.Snapshot().Fetched || s.Categories.Snapshot().Fetched {
		t.Fatalf("stores should be reset after logout")
	}
	if _, ok := s.Wallet.Get(); ok {
		t.Fatalf("wallet should be cleared after logout")
	}
	if s.Guard.State() != api.SessionUnknown {
		t.Fatalf("guard should be unknown after logout")
	}
}

func TestSessionLogoutClearsEvenOnError(t *testing.T) {
	auth := &fakeAuth{logoutErr: errors.New("network error")}
	fp := &fakePerfil{perfil: core.Perfil{CarteiraID: "w1"}}
	s := newTestSession(auth, fp, &fakeCategorias{})
	s.Users.FetchUsuario(context.Background())

	if err := s.Logout(context.Background()); err == nil {
		t.Fatalf("expected logout error")
	}
	if s.Users.Snapshot().Fetched {
		t.Fatalf("local state should be cleared despite the error")
	}
}

func TestSessionLoginFailure(t *testing.T) {
	auth := &fakeAuth{loginErr: errors.New("invalid credentials")}
	fp := &fakePerfil{}
	s := newTestSession(auth, fp, &fakeCategorias{})
	if _, err := s.Login(context.Background(), core.Credenciais{Email: "a", Senha: "b"}); err == nil {
		t.Fatalf("expected login error")
	}
	if fp.calls.Load() != 0 {
		t.Fatalf("profile must not be fetched after failed login")
	}
}

func TestSessionCarteiraID(t *testing.T) {
	fp := &fakePerfil{perfil: core.Perfil{CarteiraID: "w7"}}
	s := newTestSession(&fakeAuth{}, fp, &fakeCategorias{})
	id, err := s.CarteiraID(context.Background())
	if err != nil || id != "w7" {
		t.Fatalf("unexpected wallet: %q %v", id, err)
	}

	empty := newTestSession(&fakeAuth{}, &fakePerfil{}, &fakeCategorias{})
	if _, err := empty.CarteiraID(context.Background()); !errors.Is(err, core.ErrEmptyWallet) {
		t.Fatalf("expected empty wallet error, got %v", err)
	}
}

func TestSessionResetOnExpiry(t *testing.T) {
	fp := &fakePerfil{perfil: core.Perfil{CarteiraID: "w1"}}
	s := newTestSession(&fakeAuth{}, fp, &fakeCategorias{})
	s.ResetOnExpiry()
	s.Users.FetchUsuario(context.Background())

	s.Guard.Expire()
	if s.Users.Snapshot().Fetched {
		t.Fatalf("expiry should reset the user store")
	}
	if _, ok := s.Wallet.Get(); ok {
		t.Fatalf("expiry should clear the wallet")
	}
}

func TestSessionFetchErr(t *testing.T) {
	s := newTestSession(&fakeAuth{}, &fakePerfil{}, &fakeCategorias{})
	ctx := context.Background()

	if err := s.FetchErr(ctx, "", true); err != nil {
		t.Fatalf("fetched snapshot: %v", err)
	}
	if err := s.FetchErr(ctx, "boom", false); err == nil || err.Error() != "boom" {
		t.Fatalf("failed snapshot: %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.FetchErr(cctx, "", false); !errors.Is(err, context.Canceled) {
		t.Fatalf("abandoned fetch: %v", err)
	}

	s.Guard.Expire()
	if err := s.FetchErr(ctx, "", false); !errors.Is(err, api.ErrSessionExpired) {
		t.Fatalf("dropped by expiry: %v", err)
	}
}
