package store

import (
	"context"

	"planejai/internal/cache"
	"planejai/internal/core"
)

// UserStore caches the current user's profile and keeps WalletID in step
// with it.
type UserStore struct {
	once   *cache.Once[core.Perfil]
	wallet *WalletID
}

func NewUserStore(r PerfilReader, wallet *WalletID, opts ...cache.Option) *UserStore {
	if wallet == nil {
		wallet = &WalletID{}
	}
	once := cache.NewOnce[core.Perfil]("usuario", r.Atual, opts...)
	// The wallet follows the profile as it is published, so a Reset racing
	// the fetch cannot bring a previous user's wallet back.
	once.OnReady(func(p core.Perfil) { wallet.Set(p.CarteiraID) })
	once.OnReset(wallet.Clear)
	return &UserStore{once: once, wallet: wallet}
}

// FetchUsuario loads the profile once. The wallet id is synchronised from it
// when it becomes Ready.
func (s *UserStore) FetchUsuario(ctx context.Context) cache.Snapshot[core.Perfil] {
	return s.once.Fetch(ctx)
}

func (s *UserStore) Snapshot() cache.Snapshot[core.Perfil] {
	return s.once.Snapshot()
}

// Usuario returns the cached user, if any.
func (s *UserStore) Usuario() (core.Usuario, bool) {
	snap := s.once.Snapshot()
	return snap.Data.Usuario, snap.Fetched
}

func (s *UserStore) Wallet() *WalletID {
	return s.wallet
}

// Reset drops the profile and the wallet selection.
func (s *UserStore) Reset() {
	s.once.Reset()
}
