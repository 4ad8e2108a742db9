package resources

import (
	"context"
	"fmt"

	"planejai/internal/core"
)

type Usuarios struct {
	t Transport
	r routes
}

func (u *Usuarios) Criar(ctx context.Context, n core.NovoUsuario) (core.Usuario, error) {
	if err := n.Validate(); err != nil {
		return core.Usuario{}, fmt.Errorf("validation failed: %w", err)
	}
	var out core.Usuario
	if err := u.t.Post(ctx, u.r.path("usuario"), n, &out); err != nil {
		return core.Usuario{}, err
	}
	return out, nil
}

// Atual returns the logged-in user together with the wallet id.
func (u *Usuarios) Atual(ctx context.Context) (core.Perfil, error) {
	var out core.Perfil
	if err := u.t.Get(ctx, u.r.path("usuario", "me"), nil, &out); err != nil {
		return core.Perfil{}, err
	}
	return out, nil
}

func (u *Usuarios) Atualizar(ctx context.Context, a core.AtualizarUsuario) (core.Usuario, error) {
	var out core.Usuario
	if err := u.t.Put(ctx, u.r.path("usuario"), a, &out); err != nil {
		return core.Usuario{}, err
	}
	return out, nil
}

func (u *Usuarios) Remover(ctx context.Context) error {
	return u.t.Delete(ctx, u.r.path("usuario"), nil)
}

func (u *Usuarios) BuscarPorID(ctx context.Context, id string) (core.Usuario, error) {
	var out core.Usuario
	if err := u.t.Get(ctx, u.r.path("usuario", id), nil, &out); err != nil {
		return core.Usuario{}, err
	}
	return out, nil
}
