package resources

import (
	"context"
	"fmt"

	"planejai/internal/core"
)

const (
	pathLogin        = "/auth/login"
	pathLogout       = "/auth/logout"
	pathAlterarSenha = "/auth/alterar-senha"
)

// Auth covers the session endpoints. They sit outside the resource prefix.
type Auth struct {
	t Transport
}

// Login posts credentials. On success the server sets the session cookie.
func (a *Auth) Login(ctx context.Context, cred core.Credenciais) (core.Resposta, error) {
	if err := cred.Validate(); err != nil {
		return core.Resposta{}, fmt.Errorf("login: %w", err)
	}
	var out core.Resposta
	if err := a.t.Post(ctx, pathLogin, cred, &out); err != nil {
		return core.Resposta{}, err
	}
	return out, nil
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.t.Post(ctx, pathLogout, struct{}{}, nil)
}

func (a *Auth) AlterarSenha(ctx context.Context, req core.AlterarSenha) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return a.t.Patch(ctx, pathAlterarSenha, req, nil)
}
