// Package store holds the client-side state containers: the current user and
// wallet id, the category list, and the Session that ties them to the
// transport's session guard. Each container is an explicit value so tests and
// commands can build fresh ones.
package store

import (
	"context"

	"planejai/internal/core"
	"planejai/internal/resources"
)

// Ports for the resource calls the stores depend on.
type (
	PerfilReader interface {
		Atual(ctx context.Context) (core.Perfil, error)
	}

	CategoriaReader interface {
		Listar(ctx context.Context) ([]core.Categoria, error)
		BuscarPorID(ctx context.Context, id string) (core.Categoria, error)
	}

	Authenticator interface {
		Login(ctx context.Context, cred core.Credenciais) (core.Resposta, error)
		Logout(ctx context.Context) error
	}
)

var (
	_ PerfilReader    = (*resources.Usuarios)(nil)
	_ CategoriaReader = (*resources.Categorias)(nil)
	_ Authenticator   = (*resources.Auth)(nil)
)
