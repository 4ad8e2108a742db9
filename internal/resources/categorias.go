package resources

import (
	"context"

	"planejai/internal/core"
)

type Categorias struct {
	t Transport
	r routes
}

func (c *Categorias) Listar(ctx context.Context) ([]core.Categoria, error) {
	var out []core.Categoria
	if err := c.t.Get(ctx, c.r.path("categorias"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Categorias) BuscarPorID(ctx context.Context, id string) (core.Categoria, error) {
	var out core.Categoria
	if err := c.t.Get(ctx, c.r.path("categorias", id), nil, &out); err != nil {
		return core.Categoria{}, err
	}
	return out, nil
}
