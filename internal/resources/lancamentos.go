package resources

import (
	"context"
	"fmt"
	"strconv"

	"planejai/internal/core"
)

type Lancamentos struct {
	t Transport
	r routes
}

// Listar returns one page of a wallet's transactions. Zero page or size
// leaves the choice to the server.
func (l *Lancamentos) Listar(ctx context.Context, carteiraID string, pagina, tamanho int) (core.Pagina[core.Lancamento], error) {
	if carteiraID == "" {
		return core.Pagina[core.Lancamento]{}, core.ErrEmptyWallet
	}
	params := map[string]string{
		"carteiraId": carteiraID,
		"pagina":     positive(pagina),
		"tamanho":    positive(tamanho),
	}
	var out core.Pagina[core.Lancamento]
	if err := l.t.Get(ctx, l.r.path("lancamentos"), params, &out); err != nil {
		return core.Pagina[core.Lancamento]{}, err
	}
	return out, nil
}

// Filtrar runs a filtered query. Only non-empty filter fields are sent.
func (l *Lancamentos) Filtrar(ctx context.Context, carteiraID string, f core.FiltroLancamentos) (core.Pagina[core.Lancamento], error) {
	if carteiraID == "" {
		return core.Pagina[core.Lancamento]{}, core.ErrEmptyWallet
	}
	if err := f.Validate(); err != nil {
		return core.Pagina[core.Lancamento]{}, fmt.Errorf("filter: %w", err)
	}
	params := FilterParams(f)
	params["carteiraId"] = carteiraID

	var out core.Pagina[core.Lancamento]
	if err := l.t.Get(ctx, l.r.path("lancamentos", "filtro"), params, &out); err != nil {
		return core.Pagina[core.Lancamento]{}, err
	}
	return out, nil
}

func (l *Lancamentos) Buscar(ctx context.Context, id string) (core.Lancamento, error) {
	var out core.Lancamento
	if err := l.t.Get(ctx, l.r.path("lancamentos", id), nil, &out); err != nil {
		return core.Lancamento{}, err
	}
	return out, nil
}

func (l *Lancamentos) Adicionar(ctx context.Context, n core.NovoLancamento) (core.Lancamento, error) {
	if err := n.Validate(); err != nil {
		return core.Lancamento{}, fmt.Errorf("validation failed: %w", err)
	}
	var out core.Lancamento
	if err := l.t.Post(ctx, l.r.path("lancamentos"), n, &out); err != nil {
		return core.Lancamento{}, err
	}
	return out, nil
}

func (l *Lancamentos) Atualizar(ctx context.Context, id string, n core.NovoLancamento) (core.Lancamento, error) {
	if err := n.Validate(); err != nil {
		return core.Lancamento{}, fmt.Errorf("validation failed: %w", err)
	}
	var out core.Lancamento
	if err := l.t.Put(ctx, l.r.path("lancamentos", id), n, &out); err != nil {
		return core.Lancamento{}, err
	}
	return out, nil
}

func (l *Lancamentos) Remover(ctx context.Context, id string) error {
	return l.t.Delete(ctx, l.r.path("lancamentos", id), nil)
}

// FilterParams translates the non-empty fields of f into query parameters.
func FilterParams(f core.FiltroLancamentos) map[string]string {
	params := map[string]string{}
	set := func(k, v string) {
		if v != "" {
			params[k] = v
		}
	}
	set("dataInicio", f.DataInicio.String())
	set("dataFim", f.DataFim.String())
	set("categoriaId", f.CategoriaID)
	set("titulo", f.Titulo)
	set("tipo", string(f.Tipo))
	set("pagina", positive(f.Pagina))
	set("tamanho", positive(f.Tamanho))
	return params
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
