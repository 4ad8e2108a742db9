package store

import (
	"context"

	"planejai/internal/cache"
	"planejai/internal/core"
	applog "planejai/internal/log"
)

// CategoryStore caches the category list for the session.
type CategoryStore struct {
	once   *cache.Once[[]core.Categoria]
	reader CategoriaReader
	logger *applog.Logger
}

func NewCategoryStore(r CategoriaReader, logger *applog.Logger, opts ...cache.Option) *CategoryStore {
	return &CategoryStore{
		once:   cache.NewOnce[[]core.Categoria]("categorias", r.Listar, opts...),
		reader: r,
		logger: applog.OrDefault(logger, applog.ComponentStore),
	}
}

func (s *CategoryStore) FetchCategorias(ctx context.Context) cache.Snapshot[[]core.Categoria] {
	return s.once.Fetch(ctx)
}

func (s *CategoryStore) Snapshot() cache.Snapshot[[]core.Categoria] {
	return s.once.Snapshot()
}

func (s *CategoryStore) Reset() {
	s.once.Reset()
}

// BuscarPorID always asks the server, skipping the cached list, and returns
// nil on any failure. It is meant for optional labels.
func (s *CategoryStore) BuscarPorID(ctx context.Context, id string) *core.Categoria {
	if id == "" {
		return nil
	}
	c, err := s.reader.BuscarPorID(ctx, id)
	if err != nil {
		s.logger.DebugContext(ctx, "Category lookup failed", "id", id, applog.FieldError, err.Error())
		return nil
	}
	return &c
}

// Nome resolves a category name from the cached list, falling back to id.
func (s *CategoryStore) Nome(id string) string {
	for _, c := range s.once.Snapshot().Data {
		if c.ID == id {
			return c.Nome
		}
	}
	return id
}
