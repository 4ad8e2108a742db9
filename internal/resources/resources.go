// Package resources maps typed calls onto fixed API routes. Nothing here
// retries or caches; each function assembles one request and narrows the
// response.
package resources

import (
	"context"
	"net/url"
	"strings"

	"planejai/internal/api"
)

// DefaultPrefix is the namespace every resource route lives under.
const DefaultPrefix = "/planejai"

// Transport is the subset of *api.Client the resource clients use.
type Transport interface {
	Get(ctx context.Context, path string, params map[string]string, out any) error
	Delete(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
}

var _ Transport = (*api.Client)(nil)

// Client groups the resource clients over one transport.
type Client struct {
	Auth        *Auth
	Categorias  *Categorias
	Carteira    *Carteira
	Lancamentos *Lancamentos
	Usuarios    *Usuarios
	Termos      *Termos
}

// New builds every resource client. An empty prefix uses DefaultPrefix.
func New(t Transport, prefix string) *Client {
	r := newRoutes(prefix)
	return &Client{
		Auth:        &Auth{t: t},
		Categorias:  &Categorias{t: t, r: r},
		Carteira:    &Carteira{t: t, r: r},
		Lancamentos: &Lancamentos{t: t, r: r},
		Usuarios:    &Usuarios{t: t, r: r},
		Termos:      &Termos{t: t, r: r},
	}
}

type routes struct {
	prefix string
}

func newRoutes(prefix string) routes {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return routes{prefix: prefix}
}

// path joins the prefix with the given segments, escaping each one.
func (r routes) path(segments ...string) string {
	var b strings.Builder
	b.WriteString(r.prefix)
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
