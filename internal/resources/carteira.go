package resources

import (
	"context"
	"errors"

	"planejai/internal/core"
)

type Carteira struct {
	t Transport
	r routes
}

// Saldo returns the balance of a wallet for one month (YYYY-MM), including
// the per-category breakdown.
func (c *Carteira) Saldo(ctx context.Context, carteiraID, mes string) (core.Saldo, error) {
	if carteiraID == "" {
		return core.Saldo{}, core.ErrEmptyWallet
	}
	if mes == "" {
		return core.Saldo{}, errors.New("empty month")
	}
	var out core.Saldo
	if err := c.t.Get(ctx, c.r.path("carteira", carteiraID, "saldo"), map[string]string{"mes": mes}, &out); err != nil {
		return core.Saldo{}, err
	}
	return out, nil
}
