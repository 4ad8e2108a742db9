package resources

import (
	"context"

	"planejai/internal/core"
)

type Termos struct {
	t Transport
	r routes
}

// Atual fetches the current terms of use. Reachable without a session.
func (t *Termos) Atual(ctx context.Context) (core.Termos, error) {
	var out core.Termos
	if err := t.t.Get(ctx, t.r.path("termos"), nil, &out); err != nil {
		return core.Termos{}, err
	}
	return out, nil
}
