// Package realm separates production data from simulator data that lives in
// the same tables.
package realm

import "context"

type Realm string

const (
	Production Realm = "production"
	Simulation Realm = "simulation"
)

type ctxKey struct{}

// WithRealm returns a context whose unit of work reads and writes rows of r.
func WithRealm(ctx context.Context, r Realm) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the realm stored in ctx, defaulting to Production.
func FromContext(ctx context.Context) Realm {
	if r, ok := ctx.Value(ctxKey{}).(Realm); ok && r != "" {
		return r
	}
	return Production
}

func (r Realm) Valid() bool {
	return r == Production || r == Simulation
}
