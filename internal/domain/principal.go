package domain

import "context"

// Capability is a tag granted to an authenticated caller.
type Capability string

const (
	CapabilityOwner    Capability = "PEMILIK"
	CapabilityInternal Capability = "INTERNAL"
)

// InternalPrincipalID identifies callers authenticated with the shared secret.
const InternalPrincipalID = "internal-service"

// Principal is the authenticated identity of a request.
type Principal struct {
	ID           string
	Capabilities []Capability
}

func (p Principal) Has(c Capability) bool {
	for _, have := range p.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the authenticated identity; ok is false for anonymous requests.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
