package services

import (
	"context"
	"strings"

	"github.com/blogfolio/backend/errs"
)

// Principal is the authenticated actor behind a request, as asserted by the
// external auth provider's token.
type Principal struct {
	ID    string
	Email string
	Name  string
}

type principalKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the request
// context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext retrieves the principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Guard implements the single-admin authorization rule: there is exactly one
// administrator, identified by a configured email. No roles, no permission
// matrix.
type Guard struct {
	adminEmail string
}

func NewGuard(adminEmail string) Guard {
	return Guard{adminEmail: strings.TrimSpace(adminEmail)}
}

// RequireAdmin returns nil iff the context principal is the configured admin.
// Pure read of the context; safe to call any number of times per request.
func (g Guard) RequireAdmin(ctx context.Context) error {
	if g.adminEmail == "" {
		return errs.NewUnauthorized()
	}
	p, ok := PrincipalFromContext(ctx)
	if !ok || !strings.EqualFold(p.Email, g.adminEmail) {
		return errs.NewUnauthorized()
	}
	return nil
}

// RequirePrincipal returns the authenticated principal or Unauthorized.
// Comment authorship needs only this, not admin rights.
func (g Guard) RequirePrincipal(ctx context.Context) (Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.ID == "" {
		return Principal{}, errs.NewUnauthorized()
	}
	return p, nil
}
