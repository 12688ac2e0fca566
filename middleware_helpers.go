package adminauth

import (
	"context"

	"github.com/goliatone/go-admin-auth/middleware/authware"
)

// ValidationListener aliases the authware listener so consumers can use the
// root package helpers directly.
type ValidationListener = authware.ValidationListener

// guardPrincipal adapts a *Principal to the view the guard middleware needs.
type guardPrincipal struct {
	principal *Principal
}

func (g guardPrincipal) PrincipalID() string { return g.principal.ID.String() }
func (g guardPrincipal) Role() string        { return string(g.principal.Role) }
func (g guardPrincipal) Active() bool        { return g.principal.IsActive }

// Unwrap returns the underlying record for handlers that need the full row.
func (g guardPrincipal) Unwrap() *Principal { return g.principal }

// PrincipalResolverAdapter exposes the authenticator's per-request principal
// lookup to the guard middleware. Claims that do not map onto the package's
// own claims type are rejected outright.
func PrincipalResolverAdapter(auther Authenticator) authware.PrincipalResolver {
	return authware.PrincipalResolverFunc(func(ctx context.Context, claims authware.AuthClaims) (authware.Principal, error) {
		authClaims, ok := claims.(AuthClaims)
		if !ok {
			return nil, ErrAuthenticationFailed
		}

		principal, err := auther.PrincipalFromClaims(ctx, authClaims)
		if err != nil {
			return nil, err
		}

		return guardPrincipal{principal: principal}, nil
	})
}

// TokenValidatorAdapter narrows the package TokenService to the guard's
// validator interface.
func TokenValidatorAdapter(svc TokenService) authware.TokenValidator {
	return tokenValidatorAdapter{svc: svc}
}

type tokenValidatorAdapter struct {
	svc TokenService
}

func (a tokenValidatorAdapter) Validate(tokenString string) (authware.AuthClaims, error) {
	claims, err := a.svc.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ContextEnricherAdapter stores the validated claims and the resolved
// principal in the standard context for downstream use.
func ContextEnricherAdapter(c context.Context, claims authware.AuthClaims, principal authware.Principal) context.Context {
	if authClaims, ok := claims.(AuthClaims); ok {
		c = WithClaimsContext(c, authClaims)
	}

	if gp, ok := principal.(guardPrincipal); ok {
		c = WithPrincipalContext(c, gp.Unwrap())
	}

	return c
}

// RegisterValidationListeners appends listeners to an authware.Config in a safe, reusable way.
func RegisterValidationListeners(cfg *authware.Config, listeners ...ValidationListener) {
	if cfg == nil || len(listeners) == 0 {
		return
	}
	cfg.ValidationListeners = append(cfg.ValidationListeners, listeners...)
}
