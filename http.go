package adminauth

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-admin-auth/middleware/authware"
)

// RouteGuard builds the middleware chain that protects routes: token check,
// per-request principal resolution, then an optional role gate.
type RouteGuard struct {
	auth         Authenticator
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewRouteGuard(auther Authenticator, cfg Config) (*RouteGuard, error) {
	if auther == nil {
		return nil, goerrors.New("route guard requires an authenticator", goerrors.CategoryBadInput)
	}

	g := &RouteGuard{
		auth:   auther,
		cfg:    cfg,
		Logger: defLogger{},
	}

	g.ErrorHandler = g.defaultErrHandler

	return g, nil
}

// Authenticated returns middleware that only requires a valid token and a
// live principal. Any authenticated account reaches the handler.
func (g *RouteGuard) Authenticated() router.MiddlewareFunc {
	return g.protect("")
}

// RequireRole returns middleware that also gates on the resolved principal's
// current role.
func (g *RouteGuard) RequireRole(role Role) router.MiddlewareFunc {
	return g.protect(role)
}

// RequireSuperAdmin gates a route to the management tier.
func (g *RouteGuard) RequireSuperAdmin() router.MiddlewareFunc {
	return g.RequireRole(RoleSuperAdmin)
}

func (g *RouteGuard) protect(role Role) router.MiddlewareFunc {
	return authware.New(authware.Config{
		ErrorHandler: g.authwareErrHandler,
		SigningKey: authware.SigningKey{
			Key:    []byte(g.cfg.GetSigningKey()),
			JWTAlg: g.cfg.GetSigningMethod(),
		},
		AuthScheme:        g.cfg.GetAuthScheme(),
		ContextKey:        g.cfg.GetContextKey(),
		TokenLookup:       g.cfg.GetTokenLookup(),
		TokenValidator:    authenticatorValidator{auth: g.auth},
		PrincipalResolver: PrincipalResolverAdapter(g.auth),
		RequiredRole:      string(role),
		ContextEnricher:   ContextEnricherAdapter,
	})
}

// authwareErrHandler maps guard failures onto the package error taxonomy
// before handing off to the JSON error handler.
func (g *RouteGuard) authwareErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error

	switch {
	case goerrors.As(err, &richErr):
		// already classified
	case errors.Is(err, authware.ErrAccessDenied):
		richErr = ErrSuperAdminOnly
	default:
		richErr = ErrAuthenticationFailed
	}

	return g.ErrorHandler(c, richErr)
}

func (g *RouteGuard) defaultErrHandler(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	g.Logger.Info(
		"Route guard error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return RenderError(c, richErr)
}

// RenderError writes the JSON error envelope the panel's clients expect.
func RenderError(c router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusForCategory(richErr.Category)
	}

	return c.JSON(status, map[string]any{
		"success": false,
		"message": richErr.Message,
	})
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// authenticatorValidator routes guard token validation through the
// authenticator so configured fallback validators participate.
type authenticatorValidator struct {
	auth Authenticator
}

func (v authenticatorValidator) Validate(tokenString string) (authware.AuthClaims, error) {
	claims, err := v.auth.ClaimsFromToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
