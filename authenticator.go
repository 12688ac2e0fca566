package adminauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

type Auther struct {
	principals     Principals
	tokenService   TokenService
	tokenValidator TokenValidator
	logger         Logger
	activitySink   ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(principals Principals, cfg Config) *Auther {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &Auther{
		principals:   principals,
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login authenticates the identifier/secret pair and issues a token. Every
// pre-password failure collapses into ErrInvalidCredentials; the lifecycle
// errors (deactivated, pending, rejected) only surface once the secret
// matched, so they do not enable account enumeration.
func (s *Auther) Login(ctx context.Context, identifier, secret string) (string, *Principal, error) {
	principal, err := s.principals.GetByEmail(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// burn a comparison so a missing account costs the same as a
			// wrong password
			CompareCredentialAndDigest(secret, RandomCredentialDigest())
			s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
				"identifier": identifier,
			})
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve principal during login")
	}

	if err := CompareCredentialAndDigest(secret, principal.CredentialDigest); err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorFromPrincipal(principal), principal.ID.String(), map[string]any{
			"identifier": identifier,
		})
		return "", nil, ErrInvalidCredentials
	}

	if err := ensureLoginAllowed(principal); err != nil {
		s.logger.Warn("login blocked due to account state", "principal_id", principal.ID.String(), "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorFromPrincipal(principal), principal.ID.String(), map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return "", nil, err
	}

	token, err := s.tokenService.Generate(NewIdentityFromPrincipal(principal))
	if err != nil {
		s.logger.Error("login failed to generate token", "error", err)
		return "", nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorFromPrincipal(principal), principal.ID.String(), map[string]any{
		"identifier": identifier,
	})

	return token, principal, nil
}

// ClaimsFromToken validates the raw token and returns its claims.
func (s *Auther) ClaimsFromToken(raw string) (AuthClaims, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("token validation failed", "error", err)
		return nil, err
	}

	return claims, nil
}

// PrincipalFromClaims resolves the claims' principal against the repository,
// filtered by the active flag. Resolution happens per request so a
// deactivation or deletion takes effect on the very next call.
func (s *Auther) PrincipalFromClaims(ctx context.Context, claims AuthClaims) (*Principal, error) {
	if claims == nil {
		return nil, ErrAuthenticationFailed
	}

	id, err := uuid.Parse(claims.PrincipalID())
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	principal, err := s.principals.GetActiveByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrAuthenticationFailed
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve principal from claims")
	}

	return principal, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, principalID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:   eventType,
		Actor:       actor,
		PrincipalID: principalID,
		Metadata:    metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

// ensureLoginAllowed applies the lifecycle gates in the documented order:
// kill switch first, then the approval workflow for the managed tier. A super
// admin has no request status to satisfy.
func ensureLoginAllowed(principal *Principal) error {
	if principal == nil {
		return ErrInvalidCredentials
	}

	if !principal.IsActive {
		return ErrAccountDeactivated
	}

	if principal.IsSubAdmin() {
		principal.EnsureStatus()
		switch principal.RequestStatus {
		case StatusPending:
			return ErrAccountPending
		case StatusRejected:
			return ErrAccountRejected
		}
	}

	return nil
}
