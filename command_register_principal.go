package adminauth

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RegisterPrincipalMessage carries a provisioning request. RawToken is empty
// for the bootstrap registration; every later registration must present a
// super admin token. Role is accepted for wire compatibility with the original
// panel but non-bootstrap registrations are always provisioned as sub admins.
type RegisterPrincipalMessage struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Secret    string `json:"password"`
	Role      string `json:"role"`
	RawToken  string `json:"-"`
	UseHashid bool   `json:"-"`

	OnResponse func(*RegisterPrincipalResponse)
}

func (e RegisterPrincipalMessage) Type() string { return "principal.register" }

// RegisterPrincipalResponse reports the created account.
type RegisterPrincipalResponse struct {
	Principal   *Principal
	IsBootstrap bool
}

// RegisterPrincipalHandler runs the registration workflow: uniqueness check,
// population-count check, caller authorization, and insert, all inside one
// transaction so two racing registrations cannot both bootstrap or both claim
// the same username.
type RegisterPrincipalHandler struct {
	repo         RepositoryManager
	auther       Authenticator
	activitySink ActivitySink
	logger       Logger
}

// NewRegisterPrincipalHandler wires the handler.
func NewRegisterPrincipalHandler(repo RepositoryManager, auther Authenticator) *RegisterPrincipalHandler {
	return &RegisterPrincipalHandler{
		repo:         repo,
		auther:       auther,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

// WithActivitySink configures the sink used for provisioning events.
func (h *RegisterPrincipalHandler) WithActivitySink(sink ActivitySink) *RegisterPrincipalHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *RegisterPrincipalHandler) WithLogger(logger Logger) *RegisterPrincipalHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterPrincipalHandler) Execute(ctx context.Context, event RegisterPrincipalMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during principal registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterPrincipalHandler) execute(ctx context.Context, event RegisterPrincipalMessage) error {
	principal := &Principal{}
	isBootstrap := false

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		email := normalizeIdentifier(event.Email)
		username := strings.TrimSpace(event.Username)

		existing, err := h.repo.Principals().GetByEmailOrUsernameTx(ctx, tx, email, username)
		if err != nil && !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check identity uniqueness")
		}
		if existing != nil {
			return ErrDuplicateIdentity
		}

		count, err := h.repo.Principals().CountTx(ctx, tx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count principals")
		}
		isBootstrap = count == 0

		var creator *Principal
		if !isBootstrap {
			creator, err = h.resolveCreator(ctx, tx, event.RawToken)
			if err != nil {
				return err
			}
		}

		digest, err := HashCredential(event.Secret)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid credential provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash credential")
		}

		principal.Username = username
		principal.Email = email
		principal.CredentialDigest = digest
		principal.IsActive = true

		if isBootstrap {
			// the first account ever created is the trust anchor: super
			// admin, approved, no creator, regardless of the requested role
			principal.Role = RoleSuperAdmin
			principal.RequestStatus = StatusApproved
			principal.CreatedByID = nil
		} else {
			principal.Role = RoleSubAdmin
			principal.RequestStatus = StatusPending
			creatorID := creator.ID
			principal.CreatedByID = &creatorID
		}

		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				principal.ID = id
			}
		}

		if principal, err = h.repo.Principals().CreateTx(ctx, tx, principal); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create principal")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "principal registration transaction failed")
	}

	h.recordRegistered(ctx, principal, isBootstrap)

	if event.OnResponse != nil {
		event.OnResponse(&RegisterPrincipalResponse{
			Principal:   principal,
			IsBootstrap: isBootstrap,
		})
	}

	return nil
}

// resolveCreator authenticates the registration caller within the same
// transaction as the insert. The claims alone are not enough; the caller must
// still resolve to a super admin row at execution time.
func (h *RegisterPrincipalHandler) resolveCreator(ctx context.Context, tx bun.IDB, rawToken string) (*Principal, error) {
	if rawToken == "" {
		return nil, ErrAuthenticationFailed
	}

	claims, err := h.auther.ClaimsFromToken(rawToken)
	if err != nil {
		if IsTokenExpiredError(err) || IsMalformedError(err) || IsAuthenticationError(err) {
			return nil, ErrAuthenticationFailed
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to validate registration token")
	}

	id, err := uuid.Parse(claims.PrincipalID())
	if err != nil {
		return nil, ErrAuthenticationFailed
	}

	creator, err := h.repo.Principals().GetByIDAndRoleTx(ctx, tx, id, RoleSuperAdmin)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrSuperAdminOnly
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve registration caller")
	}

	return creator, nil
}

func (h *RegisterPrincipalHandler) recordRegistered(ctx context.Context, principal *Principal, isBootstrap bool) {
	eventType := ActivityEventPrincipalCreated
	actor := ActorRef{Type: "principal"}
	if isBootstrap {
		eventType = ActivityEventBootstrapCompleted
		actor = ActorRef{Type: "system"}
	} else if principal.CreatedByID != nil {
		actor.ID = principal.CreatedByID.String()
	}

	sink := normalizeActivitySink(h.activitySink)
	err := sink.Record(ctx, ActivityEvent{
		EventType:   eventType,
		Actor:       actor,
		PrincipalID: principal.ID.String(),
		ToStatus:    principal.RequestStatus,
		OccurredAt:  time.Now(),
	})
	if err != nil {
		h.logger.Warn("register activity sink error: %v", err)
	}
}
