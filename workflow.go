package adminauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Provisioning exposes the admin side of the account lifecycle: reviewing
// pending requests, listing sub admins, toggling the kill switch, and
// deleting accounts. Callers are expected to be authenticated super admins;
// the workflow still refuses to act on anything that is not a sub admin row.
type Provisioning struct {
	repo         RepositoryManager
	stateMachine RequestStateMachine
	activitySink ActivitySink
	logger       Logger
}

// NewProvisioning wires the workflow around the given repository.
func NewProvisioning(repo RepositoryManager) *Provisioning {
	sink := noopActivitySink{}
	return &Provisioning{
		repo:         repo,
		stateMachine: NewRequestStateMachine(repo.Principals(), WithStateMachineActivitySink(sink)),
		activitySink: sink,
		logger:       defLogger{},
	}
}

// WithActivitySink configures the sink used for lifecycle events.
func (p *Provisioning) WithActivitySink(sink ActivitySink) *Provisioning {
	p.activitySink = normalizeActivitySink(sink)
	p.stateMachine = NewRequestStateMachine(p.repo.Principals(), WithStateMachineActivitySink(p.activitySink))
	return p
}

func (p *Provisioning) WithLogger(logger Logger) *Provisioning {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithStateMachine swaps the transition engine, mostly for tests.
func (p *Provisioning) WithStateMachine(sm RequestStateMachine) *Provisioning {
	if sm != nil {
		p.stateMachine = sm
	}
	return p
}

// ApproveOrReject moves a pending sub admin request to its reviewed status.
// The target is loaded by plain id so a missing account reports not found
// while an existing account of the wrong role fails the state machine's role
// check instead.
func (p *Provisioning) ApproveOrReject(ctx context.Context, actor *Principal, id uuid.UUID, target RequestStatus) (*Principal, error) {
	record, err := p.repo.Principals().GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load request target")
	}

	return p.stateMachine.Transition(ctx, actorFromPrincipal(actor), record, target)
}

// ListPending returns sub admin accounts awaiting review, oldest request first.
func (p *Provisioning) ListPending(ctx context.Context) ([]*Principal, error) {
	records, err := p.repo.Principals().ListByRoleAndStatus(ctx, RoleSubAdmin, StatusPending)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list pending requests")
	}
	return records, nil
}

// ListSubAdmins returns every sub admin account with its creator resolved,
// oldest account first.
func (p *Provisioning) ListSubAdmins(ctx context.Context) ([]*Principal, error) {
	records, err := p.repo.Principals().ListSubAdmins(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list sub admins")
	}
	return records, nil
}

// ToggleActive flips the kill switch on a sub admin account and returns the
// updated record. Deactivation takes effect on the target's next request.
func (p *Provisioning) ToggleActive(ctx context.Context, actor *Principal, id uuid.UUID) (*Principal, error) {
	record, err := p.repo.Principals().GetByIDAndRole(ctx, id, RoleSubAdmin)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load toggle target")
	}

	return p.SetActiveStatus(ctx, actor, id, !record.IsActive)
}

// SetActiveStatus sets the kill switch to an explicit value. Only sub admin
// rows qualify; a super admin id reports not found.
func (p *Provisioning) SetActiveStatus(ctx context.Context, actor *Principal, id uuid.UUID, active bool) (*Principal, error) {
	if _, err := p.repo.Principals().GetByIDAndRole(ctx, id, RoleSubAdmin); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load toggle target")
	}

	updated, err := p.repo.Principals().SetActive(ctx, id, active)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to toggle account status")
	}

	p.recordLifecycle(ctx, ActivityEventActiveToggled, actor, updated, map[string]any{
		"is_active": updated.IsActive,
	})

	return updated, nil
}

// Delete removes a sub admin account permanently. Any token the target still
// holds dies with the row since the guard re-resolves principals per request.
func (p *Provisioning) Delete(ctx context.Context, actor *Principal, id uuid.UUID) (*Principal, error) {
	record, err := p.repo.Principals().DeleteSubAdmin(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete sub admin")
	}

	p.recordLifecycle(ctx, ActivityEventPrincipalDeleted, actor, record, nil)

	return record, nil
}

func (p *Provisioning) recordLifecycle(ctx context.Context, eventType ActivityEventType, actor *Principal, target *Principal, meta map[string]any) {
	sink := normalizeActivitySink(p.activitySink)
	err := sink.Record(ctx, ActivityEvent{
		EventType:   eventType,
		Actor:       actorFromPrincipal(actor),
		PrincipalID: target.ID.String(),
		Metadata:    meta,
		OccurredAt:  time.Now(),
	})
	if err != nil {
		p.logger.Warn("provisioning activity sink error: %v", err)
	}
}
