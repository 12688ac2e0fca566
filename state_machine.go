package adminauth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid request status transition", goerrors.CategoryValidation).
	WithTextCode("INVALID_REQUEST_STATUS_TRANSITION").
	WithCode(goerrors.CodeBadRequest)

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// RequestStateMachine governs request-status changes for sub admin accounts.
type RequestStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, principal *Principal, target RequestStatus, opts ...TransitionOption) (*Principal, error)
	CurrentStatus(principal *Principal) RequestStatus
}

// TransitionOption customizes state machine behavior.
type TransitionOption func(*transitionOptions)

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*requestStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *requestStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *requestStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *requestStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewRequestStateMachine returns the default implementation backed by the
// provided repository. Every pairing of approved/pending/rejected is a legal
// transition; an authorized reviewer may flip a decision in either direction.
// Tightening the workflow later is an edit to this table, not new code paths.
func NewRequestStateMachine(principals Principals, opts ...StateMachineOption) RequestStateMachine {
	sm := &requestStateMachine{
		principals: principals,
		transitions: map[RequestStatus]map[RequestStatus]struct{}{
			StatusPending: {
				StatusApproved: {},
				StatusRejected: {},
			},
			StatusApproved: {
				StatusPending:  {},
				StatusRejected: {},
			},
			StatusRejected: {
				StatusPending:  {},
				StatusApproved: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type requestStateMachine struct {
	principals   Principals
	transitions  map[RequestStatus]map[RequestStatus]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

type transitionOptions struct {
	metadata TransitionMetadata
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

func (sm *requestStateMachine) Transition(ctx context.Context, actor ActorRef, principal *Principal, target RequestStatus, opts ...TransitionOption) (*Principal, error) {
	if principal == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "principal is nil",
		})
	}

	if !principal.IsSubAdmin() {
		return nil, ErrTargetNotSubAdmin
	}

	principal.EnsureStatus()
	from := principal.RequestStatus
	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	if from == target {
		return principal, nil
	}

	if !sm.canTransition(from, target) {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	options := sm.buildTransitionOptions(opts...)

	updated, err := sm.principals.UpdateRequestStatus(ctx, principal.ID, target)
	if err != nil {
		return nil, err
	}

	if updated != nil && updated.RequestStatus != "" {
		principal.RequestStatus = updated.RequestStatus
	} else {
		principal.RequestStatus = target
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:   ActivityEventStatusChanged,
		Actor:       actor,
		PrincipalID: principal.ID.String(),
		FromStatus:  from,
		ToStatus:    target,
		Metadata:    sm.transitionMetadata(options.cloneMetadata()),
	})

	return principal, nil
}

func (sm *requestStateMachine) CurrentStatus(principal *Principal) RequestStatus {
	if principal == nil {
		return ""
	}
	principal.EnsureStatus()
	return principal.RequestStatus
}

func (sm *requestStateMachine) canTransition(from, to RequestStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *requestStateMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func (sm *requestStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}

func (sm *requestStateMachine) transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}
