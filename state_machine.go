package sightings

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	textCodeInvalidTransition = "INVALID_POST_STATE_TRANSITION"
	textCodeTerminalStatus    = "TERMINAL_POST_STATE"
	textCodeStatusConflict    = "POST_STATUS_CONFLICT"
	textCodeNotPostOwner      = "NOT_POST_OWNER"
	textCodeEditNotAllowed    = "POST_EDIT_NOT_ALLOWED"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid post state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrTerminalStatus is returned when deleting a post that is already deleted.
var ErrTerminalStatus = goerrors.New("post state is terminal", goerrors.CategoryConflict).
	WithTextCode(textCodeTerminalStatus).
	WithCode(goerrors.CodeConflict)

// ErrStatusConflict is returned when the post's status moved under us between
// read and write.
var ErrStatusConflict = goerrors.New("post status changed concurrently", goerrors.CategoryConflict).
	WithTextCode(textCodeStatusConflict).
	WithCode(goerrors.CodeConflict)

// ErrNotPostOwner is returned when a user operates on somebody else's post.
var ErrNotPostOwner = goerrors.New("post belongs to another user", goerrors.CategoryAuthz).
	WithTextCode(textCodeNotPostOwner).
	WithCode(goerrors.CodeForbidden)

// ErrEditNotAllowed is returned when a content edit hits a non editable status.
var ErrEditNotAllowed = goerrors.New("post content is not editable in its current state", goerrors.CategoryAuthz).
	WithTextCode(textCodeEditNotAllowed).
	WithCode(goerrors.CodeForbidden)

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor *Principal
	Post  *Post
	From  PostStatus
	To    PostStatus
	Meta  TransitionMetadata
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionHookPhase identifies whether a hook ran before or after persistence.
type TransitionHookPhase string

const (
	HookPhaseBefore TransitionHookPhase = "before_transition"
	HookPhaseAfter  TransitionHookPhase = "after_transition"
)

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

// PostStateMachine defines lifecycle operations for sighting posts.
type PostStateMachine interface {
	Transition(ctx context.Context, actor *Principal, post *Post, target PostStatus, opts ...TransitionOption) (*Post, error)
	Delete(ctx context.Context, actor *Principal, post *Post, opts ...TransitionOption) (*Post, error)
	CanTransition(kind PrincipalKind, from, to PostStatus) bool
	AllowedTargets(kind PrincipalKind, from PostStatus) []PostStatus
	CanEditContent(post *Post) bool
	CurrentStatus(post *Post) PostStatus
}

// HookErrorHandler handles errors surfaced by transition hooks.
type HookErrorHandler func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*postStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *postStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *postStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineNotifier sets the Notifier used to broadcast approvals.
func WithStateMachineNotifier(notifier Notifier) StateMachineOption {
	return func(sm *postStateMachine) {
		sm.notifier = normalizeNotifier(notifier)
	}
}

// WithStateMachineStatusSet overrides the recognized status set.
func WithStateMachineStatusSet(statuses *StatusSet) StateMachineOption {
	return func(sm *postStateMachine) {
		if statuses != nil {
			sm.statuses = statuses
		}
	}
}

// WithStateMachineHookErrorHandler overrides how hook failures are propagated.
func WithStateMachineHookErrorHandler(handler HookErrorHandler) StateMachineOption {
	return func(sm *postStateMachine) {
		if handler != nil {
			sm.hookErrorHandler = handler
		}
	}
}

// WithStateMachineLogger overrides the logger used for sink and notifier failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *postStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithSynchronousNotifications makes approval broadcasts run inline instead
// of on a goroutine. Tests rely on this to observe dispatches.
func WithSynchronousNotifications() StateMachineOption {
	return func(sm *postStateMachine) {
		sm.syncNotify = true
	}
}

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

// WithBeforeTransitionHook adds a hook executed before the status update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

type transitionKey struct {
	kind PrincipalKind
	from PostStatus
}

// NewPostStateMachine returns the default implementation backed by the
// provided posts repository. A single table keyed by (principal kind, from)
// holds every legal transition; everything absent from it is rejected.
func NewPostStateMachine(posts Posts, opts ...StateMachineOption) PostStateMachine {
	sm := &postStateMachine{
		posts:    posts,
		statuses: DefaultStatusSet(),
		transitions: map[transitionKey]map[PostStatus]struct{}{
			{KindUser, StatusBorrador}: {
				StatusRevision:  {},
				StatusEliminado: {},
			},
			{KindUser, StatusRevision}: {
				StatusEliminado: {},
			},
			{KindUser, StatusActivo}: {
				StatusEliminado: {},
			},
			{KindUser, StatusRechazado}: {
				StatusEliminado: {},
			},
			{KindAdmin, StatusBorrador}: {
				StatusRevision:  {},
				StatusEliminado: {},
			},
			{KindAdmin, StatusRevision}: {
				StatusActivo:    {},
				StatusRechazado: {},
				StatusEliminado: {},
			},
			{KindAdmin, StatusActivo}: {
				StatusRechazado: {},
				StatusEliminado: {},
			},
			{KindAdmin, StatusRechazado}: {
				StatusBorrador:  {},
				StatusEliminado: {},
			},
		},
		editable: map[PostStatus]struct{}{
			StatusBorrador: {},
			StatusActivo:   {},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		notifier:     noopNotifier{},
		logger:       defLogger{},
		hookErrorHandler: func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
			return defaultHookErrorHandler(ctx, phase, err, tc)
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type postStateMachine struct {
	posts            Posts
	statuses         *StatusSet
	transitions      map[transitionKey]map[PostStatus]struct{}
	editable         map[PostStatus]struct{}
	now              func() time.Time
	activitySink     ActivitySink
	notifier         Notifier
	logger           Logger
	syncNotify       bool
	hookErrorHandler HookErrorHandler
}

type transitionOptions struct {
	metadata    TransitionMetadata
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
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

func (sm *postStateMachine) Transition(ctx context.Context, actor *Principal, post *Post, target PostStatus, opts ...TransitionOption) (*Post, error) {
	if post == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "post is nil",
		})
	}

	if actor == nil || (!actor.IsAdmin() && !actor.IsUser()) {
		return nil, ErrUnauthenticated
	}

	from := post.Status
	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	if !sm.statuses.Contains(target) {
		return nil, sm.invalidTransition(from, target)
	}

	if actor.IsUser() && !post.OwnedBy(actor.User.ID) {
		return nil, ErrNotPostOwner.WithMetadata(map[string]any{
			"post_id": post.ID.String(),
		})
	}

	if from.IsTerminal() {
		return nil, sm.invalidTransition(from, target)
	}

	if !sm.CanTransition(actor.Kind, from, target) {
		return nil, sm.invalidTransition(from, target)
	}

	options := sm.buildTransitionOptions(opts...)

	ctxData := TransitionContext{
		Actor: actor,
		Post:  post,
		From:  from,
		To:    target,
		Meta:  options.cloneMetadata(),
	}

	if err := sm.runHooks(ctx, options.beforeHooks, ctxData, HookPhaseBefore); err != nil {
		return nil, err
	}

	if err := sm.persistStatus(ctx, post, from, target); err != nil {
		return nil, err
	}

	post.Status = target

	if err := sm.runHooks(ctx, options.afterHooks, ctxData, HookPhaseAfter); err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventPostStatusChanged,
		Actor:      actorRef(actor),
		PostID:     post.ID.String(),
		FromStatus: from,
		ToStatus:   target,
		Metadata:   sm.transitionMetadata(ctxData.Meta),
	})

	if actor.IsAdmin() && from == StatusRevision && target == StatusActivo {
		sm.dispatchApproval(ctx, post)
	}

	return post, nil
}

// Delete moves a post into the terminal status. A second delete of the same
// post surfaces as a conflict rather than a silent no-op.
func (sm *postStateMachine) Delete(ctx context.Context, actor *Principal, post *Post, opts ...TransitionOption) (*Post, error) {
	if post != nil && post.Status.IsTerminal() {
		return nil, ErrTerminalStatus.WithMetadata(map[string]any{
			"post_id": post.ID.String(),
			"status":  post.Status,
		})
	}
	return sm.Transition(ctx, actor, post, StatusEliminado, opts...)
}

func (sm *postStateMachine) CanTransition(kind PrincipalKind, from, to PostStatus) bool {
	if allowed, ok := sm.transitions[transitionKey{kind, from}]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// AllowedTargets returns every status the given principal kind may move a
// post to from the given status.
func (sm *postStateMachine) AllowedTargets(kind PrincipalKind, from PostStatus) []PostStatus {
	allowed, ok := sm.transitions[transitionKey{kind, from}]
	if !ok {
		return nil
	}

	var targets []PostStatus
	for _, st := range sm.statuses.Members() {
		if _, exists := allowed[st]; exists {
			targets = append(targets, st)
		}
	}
	return targets
}

// CanEditContent reports whether the post's payload may be modified.
func (sm *postStateMachine) CanEditContent(post *Post) bool {
	if post == nil {
		return false
	}
	_, ok := sm.editable[post.Status]
	return ok
}

func (sm *postStateMachine) CurrentStatus(post *Post) PostStatus {
	if post == nil {
		return ""
	}
	return post.Status
}

// persistStatus writes the status with a guard on the expected current value.
// When the guard misses we look the row up again to tell a concurrent change
// apart from a vanished record.
func (sm *postStateMachine) persistStatus(ctx context.Context, post *Post, from, target PostStatus) error {
	affected, err := sm.posts.UpdateStatusGuarded(ctx, post.ID, from, target)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist post status")
	}

	if affected > 0 {
		return nil
	}

	current, err := sm.posts.GetByID(ctx, post.ID.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "post disappeared during status update")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to re-read post after guarded update")
	}

	return ErrStatusConflict.WithMetadata(map[string]any{
		"post_id":  post.ID.String(),
		"expected": from,
		"actual":   current.Status,
		"target":   target,
	})
}

func (sm *postStateMachine) dispatchApproval(ctx context.Context, post *Post) {
	loaded, err := sm.posts.GetWithRelations(ctx, post.ID)
	if err != nil {
		sm.logger.Warn("state machine could not load post %s for approval broadcast: %v", post.ID, err)
		loaded = post
	}

	notification := NotificationFor(loaded)

	send := func() {
		if err := sm.notifier.NotifySightingApproved(notification); err != nil {
			sm.logger.Warn("state machine approval broadcast failed for post %s: %v", notification.PostID, err)
		}
	}

	if sm.syncNotify {
		send()
		return
	}

	go send()
}

func (sm *postStateMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext, phase TransitionHookPhase) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			if sm.hookErrorHandler == nil {
				return err
			}
			return sm.hookErrorHandler(ctx, phase, err, data)
		}
	}
	return nil
}

func (sm *postStateMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func (sm *postStateMachine) invalidTransition(from, to PostStatus) error {
	clone := ErrInvalidTransition.Clone()
	if clone == nil {
		return ErrInvalidTransition
	}
	clone.Message = fmt.Sprintf("invalid post state transition from %s to %s", from, to)
	clone.Source = ErrInvalidTransition
	return clone.WithMetadata(map[string]any{
		"from": from,
		"to":   to,
	})
}

func defaultHookErrorHandler(_ context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
	panic(fmt.Sprintf(
		"sightings: %s transition hook failed: %v\nPostID: %s from=%s to=%s reason=%s\nProvide sightings.WithStateMachineHookErrorHandler to customize error handling in production.",
		phase,
		err,
		tc.Post.ID,
		tc.From,
		tc.To,
		tc.Meta.Reason,
	))
}

func actorRef(p *Principal) ActorRef {
	if p == nil {
		return ActorRef{Type: "system"}
	}
	return ActorRef{
		ID:   p.ID().String(),
		Type: string(p.Kind),
	}
}

func (sm *postStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
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

func (sm *postStateMachine) transitionMetadata(meta TransitionMetadata) map[string]any {
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
