package sightings

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventPostStatusChanged ActivityEventType = "post.status.changed"
	ActivityEventPostCreated       ActivityEventType = "post.created"
	ActivityEventAdminLoginSuccess ActivityEventType = "auth.admin.login.success"
	ActivityEventAdminLoginFailure ActivityEventType = "auth.admin.login.failure"
	ActivityEventUserLoginSuccess  ActivityEventType = "auth.user.login.success"
	ActivityEventTokenRefresh      ActivityEventType = "auth.token.refresh"
)

// ActorRef identifies who/what triggered an event.
type ActorRef struct {
	ID   string
	Type string
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	PostID     string
	FromStatus PostStatus
	ToStatus   PostStatus
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
