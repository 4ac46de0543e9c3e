package types

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies the authenticated caller of a directory call. The ID is
// the opaque identity used as the key in every directory table.
type ActorRef struct {
	ID   uuid.UUID
	Type string
}

// IsZero reports whether the actor reference carries no identity.
func (a ActorRef) IsZero() bool {
	return a.ID == uuid.Nil
}

// Pagination supports activity feed pagination.
type Pagination struct {
	Limit  int
	Offset int
}

// ActivityRecord describes sink inputs and is shared across sink and query layers.
type ActivityRecord struct {
	ID         uuid.UUID
	ActorID    uuid.UUID
	Verb       string
	ObjectType string
	ObjectID   string
	Data       map[string]any
	OccurredAt time.Time
}

// ActivitySink receives one record per committed directory call.
type ActivitySink interface {
	Log(context.Context, ActivityRecord) error
}

// ActivityFilter narrows activity feed queries.
type ActivityFilter struct {
	Actor      ActorRef
	ActorID    uuid.UUID
	Verbs      []string
	ObjectType string
	ObjectID   string
	Since      *time.Time
	Until      *time.Time
	Pagination Pagination
}

// Type implements gocommand.Message for query inputs.
func (ActivityFilter) Type() string {
	return "query.activity.feed"
}

// Validate implements gocommand.Message.
func (filter ActivityFilter) Validate() error {
	if filter.Actor.IsZero() {
		return ErrActorRequired
	}
	return nil
}

// ActivityPage represents a paginated feed response.
type ActivityPage struct {
	Records    []ActivityRecord
	Total      int
	NextOffset int
	HasMore    bool
}

// ActivityStats aggregates feed records per verb.
type ActivityStats struct {
	Total  int
	ByVerb map[string]int
}

// ActivityRepository exposes read-side access to the activity log.
type ActivityRepository interface {
	ListActivity(ctx context.Context, filter ActivityFilter) (ActivityPage, error)
	// CountByVerb ignores filter.Pagination.
	CountByVerb(ctx context.Context, filter ActivityFilter) (map[string]int, error)
}

// Clock abstracts wall time retrieval for deterministic testing.
type Clock interface {
	Now() time.Time
}

// LogicalClock reports the host's current logical time (block height or
// sequence number). It stamps profile creation.
type LogicalClock interface {
	Current() uint64
}

// IDGenerator abstracts UUID creation.
type IDGenerator interface {
	UUID() uuid.UUID
}

// Logger captures basic logging hooks used by the service.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Error(msg string, err error, fields ...any)
}

// SystemClock defers to time.Now for production usage.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UnixLogicalClock derives logical time from a wall clock in Unix seconds.
// Hosts with a real sequence source should supply their own LogicalClock.
type UnixLogicalClock struct {
	Clock Clock
}

// Current returns the clock's Unix timestamp.
func (c UnixLogicalClock) Current() uint64 {
	clock := c.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	ts := clock.Now().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// LogicalClockFunc adapts bare functions to LogicalClock.
type LogicalClockFunc func() uint64

// Current implements LogicalClock.
func (fn LogicalClockFunc) Current() uint64 {
	if fn == nil {
		return 0
	}
	return fn()
}

// UUIDGenerator produces UUIDv4 identifiers.
type UUIDGenerator struct{}

// UUID returns a randomly generated UUID.
func (UUIDGenerator) UUID() uuid.UUID { return uuid.New() }

// NopLogger discards all log lines.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(string, ...any) {}

// Info implements Logger.
func (NopLogger) Info(string, ...any) {}

// Error implements Logger.
func (NopLogger) Error(string, error, ...any) {}

var (
	// ErrActorRequired indicates an actor reference was not supplied.
	ErrActorRequired = errors.New("go-directory: actor reference required")
	// ErrServiceNotReady indicates the service has not been properly configured.
	ErrServiceNotReady = errors.New("go-directory: service not ready")
	// ErrMissingStateStore occurs when commands or queries lack a state store.
	ErrMissingStateStore = errors.New("go-directory: missing state store")
	// ErrMissingActivitySink occurs when no activity sink was supplied.
	ErrMissingActivitySink = errors.New("go-directory: missing activity sink")
	// ErrMissingActivityRepository occurs when no activity repository was supplied.
	ErrMissingActivityRepository = errors.New("go-directory: missing activity repository")
	// ErrReadOnly indicates a write was attempted inside a View unit.
	ErrReadOnly = errors.New("go-directory: read-only unit of work")
	// ErrActivityAccessDenied indicates a caller asked for another identity's
	// activity without operator rights.
	ErrActivityAccessDenied = errors.New("go-directory: activity access denied")
	// ErrUnknownCall indicates Dispatch received a message it cannot route.
	ErrUnknownCall = errors.New("go-directory: unknown call")
)
