package activitymap

import (
	"context"
	"strings"
	"time"

	authflow "github.com/goliatone/go-authflow"
)

const (
	// MetadataKeyMethod stores the String form of the event method.
	MetadataKeyMethod = "method"
	// MetadataKeyOperation stores the operation the event belongs to.
	MetadataKeyOperation = "operation"
	// MetadataKeyPhase stores the lifecycle phase of the event.
	MetadataKeyPhase = "phase"
	// MetadataKeySequence stores the bus sequence number.
	MetadataKeySequence = "sequence"
	// MetadataKeyError stores the failure description of Failed variants.
	MetadataKeyError = "error"
)

const (
	defaultChannel    = "auth"
	defaultObjectType = "auth_attempt"
	defaultActorID    = "anonymous"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel          string
	objectType       string
	actorFallback    string
	objectIDResolver func(authflow.AuthEvent) string
	now              func() time.Time
}

// Normalize converts an authflow.AuthEvent into a generic normalized shape.
// The actor is the resolved identity when there is one; the object is the
// attempt.
func Normalize(event authflow.AuthEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	var identityID string
	if event.Identity != nil {
		identityID = strings.TrimSpace(event.Identity.ID)
	}
	actorID := firstNonEmpty(identityID, strings.TrimSpace(options.actorFallback))

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = options.now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.Kind),
		ObjectType: strings.TrimSpace(options.objectType),
		ObjectID:   resolveObjectID(event, options.objectIDResolver),
		Channel:    strings.TrimSpace(options.channel),
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// Sink adapts a normalized record consumer into an authflow.ActivitySink.
func Sink(record func(ctx context.Context, n Normalized) error, opts ...Option) authflow.ActivitySink {
	return authflow.ActivitySinkFunc(func(ctx context.Context, event authflow.AuthEvent) error {
		if record == nil {
			return nil
		}
		return record(ctx, Normalize(event, opts...))
	})
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithObjectIDResolver overrides object-id extraction from AuthEvent.
func WithObjectIDResolver(resolver func(authflow.AuthEvent) string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.objectIDResolver = resolver
	}
}

// WithActorFallback sets the actor id used when no identity was resolved.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithClock sets the clock used when the event carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(opts *normalizeOptions) {
		if opts == nil || now == nil {
			return
		}
		opts.now = now
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
		now:           time.Now,
	}
}

func resolveObjectID(event authflow.AuthEvent, resolver func(authflow.AuthEvent) string) string {
	if resolver != nil {
		return strings.TrimSpace(resolver(event))
	}
	return strings.TrimSpace(event.AttemptID)
}

func normalizeMetadata(event authflow.AuthEvent) map[string]any {
	metadata := cloneMap(event.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}

	if !event.Method.IsZero() {
		set(MetadataKeyMethod, event.Method.String())
	}
	if op := event.Kind.Operation(); op != "" {
		set(MetadataKeyOperation, string(op))
	}
	if phase := event.Kind.Phase(); phase != "" {
		set(MetadataKeyPhase, string(phase))
	}
	if event.Sequence != 0 {
		set(MetadataKeySequence, event.Sequence)
	}
	if event.Error != "" {
		set(MetadataKeyError, event.Error)
	}

	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
