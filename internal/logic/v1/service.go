package v1

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sparknet/session-service/internal/core/domain"
	"github.com/sparknet/session-service/middleware"
)

// SessionService implements session lifecycle business rules on top of
// the store contract. It depends on the domain.SessionStore interface
// (injected via constructor) and MUST NOT access the database or SQL
// directly.
type SessionService struct {
	store          domain.SessionStore
	defaultTimeout int
}

// NewSessionService creates a SessionService. defaultTimeoutMinutes is
// applied when a create request carries no explicit timeout.
func NewSessionService(store domain.SessionStore, defaultTimeoutMinutes int) *SessionService {
	return &SessionService{
		store:          store,
		defaultTimeout: defaultTimeoutMinutes,
	}
}

// Handle binds a new per-request SessionHandle to the given token.
func (s *SessionService) Handle(token string) *SessionHandle {
	return NewSessionHandle(token, s.store)
}

// Create issues a new session for the given owner and returns the
// opaque id the caller must hand to the client as the session token.
func (s *SessionService) Create(ctx context.Context, uid string, cred *string, device, app, ip string, timeoutMinutes int) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "session.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("session.uid", uid),
	))
	defer span.End()

	if uid == "" {
		span.SetAttributes(attribute.Bool("session.created", false))
		return "", fmt.Errorf("create session: uid is empty: %w", ErrInvalidArgument)
	}
	if timeoutMinutes <= 0 {
		timeoutMinutes = s.defaultTimeout
	}

	id, err := s.store.Create(ctx, uid, cred, device, app, ip, timeoutMinutes)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("create session for %q: %w", uid, err)
	}

	middleware.SessionsCreated.Inc()
	span.SetAttributes(
		attribute.Bool("session.created", true),
		attribute.Int("session.timeout_minutes", timeoutMinutes),
	)

	return id, nil
}

// Validate is the per-request authentication gate. A false result is
// the normal "not authenticated" signal, not an error; errors mean the
// store itself failed.
func (s *SessionService) Validate(ctx context.Context, token string, cred *string, device, app, ip string) (bool, error) {
	ctx, span := middleware.StartSpan(ctx, "session.validate", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	ok, err := s.store.Validate(ctx, token, cred, device, app, ip)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("validate session: %w", err)
	}

	if ok {
		middleware.SessionValidations.WithLabelValues("valid").Inc()
	} else {
		middleware.SessionValidations.WithLabelValues("rejected").Inc()
	}
	span.SetAttributes(attribute.Bool("session.valid", ok))

	return ok, nil
}

// Destroy deletes the session bound to the token.
func (s *SessionService) Destroy(ctx context.Context, token string) error {
	ctx, span := middleware.StartSpan(ctx, "session.destroy", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if err := s.store.Destroy(ctx, token); err != nil {
		span.RecordError(err)
		return fmt.Errorf("destroy session: %w", err)
	}

	middleware.SessionsDestroyed.Inc()
	return nil
}

// Owner returns the uid owning the session bound to the token.
func (s *SessionService) Owner(ctx context.Context, token string) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "session.owner", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	uid, err := s.store.GetOwner(ctx, token)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("lookup session owner: %w", err)
	}
	if uid == nil {
		span.SetAttributes(attribute.Bool("session.found", false))
		return "", fmt.Errorf("lookup session owner: %w", ErrSessionNotFound)
	}

	return *uid, nil
}

// Cred returns the credential tag stored for the session bound to the
// token. A session created without a credential yields an empty string.
func (s *SessionService) Cred(ctx context.Context, token string) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "session.cred", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	// A nil result is ambiguous between a missing row and a null cred;
	// the owner lookup disambiguates.
	uid, err := s.store.GetOwner(ctx, token)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("lookup session: %w", err)
	}
	if uid == nil {
		span.SetAttributes(attribute.Bool("session.found", false))
		return "", fmt.Errorf("lookup session: %w", ErrSessionNotFound)
	}

	cred, err := s.store.GetCred(ctx, token)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("lookup session cred: %w", err)
	}
	if cred == nil {
		return "", nil
	}

	return *cred, nil
}

// ListActive returns all live sessions for the owner/credential pair,
// payloads excluded.
func (s *SessionService) ListActive(ctx context.Context, uid string, cred *string) ([]domain.SessionSummary, error) {
	ctx, span := middleware.StartSpan(ctx, "session.list_active", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("session.uid", uid),
	))
	defer span.End()

	if uid == "" {
		return nil, fmt.Errorf("list sessions: uid is empty: %w", ErrInvalidArgument)
	}

	sessions, err := s.store.ListActive(ctx, uid, cred)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list sessions for %q: %w", uid, err)
	}

	span.SetAttributes(attribute.Int("session.count", len(sessions)))
	return sessions, nil
}

// SweepExpired removes every session past its expiry and returns how
// many rows were deleted.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	ctx, span := middleware.StartSpan(ctx, "session.sweep_expired", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	swept, err := s.store.SweepExpired(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("sweep expired sessions: %w", err)
	}

	middleware.SessionsSwept.Add(float64(swept))
	span.SetAttributes(attribute.Int64("session.swept", swept))

	return swept, nil
}
