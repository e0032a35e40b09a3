package domain

import "context"

// SessionStore defines the data-access contract for the session
// lifecycle engine. Implementations live in internal/core/repository.
//
// Every operation is an independent call against the durable table;
// no transaction spans multiple calls. Operations on different ids
// may run fully concurrently. Only storage-layer failures surface as
// errors; unknown or expired ids are reported through return values.
type SessionStore interface {
	// InitSchema creates the sessions table if absent and performs one
	// eager sweep of already-expired rows. Idempotent; run once at
	// process start before any other operation.
	InitSchema(ctx context.Context) error

	// Create inserts a new session with an empty payload and returns
	// the generated id. The id is the opaque token handed back to the
	// client. timeoutMinutes fixes the sliding-expiration window.
	Create(ctx context.Context, uid string, cred *string, device, app, ip string, timeoutMinutes int) (string, error)

	// Validate is the sole authentication gate for a session token.
	// It atomically refreshes device/app/ip/updated/expires where the
	// id matches, cred matches (nil equals nil), and the session has
	// not expired. Returns false for an empty id without touching
	// storage, and false when no row matched.
	Validate(ctx context.Context, id string, cred *string, device, app, ip string) (bool, error)

	// LoadPayload returns the deserialized data mapping. An empty id,
	// a missing row, or malformed stored data all yield an empty map,
	// never an error.
	LoadPayload(ctx context.Context, id string) (map[string]string, error)

	// SavePayload overwrites the data mapping for the given id.
	// No-op for an empty id or a row that no longer exists.
	SavePayload(ctx context.Context, id string, data map[string]string) error

	// Destroy deletes the session row. No-op for an empty id.
	Destroy(ctx context.Context, id string) error

	// SweepExpired deletes every row past its expiry and returns the
	// number of rows removed.
	SweepExpired(ctx context.Context) (int64, error)

	// GetOwner returns the owning uid, or nil when the id is empty or
	// unknown.
	GetOwner(ctx context.Context, id string) (*string, error)

	// GetCred returns the stored credential tag, or nil when the id is
	// empty or unknown (or the stored cred itself is null).
	GetCred(ctx context.Context, id string) (*string, error)

	// ListActive returns all non-expired sessions for the given
	// owner/credential pair, without payloads. Order is unspecified.
	ListActive(ctx context.Context, uid string, cred *string) ([]SessionSummary, error)
}
