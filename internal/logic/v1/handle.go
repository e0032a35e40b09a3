package v1

import (
	"context"
	"strconv"

	"github.com/sparknet/session-service/internal/core/domain"
)

// handleState tracks whether the payload has been pulled from the
// store yet. A handle moves unloaded -> loaded exactly once, on the
// first Get/Set/Remove, and never goes back.
type handleState int

const (
	stateUnloaded handleState = iota
	stateLoaded
)

// SessionHandle binds one request's session token to a lazily loaded
// in-memory copy of the session payload. It is owned by a single
// request and must not be shared across goroutines. Mutations live
// only in memory until SaveChanges; a discarded handle loses them.
type SessionHandle struct {
	token string
	store domain.SessionStore
	state handleState
	data  map[string]string
}

// NewSessionHandle binds a handle to the given raw token. An empty
// token is fine: the handle then reads as an empty session.
func NewSessionHandle(token string, store domain.SessionStore) *SessionHandle {
	return &SessionHandle{
		token: token,
		store: store,
	}
}

// load pulls the full payload from the store on first access. The
// round-trip happens at most once per handle.
func (h *SessionHandle) load(ctx context.Context) error {
	if h.state == stateLoaded {
		return nil
	}

	data, err := h.store.LoadPayload(ctx, h.token)
	if err != nil {
		return err
	}

	h.data = data
	h.state = stateLoaded
	return nil
}

// Get returns the value stored under key, and whether it was present.
func (h *SessionHandle) Get(ctx context.Context, key string) (string, bool, error) {
	if err := h.load(ctx); err != nil {
		return "", false, err
	}
	value, ok := h.data[key]
	return value, ok, nil
}

// GetInt returns the value under key parsed as an int, or fallback
// when the key is absent or the value does not parse.
func (h *SessionHandle) GetInt(ctx context.Context, key string, fallback int) (int, error) {
	value, ok, err := h.Get(ctx, key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback, nil
	}
	return n, nil
}

// GetInt64 returns the value under key parsed as an int64, or fallback.
func (h *SessionHandle) GetInt64(ctx context.Context, key string, fallback int64) (int64, error) {
	value, ok, err := h.Get(ctx, key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback, nil
	}
	return n, nil
}

// GetBool returns the value under key parsed as a bool, or fallback.
func (h *SessionHandle) GetBool(ctx context.Context, key string, fallback bool) (bool, error) {
	value, ok, err := h.Get(ctx, key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback, nil
	}
	return b, nil
}

// GetFloat64 returns the value under key parsed as a float64, or
// fallback.
func (h *SessionHandle) GetFloat64(ctx context.Context, key string, fallback float64) (float64, error) {
	value, ok, err := h.Get(ctx, key)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback, nil
	}
	return f, nil
}

// Set stores key=value in the in-memory mapping. Empty keys and empty
// values are ignored: setting an empty value is a no-op, not a
// deletion (use Remove for that).
func (h *SessionHandle) Set(ctx context.Context, key, value string) error {
	if err := h.load(ctx); err != nil {
		return err
	}
	if key == "" || value == "" {
		return nil
	}
	h.data[key] = value
	return nil
}

// Remove deletes key from the in-memory mapping only. The durable row
// is untouched until SaveChanges.
func (h *SessionHandle) Remove(ctx context.Context, key string) error {
	if err := h.load(ctx); err != nil {
		return err
	}
	delete(h.data, key)
	return nil
}

// SaveChanges persists the in-memory mapping to the store. A handle
// that never loaded has nothing to say, so this is a no-op then; that
// keeps an untouched handle from overwriting a live payload with an
// empty one.
func (h *SessionHandle) SaveChanges(ctx context.Context) error {
	if h.state != stateLoaded {
		return nil
	}
	return h.store.SavePayload(ctx, h.token, h.data)
}

// Create issues a brand-new session through the store. The handle's
// own bound token is not changed; the caller issues the returned id to
// the client and builds a fresh handle on the next request.
func (h *SessionHandle) Create(ctx context.Context, uid string, cred *string, device, app, ip string, timeoutMinutes int) (string, error) {
	return h.store.Create(ctx, uid, cred, device, app, ip, timeoutMinutes)
}

// Destroy clears the in-memory mapping and deletes the durable record
// for the bound token.
func (h *SessionHandle) Destroy(ctx context.Context) error {
	h.data = map[string]string{}
	h.state = stateLoaded
	return h.store.Destroy(ctx, h.token)
}
