package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sparknet/session-service/internal/core/domain"
)

// schema is executed once at startup. The expires index carries the
// sweep; the uid index carries ListActive.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id      text PRIMARY KEY,
    uid     text NOT NULL,
    cred    text NULL,
    data    text NOT NULL DEFAULT '{}',
    device  text NOT NULL DEFAULT '',
    app     text NOT NULL DEFAULT '',
    ip      text NOT NULL DEFAULT '',
    created timestamptz NOT NULL DEFAULT NOW(),
    updated timestamptz NOT NULL DEFAULT NOW(),
    timeout integer NOT NULL,
    expires timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS sessions_uid_idx ON sessions (uid);
CREATE INDEX IF NOT EXISTS sessions_expires_idx ON sessions (expires);
`

// PgxSessionStore implements domain.SessionStore using pgxpool.
type PgxSessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a new PgxSessionStore.
func NewSessionStore(pool *pgxpool.Pool) *PgxSessionStore {
	return &PgxSessionStore{pool: pool}
}

// InitSchema creates the sessions table if absent and removes rows
// that expired while the service was down.
func (s *PgxSessionStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create sessions schema: %w", err)
	}
	if _, err := s.SweepExpired(ctx); err != nil {
		return fmt.Errorf("initial sweep: %w", err)
	}
	return nil
}

// newSessionID returns a 128-bit random identifier as 32 hex characters.
func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create inserts a new session with an empty payload and returns the
// generated id.
func (s *PgxSessionStore) Create(ctx context.Context, uid string, cred *string, device, app, ip string, timeoutMinutes int) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}

	query := `
		INSERT INTO sessions (id, uid, cred, data, device, app, ip, created, updated, timeout, expires)
		VALUES ($1, $2, $3, '{}', $4, $5, $6, NOW(), NOW(), $7, NOW() + make_interval(mins => $7))
	`
	if _, err := s.pool.Exec(ctx, query, id, uid, cred, device, app, ip, timeoutMinutes); err != nil {
		return "", err
	}

	return id, nil
}

// Validate refreshes client metadata and slides the expiry window in a
// single conditional UPDATE. The WHERE clause is the whole auth check:
// id match, null-safe cred match, not yet expired. Zero rows affected
// means the token is unknown, mismatched, or dead.
func (s *PgxSessionStore) Validate(ctx context.Context, id string, cred *string, device, app, ip string) (bool, error) {
	if id == "" {
		return false, nil
	}

	query := `
		UPDATE sessions
		SET device = $3, app = $4, ip = $5,
		    updated = NOW(),
		    expires = NOW() + make_interval(mins => timeout)
		WHERE id = $1 AND cred IS NOT DISTINCT FROM $2 AND expires > NOW()
	`
	tag, err := s.pool.Exec(ctx, query, id, cred, device, app, ip)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// LoadPayload returns the stored data mapping. Missing rows and
// unparseable payloads both read as empty; only storage faults error.
func (s *PgxSessionStore) LoadPayload(ctx context.Context, id string) (map[string]string, error) {
	if id == "" {
		return map[string]string{}, nil
	}

	var raw string
	err := s.pool.QueryRow(ctx, `SELECT data FROM sessions WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	var data map[string]string
	if err := json.Unmarshal([]byte(raw), &data); err != nil || data == nil {
		// Corrupt payload already means partial data loss; an empty
		// session keeps the request serviceable.
		return map[string]string{}, nil
	}

	return data, nil
}

// SavePayload overwrites the data mapping for the given id. A vanished
// id is a silent no-op; the caller validated the token before saving.
func (s *PgxSessionStore) SavePayload(ctx context.Context, id string, data map[string]string) error {
	if id == "" {
		return nil
	}

	if data == nil {
		data = map[string]string{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session payload: %w", err)
	}

	_, err = s.pool.Exec(ctx, `UPDATE sessions SET data = $2 WHERE id = $1`, id, string(raw))
	return err
}

// Destroy deletes the session row.
func (s *PgxSessionStore) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// SweepExpired deletes all rows past expiry and returns how many went.
func (s *PgxSessionStore) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// GetOwner returns the owning uid for the given id.
// Returns (nil, nil) when the id is empty or unknown.
func (s *PgxSessionStore) GetOwner(ctx context.Context, id string) (*string, error) {
	return s.lookupColumn(ctx, `SELECT uid FROM sessions WHERE id = $1`, id)
}

// GetCred returns the stored credential tag for the given id.
// Returns (nil, nil) when the id is empty or unknown, and also when
// the session was created without a credential.
func (s *PgxSessionStore) GetCred(ctx context.Context, id string) (*string, error) {
	return s.lookupColumn(ctx, `SELECT cred FROM sessions WHERE id = $1`, id)
}

func (s *PgxSessionStore) lookupColumn(ctx context.Context, query, id string) (*string, error) {
	if id == "" {
		return nil, nil
	}

	var value *string
	err := s.pool.QueryRow(ctx, query, id).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return value, nil
}

// ListActive returns all non-expired sessions for the owner/credential
// pair, payload excluded. Ordered by creation time only to keep the
// output stable; callers get no ordering guarantee.
func (s *PgxSessionStore) ListActive(ctx context.Context, uid string, cred *string) ([]domain.SessionSummary, error) {
	query := `
		SELECT id, device, app, ip, created, updated, expires
		FROM sessions
		WHERE uid = $1 AND cred IS NOT DISTINCT FROM $2 AND expires > NOW()
		ORDER BY created
	`
	rows, err := s.pool.Query(ctx, query, uid, cred)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.SessionSummary
	for rows.Next() {
		var sum domain.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.Device, &sum.App, &sum.IP, &sum.Created, &sum.Updated, &sum.Expires); err != nil {
			return nil, err
		}
		sessions = append(sessions, sum)
	}

	return sessions, rows.Err()
}
