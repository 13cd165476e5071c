package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Store defines the persistence contract for the session credential.
//
// Save persists token and profile as a single logical operation, overwriting
// any prior values. Load returns the current credential, with ok=false when
// none is set. Clear removes both entries and is idempotent: clearing an
// empty store succeeds.
type Store interface {
	Save(ctx context.Context, cred Credential) error
	Load(ctx context.Context) (Credential, bool, error)
	Clear(ctx context.Context) error
}

// credentialRow is the fixed primary key of the single credential row.
// The CHECK constraint in the schema makes a second row impossible, which is
// what makes Save an atomic overwrite of both entries.
const credentialRow = 1

// schema creates the credential table. Token and profile are columns of one
// row, so they cannot be written or removed independently.
const schema = `
CREATE TABLE IF NOT EXISTS session_credential (
    id          INTEGER PRIMARY KEY CHECK (id = 1),
    token       TEXT NOT NULL,
    profile     TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);`

// SQLiteStore implements Store using the local SQLite state file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the credential table if needed and returns the store.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating credential table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save persists the credential, replacing any existing one.
func (s *SQLiteStore) Save(ctx context.Context, cred Credential) error {
	if !cred.Valid() {
		return ErrInvalidCredential
	}

	profileJSON, err := json.Marshal(cred.Profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_credential (id, token, profile, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET token = excluded.token,
		                               profile = excluded.profile,
		                               updated_at = excluded.updated_at`,
		credentialRow, cred.Token, string(profileJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// Load returns the stored credential, or ok=false when none is set.
func (s *SQLiteStore) Load(ctx context.Context) (Credential, bool, error) {
	var token, profileJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT token, profile FROM session_credential WHERE id = ?", credentialRow,
	).Scan(&token, &profileJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, fmt.Errorf("loading credential: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal([]byte(profileJSON), &profile); err != nil {
		// A corrupt profile means the pair is unusable; report absent rather
		// than surface half a credential.
		return Credential{}, false, fmt.Errorf("decoding stored profile: %w", err)
	}

	return Credential{Token: token, Profile: profile}, true, nil
}

// Clear removes the credential. Clearing an empty store is a no-op.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM session_credential WHERE id = ?", credentialRow); err != nil {
		return fmt.Errorf("clearing credential: %w", err)
	}
	return nil
}

// MemoryStore implements Store in memory. It backs tests and one-shot
// commands that must not touch the state file.
type MemoryStore struct {
	mu   sync.Mutex
	cred Credential
	set  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores the credential, replacing any existing one.
func (s *MemoryStore) Save(_ context.Context, cred Credential) error {
	if !cred.Valid() {
		return ErrInvalidCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	s.set = true
	return nil
}

// Load returns the stored credential, or ok=false when none is set.
func (s *MemoryStore) Load(_ context.Context) (Credential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.set, nil
}

// Clear removes the credential. Clearing an empty store is a no-op.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = Credential{}
	s.set = false
	return nil
}
