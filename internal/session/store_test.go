package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/database"
)

// testStore opens a SQLite store on a throwaway state file.
func testStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "state.db"),
		BusyTimeout: 1,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close() //nolint:errcheck // test cleanup
	})

	store, err := NewSQLiteStore(db.DB)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return store
}

func testCredential() Credential {
	return Credential{
		Token: "tok-abc123",
		Profile: Profile{
			ID:       "usr-1",
			Username: "asha",
			Email:    "asha@example.com",
			Credits:  250,
			IsAdmin:  false,
		},
	}
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	cred := testCredential()
	if err := store.Save(ctx, cred); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !ok {
		t.Fatal("Load() ok = false, want true")
	}
	if got.Token != cred.Token {
		t.Errorf("Token = %q, want %q", got.Token, cred.Token)
	}
	if got.Profile != cred.Profile {
		t.Errorf("Profile = %+v, want %+v", got.Profile, cred.Profile)
	}
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	store := testStore(t)

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() ok = true on empty store")
	}
}

func TestSQLiteStore_SaveOverwrites(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first := testCredential()
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := Credential{
		Token:   "tok-def456",
		Profile: Profile{ID: "usr-2", Username: "ravi", Email: "ravi@example.com", IsAdmin: true},
	}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load() = ok %v, err %v", ok, err)
	}
	if got.Token != "tok-def456" || got.Profile.ID != "usr-2" {
		t.Errorf("Load() = %+v, want second credential", got)
	}
}

func TestSQLiteStore_SaveRejectsIncomplete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		cred Credential
	}{
		{"empty token", Credential{Profile: Profile{ID: "usr-1"}}},
		{"empty profile", Credential{Token: "tok-abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Save(ctx, tt.cred)
			if !errors.Is(err, ErrInvalidCredential) {
				t.Errorf("Save() error = %v, want ErrInvalidCredential", err)
			}
		})
	}
}

func TestSQLiteStore_ClearIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, testCredential()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Clearing twice in a row leaves the store empty both times, no error.
	for i := 0; i < 2; i++ {
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("Clear() #%d error = %v", i+1, err)
		}
		_, ok, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load() after clear error = %v", err)
		}
		if ok {
			t.Errorf("store not empty after Clear() #%d", i+1)
		}
	}
}

func TestSQLiteStore_PairClearedTogether(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, testCredential()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	// No partial rows may remain: token and profile live in one row.
	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM session_credential").Scan(&count); err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	if count != 0 {
		t.Errorf("row count after clear = %d, want 0", count)
	}
}

func TestSQLiteStore_CorruptProfileReportedAbsent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.db.Exec(
		"INSERT INTO session_credential (id, token, profile, updated_at) VALUES (1, 'tok', '{broken', '2026-01-01T00:00:00Z')")
	if err != nil {
		t.Fatalf("seeding corrupt row: %v", err)
	}

	_, ok, err := store.Load(ctx)
	if ok {
		t.Error("Load() ok = true for corrupt profile")
	}
	if err == nil {
		t.Error("Load() error = nil, want decode error")
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, ok, _ := store.Load(ctx); ok {
		t.Fatal("new memory store should be empty")
	}

	cred := testCredential()
	if err := store.Save(ctx, cred); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, ok, _ := store.Load(ctx)
	if !ok || got.Token != cred.Token {
		t.Fatalf("Load() = %+v ok %v", got, ok)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second Clear() error = %v", err)
	}
	if _, ok, _ := store.Load(ctx); ok {
		t.Error("store not empty after clear")
	}
}

// Compile-time checks that both implementations satisfy Store.
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
