package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestPostgresStore runs only when TEST_DATABASE_URL points at a disposable
// database.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	defer pool.Close()

	st, err := NewPostgresStore(pool)
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	if err := st.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	key := "profile:test-" + time.Now().Format("150405.000000000")
	defer func() { _ = st.Remove(context.Background(), key) }()

	if _, err := st.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get before Set: err=%v want ErrNotFound", err)
	}

	// jsonb round-trips semantically, not byte for byte.
	readName := func() string {
		t.Helper()
		got, err := st.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		var row struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(got, &row); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return row.Name
	}

	if err := st.Set(ctx, key, []byte(`{"id":"u1","name":"Nimal"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := readName(); got != "Nimal" {
		t.Fatalf("name=%q want=Nimal", got)
	}

	// Upsert replaces in place.
	if err := st.Set(ctx, key, []byte(`{"id":"u1","name":"Kasun"}`)); err != nil {
		t.Fatalf("Set replace: %v", err)
	}
	if got := readName(); got != "Kasun" {
		t.Fatalf("name=%q want=Kasun", got)
	}

	if err := st.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := st.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Remove: err=%v want ErrNotFound", err)
	}
}
