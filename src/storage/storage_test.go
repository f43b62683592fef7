package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"satoshi-drop/src/helpers"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/models"
)

var signupTime = time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)

func openSQLite(t *testing.T) *AsyncSQLiteDB {
	t.Helper()

	cfg := &models.MConfig{Storage: models.MStorageConfig{
		DBType: DBTypeSQLite,
		DBPath: filepath.Join(t.TempDir(), "newsletter.db"),
	}}
	db, err := NewAsyncSQLiteDB(cfg, logger.NewLoggerWithWriter(io.Discard, "ERROR", "test"))
	if err != nil {
		t.Fatalf("NewAsyncSQLiteDB: %v", err)
	}
	db.Clock = clockwork.NewFakeClockAt(signupTime)
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteSaveSubscriberIsIdempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	first, created, err := db.SaveSubscriber(ctx, "Alice@Example.com")
	if err != nil || !created {
		t.Fatalf("first save: created=%v err=%v", created, err)
	}
	if _, err := uuid.Parse(first.ID); err != nil {
		t.Fatalf("expected a UUID id, got %q", first.ID)
	}
	if first.Email != "alice@example.com" || !first.CreatedAt.Equal(signupTime) {
		t.Fatalf("unexpected subscriber %+v", first)
	}

	again, created, err := db.SaveSubscriber(ctx, "alice@example.com ")
	if err != nil || created {
		t.Fatalf("second save: created=%v err=%v", created, err)
	}
	if again.ID != first.ID || !again.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected the stored record, got %+v", again)
	}

	if n, err := db.CountSubscribers(ctx); err != nil || n != 1 {
		t.Fatalf("expected 1 subscriber, got %d (%v)", n, err)
	}
}

func TestSQLiteRejectsInvalidEmail(t *testing.T) {
	db := openSQLite(t)

	_, _, err := db.SaveSubscriber(context.Background(), "   ")
	var validation *helpers.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSQLiteConcurrentSignups(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := db.SaveSubscriber(ctx, "bob@example.com")
			if err != nil {
				t.Errorf("save: %v", err)
				return
			}
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if createdCount != 1 {
		t.Fatalf("expected exactly one creation, got %d", createdCount)
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsletter.db")
	cfg := &models.MConfig{Storage: models.MStorageConfig{DBType: DBTypeSQLite, DBPath: path}}
	log := logger.NewLoggerWithWriter(io.Discard, "ERROR", "test")

	db, _ := NewAsyncSQLiteDB(cfg, log)
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	db.SaveSubscriber(context.Background(), "carol@example.com")
	db.Close()

	db, _ = NewAsyncSQLiteDB(cfg, log)
	if err := db.Initialize(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if n, _ := db.CountSubscribers(context.Background()); n != 1 {
		t.Fatalf("signups must persist across restarts, got %d", n)
	}
}

func TestNewDatabase(t *testing.T) {
	log := logger.NewLoggerWithWriter(io.Discard, "ERROR", "test")

	db, err := NewDatabase(&models.MConfig{}, log)
	if err != nil || db != nil {
		t.Fatalf("empty db_type disables storage, got %v %v", db, err)
	}

	_, err = NewDatabase(&models.MConfig{Storage: models.MStorageConfig{DBType: "mongo"}}, log)
	var cfgErr *helpers.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}

	db, err = NewDatabase(&models.MConfig{Storage: models.MStorageConfig{DBType: "postgres", DBConnectionString: "postgres://localhost/x"}}, log)
	if err != nil {
		t.Fatalf("postgres backend: %v", err)
	}
	if _, ok := db.(*PostgresDB); !ok {
		t.Fatalf("expected *PostgresDB, got %T", db)
	}

	if _, err := NewDatabase(&models.MConfig{Storage: models.MStorageConfig{DBType: "sqlite"}}, log); err == nil {
		t.Fatalf("sqlite without a path must fail")
	}
}

func TestSchemaName(t *testing.T) {
	cases := map[string]string{
		"satoshi-drop": "satoshi_drop",
		"Drop.2026":    "drop_2026",
		"":             "satoshi_drop",
		"---":          "satoshi_drop",
	}
	for in, want := range cases {
		if got := SchemaName(in); got != want {
			t.Errorf("SchemaName(%q) = %q, want %q", in, got, want)
		}
	}
}
