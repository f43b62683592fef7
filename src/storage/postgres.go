package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	"satoshi-drop/src/helpers"
	"satoshi-drop/src/interfaces"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/models"
)

var unsafeSchemaChars = regexp.MustCompile(`[^a-z0-9_]`)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
	Clock  clockwork.Clock
}

var _ interfaces.IDatabase = (*PostgresDB)(nil)

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	if cfg.Storage.DBConnectionString == "" {
		return nil, &helpers.ConfigurationError{AppError: helpers.AppError{Message: "storage.db_connection_string is required for postgres"}}
	}
	if log == nil {
		log = logger.NewLogger(cfg, "PostgresDB")
	}
	return &PostgresDB{
		Config: cfg,
		Schema: SchemaName(cfg.Name),
		Logger: log,
		Clock:  clockwork.NewRealClock(),
	}, nil
}

// -----------------------------------------------------------------------------

// SchemaName derives a safe schema identifier from the application name.
func SchemaName(name string) string {
	s := unsafeSchemaChars.ReplaceAllString(strings.ToLower(name), "_")
	if s == "" || strings.Trim(s, "_") == "" {
		return "satoshi_drop"
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping postgres", err)
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("create schema %s", d.Schema), err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s".subscribers (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create subscribers", err)
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveSubscriber(ctx context.Context, email string) (models.MSubscriber, bool, error) {
	sub, err := newSubscriber(email, d.Clock.Now())
	if err != nil {
		return models.MSubscriber{}, false, err
	}

	query := fmt.Sprintf(`
		INSERT INTO "%s".subscribers (id, email, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`, d.Schema)

	var id string
	err = d.DB.QueryRowContext(ctx, query, sub.ID, sub.Email, sub.CreatedAt).Scan(&id)
	switch {
	case err == nil:
		d.Logger.Info("New subscriber %s", id)
		return sub, true, nil
	case !errors.Is(err, sql.ErrNoRows):
		return models.MSubscriber{}, false, helpers.NewDatabaseError("insert subscriber", err)
	}

	var existing models.MSubscriber
	err = d.DB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, email, created_at FROM "%s".subscribers WHERE email = $1`, d.Schema),
		sub.Email,
	).Scan(&existing.ID, &existing.Email, &existing.CreatedAt)
	if err != nil {
		return models.MSubscriber{}, false, helpers.NewDatabaseError("lookup subscriber", err)
	}
	existing.CreatedAt = existing.CreatedAt.UTC()
	return existing, false, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CountSubscribers(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM "%s".subscribers`, d.Schema)
	if err := d.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, helpers.NewDatabaseError("count subscribers", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
