package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"satoshi-drop/src/helpers"
	"satoshi-drop/src/interfaces"
	"satoshi-drop/src/logger"
	"satoshi-drop/src/models"
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
	Clock  clockwork.Clock
}

var _ interfaces.IDatabase = (*AsyncSQLiteDB)(nil)

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	if cfg.Storage.DBPath == "" {
		return nil, &helpers.ConfigurationError{AppError: helpers.AppError{Message: "storage.db_path is required for sqlite"}}
	}
	if log == nil {
		log = logger.NewLogger(cfg, "SQLiteDB")
	}
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
		Clock:  clockwork.NewRealClock(),
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}
	// One writer; also keeps ":memory:" on a single database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping sqlite", err)
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	query := `
		CREATE TABLE IF NOT EXISTS subscribers (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create subscribers", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveSubscriber(ctx context.Context, email string) (models.MSubscriber, bool, error) {
	sub, err := newSubscriber(email, d.Clock.Now())
	if err != nil {
		return models.MSubscriber{}, false, err
	}

	res, err := d.DB.ExecContext(ctx,
		`INSERT INTO subscribers (id, email, created_at) VALUES (?, ?, ?) ON CONFLICT(email) DO NOTHING`,
		sub.ID, sub.Email, sub.CreatedAt.Unix(),
	)
	if err != nil {
		return models.MSubscriber{}, false, helpers.NewDatabaseError("insert subscriber", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 1 {
		d.Logger.Info("New subscriber %s", sub.ID)
		return sub, true, nil
	}

	existing, err := d.findByEmail(ctx, sub.Email)
	if err != nil {
		return models.MSubscriber{}, false, err
	}
	return existing, false, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) findByEmail(ctx context.Context, email string) (models.MSubscriber, error) {
	var sub models.MSubscriber
	var createdAt int64

	err := d.DB.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM subscribers WHERE email = ?`, email,
	).Scan(&sub.ID, &sub.Email, &createdAt)
	if err != nil {
		return models.MSubscriber{}, helpers.NewDatabaseError(fmt.Sprintf("lookup subscriber %s", email), err)
	}

	sub.CreatedAt = time.Unix(createdAt, 0).UTC()
	return sub, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CountSubscribers(ctx context.Context) (int, error) {
	var n int
	if err := d.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscribers`).Scan(&n); err != nil {
		return 0, helpers.NewDatabaseError("count subscribers", err)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
