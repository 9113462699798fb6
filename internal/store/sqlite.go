package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/Last-emo-boy/github-bot/internal/errors"
	_ "modernc.org/sqlite"
)

// Delivery outcomes recorded in the webhook delivery log.
const (
	DeliveryForwarded = "forwarded"
	DeliverySkipped   = "skipped"
	DeliveryFailed    = "failed"
	DeliveryRejected  = "rejected"
)

// Delivery is one row of the webhook delivery log. DeliveryID is GitHub's
// X-Github-Delivery value, empty when the delivery carried none; repeated
// values mark redelivery attempts of the same event.
type Delivery struct {
	ID         int64
	DeliveryID string
	EventType  string
	Outcome    string
	Detail     string
	CreatedAt  time.Time
}

// SQLiteStore holds the dynamic settings and the webhook delivery log.
// Access tokens are never written here; the in-memory TokenStore is their
// sole owner and they do not survive a restart.
type SQLiteStore struct {
	db       *sql.DB
	settings SettingsStore
}

// NewSQLiteStore opens (or creates) the database with WAL mode enabled.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &errors.ErrDatabaseOpen{Path: dbPath, Err: err}
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, &errors.ErrDatabaseOpen{Path: dbPath, Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &errors.ErrDatabaseOpen{Path: dbPath, Err: err}
	}

	if err := createDeliveriesTable(db); err != nil {
		db.Close()
		return nil, err
	}

	settingsStore, err := NewSQLiteSettingsStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, settings: settingsStore}, nil
}

func createDeliveriesTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS webhook_deliveries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			delivery_id TEXT NOT NULL DEFAULT '',
			event_type TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(query); err != nil {
		return &errors.ErrDatabaseQuery{Operation: "create_deliveries_table", Err: err}
	}
	return nil
}

// Settings returns the settings store backed by this database.
func (s *SQLiteStore) Settings() SettingsStore {
	return s.settings
}

// RecordDelivery appends a row to the webhook delivery log.
func (s *SQLiteStore) RecordDelivery(deliveryID, eventType, outcome, detail string) error {
	_, err := s.db.Exec(
		"INSERT INTO webhook_deliveries (delivery_id, event_type, outcome, detail, created_at) VALUES (?, ?, ?, ?, ?)",
		deliveryID, eventType, outcome, detail, time.Now(),
	)
	if err != nil {
		return &errors.ErrDatabaseQuery{Operation: "record_delivery", Err: err}
	}
	return nil
}

// RecentDeliveries returns up to limit most recent delivery log rows.
func (s *SQLiteStore) RecentDeliveries(limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		"SELECT id, delivery_id, event_type, outcome, detail, created_at FROM webhook_deliveries ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, &errors.ErrDatabaseQuery{Operation: "recent_deliveries", Err: err}
	}
	defer rows.Close()

	var result []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.DeliveryID, &d.EventType, &d.Outcome, &d.Detail, &d.CreatedAt); err != nil {
			return nil, &errors.ErrDatabaseQuery{Operation: "recent_deliveries", Err: err}
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
