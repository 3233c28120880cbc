package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn   *sql.DB
	dbType string
}

type Config struct {
	Type       string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SQLitePath string
}

func NewDB(config Config) (*DB, error) {
	var conn *sql.DB
	var err error

	switch config.Type {
	case "sqlite":
		conn, err = sql.Open("sqlite3", config.SQLitePath+"?_foreign_keys=on")
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			config.Host, config.Port, config.User, config.Password, config.Name)
		conn, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn, dbType: config.Type}

	// Only create tables for SQLite; PostgreSQL gets its schema from the
	// migrations directory.
	if config.Type == "sqlite" {
		if err := db.createTables(); err != nil {
			return nil, fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return db, nil
}

func (db *DB) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		physician TEXT,
		file_path TEXT NOT NULL,
		frames_dir_path TEXT,
		duration INTEGER NOT NULL DEFAULT 0,
		frame_count INTEGER NOT NULL DEFAULT 0,
		upload_date DATETIME NOT NULL,
		frames_finished BOOLEAN NOT NULL DEFAULT 0,
		annotated BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS frames (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL REFERENCES videos(id),
		file_path TEXT NOT NULL,
		frame_number INTEGER NOT NULL,
		video_time TEXT NOT NULL,
		video_time_ms INTEGER NOT NULL,
		UNIQUE (video_id, frame_number)
	);
	CREATE INDEX IF NOT EXISTS idx_frames_video_id ON frames(video_id);

	CREATE TABLE IF NOT EXISTS annotations (
		id TEXT PRIMARY KEY,
		video_id TEXT NOT NULL REFERENCES videos(id),
		frame_id TEXT NOT NULL REFERENCES frames(id),
		label TEXT,
		x1 REAL, y1 REAL, x2 REAL, y2 REAL,
		start_time REAL, end_time REAL
	);
	CREATE INDEX IF NOT EXISTS idx_annotations_video_id ON annotations(video_id);
	`

	_, err := db.conn.Exec(query)
	return err
}

// rebind converts ?-placeholders to $n for the postgres backend so repository
// queries are written once.
func (db *DB) rebind(query string) string {
	if db.dbType != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, nil)
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
