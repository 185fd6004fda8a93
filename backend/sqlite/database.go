package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Database wraps sql.DB with helper methods for schema management
type Database struct {
	*sql.DB
	path string
}

// InitDatabase initializes the SQLite database with proper schema
// It creates the database at the XDG-compliant location and sets up all tables
func InitDatabase(customPath string) (*Database, error) {
	dbPath, err := GetDatabasePath(customPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get database path: %w", err)
	}

	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Writers take the lock up front so two processes never deadlock upgrading
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	database := &Database{
		DB:   db,
		path: dbPath,
	}

	// Initialize schema
	if err := database.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// GetDatabasePath returns the path to the SQLite database file
// Priority: customPath > $XDG_DATA_HOME/bubbletasks/storage.db > ~/.local/share/bubbletasks/storage.db
func GetDatabasePath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}

	// Try XDG_DATA_HOME
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "bubbletasks", "storage.db"), nil
	}

	// Fallback to ~/.local/share
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".local", "share", "bubbletasks", "storage.db"), nil
}

// initializeSchema creates all tables, indexes, and sets pragmas
func (db *Database) initializeSchema() error {
	// Set pragmas first
	for _, pragma := range PragmaStatements() {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %q: %w", pragma, err)
		}
	}

	// Create all tables
	for _, schema := range AllTableSchemas() {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	// Create all indexes
	for _, index := range AllIndexes() {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// Record schema version
	if err := db.recordSchemaVersion(); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// recordSchemaVersion records the current schema version in the database
func (db *Database) recordSchemaVersion() error {
	_, err := db.Exec(
		"INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)",
		SchemaVersion,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert schema version: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the current schema version from the database
func (db *Database) GetSchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Path returns the filesystem path to the database file
func (db *Database) Path() string {
	return db.path
}

// GetStats returns basic database statistics
func (db *Database) GetStats() (DatabaseStats, error) {
	stats := DatabaseStats{}

	err := db.QueryRow("SELECT COUNT(*) FROM storage_items WHERE value IS NOT NULL").Scan(&stats.KeyCount)
	if err != nil {
		return stats, fmt.Errorf("failed to count keys: %w", err)
	}

	err = db.QueryRow("SELECT COALESCE(MAX(revision), 0) FROM storage_items").Scan(&stats.Revision)
	if err != nil {
		return stats, fmt.Errorf("failed to read revision: %w", err)
	}

	// Get database file size
	fileInfo, err := os.Stat(db.path)
	if err != nil {
		return stats, fmt.Errorf("failed to stat database file: %w", err)
	}
	stats.DatabaseSize = fileInfo.Size()

	return stats, nil
}

// DatabaseStats holds statistics about the database
type DatabaseStats struct {
	KeyCount     int
	Revision     int64
	DatabaseSize int64 // in bytes
}

// String returns a human-readable representation of database statistics
func (s DatabaseStats) String() string {
	sizeKB := float64(s.DatabaseSize) / 1024
	return fmt.Sprintf("Keys: %d | Revision: %d | Size: %.1f KB", s.KeyCount, s.Revision, sizeKB)
}
