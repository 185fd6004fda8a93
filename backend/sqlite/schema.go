package sqlite

// Schema version for migration management
const SchemaVersion = 1

// SQL statements for database schema creation

// StorageItemsTableSQL creates the key/value table backing every storage
// area. A NULL value marks a removed key so that other processes can observe
// the removal through its revision.
const StorageItemsTableSQL = `
CREATE TABLE IF NOT EXISTS storage_items (
    area TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT,

    -- Monotonic across the whole database, bumped on every effective write
    revision INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    PRIMARY KEY (area, key)
);
`

// SchemaVersionTableSQL creates the schema version table for migration tracking
const SchemaVersionTableSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// StorageItemsIndexesSQL creates the index used by change polling
const StorageItemsIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_storage_items_revision ON storage_items(area, revision);
`

// AllTableSchemas returns all table creation statements in order
func AllTableSchemas() []string {
	return []string{
		SchemaVersionTableSQL,
		StorageItemsTableSQL,
	}
}

// AllIndexes returns all index creation statements
func AllIndexes() []string {
	return []string{
		StorageItemsIndexesSQL,
	}
}

// PragmaStatements returns pragma statements to execute on database connection
func PragmaStatements() []string {
	return []string{
		"PRAGMA journal_mode = WAL",   // Readers in other processes keep working while one writes
		"PRAGMA synchronous = NORMAL", // Balance between safety and performance
	}
}
