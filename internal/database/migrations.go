package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all database migrations
func GetMigrations(dbType string) []Migration {
	if dbType == "postgres" {
		return getPostgresMigrations()
	}
	return getSQLiteMigrations()
}

// getPostgresMigrations returns PostgreSQL migrations
func getPostgresMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create accounts table",
			SQL: `CREATE TABLE IF NOT EXISTS accounts (
				id BIGSERIAL PRIMARY KEY,
				handle VARCHAR(255) UNIQUE NOT NULL,
				email VARCHAR(255) UNIQUE NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				full_name VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				last_login TIMESTAMP WITH TIME ZONE,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				account_uuid VARCHAR(36) UNIQUE NOT NULL
			)`,
		},
		{
			Version:     2,
			Description: "Create usage counters table",
			SQL: `CREATE TABLE IF NOT EXISTS usage_counters (
				account_id BIGINT PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
				images_generated BIGINT NOT NULL DEFAULT 0,
				images_edited BIGINT NOT NULL DEFAULT 0,
				projects BIGINT NOT NULL DEFAULT 0,
				session_minutes BIGINT NOT NULL DEFAULT 0,
				favorite_feature VARCHAR(255) NOT NULL DEFAULT '',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     3,
			Description: "Create activity logs table",
			SQL: `CREATE TABLE IF NOT EXISTS activity_logs (
				id BIGSERIAL PRIMARY KEY,
				account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
				category VARCHAR(50) NOT NULL,
				description TEXT NOT NULL,
				details JSONB,
				timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     4,
			Description: "Create sessions table",
			SQL: `CREATE TABLE IF NOT EXISTS sessions (
				id VARCHAR(36) PRIMARY KEY,
				account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
				token VARCHAR(255) UNIQUE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				expires_at TIMESTAMP WITH TIME ZONE NOT NULL
			)`,
		},
		{
			Version:     5,
			Description: "Create password reset tokens table",
			SQL: `CREATE TABLE IF NOT EXISTS password_reset_tokens (
				token_digest VARCHAR(64) PRIMARY KEY,
				email VARCHAR(255) NOT NULL,
				expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
				used BOOLEAN NOT NULL DEFAULT FALSE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     6,
			Description: "Create projects table",
			SQL: `CREATE TABLE IF NOT EXISTS projects (
				id BIGSERIAL PRIMARY KEY,
				account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)`,
		},
		{
			Version:     7,
			Description: "Create generated images table",
			SQL: `CREATE TABLE IF NOT EXISTS generated_images (
				id VARCHAR(36) PRIMARY KEY,
				account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
				project_id BIGINT REFERENCES projects(id) ON DELETE SET NULL,
				url TEXT NOT NULL,
				kind VARCHAR(50) NOT NULL,
				prompt TEXT NOT NULL DEFAULT '',
				settings JSONB,
				archive_key TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			)`,
		},
		{
			Version:     8,
			Description: "Create indexes",
			SQL: `CREATE INDEX IF NOT EXISTS idx_accounts_handle ON accounts(handle);
				CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
				CREATE INDEX IF NOT EXISTS idx_activity_logs_account_id ON activity_logs(account_id);
				CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp ON activity_logs(timestamp);
				CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);
				CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
				CREATE INDEX IF NOT EXISTS idx_reset_tokens_email ON password_reset_tokens(email);
				CREATE INDEX IF NOT EXISTS idx_projects_account_id ON projects(account_id);
				CREATE INDEX IF NOT EXISTS idx_images_account_id ON generated_images(account_id);`,
		},
	}
}

// getSQLiteMigrations returns SQLite migrations
func getSQLiteMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create accounts table",
			SQL: `CREATE TABLE IF NOT EXISTS accounts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				handle TEXT UNIQUE NOT NULL,
				email TEXT UNIQUE NOT NULL,
				password_hash TEXT NOT NULL,
				full_name TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL,
				last_login DATETIME,
				is_active BOOLEAN NOT NULL DEFAULT 1,
				account_uuid TEXT UNIQUE NOT NULL
			)`,
		},
		{
			Version:     2,
			Description: "Create usage counters table",
			SQL: `CREATE TABLE IF NOT EXISTS usage_counters (
				account_id INTEGER PRIMARY KEY,
				images_generated INTEGER NOT NULL DEFAULT 0,
				images_edited INTEGER NOT NULL DEFAULT 0,
				projects INTEGER NOT NULL DEFAULT 0,
				session_minutes INTEGER NOT NULL DEFAULT 0,
				favorite_feature TEXT NOT NULL DEFAULT '',
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
			)`,
		},
		{
			Version:     3,
			Description: "Create activity logs table",
			SQL: `CREATE TABLE IF NOT EXISTS activity_logs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				account_id INTEGER NOT NULL,
				category TEXT NOT NULL,
				description TEXT NOT NULL,
				details TEXT,
				timestamp DATETIME NOT NULL,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
			)`,
		},
		{
			Version:     4,
			Description: "Create sessions table",
			SQL: `CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				account_id INTEGER NOT NULL,
				token TEXT UNIQUE NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				expires_at DATETIME NOT NULL,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
			)`,
		},
		{
			Version:     5,
			Description: "Create password reset tokens table",
			SQL: `CREATE TABLE IF NOT EXISTS password_reset_tokens (
				token_digest TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				expires_at DATETIME NOT NULL,
				used BOOLEAN NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		},
		{
			Version:     6,
			Description: "Create projects table",
			SQL: `CREATE TABLE IF NOT EXISTS projects (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				account_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT 1,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
			)`,
		},
		{
			Version:     7,
			Description: "Create generated images table",
			SQL: `CREATE TABLE IF NOT EXISTS generated_images (
				id TEXT PRIMARY KEY,
				account_id INTEGER NOT NULL,
				project_id INTEGER,
				url TEXT NOT NULL,
				kind TEXT NOT NULL,
				prompt TEXT NOT NULL DEFAULT '',
				settings TEXT,
				archive_key TEXT,
				created_at DATETIME NOT NULL,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE SET NULL
			)`,
		},
		{
			Version:     8,
			Description: "Create indexes",
			SQL: `CREATE INDEX IF NOT EXISTS idx_accounts_handle ON accounts(handle);
				CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
				CREATE INDEX IF NOT EXISTS idx_activity_logs_account_id ON activity_logs(account_id);
				CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp ON activity_logs(timestamp);
				CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);
				CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);
				CREATE INDEX IF NOT EXISTS idx_reset_tokens_email ON password_reset_tokens(email);
				CREATE INDEX IF NOT EXISTS idx_projects_account_id ON projects(account_id);
				CREATE INDEX IF NOT EXISTS idx_images_account_id ON generated_images(account_id);`,
		},
	}
}

// createMigrationsTable creates the schema_migrations bookkeeping table
func createMigrationsTable(db *sql.DB, dbType string) error {
	var query string
	if dbType == "postgres" {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`
	} else {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`
	}
	_, err := db.Exec(query)
	return err
}

// getAppliedMigrations returns the set of already applied migration versions
func getAppliedMigrations(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// recordMigration marks a migration version as applied
func recordMigration(db *sql.DB, dbType string, version int) error {
	var query string
	if dbType == "postgres" {
		query = "INSERT INTO schema_migrations (version) VALUES ($1)"
	} else {
		query = "INSERT INTO schema_migrations (version) VALUES (?)"
	}
	_, err := db.Exec(query, version)
	return err
}

// RunMigrations runs all pending migrations
func RunMigrations(db *sql.DB, dbType string) error {
	if err := createMigrationsTable(db, dbType); err != nil {
		return fmt.Errorf("failed to create migrations table: %v", err)
	}

	applied, err := getAppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %v", err)
	}

	migrations := GetMigrations(dbType)

	for _, migration := range migrations {
		if applied[migration.Version] {
			continue
		}

		log.Printf("Applying migration %d: %s", migration.Version, migration.Description)

		// Split SQL by semicolon and execute each statement
		statements := strings.Split(migration.SQL, ";")
		for _, stmt := range statements {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}

			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply migration %d: %v", migration.Version, err)
			}
		}

		if err := recordMigration(db, dbType, migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %d: %v", migration.Version, err)
		}
	}

	return nil
}
