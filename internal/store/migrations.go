package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means a fresh database.
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS observations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			state_name    TEXT NOT NULL,
			district_name TEXT NOT NULL DEFAULT '',
			crop_year     TEXT NOT NULL,
			year_start    INTEGER NOT NULL,
			season        TEXT NOT NULL DEFAULT '',
			crop          TEXT NOT NULL,
			area          REAL NOT NULL DEFAULT 0,
			production    REAL NOT NULL DEFAULT 0,
			imported_at   TEXT NOT NULL,
			UNIQUE (state_name, district_name, crop_year, season, crop)
		)`,

		`CREATE TABLE IF NOT EXISTS interstate_distances (
			state_a     TEXT NOT NULL,
			state_b     TEXT NOT NULL,
			distance_km REAL NOT NULL,
			source      TEXT NOT NULL DEFAULT 'import',
			updated_at  TEXT NOT NULL,
			PRIMARY KEY (state_a, state_b)
		)`,

		`CREATE TABLE IF NOT EXISTS crop_strategies (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			state_name           TEXT NOT NULL,
			crop_year            TEXT NOT NULL,
			crop                 TEXT NOT NULL,
			season               TEXT NOT NULL DEFAULT '',
			recommended_area     REAL NOT NULL,
			predicted_yield      REAL NOT NULL,
			predicted_production REAL NOT NULL,
			priority_score       REAL NOT NULL,
			strategy_notes       TEXT NOT NULL,
			historical_trend     TEXT NOT NULL,
			is_prediction        BOOLEAN NOT NULL DEFAULT false,
			ai_powered           BOOLEAN NOT NULL DEFAULT false,
			created_at           TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS trade_transactions (
			id                   INTEGER PRIMARY KEY AUTOINCREMENT,
			crop_year            TEXT NOT NULL,
			crop                 TEXT NOT NULL,
			surplus_state        TEXT NOT NULL,
			deficit_state        TEXT NOT NULL,
			recommended_quantity REAL NOT NULL,
			estimated_cost       REAL,
			estimated_co2        REAL,
			distance_km          REAL NOT NULL,
			distance_known       BOOLEAN NOT NULL DEFAULT true,
			priority_score       REAL NOT NULL,
			created_at           TEXT NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_observations_state ON observations(state_name, year_start)`,
		`CREATE INDEX IF NOT EXISTS idx_observations_crop ON observations(crop COLLATE NOCASE, year_start)`,
		`CREATE INDEX IF NOT EXISTS idx_strategies_state_year ON crop_strategies(state_name, crop_year)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_year ON trade_transactions(crop_year, crop)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
