package telemetry

import (
	"database/sql"

	"codeberg.org/mutker/powerlog/internal/errors"
	"codeberg.org/mutker/powerlog/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS observations (
	       timestamp        INTEGER PRIMARY KEY,
	       day              TEXT NOT NULL,
	       battery_pct      TEXT NOT NULL,
	       status           TEXT NOT NULL,
	       discharge_rate_w TEXT NOT NULL,
	       ac_online        TEXT NOT NULL,
	       power_mode       TEXT NOT NULL,
	       top_process      TEXT NOT NULL,
	       top_cpu_pct      TEXT NOT NULL
	   );
	   CREATE INDEX IF NOT EXISTS observations_day ON observations (day);`

	insertObservationSQL = `
    INSERT INTO observations (
        timestamp, day,
        battery_pct, status, discharge_rate_w, ac_online,
        power_mode, top_process, top_cpu_pct
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    ON CONFLICT(timestamp) DO UPDATE SET
        battery_pct = excluded.battery_pct,
        status = excluded.status,
        discharge_rate_w = excluded.discharge_rate_w,
        ac_online = excluded.ac_online,
        power_mode = excluded.power_mode,
        top_process = excluded.top_process,
        top_cpu_pct = excluded.top_cpu_pct`

	countDaySQL = `SELECT COUNT(*) FROM observations WHERE day = ?`
)

// initSchema creates the tables and records SchemaVersion in one transaction.
func initSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().Int("version", SchemaVersion).Msg("Telemetry schema initialized")

	return nil
}

// schemaVersion returns the recorded version, 0 for an empty database.
func schemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name='schema_versions'
        )
    `).Scan(&exists)
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`SELECT version FROM schema_versions ORDER BY version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}

	return version, nil
}

// ensureSchema creates the schema on a new database and rebuilds it when
// the recorded version differs. The mirror is derived data, the CSV logs
// stay authoritative.
func ensureSchema(db *sql.DB, log logger.Logger) error {
	version, err := schemaVersion(db)
	if err != nil {
		return err
	}

	if version == SchemaVersion {
		log.Debug().Int("version", version).Msg("Telemetry schema is current")
		return nil
	}

	if version != 0 {
		log.Warn().
			Int("found", version).
			Int("expected", SchemaVersion).
			Msg("Telemetry schema version mismatch, recreating")
		if err := dropTables(db); err != nil {
			return err
		}
	}

	return initSchema(db, log)
}

func dropTables(db *sql.DB) error {
	for _, table := range []string{"observations", "schema_versions"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return errors.New().WithData(ErrSchemaMigrationFailed, struct {
				Table string
				Error string
			}{
				Table: table,
				Error: err.Error(),
			})
		}
	}
	return nil
}
