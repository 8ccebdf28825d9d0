package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_signature_records",
		SQL: `CREATE TABLE IF NOT EXISTS signature_records (
  id          BIGSERIAL   PRIMARY KEY,
  claimant    TEXT        NOT NULL,
  filename    TEXT        NOT NULL,
  fingerprint CHAR(64)    NOT NULL,
  signature   TEXT        NOT NULL,
  status      TEXT        NOT NULL DEFAULT 'Valid' CHECK (status IN ('Valid', 'Revoked', 'Superseded')),
  signed_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_signature_records_fingerprint",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_signature_records_fingerprint ON signature_records (fingerprint, signed_at DESC, id DESC);`,
	},
	{
		Name: "create_index_signature_records_filename",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_signature_records_filename ON signature_records (filename, signed_at DESC, id DESC);`,
	},
	{
		Name: "create_function_signature_records_append_only",
		SQL: `CREATE OR REPLACE FUNCTION signature_records_append_only() RETURNS trigger AS $$
BEGIN
  RAISE EXCEPTION 'signature_records is append-only';
END;
$$ LANGUAGE plpgsql;`,
	},
	{
		Name: "create_trigger_signature_records_append_only",
		SQL: `CREATE TRIGGER signature_records_append_only
  BEFORE UPDATE OR DELETE ON signature_records
  FOR EACH ROW EXECUTE FUNCTION signature_records_append_only();`,
	},
}

// EnsureMigrated checks if the 'signature_records' table exists and runs migrations if it doesn't.
// All steps run in one transaction so a failed migration leaves no partial schema behind.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	log.Info("db_migration_check", zap.String("status", "starting"))

	var exists bool
	query := "SELECT to_regclass('public.signature_records') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("db_migration_failed",
			zap.String("status", "error"),
			zap.String("error_message", fmt.Sprintf("failed to check sentinel table: %v", err)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("db_migration_skip",
			zap.String("status", "success"),
			zap.String("detail", "schema already exists, skipping migration"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("db_migration_start", zap.String("status", "in_progress"))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := tx.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db_migration_failed",
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.String("error_message", err.Error()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("db_migration_step",
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}

	log.Info("db_migration_success",
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return nil
}
