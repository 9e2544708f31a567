package pg

import (
	"context"
	"fmt"
	"hash/fnv"
	"io/fs"
	"sort"
	"time"

	migrations "github.com/docuplane/credentiald/migrations/postgres"
	"github.com/docuplane/credentiald/internal/observability/logger"
	"go.uber.org/zap"
)

// lockID es el advisory lock de migraciones: determinístico para que
// réplicas concurrentes serialicen el arranque.
func lockID() int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("credentiald:migrate"))
	return int64(h.Sum64())
}

// Migrate aplica las migraciones embebidas pendientes. Toma un
// advisory lock por la duración completa; réplicas que arrancan a la
// vez esperan en vez de pisarse.
func (s *Store) Migrate(ctx context.Context) error {
	log := logger.Named("pg.migrate")

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	lctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := conn.Exec(lctx, "select pg_advisory_lock($1)", lockID()); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.Exec(context.Background(), "select pg_advisory_unlock($1)", lockID()); err != nil {
			log.Warn("could not release migration lock", logger.Err(err))
		}
	}()

	if _, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       text PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)`); err != nil {
		return err
	}

	names, err := fs.Glob(migrations.FS, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	applied := 0
	for _, name := range names {
		var exists bool
		if err := conn.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name).Scan(&exists); err != nil {
			return err
		}
		if exists {
			continue
		}

		raw, err := migrations.FS.ReadFile(name)
		if err != nil {
			return err
		}
		tx, err := conn.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, string(raw)); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		applied++
		log.Info("applied migration", zap.String("name", name))
	}

	if applied == 0 {
		log.Debug("schema up to date")
	}
	return nil
}
