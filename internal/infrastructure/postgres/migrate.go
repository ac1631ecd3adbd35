package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver "pgx" para database/sql
	"github.com/jmoiron/sqlx"

	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration um arquivo .sql; Version é o nome sem extensão (0001_companies).
type Migration struct {
	Version string
	SQL     string
}

// Migrator aplica as migrações embutidas, em ordem, registrando cada uma em
// schema_migrations. Cada arquivo roda na sua própria transação.
type Migrator struct {
	db         *sqlx.DB
	migrations []Migration
	log        *logger.Logger
}

// OpenMigrator abre uma conexão database/sql (driver pgx) só para migrar.
func OpenMigrator(dsn string, log *logger.Logger) (*Migrator, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open migrator: %w", err)
	}
	return NewMigrator(db, log)
}

// NewMigrator usa as migrações embutidas no binário.
func NewMigrator(db *sqlx.DB, log *logger.Logger) (*Migrator, error) {
	if log == nil {
		log = logger.Nop()
	}
	ms, err := LoadMigrations(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, migrations: ms, log: log.Component("migrator")}, nil
}

// LoadMigrations lê os .sql de dir ordenados pelo nome.
func LoadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		data, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: strings.TrimSuffix(e.Name(), ".sql"), SQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    VARCHAR(64) PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Up aplica as migrações pendentes e devolve as versões aplicadas agora.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var done []string
	if err := m.db.SelectContext(ctx, &done, `SELECT version FROM schema_migrations ORDER BY version`); err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, v := range done {
		applied[v] = true
	}

	var ran []string
	for _, mig := range m.migrations {
		if applied[mig.Version] {
			continue
		}
		if err := m.apply(ctx, mig); err != nil {
			return ran, err
		}
		m.log.Info().Str("version", mig.Version).Msg("migração aplicada")
		ran = append(ran, mig.Version)
	}
	return ran, nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", mig.Version, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
		return fmt.Errorf("apply migration %s: %w", mig.Version, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, mig.Version); err != nil {
		return fmt.Errorf("record migration %s: %w", mig.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", mig.Version, err)
	}
	return nil
}

// Close fecha a conexão database/sql.
func (m *Migrator) Close() error {
	return m.db.Close()
}
