package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Hacerfak/CoreMDFeApp/pkg/config"
)

// PoolOptions ajustes do pool. A emissão segura a linha da empresa (FOR UPDATE)
// só durante a reserva do número e a gravação do rascunho; LockTimeout limita
// quanto uma segunda emissão da mesma empresa espera por essa trava.
type PoolOptions struct {
	AppName          string
	MaxConns         int32
	MinConns         int32
	LockTimeout      time.Duration
	StatementTimeout time.Duration
}

// DefaultPoolOptions valores usados sem configuração explícita (testes de integração).
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		AppName:          "core-mdfe",
		MaxConns:         10,
		MinConns:         1,
		LockTimeout:      5 * time.Second,
		StatementTimeout: 30 * time.Second,
	}
}

// OptionsFrom converte a configuração; zeros mantêm o padrão.
func OptionsFrom(cfg config.DBConfig, appName string) PoolOptions {
	o := DefaultPoolOptions()
	if appName != "" {
		o.AppName = appName
	}
	if cfg.MaxConns > 0 {
		o.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.LockTimeoutMS > 0 {
		o.LockTimeout = time.Duration(cfg.LockTimeoutMS) * time.Millisecond
	}
	if cfg.StatementTimeoutMS > 0 {
		o.StatementTimeout = time.Duration(cfg.StatementTimeoutMS) * time.Millisecond
	}
	return o
}

// NewPool abre o pool de DATABASE_URL ou do DSN montado de DB_HOST, DB_PORT etc.
func NewPool(ctx context.Context, cfg config.DBConfig, opts PoolOptions) (*pgxpool.Pool, error) {
	return NewPoolFromDSN(ctx, cfg.ConnectionString(), opts)
}

// NewPoolFromDSN abre e testa a conexão.
func NewPoolFromDSN(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	pc, err := PoolConfig(dsn, opts)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("criar pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// PoolConfig monta a configuração sem conectar.
func PoolConfig(dsn string, opts PoolOptions) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	if opts.MaxConns > 0 {
		pc.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 && opts.MinConns <= pc.MaxConns {
		pc.MinConns = opts.MinConns
	}
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 15 * time.Minute
	pc.HealthCheckPeriod = time.Minute

	rp := pc.ConnConfig.RuntimeParams
	if opts.AppName != "" {
		rp["application_name"] = opts.AppName
	}
	// lock_timeout estourado vira erro na reserva: a emissão falha sem gravar nada
	if opts.LockTimeout > 0 {
		rp["lock_timeout"] = strconv.FormatInt(opts.LockTimeout.Milliseconds(), 10)
	}
	if opts.StatementTimeout > 0 {
		rp["statement_timeout"] = strconv.FormatInt(opts.StatementTimeout.Milliseconds(), 10)
	}

	// NUMERIC (valores e pesos da carga) -> shopspring/decimal
	pc.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	return pc, nil
}
