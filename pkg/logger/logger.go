// Package logger log estruturado (zerolog) com os campos do ciclo de vida do
// MDF-e: empresa, manifesto, chave de acesso e operação.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Chaves fixas; painéis e alertas filtram por elas.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldCompany   = "company_id"
	FieldManifest  = "manifest_id"
	FieldAccessKey = "access_key"
	FieldOperation = "operation"
)

// Config opções do logger.
type Config struct {
	Env     string // development -> console legível; production -> JSON
	Level   string // trace, debug, info, warn, error
	Service string // vai em toda linha quando informado
}

// Logger zerolog com os escopos do domínio.
type Logger struct {
	zl zerolog.Logger
}

// Scope identifica a operação em andamento. Campos vazios ficam fora da linha.
type Scope struct {
	CompanyID  string
	ManifestID string
	AccessKey  string
	Operation  string
}

// New escreve em stdout.
func New(cfg Config) *Logger {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter como New, escrevendo em w (a CLI usa stderr).
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}

	zctx := zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp()
	if cfg.Service != "" {
		zctx = zctx.Str(FieldService, cfg.Service)
	}
	zl := zctx.Logger()

	// bibliotecas que usam o logger global do zerolog
	log.Logger = zl

	return &Logger{zl: zl}
}

// Nop descarta tudo (testes).
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// parseLevel nível desconhecido ou vazio vira info.
func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }
func (l *Logger) Fatal() *zerolog.Event { return l.zl.Fatal() }

// For sublogger com os campos do escopo.
func (l *Logger) For(s Scope) *Logger {
	zctx := l.zl.With()
	if s.CompanyID != "" {
		zctx = zctx.Str(FieldCompany, s.CompanyID)
	}
	if s.ManifestID != "" {
		zctx = zctx.Str(FieldManifest, s.ManifestID)
	}
	if s.AccessKey != "" {
		zctx = zctx.Str(FieldAccessKey, s.AccessKey)
	}
	if s.Operation != "" {
		zctx = zctx.Str(FieldOperation, s.Operation)
	}
	return &Logger{zl: zctx.Logger()}
}

// Component sublogger de uma rotina ou adaptador (job, gateway, migrador).
func (l *Logger) Component(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger()}
}
