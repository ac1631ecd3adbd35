package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var out map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &out))
	return out
}

func TestFor_CamposDoEscopo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(logger.Config{Env: "production", Level: "info", Service: "core-mdfe"}, &buf)

	log.For(logger.Scope{CompanyID: "emp-1", ManifestID: "m-1", Operation: "transmit"}).Info().Msg("retorno")

	got := lastLine(t, &buf)
	assert.Equal(t, "core-mdfe", got[logger.FieldService])
	assert.Equal(t, "emp-1", got[logger.FieldCompany])
	assert.Equal(t, "m-1", got[logger.FieldManifest])
	assert.Equal(t, "transmit", got[logger.FieldOperation])
	assert.NotContains(t, got, logger.FieldAccessKey, "campo vazio fica fora")
}

func TestFor_Encadeado(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(logger.Config{Env: "production"}, &buf)

	job := log.Component("pending_closure_job")
	job.For(logger.Scope{CompanyID: "emp-1"}).For(logger.Scope{AccessKey: "5226"}).Warn().Msg("atrasado")

	got := lastLine(t, &buf)
	assert.Equal(t, "pending_closure_job", got[logger.FieldComponent])
	assert.Equal(t, "emp-1", got[logger.FieldCompany])
	assert.Equal(t, "5226", got[logger.FieldAccessKey])
	assert.NotContains(t, got, logger.FieldService)
}

func TestNivel(t *testing.T) {
	cases := []struct {
		level string
		debug bool
		info  bool
	}{
		{"debug", true, true},
		{"warn", false, false},
		{"", false, true},
		{"verboso", false, true},
	}
	for _, tc := range cases {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.NewWithWriter(logger.Config{Env: "production", Level: tc.level}, &buf)

			log.Debug().Msg("d")
			assert.Equal(t, tc.debug, buf.Len() > 0)
			buf.Reset()
			log.Info().Msg("i")
			assert.Equal(t, tc.info, buf.Len() > 0)
		})
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		logger.Nop().For(logger.Scope{CompanyID: "x"}).Error().Msg("descartado")
	})
}
