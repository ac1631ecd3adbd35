package entity_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
)

// ─────────────────────────────────────────────────────────────────────────────
// Transições
// ─────────────────────────────────────────────────────────────────────────────

func TestStatus_FluxoFeliz(t *testing.T) {
	s, err := entity.StatusDrafting.Send()
	require.NoError(t, err, "rascunho vai direto para Sent")
	s, err = s.Authorize()
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAuthorized, s)
	assert.NoError(t, s.ValidateAmend(), "autorizado aceita eventos")

	closed, err := s.Close()
	require.NoError(t, err)
	assert.True(t, closed.IsTerminal())

	cancelled, err := s.Cancel()
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled)
}

func TestStatus_RejeitadoPodeSerReenviado(t *testing.T) {
	s, err := entity.StatusSent.Reject()
	require.NoError(t, err)

	again, err := s.Send()
	require.NoError(t, err, "rejeitado volta para Sent no reenvio")
	assert.Equal(t, entity.StatusSent, again)
}

func TestStatus_AssinadoExternamenteAceitaReenvio(t *testing.T) {
	st, err := entity.ParseStatus("signed")
	require.NoError(t, err)
	require.NoError(t, st.ValidateResend())

	sent, err := st.Send()
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, sent)
}

func TestStatus_TransicoesInvalidas(t *testing.T) {
	cases := []struct {
		name string
		fn   func() (entity.Status, error)
	}{
		{"autorizar rascunho", entity.StatusDrafting.Authorize},
		{"rejeitar autorizado", entity.StatusAuthorized.Reject},
		{"encerrar rascunho", entity.StatusDrafting.Close},
		{"cancelar encerrado", entity.StatusClosed.Cancel},
		{"reenviar autorizado", entity.StatusAuthorized.Send},
		{"reenviar enviado", entity.StatusSent.Send},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
			assert.Equal(t, entity.StatusUnknown, got)
		})
	}
}

func TestStatus_TerminaisNaoAceitamEventos(t *testing.T) {
	for _, s := range []entity.Status{entity.StatusClosed, entity.StatusCancelled, entity.StatusRejected, entity.StatusDrafting} {
		assert.Error(t, s.ValidateAmend(), "%s não aceita eventos", s)
	}
}

func TestStatus_ValidateDelete(t *testing.T) {
	assert.NoError(t, entity.StatusDrafting.ValidateDelete())
	assert.NoError(t, entity.StatusRejected.ValidateDelete())
	err := entity.StatusAuthorized.ValidateDelete()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ─────────────────────────────────────────────────────────────────────────────
// Persistência textual
// ─────────────────────────────────────────────────────────────────────────────

func TestParseStatus(t *testing.T) {
	for _, s := range entity.AllStatuses() {
		got, err := entity.ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := entity.ParseStatus("autorizado?")
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
	assert.Error(t, entity.StatusUnknown.Validate())
}

// ─────────────────────────────────────────────────────────────────────────────
// Chave de acesso
// ─────────────────────────────────────────────────────────────────────────────

func TestManifest_AssignAccessKey(t *testing.T) {
	m := &entity.Manifest{}
	key := "52260311222333000181580010000001231123456780"

	require.NoError(t, m.AssignAccessKey(key))
	assert.NoError(t, m.AssignAccessKey(key), "mesma chave é idempotente")

	err := m.AssignAccessKey("52260311222333000181580010000001241123456781")
	assert.ErrorIs(t, err, domain.ErrAccessKeyImmutable)
	assert.Equal(t, key, m.AccessKey, "chave original preservada")
}

func TestManifest_TractionETrailers(t *testing.T) {
	m := &entity.Manifest{Vehicles: []entity.ManifestVehicle{
		{Role: entity.VehicleTrailer, VehicleData: entity.VehicleData{Plate: "REB0001"}},
		{Role: entity.VehicleTraction, VehicleData: entity.VehicleData{Plate: "TRA0001"}},
	}}
	require.NotNil(t, m.Traction())
	assert.Equal(t, "TRA0001", m.Traction().Plate)
	assert.Len(t, m.Trailers(), 1)
}
