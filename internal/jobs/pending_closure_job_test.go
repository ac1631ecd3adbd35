package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/pkg/config"
	"github.com/Hacerfak/CoreMDFeApp/pkg/logger"
)

type fakeLister struct {
	companies []*entity.Company
	err       error
}

func (f *fakeLister) List(context.Context) ([]*entity.Company, error) { return f.companies, f.err }

type fakePending struct {
	calls []string
	resp  map[string]*dto.PendingClosuresResponse
}

func (f *fakePending) PendingClosures(_ context.Context, companyID string) (*dto.PendingClosuresResponse, error) {
	f.calls = append(f.calls, companyID)
	if r, ok := f.resp[companyID]; ok {
		return r, nil
	}
	return nil, errors.New("gateway fora")
}

func configured(id string) *entity.Company {
	return &entity.Company{ID: id, Settings: entity.FiscalSettings{Series: 1, Environment: 2, CertificatePath: "/certs/a1.pfx"}}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

func TestPendingClosureJob_Run(t *testing.T) {
	lister := &fakeLister{companies: []*entity.Company{
		configured("emp-1"),
		{ID: "emp-sem-config"},
		configured("emp-falha"),
	}}
	pending := &fakePending{resp: map[string]*dto.PendingClosuresResponse{
		"emp-1": {StatusCode: 111, Items: []dto.PendingClosureEntry{
			{AccessKey: "52260311222333000181580010000000421123456780", ManifestID: "m-antigo"},
			{AccessKey: "52260511222333000181580010000000501123456781"},
		}},
	}}

	job := NewPendingClosureJob(lister, pending, "", 0, logger.Nop())
	job.now = func() time.Time { return time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC) }

	rep := job.Run(context.Background())

	assert.Equal(t, []string{"emp-1", "emp-falha"}, pending.calls, "empresa sem configuração não é consultada")
	assert.Equal(t, 2, rep.Companies)
	assert.Equal(t, 1, rep.Failures)
	assert.Equal(t, 2, rep.Pending)
	assert.Equal(t, 1, rep.Overdue, "somente o de março passou de 30 dias")
}

func TestPendingClosureJob_SerieZeroEConsultada(t *testing.T) {
	serieZero := configured("emp-serie-0")
	serieZero.Settings.Series = 0
	pending := &fakePending{resp: map[string]*dto.PendingClosuresResponse{
		"emp-serie-0": {StatusCode: 112},
	}}

	job := NewPendingClosureJob(&fakeLister{companies: []*entity.Company{serieZero}}, pending, "", 0, logger.Nop())
	rep := job.Run(context.Background())

	assert.Equal(t, []string{"emp-serie-0"}, pending.calls)
	assert.Equal(t, 1, rep.Companies)
	assert.Zero(t, rep.Failures)
}

func TestPendingClosureJob_FalhaAoListarEmpresas(t *testing.T) {
	pending := &fakePending{}
	job := NewPendingClosureJob(&fakeLister{err: errors.New("db fora")}, pending, "", 0, logger.Nop())

	rep := job.Run(context.Background())
	assert.Equal(t, 1, rep.Failures)
	assert.Empty(t, pending.calls)
}

func TestPendingClosureJob_Padroes(t *testing.T) {
	job := NewPendingClosureJob(&fakeLister{}, &fakePending{}, "", 0, logger.Nop())
	assert.Equal(t, defaultPendingSpec, job.spec)
	assert.Equal(t, defaultPendingAge, job.maxAge)
}

func TestPendingClosureJob_SpecInvalido(t *testing.T) {
	job := NewPendingClosureJob(&fakeLister{}, &fakePending{}, "a cada hora", 0, logger.Nop())
	assert.Error(t, job.Start())
}

// ─── JobManager ──────────────────────────────────────────────────────────────

func TestJobManager_StartStop(t *testing.T) {
	jm := NewJobManager(config.JobsConfig{Enabled: true, PendingClosureSpec: "@every 1h"}, &fakeLister{}, &fakePending{}, nil)
	require.NoError(t, jm.StartAll())
	jm.StopAll()
}

func TestJobManager_Desabilitado(t *testing.T) {
	jm := NewJobManager(config.JobsConfig{Enabled: false, PendingClosureSpec: "inválido"}, &fakeLister{}, &fakePending{}, nil)
	assert.NoError(t, jm.StartAll(), "desabilitado não valida nem agenda")
	jm.StopAll()
}
