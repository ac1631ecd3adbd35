package sefaz

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

func TestSubjectCNPJ(t *testing.T) {
	cases := map[string]string{
		"TRANSPORTES TESTE LTDA:11222333000181": "11222333000181",
		"EMPRESA 11222333000181 ME":             "11222333000181",
		"FULANO DE TAL:52998224725":             "",
	}
	for cn, want := range cases {
		cert := &x509.Certificate{Subject: pkix.Name{CommonName: cn}}
		assert.Equal(t, want, subjectCNPJ(cert), cn)
	}
}

func TestCheckValidity(t *testing.T) {
	cert := &x509.Certificate{
		NotBefore: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, checkValidity(cert, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.ErrorIs(t, checkValidity(cert, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)), domain.ErrCertificate, "vencido")
	assert.ErrorIs(t, checkValidity(cert, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)), domain.ErrCertificate, "ainda não válido")
}

func TestLoad_Falhas(t *testing.T) {
	_, err := NewPFXLoader().Load(filepath.Join(t.TempDir(), "nao-existe.pfx"), "x")
	assert.ErrorIs(t, err, domain.ErrCertificate)

	_, err = decodePFX([]byte("isto não é pfx"), "senha", time.Now())
	assert.ErrorIs(t, err, domain.ErrCertificate)
}
