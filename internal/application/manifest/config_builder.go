package manifest

import (
	"fmt"
	"strings"
	"time"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// ConfigBuilder monta a TransportConfig de uma chamada a partir da empresa.
// Nenhum estado é guardado entre chamadas.
type ConfigBuilder struct {
	certs          CertificateLoader
	defaultTimeout time.Duration
}

// NewConfigBuilder defaultTimeout vale quando a empresa não define TimeoutMS.
func NewConfigBuilder(certs CertificateLoader, defaultTimeout time.Duration) *ConfigBuilder {
	if defaultTimeout <= 0 {
		defaultTimeout = entity.DefaultTimeoutMS * time.Millisecond
	}
	return &ConfigBuilder{certs: certs, defaultTimeout: defaultTimeout}
}

// Build falha com ErrCompanyNotConfigured ou ErrCertificate antes de qualquer acesso à rede.
func (b *ConfigBuilder) Build(c *entity.Company) (TransportConfig, error) {
	if c == nil {
		return TransportConfig{}, domain.ErrCompanyNotConfigured
	}
	cnpj := pkgmdfe.OnlyDigits(c.CNPJ)
	if err := pkgmdfe.ValidateCNPJ(cnpj); err != nil {
		return TransportConfig{}, fmt.Errorf("%w: CNPJ do emitente: %v", domain.ErrCompanyNotConfigured, err)
	}
	env, err := mdfe.ParseEnvironment(c.Settings.Environment)
	if err != nil {
		return TransportConfig{}, fmt.Errorf("%w: %v", domain.ErrCompanyNotConfigured, err)
	}
	ufText := c.Settings.IssuerUF
	if ufText == "" {
		ufText = c.UF
	}
	uf, err := mdfe.ParseUF(ufText)
	if err != nil {
		return TransportConfig{}, fmt.Errorf("%w: %v", domain.ErrCompanyNotConfigured, err)
	}

	if strings.TrimSpace(c.Settings.CertificatePath) == "" {
		return TransportConfig{}, fmt.Errorf("%w: caminho do certificado não configurado", domain.ErrCertificate)
	}
	cert, err := b.certs.Load(c.Settings.CertificatePath, c.Settings.CertificatePassword)
	if err != nil {
		return TransportConfig{}, fmt.Errorf("%w: %v", domain.ErrCertificate, err)
	}
	// A1 de outra raiz de CNPJ seria recusado pela SEFAZ
	if cert.SubjectCNPJ != "" && !strings.HasPrefix(cert.SubjectCNPJ, cnpj[:8]) {
		return TransportConfig{}, fmt.Errorf("%w: certificado de %s não pertence ao emitente %s",
			domain.ErrCertificate, cert.SubjectCNPJ, cnpj)
	}

	timeout := b.defaultTimeout
	if c.Settings.TimeoutMS > 0 {
		timeout = time.Duration(c.Settings.TimeoutMS) * time.Millisecond
	}
	layout := c.Settings.LayoutVersion
	if layout == "" {
		layout = pkgmdfe.LayoutVersion
	}

	return TransportConfig{
		CompanyID:     c.ID,
		IssuerCNPJ:    cnpj,
		Environment:   env,
		IssuerUF:      uf,
		LayoutVersion: layout,
		Certificate:   cert.TLS,
		Timeout:       timeout,
		SchemasDir:    c.Settings.SchemasDir,
	}, nil
}
