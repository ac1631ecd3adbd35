package sefaz

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

// PFXLoader lê certificados A1 (.pfx/.p12) do disco.
type PFXLoader struct {
	now func() time.Time
}

var _ manifest.CertificateLoader = (*PFXLoader)(nil)

func NewPFXLoader() *PFXLoader {
	return &PFXLoader{now: time.Now}
}

// Load erros sempre embrulham domain.ErrCertificate.
func (l *PFXLoader) Load(path, password string) (*manifest.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: ler %s: %v", domain.ErrCertificate, path, err)
	}
	return decodePFX(data, password, l.now())
}

// LoadCertificate atalho para uso fora da aplicação (CLI).
func LoadCertificate(path, password string) (*manifest.Certificate, error) {
	return NewPFXLoader().Load(path, password)
}

func decodePFX(data []byte, password string, now time.Time) (*manifest.Certificate, error) {
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("%w: decodificar pfx: %v", domain.ErrCertificate, err)
	}
	if err := checkValidity(cert, now); err != nil {
		return nil, err
	}
	// pkcs12.Decode devolve só a folha; a SEFAZ aceita sem a cadeia
	return &manifest.Certificate{
		TLS: tls.Certificate{
			Certificate: [][]byte{cert.Raw},
			PrivateKey:  priv,
			Leaf:        cert,
		},
		SubjectCNPJ: subjectCNPJ(cert),
		NotAfter:    cert.NotAfter,
	}, nil
}

func checkValidity(cert *x509.Certificate, now time.Time) error {
	if now.After(cert.NotAfter) {
		return fmt.Errorf("%w: vencido em %s", domain.ErrCertificate, cert.NotAfter.Format("02/01/2006"))
	}
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("%w: válido somente a partir de %s", domain.ErrCertificate, cert.NotBefore.Format("02/01/2006"))
	}
	return nil
}

var cnpjPattern = regexp.MustCompile(`\d{14}`)

// subjectCNPJ e-CNPJ ICP-Brasil traz o CN como "RAZAO SOCIAL:11222333000181".
// Vazio quando o titular não é pessoa jurídica.
func subjectCNPJ(cert *x509.Certificate) string {
	cn := cert.Subject.CommonName
	if i := strings.LastIndex(cn, ":"); i >= 0 {
		if tail := strings.TrimSpace(cn[i+1:]); len(tail) == 14 && cnpjPattern.MatchString(tail) {
			return tail
		}
	}
	return cnpjPattern.FindString(cn)
}

// ErrNoCertificate devolvido pela CLI quando nenhum caminho foi informado.
var ErrNoCertificate = errors.New("caminho do certificado não informado")
