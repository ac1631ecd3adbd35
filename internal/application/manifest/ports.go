package manifest

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
)

// TxRunner executa fn numa transação com repositórios atados a ela.
// Erro em fn faz rollback de tudo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		manifestRepo repository.ManifestRepository,
		companyRepo repository.CompanyRepository,
		eventRepo repository.EventRepository,
	) error) error
}

// TransportConfig configuração de uma única chamada à autoridade. É montada
// a partir da empresa a cada operação e nunca compartilhada entre chamadas.
type TransportConfig struct {
	CompanyID     string
	IssuerCNPJ    string
	Environment   mdfe.Environment
	IssuerUF      mdfe.UF
	LayoutVersion string
	Certificate   tls.Certificate
	Timeout       time.Duration
	SchemasDir    string
}

// AuthorityStatus resposta da consulta de status do serviço.
type AuthorityStatus struct {
	Online          bool
	StatusCode      int
	Reason          string
	AverageResponse time.Duration
}

// TransmitResponse resposta da autorização do MDF-e.
type TransmitResponse struct {
	StatusCode int
	Reason     string
	AccessKey  string
	Protocol   string
	ReceiptXML string
	SentXML    string // documento como assinado e enviado
}

// EventRequest evento sobre um MDF-e autorizado. Document é sempre o documento
// reconstruído do XML armazenado, nunca uma nova montagem.
type EventRequest struct {
	Kind      entity.EventKind
	Document  *mdfe.Document
	AccessKey string
	Protocol  string // protocolo de autorização usado como correlação
	Sequence  int
	IssuedAt  time.Time

	Justification string          // cancelamento
	Closure       *ClosurePayload // encerramento
	Driver        *DriverPayload
	CargoDocument *CargoDocumentPayload
}

type ClosurePayload struct {
	UFCode   int
	CityCode string
	ClosedOn time.Time
}

type DriverPayload struct {
	Name string
	CPF  string
}

type CargoDocumentPayload struct {
	LoadCityCode   string
	LoadCityName   string
	UnloadCityCode string
	UnloadCityName string
	NFeKey         string
}

// EventResponse resposta do registro de evento.
type EventResponse struct {
	StatusCode int
	Reason     string
	Protocol   string
	ReceiptXML string
	SentXML    string
}

// PendingClosure MDF-e autorizado ainda não encerrado na autoridade.
type PendingClosure struct {
	AccessKey string
	Protocol  string
}

// PendingClosuresResponse resposta da consulta de não encerrados.
type PendingClosuresResponse struct {
	StatusCode int
	Reason     string
	Items      []PendingClosure
}

// FiscalTransport colaborador externo que assina, valida e conversa com a
// autoridade. Erros devolvidos são falhas de comunicação; rejeições de negócio
// vêm no StatusCode.
type FiscalTransport interface {
	CheckAuthorityStatus(ctx context.Context, cfg TransportConfig) (*AuthorityStatus, error)
	Transmit(ctx context.Context, cfg TransportConfig, doc *mdfe.Document) (*TransmitResponse, error)
	SendEvent(ctx context.Context, cfg TransportConfig, req EventRequest) (*EventResponse, error)
	QueryPendingClosures(ctx context.Context, cfg TransportConfig, issuerCNPJ string) (*PendingClosuresResponse, error)
}

// Certificate certificado A1 carregado.
type Certificate struct {
	TLS         tls.Certificate
	SubjectCNPJ string
	NotAfter    time.Time
}

// CertificateLoader lê o certificado digital do emitente.
type CertificateLoader interface {
	Load(path, password string) (*Certificate, error)
}

// ArchiveKind tipo de XML arquivado.
type ArchiveKind string

const (
	ArchiveAuthorized   ArchiveKind = "procMDFe"
	ArchiveClosure      ArchiveKind = "encerramento"
	ArchiveCancellation ArchiveKind = "cancelamento"
	ArchiveAddDriver    ArchiveKind = "inc-condutor"
	ArchiveAddDocument  ArchiveKind = "inc-dfe"
)

// ArchiveEntry um XML a arquivar.
type ArchiveEntry struct {
	CompanyCNPJ string
	AccessKey   string
	Kind        ArchiveKind
	IssuedAt    time.Time
	Content     []byte
}

// XMLArchive guarda cópias dos XMLs autorizados (disco ou S3).
type XMLArchive interface {
	Save(ctx context.Context, e ArchiveEntry) error
}

// DAMDFEGenerator gera o documento auxiliar (PDF) de um MDF-e autorizado.
type DAMDFEGenerator interface {
	GenerateDAMDFE(ctx context.Context, company *entity.Company, m *entity.Manifest) ([]byte, error)
}

// ReportWriter exporta uma listagem de manifestos (planilha).
type ReportWriter interface {
	WriteManifests(ctx context.Context, company *entity.Company, items []*entity.Manifest) ([]byte, error)
}
