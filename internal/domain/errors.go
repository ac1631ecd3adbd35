package domain

import "errors"

// Erros de domínio (sem dependências externas).
var (
	ErrNotFound             = errors.New("recurso não encontrado")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrInvalidCode          = errors.New("código não reconhecido")
	ErrUnauthorized         = errors.New("não autorizado")
	ErrForbidden            = errors.New("acesso negado")
	ErrConflict             = errors.New("conflito com o estado atual")
	ErrInvalidTransition    = errors.New("transição de status não permitida")
	ErrMissingProtocol      = errors.New("manifesto sem protocolo de autorização")
	ErrAccessKeyImmutable   = errors.New("chave de acesso já atribuída")
	ErrCompanyNotConfigured = errors.New("empresa ou configuração fiscal não encontrada")
	ErrCertificate          = errors.New("certificado digital inválido")
	ErrUnparseableDocument  = errors.New("falha na leitura do XML assinado")
	ErrAuthorityUnavailable = errors.New("serviço da SEFAZ indisponível")
)
