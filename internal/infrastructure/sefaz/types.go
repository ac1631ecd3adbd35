package sefaz

import "fmt"

// ── Erro de comunicação ───────────────────────────────────────────────────────

// TransportError falha de comunicação com o gateway (rede, tempo limite, HTTP
// não 2xx ou corpo ilegível). Rejeições da SEFAZ nunca viram TransportError.
type TransportError struct {
	Op  string // status, transmit, events, pending
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sefaz %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ── Estruturas de requisição ──────────────────────────────────────────────────

type issuer struct {
	CNPJ          string `json:"cnpj"`
	UF            string `json:"uf"`
	Environment   int    `json:"environment"`
	LayoutVersion string `json:"layout_version"`
	SchemasDir    string `json:"schemas_dir,omitempty"`
}

type transmitRequest struct {
	issuer
	AccessKey string `json:"access_key"`
	XML       string `json:"xml"` // documento ainda sem assinatura
}

type eventRequest struct {
	issuer
	EventType     string             `json:"event_type"` // tpEvento
	Description   string             `json:"description"`
	AccessKey     string             `json:"access_key"`
	Protocol      string             `json:"protocol"`
	Sequence      int                `json:"sequence"`
	IssuedAt      string             `json:"issued_at"` // RFC3339 com fuso
	XML           string             `json:"xml,omitempty"`
	Justification string             `json:"justification,omitempty"`
	Closure       *closureBody       `json:"closure,omitempty"`
	Driver        *driverBody        `json:"driver,omitempty"`
	Document      *cargoDocumentBody `json:"document,omitempty"`
}

type closureBody struct {
	UFCode   int    `json:"uf_code"`
	CityCode string `json:"city_code"`
	ClosedOn string `json:"closed_on"` // AAAA-MM-DD
}

type driverBody struct {
	Name string `json:"name"`
	CPF  string `json:"cpf"`
}

type cargoDocumentBody struct {
	LoadCityCode   string `json:"load_city_code"`
	LoadCityName   string `json:"load_city_name"`
	UnloadCityCode string `json:"unload_city_code"`
	UnloadCityName string `json:"unload_city_name"`
	NFeKey         string `json:"nfe_key"`
}

type pendingRequest struct {
	issuer
	IssuerCNPJ string `json:"issuer_cnpj"`
}

// ── Estruturas de resposta ────────────────────────────────────────────────────

type statusResponse struct {
	Online         bool    `json:"online"`
	CStat          int     `json:"cstat"`
	Reason         string  `json:"reason"`
	AverageSeconds float64 `json:"average_seconds"` // tMed
}

type transmitResponse struct {
	CStat      int    `json:"cstat"`
	Reason     string `json:"reason"`
	AccessKey  string `json:"access_key"`
	Protocol   string `json:"protocol"`
	ReceiptXML string `json:"receipt_xml"`
	SentXML    string `json:"sent_xml"`
}

type eventResponse struct {
	CStat      int    `json:"cstat"`
	Reason     string `json:"reason"`
	Protocol   string `json:"protocol"`
	ReceiptXML string `json:"receipt_xml"`
	SentXML    string `json:"sent_xml"`
}

type pendingResponse struct {
	CStat  int    `json:"cstat"`
	Reason string `json:"reason"`
	Items  []struct {
		AccessKey string `json:"access_key"`
		Protocol  string `json:"protocol"`
	} `json:"items"`
}

// errorBody corpo devolvido pelo gateway em respostas não 2xx.
type errorBody struct {
	Message string `json:"message"`
}
