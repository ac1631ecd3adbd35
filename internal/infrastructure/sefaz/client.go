// Package sefaz adaptador do gateway fiscal: o serviço que assina, valida o
// leiaute e conversa com a SEFAZ. Aqui só há HTTPS+JSON com TLS mútuo usando o
// certificado A1 do emitente.
package sefaz

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
)

const (
	pathStatus   = "/v1/mdfe/status"
	pathTransmit = "/v1/mdfe/transmit"
	pathEvents   = "/v1/mdfe/events"
	pathPending  = "/v1/mdfe/pending"

	maxResponseBytes = 4 << 20
)

// Client implementa manifest.FiscalTransport contra o gateway. Seguro para uso concorrente.
type Client struct {
	baseURL string
	token   string

	mu      sync.Mutex
	clients map[string]*http.Client // por impressão digital do certificado
}

var _ manifest.FiscalTransport = (*Client)(nil)

// NewClient baseURL ex.: https://gateway.interno:8443. token vazio dispensa o header Authorization.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		clients: make(map[string]*http.Client),
	}
}

// httpClient devolve o cliente do certificado da chamada, criado na primeira vez.
// O tempo limite de cada chamada vem do contexto, não do cliente compartilhado.
func (c *Client) httpClient(cfg manifest.TransportConfig) *http.Client {
	key := certFingerprint(cfg.Certificate)

	c.mu.Lock()
	defer c.mu.Unlock()
	if hc, ok := c.clients[key]; ok {
		return hc
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if key != "" {
		tlsCfg.Certificates = []tls.Certificate{cfg.Certificate}
	}
	hc := &http.Client{Transport: &http.Transport{
		TLSClientConfig:     tlsCfg,
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}}
	c.clients[key] = hc
	return hc
}

// Close fecha as conexões ociosas de todos os certificados.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, hc := range c.clients {
		hc.CloseIdleConnections()
		delete(c.clients, key)
	}
}

func certFingerprint(cert tls.Certificate) string {
	if len(cert.Certificate) == 0 {
		return ""
	}
	sum := sha256.Sum256(cert.Certificate[0])
	return hex.EncodeToString(sum[:])
}

// CheckAuthorityStatus consulta o status do serviço (MDFeStatusServico).
func (c *Client) CheckAuthorityStatus(ctx context.Context, cfg manifest.TransportConfig) (*manifest.AuthorityStatus, error) {
	var out statusResponse
	if err := c.call(ctx, cfg, "status", pathStatus, issuerOf(cfg), &out); err != nil {
		return nil, err
	}
	return &manifest.AuthorityStatus{
		Online:          out.Online,
		StatusCode:      out.CStat,
		Reason:          out.Reason,
		AverageResponse: time.Duration(out.AverageSeconds * float64(time.Second)),
	}, nil
}

// Transmit envia o documento montado; o gateway assina e devolve o XML enviado.
func (c *Client) Transmit(ctx context.Context, cfg manifest.TransportConfig, doc *mdfe.Document) (*manifest.TransmitResponse, error) {
	raw, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("sefaz: serializar documento: %w", err)
	}
	in := transmitRequest{issuer: issuerOf(cfg), AccessKey: doc.AccessKey(), XML: string(raw)}

	var out transmitResponse
	if err := c.call(ctx, cfg, "transmit", pathTransmit, in, &out); err != nil {
		return nil, err
	}
	return &manifest.TransmitResponse{
		StatusCode: out.CStat,
		Reason:     out.Reason,
		AccessKey:  out.AccessKey,
		Protocol:   out.Protocol,
		ReceiptXML: out.ReceiptXML,
		SentXML:    out.SentXML,
	}, nil
}

// SendEvent registra cancelamento, encerramento, inclusão de condutor ou de DF-e.
func (c *Client) SendEvent(ctx context.Context, cfg manifest.TransportConfig, req manifest.EventRequest) (*manifest.EventResponse, error) {
	in := eventRequest{
		issuer:        issuerOf(cfg),
		EventType:     req.Kind.Code(),
		Description:   req.Kind.Description(),
		AccessKey:     req.AccessKey,
		Protocol:      req.Protocol,
		Sequence:      req.Sequence,
		IssuedAt:      req.IssuedAt.Format(time.RFC3339),
		Justification: req.Justification,
	}
	if in.EventType == "" {
		return nil, fmt.Errorf("sefaz: evento %q sem tpEvento", req.Kind)
	}
	if req.Document != nil {
		raw, err := req.Document.Marshal()
		if err != nil {
			return nil, fmt.Errorf("sefaz: serializar documento do evento: %w", err)
		}
		in.XML = string(raw)
	}
	if p := req.Closure; p != nil {
		in.Closure = &closureBody{UFCode: p.UFCode, CityCode: p.CityCode, ClosedOn: p.ClosedOn.Format("2006-01-02")}
	}
	if p := req.Driver; p != nil {
		in.Driver = &driverBody{Name: p.Name, CPF: p.CPF}
	}
	if p := req.CargoDocument; p != nil {
		in.Document = &cargoDocumentBody{
			LoadCityCode:   p.LoadCityCode,
			LoadCityName:   p.LoadCityName,
			UnloadCityCode: p.UnloadCityCode,
			UnloadCityName: p.UnloadCityName,
			NFeKey:         p.NFeKey,
		}
	}

	var out eventResponse
	if err := c.call(ctx, cfg, "events", pathEvents, in, &out); err != nil {
		return nil, err
	}
	return &manifest.EventResponse{
		StatusCode: out.CStat,
		Reason:     out.Reason,
		Protocol:   out.Protocol,
		ReceiptXML: out.ReceiptXML,
		SentXML:    out.SentXML,
	}, nil
}

// QueryPendingClosures consulta MDF-e autorizados e não encerrados do emitente.
func (c *Client) QueryPendingClosures(ctx context.Context, cfg manifest.TransportConfig, issuerCNPJ string) (*manifest.PendingClosuresResponse, error) {
	var out pendingResponse
	if err := c.call(ctx, cfg, "pending", pathPending, pendingRequest{issuer: issuerOf(cfg), IssuerCNPJ: issuerCNPJ}, &out); err != nil {
		return nil, err
	}
	res := &manifest.PendingClosuresResponse{StatusCode: out.CStat, Reason: out.Reason}
	for _, it := range out.Items {
		res.Items = append(res.Items, manifest.PendingClosure{AccessKey: it.AccessKey, Protocol: it.Protocol})
	}
	return res, nil
}

// call faz o POST JSON. Toda falha de rede, HTTP ou decodificação vira *TransportError.
func (c *Client) call(ctx context.Context, cfg manifest.TransportConfig, op, path string, in, out any) error {
	if c.baseURL == "" {
		return &TransportError{Op: op, Err: errors.New("URL do gateway não configurada")}
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("sefaz: serializar %s: %w", op, err)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient(cfg).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("tempo limite ou cancelamento: %w", ctx.Err())}
		}
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("ler resposta: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		msg := eb.Message
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return &TransportError{Op: op, Err: fmt.Errorf("gateway respondeu HTTP %d: %s", resp.StatusCode, msg)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("resposta ilegível: %w", err)}
	}
	return nil
}

func issuerOf(cfg manifest.TransportConfig) issuer {
	return issuer{
		CNPJ:          cfg.IssuerCNPJ,
		UF:            cfg.IssuerUF.String(),
		Environment:   int(cfg.Environment),
		LayoutVersion: cfg.LayoutVersion,
		SchemasDir:    cfg.SchemasDir,
	}
}
