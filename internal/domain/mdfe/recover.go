package mdfe

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

// rootElement nome local do elemento raiz do manifesto.
const rootElement = "MDFe"

// ExtractDocument devolve o subárvore <MDFe> contido no XML armazenado (pode vir
// embrulhado em mdfeProc, envelope de lote ou de retorno). A busca é pelo nome local,
// sem considerar prefixo ou namespace. found=false indica que o elemento não existe e
// que o conteúdo original foi devolvido inteiro.
//
// Este é o único ponto do sistema que procura elementos por nome local.
func ExtractDocument(raw string) (out []byte, found bool, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(raw); err != nil {
		return []byte(raw), false, nil
	}
	el := findLocal(doc.Root(), rootElement)
	if el == nil {
		return []byte(raw), false, nil
	}

	sub := el.Copy()
	// namespace herdado do ancestral precisa ser declarado no subárvore isolado
	if sub.SelectAttr("xmlns") == nil && sub.Space == "" {
		if uri := el.NamespaceURI(); uri != "" {
			sub.CreateAttr("xmlns", uri)
		}
	}
	isolated := etree.NewDocument()
	isolated.SetRoot(sub)
	b, err := isolated.WriteToBytes()
	if err != nil {
		return nil, false, fmt.Errorf("mdfe: serializar subárvore: %w", err)
	}
	return b, true, nil
}

func findLocal(e *etree.Element, local string) *etree.Element {
	if e == nil {
		return nil
	}
	if e.Tag == local {
		return e
	}
	for _, child := range e.ChildElements() {
		if found := findLocal(child, local); found != nil {
			return found
		}
	}
	return nil
}

// Recover reconstrói o documento tipado a partir do XML assinado armazenado.
// Falha com domain.ErrUnparseableDocument quando não há infMDFe utilizável.
func Recover(raw string) (*Document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: conteúdo vazio", domain.ErrUnparseableDocument)
	}
	data, _, err := ExtractDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparseableDocument, err)
	}
	var d Document
	if err := xml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnparseableDocument, err)
	}
	if d.Info.ID == "" || d.Info.Ide.Number == 0 {
		return nil, fmt.Errorf("%w: infMDFe ausente ou incompleto", domain.ErrUnparseableDocument)
	}
	d.Xmlns = ""
	return &d, nil
}

// CanonicalDigest SHA-256 (hex) da forma canônica C14N do XML. Duas serializações
// equivalentes do mesmo documento produzem o mesmo digest.
func CanonicalDigest(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	canon, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("mdfe: canonicalizar: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

// Digest digest canônico do conteúdo do documento, sem assinatura nem
// infMDFeSupl: rascunho e versão assinada do mesmo MDF-e têm o mesmo digest.
func (d *Document) Digest() (string, error) {
	unsigned := *d
	unsigned.Signature, unsigned.Supl = nil, nil
	data, err := unsigned.Marshal()
	if err != nil {
		return "", err
	}
	return CanonicalDigest(data)
}
