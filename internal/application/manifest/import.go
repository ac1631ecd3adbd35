package manifest

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// ImportCargoDocument lê o XML de uma NF-e (55) ou CT-e (57), autorizado ou não,
// e devolve a linha de documento pronta para a emissão. Aceita UTF-8 e ISO-8859-1.
func ImportCargoDocument(data []byte) (*dto.CargoDocumentLine, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, invalid("XML ilegível: %v", err)
	}

	if inf := doc.FindElement("//infNFe"); inf != nil {
		return importNFe(inf)
	}
	if inf := doc.FindElement("//infCte"); inf != nil {
		return importCTe(inf)
	}
	return nil, invalid("arquivo não contém infNFe nem infCte")
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("codificação %q não suportada", label)
}

func importNFe(inf *etree.Element) (*dto.CargoDocumentLine, error) {
	key, err := keyFromID(inf, "NFe", pkgmdfe.ModelNFe)
	if err != nil {
		return nil, err
	}
	line := &dto.CargoDocumentLine{
		CargoDocumentInput: dto.CargoDocumentInput{
			Type:           int(mdfe.DocumentNFe),
			AccessKey:      key,
			LoadCityCode:   text(inf, "emit/enderEmit/cMun"),
			LoadCityName:   pkgmdfe.NormalizeName(text(inf, "emit/enderEmit/xMun")),
			LoadUF:         text(inf, "emit/enderEmit/UF"),
			UnloadCityCode: text(inf, "dest/enderDest/cMun"),
			UnloadCityName: pkgmdfe.NormalizeName(text(inf, "dest/enderDest/xMun")),
			UnloadUF:       text(inf, "dest/enderDest/UF"),
			ProductHint:    pkgmdfe.NormalizeText(text(inf, "det/prod/xProd")),
		},
		IssuerName: pkgmdfe.NormalizeText(text(inf, "emit/xNome")),
	}
	// local de entrega diferente do destinatário prevalece
	if code := text(inf, "entrega/cMun"); code != "" {
		line.UnloadCityCode = code
		line.UnloadCityName = pkgmdfe.NormalizeName(text(inf, "entrega/xMun"))
		line.UnloadUF = text(inf, "entrega/UF")
	}
	if line.Value, err = amount(inf, "total/ICMSTot/vNF"); err != nil {
		return nil, err
	}
	weight := decimal.Zero
	for _, vol := range inf.FindElements("transp/vol") {
		w, err := amount(vol, "pesoB")
		if err != nil {
			return nil, err
		}
		weight = weight.Add(w)
	}
	line.Weight = weight.Round(4)
	return line, nil
}

func importCTe(inf *etree.Element) (*dto.CargoDocumentLine, error) {
	key, err := keyFromID(inf, "CTe", pkgmdfe.ModelCTe)
	if err != nil {
		return nil, err
	}
	line := &dto.CargoDocumentLine{
		CargoDocumentInput: dto.CargoDocumentInput{
			Type:           int(mdfe.DocumentCTe),
			AccessKey:      key,
			LoadCityCode:   text(inf, "ide/cMunIni"),
			LoadCityName:   pkgmdfe.NormalizeName(text(inf, "ide/xMunIni")),
			LoadUF:         text(inf, "ide/UFIni"),
			UnloadCityCode: text(inf, "ide/cMunFim"),
			UnloadCityName: pkgmdfe.NormalizeName(text(inf, "ide/xMunFim")),
			UnloadUF:       text(inf, "ide/UFFim"),
			ProductHint:    pkgmdfe.NormalizeText(text(inf, "infCTeNorm/infCarga/proPred")),
		},
		IssuerName: pkgmdfe.NormalizeText(text(inf, "emit/xNome")),
	}
	if line.Value, err = amount(inf, "infCTeNorm/infCarga/vCarga"); err != nil {
		return nil, err
	}
	weight := decimal.Zero
	for _, q := range inf.FindElements("infCTeNorm/infCarga/infQ") {
		qty, err := amount(q, "qCarga")
		if err != nil {
			return nil, err
		}
		switch text(q, "cUnid") {
		case "01": // KG
			weight = weight.Add(qty)
		case "02": // TON
			weight = weight.Add(qty.Mul(decimal.NewFromInt(1000)))
		}
	}
	line.Weight = weight.Round(4)
	return line, nil
}

// keyFromID extrai a chave do atributo Id ("NFe"+44 dígitos) e confere modelo e DV.
func keyFromID(inf *etree.Element, prefix, model string) (string, error) {
	key := strings.TrimPrefix(inf.SelectAttrValue("Id", ""), prefix)
	if err := pkgmdfe.ValidateAccessKey(key); err != nil {
		return "", invalid("chave do documento: %v", err)
	}
	if pkgmdfe.ModelFromAccessKey(key) != model {
		return "", invalid("chave %s não é do modelo %s", key, model)
	}
	return key, nil
}

func text(e *etree.Element, path string) string {
	if el := e.FindElement(path); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

func amount(e *etree.Element, path string) (decimal.Decimal, error) {
	raw := text(e, path)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalid("valor %q em %s", raw, path)
	}
	return d, nil
}
