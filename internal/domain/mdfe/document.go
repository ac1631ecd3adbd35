package mdfe

import (
	"encoding/xml"
	"fmt"
	"strings"

	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// NamespaceDSig namespace da assinatura XMLDSig preservada no documento recuperado.
const NamespaceDSig = "http://www.w3.org/2000/09/xmldsig#"

// Document raiz <MDFe> do leiaute 3.00.
//
// Grupos opcionais são ponteiros ou slices com omitempty: quando vazios, não aparecem
// no XML (a SEFAZ rejeita contêineres vazios).
type Document struct {
	XMLName   xml.Name  `xml:"MDFe"`
	Xmlns     string    `xml:"xmlns,attr,omitempty"`
	Info      Info      `xml:"infMDFe"`
	Supl      *RawInner `xml:"infMDFeSupl,omitempty"`
	Signature *RawInner `xml:"http://www.w3.org/2000/09/xmldsig# Signature,omitempty"`
}

// RawInner guarda o conteúdo de um elemento sem interpretá-lo (QR code, assinatura).
type RawInner struct {
	Inner string `xml:",innerxml"`
}

type Info struct {
	Version         string           `xml:"versao,attr"`
	ID              string           `xml:"Id,attr"`
	Ide             Ide              `xml:"ide"`
	Emit            Emit             `xml:"emit"`
	Modal           ModalInfo        `xml:"infModal"`
	Docs            DocInfo          `xml:"infDoc"`
	Insurance       []Insurance      `xml:"seg,omitempty"`
	Product         *Product         `xml:"prodPred,omitempty"`
	Totals          Totals           `xml:"tot"`
	Seals           []Seal           `xml:"lacres,omitempty"`
	AuthorizedXML   []AuthorizedXML  `xml:"autXML,omitempty"`
	Additional      *Additional      `xml:"infAdic,omitempty"`
	TechResponsible *TechResponsible `xml:"infRespTec,omitempty"`
}

// ── ide ───────────────────────────────────────────────────────────────────────

type Ide struct {
	UFCode          int         `xml:"cUF"`
	Environment     int         `xml:"tpAmb"`
	EmitterType     int         `xml:"tpEmit"`
	TransporterType int         `xml:"tpTransp,omitempty"`
	Model           string      `xml:"mod"`
	Series          int         `xml:"serie"`
	Number          int64       `xml:"nMDF"`
	NumericCode     string      `xml:"cMDF"`
	CheckDigit      string      `xml:"cDV"`
	Modal           int         `xml:"modal"`
	IssuedAt        string      `xml:"dhEmi"`
	EmissionType    int         `xml:"tpEmis"`
	ProcessType     int         `xml:"procEmi"`
	ProcessVersion  string      `xml:"verProc"`
	OriginUF        string      `xml:"UFIni"`
	DestinationUF   string      `xml:"UFFim"`
	LoadCities      []LoadCity  `xml:"infMunCarrega"`
	Route           []RouteLeg  `xml:"infPercurso,omitempty"`
	TripStart       string      `xml:"dhIniViagem,omitempty"`
	GreenChannel    string      `xml:"indCanalVerde,omitempty"`
	DeferredLoading string      `xml:"indCarregaPosterior,omitempty"`
}

type LoadCity struct {
	Code string `xml:"cMunCarrega"`
	Name string `xml:"xMunCarrega"`
}

type RouteLeg struct {
	UF string `xml:"UFPer"`
}

// ── emit ──────────────────────────────────────────────────────────────────────

type Emit struct {
	CNPJ      string  `xml:"CNPJ,omitempty"`
	CPF       string  `xml:"CPF,omitempty"`
	IE        string  `xml:"IE"`
	Name      string  `xml:"xNome"`
	TradeName string  `xml:"xFant,omitempty"`
	Address   Address `xml:"enderEmit"`
}

type Address struct {
	Street     string `xml:"xLgr"`
	Number     string `xml:"nro"`
	Complement string `xml:"xCpl,omitempty"`
	District   string `xml:"xBairro"`
	CityCode   string `xml:"cMun"`
	CityName   string `xml:"xMun"`
	ZIP        string `xml:"CEP,omitempty"`
	UF         string `xml:"UF"`
	Phone      string `xml:"fone,omitempty"`
	Email      string `xml:"email,omitempty"`
}

// ── infModal / rodo ───────────────────────────────────────────────────────────

type ModalInfo struct {
	Version string `xml:"versaoModal,attr"`
	Road    *Road  `xml:"rodo,omitempty"`
}

type Road struct {
	ANTT     *ANTT      `xml:"infANTT,omitempty"`
	Traction Traction   `xml:"veicTracao"`
	Trailers []Trailer  `xml:"veicReboque,omitempty"`
	Seals    []RoadSeal `xml:"lacRodo,omitempty"`
}

type ANTT struct {
	RNTRC       string       `xml:"RNTRC,omitempty"`
	CIOT        []CIOT       `xml:"infCIOT,omitempty"`
	Toll        *Toll        `xml:"valePed,omitempty"`
	Contractors []Contractor `xml:"infContratante,omitempty"`
	Payments    []Payment    `xml:"infPag,omitempty"`
}

type CIOT struct {
	Code string `xml:"CIOT"`
	CPF  string `xml:"CPF,omitempty"`
	CNPJ string `xml:"CNPJ,omitempty"`
}

type Toll struct {
	Items []TollItem `xml:"disp"`
}

type TollItem struct {
	SupplierCNPJ   string `xml:"CNPJForn"`
	PayerCNPJ      string `xml:"CNPJPg,omitempty"`
	PayerCPF       string `xml:"CPFPg,omitempty"`
	PurchaseNumber string `xml:"nCompra"`
	Value          string `xml:"vValePed"`
}

type Contractor struct {
	Name string `xml:"xNome,omitempty"`
	CPF  string `xml:"CPF,omitempty"`
	CNPJ string `xml:"CNPJ,omitempty"`
}

type Payment struct {
	Name       string             `xml:"xNome,omitempty"`
	CPF        string             `xml:"CPF,omitempty"`
	CNPJ       string             `xml:"CNPJ,omitempty"`
	Components []PaymentComponent `xml:"Comp"`
	Total      string             `xml:"vContrato"`
	Indicator  int                `xml:"indPag"`
	Advance    string             `xml:"vAdiant,omitempty"`
	Bank       PaymentBank        `xml:"infBanc"`
}

type PaymentComponent struct {
	Type  string `xml:"tpComp"`
	Value string `xml:"vComp"`
}

type PaymentBank struct {
	CNPJIPEF string `xml:"CNPJIPEF,omitempty"`
	PIX      string `xml:"PIX,omitempty"`
}

type Traction struct {
	InternalCode string   `xml:"cInt,omitempty"`
	Plate        string   `xml:"placa"`
	Renavam      string   `xml:"RENAVAM,omitempty"`
	Tare         int      `xml:"tara"`
	CapacityKG   int      `xml:"capKG,omitempty"`
	CapacityM3   int      `xml:"capM3,omitempty"`
	Owner        *Owner   `xml:"prop,omitempty"`
	Drivers      []Driver `xml:"condutor"`
	WheelType    string   `xml:"tpRod"`
	BodyType     string   `xml:"tpCar"`
	UF           string   `xml:"UF,omitempty"`
}

type Trailer struct {
	InternalCode string `xml:"cInt,omitempty"`
	Plate        string `xml:"placa"`
	Renavam      string `xml:"RENAVAM,omitempty"`
	Tare         int    `xml:"tara"`
	CapacityKG   int    `xml:"capKG"`
	CapacityM3   int    `xml:"capM3,omitempty"`
	Owner        *Owner `xml:"prop,omitempty"`
	BodyType     string `xml:"tpCar"`
	UF           string `xml:"UF,omitempty"`
}

type Owner struct {
	CPF   string `xml:"CPF,omitempty"`
	CNPJ  string `xml:"CNPJ,omitempty"`
	RNTRC string `xml:"RNTRC"`
	Name  string `xml:"xNome"`
	IE    string `xml:"IE"`
	UF    string `xml:"UF"`
	Type  int    `xml:"tpProp"`
}

type Driver struct {
	Name string `xml:"xNome"`
	CPF  string `xml:"CPF"`
}

type RoadSeal struct {
	Number string `xml:"nLacre"`
}

// ── infDoc ────────────────────────────────────────────────────────────────────

type DocInfo struct {
	UnloadCities []UnloadCity `xml:"infMunDescarga"`
}

type UnloadCity struct {
	Code string   `xml:"cMunDescarga"`
	Name string   `xml:"xMunDescarga"`
	CTe  []DocRef `xml:"infCTe,omitempty"`
	NFe  []DocRef `xml:"infNFe,omitempty"`
}

// DocRef referência a um CT-e ou NF-e. O nome do elemento da chave muda com o
// modelo, por isso a serialização é manual.
type DocRef struct {
	Model         DocumentType
	Key           string
	SecondBarcode string
	Reentry       bool
}

func (r DocRef) keyElement() string {
	if r.Model == DocumentCTe {
		return "chCTe"
	}
	return "chNFe"
}

func (r DocRef) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.EncodeElement(r.Key, xml.StartElement{Name: xml.Name{Local: r.keyElement()}}); err != nil {
		return err
	}
	if r.SecondBarcode != "" {
		if err := e.EncodeElement(r.SecondBarcode, xml.StartElement{Name: xml.Name{Local: "SegCodBarra"}}); err != nil {
			return err
		}
	}
	if r.Reentry {
		if err := e.EncodeElement("1", xml.StartElement{Name: xml.Name{Local: "indReentrega"}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

func (r *DocRef) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		CTe           string `xml:"chCTe"`
		NFe           string `xml:"chNFe"`
		SecondBarcode string `xml:"SegCodBarra"`
		Reentry       string `xml:"indReentrega"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	switch {
	case raw.CTe != "":
		r.Model, r.Key = DocumentCTe, raw.CTe
	case raw.NFe != "":
		r.Model, r.Key = DocumentNFe, raw.NFe
	default:
		return fmt.Errorf("mdfe: %s sem chave de acesso", start.Name.Local)
	}
	r.SecondBarcode = raw.SecondBarcode
	r.Reentry = raw.Reentry == "1"
	return nil
}

// ── seg / prodPred / tot / lacres / autXML / infAdic / infRespTec ─────────────

type Insurance struct {
	Responsible  InsuranceResponsible `xml:"infResp"`
	Insurer      *Insurer             `xml:"infSeg,omitempty"`
	Policy       string               `xml:"nApol,omitempty"`
	Endorsements []string             `xml:"nAver,omitempty"`
}

type InsuranceResponsible struct {
	Type int    `xml:"respSeg"`
	CNPJ string `xml:"CNPJ,omitempty"`
	CPF  string `xml:"CPF,omitempty"`
}

type Insurer struct {
	Name string `xml:"xSeg"`
	CNPJ string `xml:"CNPJ"`
}

type Product struct {
	CargoType string `xml:"tpCarga"`
	Name      string `xml:"xProd"`
	EAN       string `xml:"cEAN,omitempty"`
	NCM       string `xml:"NCM,omitempty"`
}

type Totals struct {
	QtyCTe   int    `xml:"qCTe,omitempty"`
	QtyNFe   int    `xml:"qNFe,omitempty"`
	QtyMDFe  int    `xml:"qMDFe,omitempty"`
	Value    string `xml:"vCarga"`
	Unit     string `xml:"cUnid"`
	Quantity string `xml:"qCarga"`
}

type Seal struct {
	Number string `xml:"nLacre"`
}

type AuthorizedXML struct {
	CNPJ string `xml:"CNPJ,omitempty"`
	CPF  string `xml:"CPF,omitempty"`
}

type Additional struct {
	Fisco         string `xml:"infAdFisco,omitempty"`
	Complementary string `xml:"infCpl,omitempty"`
}

type TechResponsible struct {
	CNPJ    string `xml:"CNPJ"`
	Contact string `xml:"xContato"`
	Email   string `xml:"email"`
	Phone   string `xml:"fone"`
}

// ── Acessores ─────────────────────────────────────────────────────────────────

// AccessKey chave de 44 dígitos derivada do atributo Id ("MDFe" + chave).
func (d *Document) AccessKey() string {
	return strings.TrimPrefix(d.Info.ID, "MDFe")
}

// Trailers atalho para os reboques do modal rodoviário (nil se não houver).
func (d *Document) Trailers() []Trailer {
	if d.Info.Modal.Road == nil {
		return nil
	}
	return d.Info.Modal.Road.Trailers
}

// Marshal serializa o documento sem declaração XML.
func (d *Document) Marshal() ([]byte, error) {
	if d.Xmlns == "" {
		d.Xmlns = pkgmdfe.Namespace
	}
	out, err := xml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("mdfe: serializar documento: %w", err)
	}
	return out, nil
}
