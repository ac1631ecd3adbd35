// Package pdf gera o DAMDFE (Documento Auxiliar do MDF-e), a representação
// impressa que acompanha o veículo durante a viagem.
//
// Layout da página A4 (retrato):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  EMITENTE: Razão social, CNPJ, IE, RNTRC, endereço          │
//	│  DAMDFE  │ código de barras da chave │ QR Code              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Modelo | Série | Número | Emissão | UF carreg. | UF desc.  │
//	│  Qtd. CT-e | Qtd. NF-e | Peso total | Valor da carga        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VEÍCULOS: placa / RNTRC     │  CONDUTORES: CPF / nome      │
//	│  VALE-PEDÁGIO                                                │
//	│  DOCUMENTOS por município de descarregamento                 │
//	│  OBSERVAÇÕES                                                 │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// qrCodeURL consulta pública do MDF-e (mesmo endereço em todas as UFs).
const qrCodeURL = "https://dfe-portal.svrs.rs.gov.br/mdfe/qrCode"

// ── Paleta ────────────────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 190, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoDAMDFEGenerator implementa manifest.DAMDFEGenerator usando Maroto v2.
type MarotoDAMDFEGenerator struct{}

var _ manifest.DAMDFEGenerator = (*MarotoDAMDFEGenerator)(nil)

// NewMarotoDAMDFEGenerator constrói o gerador.
func NewMarotoDAMDFEGenerator() *MarotoDAMDFEGenerator { return &MarotoDAMDFEGenerator{} }

// GenerateDAMDFE gera o PDF e devolve seus bytes. Quem chama garante que o
// manifesto foi autorizado (tem chave e protocolo).
func (g *MarotoDAMDFEGenerator) GenerateDAMDFE(_ context.Context, company *entity.Company, m *entity.Manifest) ([]byte, error) {
	if m.AccessKey == "" {
		return nil, fmt.Errorf("pdf: manifesto %s sem chave de acesso", m.ID)
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle("DAMDFE "+m.AccessKey, true).
		WithAuthor(company.Name, true).
		Build()

	mr := maroto.New(cfg)

	mr.AddRows(issuerRow(company))
	mr.AddRows(barcodeRow(m))
	if w := watermark(m); w != "" {
		mr.AddRows(row.New(8).Add(col.New(12).Add(text.New(w, props.Text{
			Style: fontstyle.Bold, Size: 12, Align: align.Center, Color: colorAlert, Top: 1,
		}))))
	}
	mr.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	mr.AddRows(identificationRow(m))
	mr.AddRows(totalsRow(m))
	mr.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	mr.AddRows(vehiclesAndDriversRows(company, m)...)
	if len(m.Tolls) > 0 {
		mr.AddRows(tollRows(m.Tolls)...)
	}
	mr.AddRows(documentRows(m)...)
	mr.AddRows(observationRows(m)...)

	doc, err := mr.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: gerar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Seções ────────────────────────────────────────────────────────────────────

func issuerRow(c *entity.Company) core.Row {
	address := strings.Join(nonEmptyParts(c.Street, c.Number, c.District), ", ")
	return row.New(20).Add(
		col.New(12).Add(
			text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("CNPJ: %s   IE: %s   RNTRC: %s",
				formatCNPJ(c.CNPJ), nonEmpty(c.IE, "ISENTO"), nonEmpty(c.RNTRC, "-")),
				props.Text{Size: 8, Top: 8, Color: colorGray}),
			text.New(fmt.Sprintf("%s - %s/%s   CEP: %s",
				nonEmpty(address, "-"), c.CityName, c.UF, nonEmpty(c.ZIP, "-")),
				props.Text{Size: 8, Top: 13, Color: colorGray}),
		),
	)
}

func barcodeRow(m *entity.Manifest) core.Row {
	return row.New(34).Add(
		col.New(3).Add(
			text.New("DAMDFE", props.Text{Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 2}),
			text.New("Documento Auxiliar de Manifesto\nEletrônico de Documentos Fiscais", props.Text{
				Size: 7, Top: 10, Color: colorGray,
			}),
			text.New("Modal "+modalName(m.Modal), props.Text{Style: fontstyle.Bold, Size: 8, Top: 22}),
		),
		col.New(6).Add(
			code.NewBar(m.AccessKey, props.Barcode{Percent: 90, Center: false, Top: 2}),
			text.New("CHAVE DE ACESSO", props.Text{Style: fontstyle.Bold, Size: 7, Top: 20, Align: align.Center}),
			text.New(formatKey(m.AccessKey), props.Text{Size: 8, Top: 24, Align: align.Center}),
			text.New("Protocolo: "+m.AuthorizationProtocol, props.Text{Size: 8, Top: 29, Align: align.Center}),
		),
		col.New(3).Add(code.NewQr(qrCodeContent(m), props.Rect{Percent: 95, Center: true})),
	)
}

func identificationRow(m *entity.Manifest) core.Row {
	cell := func(label, value string, size int) core.Col {
		return col.New(size).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1}),
			text.New(value, props.Text{Size: 9, Top: 5}),
		)
	}
	return row.New(12).Add(
		cell("Modelo", pkgmdfe.ModelMDFe, 1),
		cell("Série", fmt.Sprintf("%03d", m.Series), 1),
		cell("Número", fmt.Sprintf("%09d", m.Number), 2),
		cell("FL", "1/1", 1),
		cell("Data e hora de emissão", m.IssueDate.Format("02/01/2006 15:04:05"), 3),
		cell("UF carreg.", m.OriginUF, 2),
		cell("UF descarreg.", m.DestinationUF, 2),
	)
}

func totalsRow(m *entity.Manifest) core.Row {
	cell := func(label, value string, size int) core.Col {
		return col.New(size).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1}),
			text.New(value, props.Text{Size: 9, Top: 5}),
		)
	}
	unit := "KG"
	if m.CargoUnit == pkgmdfe.CargoUnitTON {
		unit = "TON"
	}
	return row.New(12).Add(
		cell("Qtd. CT-e", fmt.Sprint(m.QtyCTe), 2),
		cell("Qtd. NF-e", fmt.Sprint(m.QtyNFe), 2),
		cell("Peso total ("+unit+")", formatBRL(m.TotalWeight, 4), 4),
		cell("Valor total da carga", "R$ "+formatBRL(m.TotalValue, 2), 4),
	)
}

func vehiclesAndDriversRows(c *entity.Company, m *entity.Manifest) []core.Row {
	rows := []core.Row{row.New(6).Add(
		col.New(6).Add(sectionTitle("VEÍCULOS")),
		col.New(6).Add(sectionTitle("CONDUTORES")),
	)}

	n := len(m.Vehicles)
	if len(m.Drivers) > n {
		n = len(m.Drivers)
	}
	for i := 0; i < n; i++ {
		left, right := col.New(6), col.New(6)
		if i < len(m.Vehicles) {
			v := m.Vehicles[i]
			rntrc := c.RNTRC
			if v.Owner != nil && v.Owner.RNTRC != "" {
				rntrc = v.Owner.RNTRC
			}
			left = col.New(6).Add(text.New(
				fmt.Sprintf("%s  %s  RNTRC %s", v.Plate, roleName(v.Role), nonEmpty(rntrc, "-")),
				props.Text{Size: 8, Top: 1}))
		}
		if i < len(m.Drivers) {
			d := m.Drivers[i]
			right = col.New(6).Add(text.New(
				fmt.Sprintf("%s  %s", formatCPF(d.CPF), d.Name),
				props.Text{Size: 8, Top: 1}))
		}
		rows = append(rows, row.New(5).Add(left, right))
	}
	return rows
}

func tollRows(tolls []entity.Toll) []core.Row {
	rows := []core.Row{row.New(6).Add(col.New(12).Add(sectionTitle("VALE-PEDÁGIO")))}
	for _, t := range tolls {
		rows = append(rows, row.New(5).Add(
			col.New(4).Add(text.New("Fornecedor "+formatCNPJ(t.SupplierCNPJ), props.Text{Size: 8, Top: 1})),
			col.New(4).Add(text.New("Comprovante "+t.PurchaseNumber, props.Text{Size: 8, Top: 1})),
			col.New(4).Add(text.New("R$ "+formatBRL(t.Value, 2), props.Text{Size: 8, Top: 1, Align: align.Right})),
		))
	}
	return rows
}

func documentRows(m *entity.Manifest) []core.Row {
	rows := []core.Row{row.New(6).Add(col.New(12).Add(sectionTitle("DOCUMENTOS VINCULADOS")))}
	for _, uc := range m.UnloadCities {
		rows = append(rows, row.New(5).Add(col.New(12).Add(text.New(
			fmt.Sprintf("Descarregamento em %s (%s)", uc.Name, uc.Code),
			props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}))))
		for _, d := range uc.Documents {
			label := "NF-e"
			if d.Type == 57 {
				label = "CT-e"
			}
			rows = append(rows, row.New(4).Add(col.New(12).Add(text.New(
				label+"  "+formatKey(d.AccessKey),
				props.Text{Size: 7, Top: 0.5, Left: 4, Color: colorGray}))))
		}
	}
	return rows
}

func observationRows(m *entity.Manifest) []core.Row {
	var rows []core.Row
	if m.AdditionalInfo != "" || m.TaxInfo != "" {
		rows = append(rows, row.New(6).Add(col.New(12).Add(sectionTitle("OBSERVAÇÕES"))))
		for _, s := range nonEmptyParts(m.TaxInfo, m.AdditionalInfo) {
			rows = append(rows, row.New(8).Add(col.New(12).Add(text.New(s, props.Text{Size: 7, Top: 1}))))
		}
	}
	if m.Environment == 2 {
		rows = append(rows, row.New(8).Add(col.New(12).Add(text.New(
			"EMITIDO EM AMBIENTE DE HOMOLOGAÇÃO - SEM VALOR FISCAL",
			props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Center, Color: colorAlert, Top: 2}))))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func sectionTitle(s string) core.Component {
	return text.New(s, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1})
}

func watermark(m *entity.Manifest) string {
	switch m.Status {
	case entity.StatusClosed:
		return "MDF-e ENCERRADO - protocolo " + m.ClosureProtocol
	case entity.StatusCancelled:
		return "MDF-e CANCELADO"
	}
	return ""
}

func qrCodeContent(m *entity.Manifest) string {
	return fmt.Sprintf("%s?chMDFe=%s&tpAmb=%d", qrCodeURL, m.AccessKey, m.Environment)
}

func modalName(modal int) string {
	switch modal {
	case 1:
		return "Rodoviário"
	case 2:
		return "Aéreo"
	case 3:
		return "Aquaviário"
	case 4:
		return "Ferroviário"
	}
	return "-"
}

func roleName(r entity.VehicleRole) string {
	if r == entity.VehicleTrailer {
		return "reboque"
	}
	return "tração"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func nonEmptyParts(parts ...string) []string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// formatKey chave em grupos de 4 dígitos.
func formatKey(key string) string {
	return strings.Join(splitEvery(key, 4), " ")
}

func formatCNPJ(s string) string {
	if len(s) != 14 {
		return s
	}
	return s[:2] + "." + s[2:5] + "." + s[5:8] + "/" + s[8:12] + "-" + s[12:]
}

func formatCPF(s string) string {
	if len(s) != 11 {
		return s
	}
	return s[:3] + "." + s[3:6] + "." + s[6:9] + "-" + s[9:]
}

// formatBRL ponto nos milhares e vírgula decimal. Ex.: 1500.5 → "1.500,50".
func formatBRL(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf)
	if frac != "" {
		out += "," + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// splitEvery divide s em pedaços de no máximo n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
