// Package report exporta o histórico de manifestos em planilha XLSX.
package report

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
)

// SheetName nome da aba gerada.
const SheetName = "Manifestos"

var headers = []interface{}{
	"Número", "Série", "Emissão", "Chave de acesso", "Situação", "UF carreg.", "UF descarreg.",
	"Qtd. NF-e", "Qtd. CT-e", "Valor da carga", "Peso", "Protocolo",
}

// columnWidths larguras de A..L, na ordem de headers.
var columnWidths = []float64{10, 6, 18, 48, 12, 10, 12, 9, 9, 16, 14, 18}

// ExcelReportWriter implementa manifest.ReportWriter com excelize.
type ExcelReportWriter struct{}

var _ manifest.ReportWriter = (*ExcelReportWriter)(nil)

func NewExcelReportWriter() *ExcelReportWriter { return &ExcelReportWriter{} }

// WriteManifests gera a planilha: cabeçalho em negrito, uma linha por manifesto
// e uma linha final de totais.
func (w *ExcelReportWriter) WriteManifests(ctx context.Context, company *entity.Company, items []*entity.Manifest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("report: renomear aba: %w", err)
	}

	title := "Manifestos"
	if company != nil {
		title = fmt.Sprintf("Manifestos - %s (%s)", company.Name, company.CNPJ)
	}
	if err := f.SetCellValue(SheetName, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(SheetName, "A2", &headers); err != nil {
		return nil, fmt.Errorf("report: cabeçalho: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#00467F"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetCellStyle(SheetName, "A2", lastCol+"2", bold); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	r := 3
	var qtyNFe, qtyCTe int
	var total float64
	for _, m := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		issued := ""
		if !m.IssueDate.IsZero() {
			issued = m.IssueDate.Format("02/01/2006 15:04")
		}
		row := []interface{}{
			m.Number, m.Series, issued, m.AccessKey, m.Status.String(), m.OriginUF, m.DestinationUF,
			m.QtyNFe, m.QtyCTe, m.TotalValue.InexactFloat64(), m.TotalWeight.InexactFloat64(),
			m.AuthorizationProtocol,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("report: linha %d: %w", r, err)
		}
		qtyNFe += m.QtyNFe
		qtyCTe += m.QtyCTe
		total += m.TotalValue.InexactFloat64()
		r++
	}

	totals := []interface{}{"TOTAL", nil, nil, nil, nil, nil, nil, qtyNFe, qtyCTe, total}
	cell, _ := excelize.CoordinatesToCellName(1, r)
	if err := f.SetSheetRow(SheetName, cell, &totals); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "J3", fmt.Sprintf("J%d", r), money); err != nil {
		return nil, err
	}

	for i, wd := range columnWidths {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, name, name, wd); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: gravar planilha: %w", err)
	}
	return buf.Bytes(), nil
}
