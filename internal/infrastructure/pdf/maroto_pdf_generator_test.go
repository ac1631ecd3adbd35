package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
)

func sampleManifest() (*entity.Company, *entity.Manifest) {
	c := &entity.Company{
		ID: "emp-1", CNPJ: "11222333000181", IE: "123456789", Name: "Transportes Cerrado Ltda",
		RNTRC: "12345678", Street: "Rua 1", Number: "100", District: "Centro",
		CityName: "Goiânia", UF: "GO", ZIP: "74000000",
	}
	m := &entity.Manifest{
		ID: "man-1", CompanyID: "emp-1", Environment: 2, Number: 42, Series: 1,
		IssueDate: time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC),
		AccessKey: "52260311222333000181580010000000421123456780",
		Modal:     1, OriginUF: "GO", DestinationUF: "SP",
		CargoUnit: "01", TotalValue: decimal.RequireFromString("1500.50"),
		TotalWeight: decimal.RequireFromString("1000.125"), QtyNFe: 1,
		Status: entity.StatusAuthorized, AuthorizationProtocol: "952260000000001",
		Vehicles: []entity.ManifestVehicle{{Role: entity.VehicleTraction, VehicleData: entity.VehicleData{Plate: "ABC1D23"}}},
		Drivers:  []entity.ManifestDriver{{Name: "João da Silva", CPF: "52998224725"}},
		UnloadCities: []entity.UnloadCity{{
			City:      entity.City{Code: "3550308", Name: "SAO PAULO"},
			Documents: []entity.CargoDocumentRef{{Type: 55, AccessKey: "52260311222333000181550010000000011000000019"}},
		}},
		AdditionalInfo: "Carga paletizada",
	}
	return c, m
}

// ─── GenerateDAMDFE ──────────────────────────────────────────────────────────

func TestGenerateDAMDFE_GeraPDF(t *testing.T) {
	c, m := sampleManifest()
	out, err := NewMarotoDAMDFEGenerator().GenerateDAMDFE(context.Background(), c, m)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "saída deve ser um PDF")
}

func TestGenerateDAMDFE_Encerrado(t *testing.T) {
	c, m := sampleManifest()
	m.Status = entity.StatusClosed
	m.ClosureProtocol = "952260000000002"
	m.Tolls = []entity.Toll{{SupplierCNPJ: "11222333000181", PurchaseNumber: "778", Value: decimal.NewFromInt(35)}}

	out, err := NewMarotoDAMDFEGenerator().GenerateDAMDFE(context.Background(), c, m)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Contains(t, watermark(m), "ENCERRADO")
}

func TestGenerateDAMDFE_SemChave(t *testing.T) {
	c, m := sampleManifest()
	m.AccessKey = ""
	_, err := NewMarotoDAMDFEGenerator().GenerateDAMDFE(context.Background(), c, m)
	assert.Error(t, err)
}

// ─── formatação ──────────────────────────────────────────────────────────────

func TestFormatBRL(t *testing.T) {
	cases := map[string]string{
		"0":          "0,00",
		"1500.5":     "1.500,50",
		"1234567.89": "1.234.567,89",
		"-999.1":     "-999,10",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatBRL(decimal.RequireFromString(in), 2), in)
	}
	assert.Equal(t, "1.000,1250", formatBRL(decimal.RequireFromString("1000.125"), 4))
}

func TestFormatadores(t *testing.T) {
	assert.Equal(t, "5226 0311 2223 3300 0181 5800 1000 0000 4211 2345 6780",
		formatKey("52260311222333000181580010000000421123456780"))
	assert.Equal(t, "11.222.333/0001-81", formatCNPJ("11222333000181"))
	assert.Equal(t, "529.982.247-25", formatCPF("52998224725"))
	assert.Equal(t, "123", formatCPF("123"))
	assert.Equal(t, []string{"ab", "cd", "e"}, splitEvery("abcde", 2))
	assert.Equal(t, "https://dfe-portal.svrs.rs.gov.br/mdfe/qrCode?chMDFe=K&tpAmb=2",
		qrCodeContent(&entity.Manifest{AccessKey: "K", Environment: 2}))
}
