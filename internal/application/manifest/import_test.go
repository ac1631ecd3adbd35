package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
)

// NF-e declarada em ISO-8859-1; os bytes são convertidos em latin1NFe.
const nfeLatin1 = `<?xml version="1.0" encoding="ISO-8859-1"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
<NFe><infNFe Id="NFe` + nfeKey1 + `" versao="4.00">
<ide><mod>55</mod></ide>
<emit><xNome>Distribuidora Goiânia Ltda</xNome>
<enderEmit><cMun>5208707</cMun><xMun>Goiânia</xMun><UF>GO</UF></enderEmit></emit>
<dest><enderDest><cMun>3550308</cMun><xMun>São Paulo</xMun><UF>SP</UF></enderDest></dest>
<det nItem="1"><prod><xProd>Arroz  tipo 1</xProd></prod></det>
<total><ICMSTot><vNF>1500.50</vNF></ICMSTot></total>
<transp><vol><pesoB>600.125</pesoB></vol><vol><pesoB>400</pesoB></vol></transp>
</infNFe></NFe></nfeProc>`

const cteUTF8 = `<?xml version="1.0" encoding="UTF-8"?>
<cteProc xmlns="http://www.portalfiscal.inf.br/cte" versao="4.00">
<CTe><infCte Id="CTe` + cteKey3 + `" versao="4.00">
<ide><cMunIni>5208707</cMunIni><xMunIni>Goiânia</xMunIni><UFIni>GO</UFIni>
<cMunFim>3304557</cMunFim><xMunFim>Rio de Janeiro</xMunFim><UFFim>RJ</UFFim></ide>
<emit><xNome>Transportes Teste</xNome></emit>
<infCTeNorm><infCarga><vCarga>2000.00</vCarga><proPred>Soja</proPred>
<infQ><cUnid>01</cUnid><tpMed>PESO BRUTO</tpMed><qCarga>1500.0000</qCarga></infQ>
<infQ><cUnid>03</cUnid><tpMed>UNIDADE</tpMed><qCarga>10</qCarga></infQ>
</infCarga></infCTeNorm>
</infCte></CTe></cteProc>`

func latin1NFe(t *testing.T) []byte {
	t.Helper()
	out, err := charmap.ISO8859_1.NewEncoder().String(nfeLatin1)
	require.NoError(t, err)
	return []byte(out)
}

func TestImportCargoDocument_NFeLatin1(t *testing.T) {
	line, err := manifest.ImportCargoDocument(latin1NFe(t))
	require.NoError(t, err)

	assert.Equal(t, 55, line.Type)
	assert.Equal(t, nfeKey1, line.AccessKey)
	assert.Equal(t, "GOIANIA", line.LoadCityName)
	assert.Equal(t, "SAO PAULO", line.UnloadCityName)
	assert.Equal(t, "SP", line.UnloadUF)
	assert.Equal(t, "1500.5", line.Value.String())
	assert.Equal(t, "1000.125", line.Weight.String(), "soma do peso bruto dos volumes")
	assert.Equal(t, "Arroz tipo 1", line.ProductHint)
	assert.Equal(t, "Distribuidora Goiânia Ltda", line.IssuerName)
}

func TestImportCargoDocument_CTeSomaSomentePeso(t *testing.T) {
	line, err := manifest.ImportCargoDocument([]byte(cteUTF8))
	require.NoError(t, err)

	assert.Equal(t, 57, line.Type)
	assert.Equal(t, cteKey3, line.AccessKey)
	assert.Equal(t, "3304557", line.UnloadCityCode)
	assert.Equal(t, "RIO DE JANEIRO", line.UnloadCityName)
	assert.Equal(t, "1500", line.Weight.String(), "quantidade em unidades não entra no peso")
	assert.Equal(t, "2000", line.Value.String())
}

func TestImportCargoDocument_Invalido(t *testing.T) {
	_, err := manifest.ImportCargoDocument([]byte(`<nada/>`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = manifest.ImportCargoDocument([]byte(`não é xml`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad := `<NFe><infNFe Id="NFe52260311222333000181550010000000011000000019"/></NFe>`
	_, err = manifest.ImportCargoDocument([]byte(bad))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "DV da chave errado")
}
