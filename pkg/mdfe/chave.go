package mdfe

import (
	"fmt"
	"strconv"
	"time"
)

// Modelos de documento fiscal que aparecem na chave de acesso.
const (
	ModelNFe  = "55"
	ModelCTe  = "57"
	ModelMDFe = "58"
)

// AccessKeyParams campos que compõem a chave de acesso de 44 dígitos, na ordem do leiaute.
type AccessKeyParams struct {
	UFCode       int       // código IBGE da UF do emitente
	IssueDate    time.Time // usa AAMM
	CNPJ         string
	Model        string // "58" para MDF-e
	Series       int
	Number       int64
	EmissionType int // tpEmis
	NumericCode  int // cMDF, 8 dígitos
}

// BuildAccessKey monta a chave: cUF(2) AAMM(4) CNPJ(14) mod(2) serie(3) nMDF(9) tpEmis(1) cMDF(8) cDV(1).
func BuildAccessKey(p AccessKeyParams) (string, error) {
	cnpj := OnlyDigits(p.CNPJ)
	if len(cnpj) != 14 {
		return "", fmt.Errorf("mdfe: CNPJ do emitente deve ter 14 dígitos")
	}
	if p.UFCode < 11 || p.UFCode > 53 {
		return "", fmt.Errorf("mdfe: código de UF %d inválido", p.UFCode)
	}
	if p.Series < 0 || p.Series > 999 {
		return "", fmt.Errorf("mdfe: série %d fora da faixa 0-999", p.Series)
	}
	if p.Number < 1 || p.Number > 999999999 {
		return "", fmt.Errorf("mdfe: número %d fora da faixa 1-999999999", p.Number)
	}
	if p.NumericCode < 0 || p.NumericCode > 99999999 {
		return "", fmt.Errorf("mdfe: código numérico %d inválido", p.NumericCode)
	}
	model := p.Model
	if model == "" {
		model = ModelMDFe
	}
	base := fmt.Sprintf("%02d%s%s%s%03d%09d%d%08d",
		p.UFCode, p.IssueDate.Format("0601"), cnpj, model,
		p.Series, p.Number, p.EmissionType, p.NumericCode)
	if len(base) != 43 {
		return "", fmt.Errorf("mdfe: base da chave com %d dígitos (esperado 43)", len(base))
	}
	return base + string(AccessKeyCheckDigit(base)), nil
}

// AccessKeyCheckDigit calcula o DV (módulo 11, pesos 2..9 da direita para a esquerda).
func AccessKeyCheckDigit(base string) byte {
	sum, weight := 0, 2
	for i := len(base) - 1; i >= 0; i-- {
		sum += int(base[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	return mod11Digit(sum)
}

// ValidateAccessKey confere tamanho, dígitos e DV de uma chave de NF-e, CT-e ou MDF-e.
func ValidateAccessKey(key string) error {
	if len(key) != 44 || OnlyDigits(key) != key {
		return fmt.Errorf("mdfe: chave de acesso deve ter 44 dígitos numéricos")
	}
	if key[43] != AccessKeyCheckDigit(key[:43]) {
		return fmt.Errorf("mdfe: dígito verificador da chave %s inválido", key)
	}
	return nil
}

// ModelFromAccessKey devolve o modelo (posições 21-22) de uma chave já validada.
func ModelFromAccessKey(key string) string {
	if len(key) != 44 {
		return ""
	}
	return key[20:22]
}

// IssueMonthFromAccessKey primeiro dia do mês de emissão (AAMM, posições 3-6).
func IssueMonthFromAccessKey(key string) (time.Time, bool) {
	if len(key) != 44 || OnlyDigits(key[2:6]) != key[2:6] {
		return time.Time{}, false
	}
	yy, _ := strconv.Atoi(key[2:4])
	mm, _ := strconv.Atoi(key[4:6])
	if mm < 1 || mm > 12 {
		return time.Time{}, false
	}
	return time.Date(2000+yy, time.Month(mm), 1, 0, 0, 0, 0, time.UTC), true
}
