package mdfe

import (
	"fmt"
	"unicode"
)

// pesos do módulo 11 da Receita Federal para os dois dígitos verificadores do CNPJ.
var (
	cnpjWeights1 = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeights2 = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// OnlyDigits remove tudo que não for dígito ("123.456.789-09" -> "12345678909").
func OnlyDigits(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// ValidateCPF valida tamanho e dígitos verificadores de um CPF (com ou sem máscara).
func ValidateCPF(cpf string) error {
	d := OnlyDigits(cpf)
	if len(d) != 11 {
		return fmt.Errorf("mdfe: CPF deve ter 11 dígitos, recebidos %d", len(d))
	}
	if allSame(d) {
		return fmt.Errorf("mdfe: CPF %s inválido", d)
	}
	for pos := 9; pos <= 10; pos++ {
		sum := 0
		for i := 0; i < pos; i++ {
			sum += int(d[i]-'0') * (pos + 1 - i)
		}
		if d[pos] != mod11Digit(sum) {
			return fmt.Errorf("mdfe: dígito verificador do CPF inválido")
		}
	}
	return nil
}

// ValidateCNPJ valida tamanho e dígitos verificadores de um CNPJ (com ou sem máscara).
func ValidateCNPJ(cnpj string) error {
	d := OnlyDigits(cnpj)
	if len(d) != 14 {
		return fmt.Errorf("mdfe: CNPJ deve ter 14 dígitos, recebidos %d", len(d))
	}
	if allSame(d) {
		return fmt.Errorf("mdfe: CNPJ %s inválido", d)
	}
	var sum int
	for i, w := range cnpjWeights1 {
		sum += int(d[i]-'0') * w
	}
	if d[12] != mod11Digit(sum) {
		return fmt.Errorf("mdfe: primeiro dígito verificador do CNPJ inválido")
	}
	sum = 0
	for i, w := range cnpjWeights2 {
		sum += int(d[i]-'0') * w
	}
	if d[13] != mod11Digit(sum) {
		return fmt.Errorf("mdfe: segundo dígito verificador do CNPJ inválido")
	}
	return nil
}

// ValidateCPFOrCNPJ decide pelo tamanho qual validação aplicar.
func ValidateCPFOrCNPJ(doc string) error {
	switch len(OnlyDigits(doc)) {
	case 11:
		return ValidateCPF(doc)
	case 14:
		return ValidateCNPJ(doc)
	default:
		return fmt.Errorf("mdfe: documento %q não é CPF nem CNPJ", doc)
	}
}

func mod11Digit(sum int) byte {
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return byte('0' + 11 - r)
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
