package mdfe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText remove espaços nas pontas e espaços duplicados; a SEFAZ rejeita
// campos com espaço inicial/final ou repetido (regra de validação do schema).
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName aplica NormalizeText, remove acentos e converte para maiúsculas.
// Usado em nomes de município, que chegam de XMLs de NF-e/CT-e com grafias diferentes.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(NormalizeText(out))
}
