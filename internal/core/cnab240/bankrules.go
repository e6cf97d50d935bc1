package cnab240

import (
	"strings"

	"cnab-service/internal/domain"
)

// FieldPurpose identifica o valor de negócio ao qual um ajuste se aplica.
type FieldPurpose int

const (
	PurposeOurNumber FieldPurpose = iota
)

// Adjustment transforma o valor bruto de um campo antes de expô-lo.
type Adjustment func(value string, file *domain.FileContext) string

// Ajustes por banco, aplicados na ordem da lista.
var bankAdjustments = map[domain.BankCode]map[FieldPurpose][]Adjustment{
	domain.BancoDoBrasil: {
		PurposeOurNumber: {stripAgreementPrefix},
	},
	domain.Santander: {
		PurposeOurNumber: {dropCheckDigit},
	},
}

// Adjust aplica os ajustes do banco para o propósito informado. Bancos sem
// regra devolvem o valor intacto.
func Adjust(bank domain.BankCode, purpose FieldPurpose, value string, file *domain.FileContext) string {
	for _, adjust := range bankAdjustments[bank][purpose] {
		value = adjust(value, file)
	}
	return value
}

// stripAgreementPrefix remove o convênio do início do nosso número.
func stripAgreementPrefix(value string, file *domain.FileContext) string {
	if file == nil || file.AgreementCode() == "" {
		return value
	}
	return strings.TrimPrefix(value, file.AgreementCode())
}

// dropCheckDigit remove o dígito verificador (último caractere).
func dropCheckDigit(value string, _ *domain.FileContext) string {
	runes := []rune(value)
	if len(runes) == 0 {
		return value
	}
	return string(runes[:len(runes)-1])
}
