// package domain/models.go
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BankCode é o código de compensação do banco (3 dígitos).
type BankCode int

// Bancos com regras próprias ou layouts específicos.
const (
	BancoDoBrasil BankCode = 1
	Santander     BankCode = 33
	Caixa         BankCode = 104
	Bradesco      BankCode = 237
	Itau          BankCode = 341
	Sicredi       BankCode = 748
)

func (b BankCode) String() string {
	return fmt.Sprintf("%03d", int(b))
}

// ParseBankCode aceita "1", "001" ou "033".
func ParseBankCode(s string) (BankCode, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 999 {
		return 0, fmt.Errorf("código de banco inválido: %q", s)
	}
	return BankCode(n), nil
}

// PaymentKind define o tipo de pagamento representado por um detalhe.
type PaymentKind int

const (
	Boleto PaymentKind = iota
	WireTransfer
)

func (k PaymentKind) String() string {
	switch k {
	case Boleto:
		return "boleto"
	case WireTransfer:
		return "TED"
	default:
		return fmt.Sprintf("PaymentKind(%d)", int(k))
	}
}

// ParsePaymentKind aceita "boleto" e "TED" (sem diferenciar maiúsculas).
func ParsePaymentKind(s string) (PaymentKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "boleto":
		return Boleto, nil
	case "ted":
		return WireTransfer, nil
	default:
		return 0, fmt.Errorf("tipo de pagamento desconhecido: %q", s)
	}
}

// FileContext reúne os dados do arquivo compartilhados por todos os
// detalhes. É imutável depois de criado.
type FileContext struct {
	bankCode      BankCode
	layoutVersion string
	agreementCode string
}

// NewFileContext cria o contexto do arquivo.
func NewFileContext(bank BankCode, layoutVersion, agreementCode string) *FileContext {
	return &FileContext{
		bankCode:      bank,
		layoutVersion: strings.TrimSpace(layoutVersion),
		agreementCode: strings.TrimSpace(agreementCode),
	}
}

func (f *FileContext) BankCode() BankCode { return f.bankCode }
func (f *FileContext) LayoutVersion() string { return f.layoutVersion }
func (f *FileContext) AgreementCode() string { return f.agreementCode }

// --- Modelos de saída do retorno ---

// RetornoRow é a visão de negócio de um detalhe de retorno.
type RetornoRow struct {
	Line                int              `json:"line"`
	Kind                string           `json:"kind"`
	MovementCode        int              `json:"movement_code,omitempty"`
	MovementDescription string           `json:"movement_description,omitempty"`
	WriteOff            bool             `json:"write_off"`
	WriteOffRejected    bool             `json:"write_off_rejected"`
	OurNumber           string           `json:"our_number,omitempty"`
	DocumentNumber      string           `json:"document_number,omitempty"`
	WalletNumber        string           `json:"wallet_number,omitempty"`
	DueDate             *time.Time       `json:"due_date,omitempty"`
	CreditDate          *time.Time       `json:"credit_date,omitempty"`
	OccurrenceDate      *time.Time       `json:"occurrence_date,omitempty"`
	TitleValue          *decimal.Decimal `json:"title_value,omitempty"`
	PaidValue           *decimal.Decimal `json:"paid_value,omitempty"`
	ReceivedValue       *decimal.Decimal `json:"received_value,omitempty"`
	FeeValue            *decimal.Decimal `json:"fee_value,omitempty"`
	FinancialTaxValue   *decimal.Decimal `json:"financial_tax_value,omitempty"`
	DiscountValue       *decimal.Decimal `json:"discount_value,omitempty"`
	RebateValue         *decimal.Decimal `json:"rebate_value,omitempty"`
	OtherExpensesValue  *decimal.Decimal `json:"other_expenses_value,omitempty"`
	OtherCreditsValue   *decimal.Decimal `json:"other_credits_value,omitempty"`
	LateFeeValue        *decimal.Decimal `json:"late_fee_value,omitempty"`
	OccurrenceCodes     []string         `json:"occurrence_codes,omitempty"`
	Occurrences         []string         `json:"occurrences,omitempty"`
	Valid               bool             `json:"valid"`
	Errors              []string         `json:"errors,omitempty"`
}

// --- Modelos de entrada da remessa ---

// Instruction é uma instrução de pagamento a ser gerada na remessa. As chaves
// de Fields seguem o formato "<segmento>.<campo>" (ex.: "P.nosso_numero");
// sem o prefixo, o valor é aplicado a todo segmento que declara o campo.
type Instruction struct {
	Kind   PaymentKind
	Fields map[string]string
}
