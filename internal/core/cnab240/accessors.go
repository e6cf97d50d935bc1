package cnab240

import (
	"fmt"
	"strings"
	"time"

	"cnab-service/internal/domain"

	"github.com/shopspring/decimal"
)

func (d *Detalhe) segment(tag SegmentTag, accessor string) (*Segment, error) {
	if seg := d.slots[tag]; seg != nil {
		return seg, nil
	}
	return nil, &UnsupportedCombinationError{Kind: d.kind, Accessor: accessor, Segment: tag}
}

func (d *Detalhe) unsupported(accessor string) error {
	return &UnsupportedCombinationError{Kind: d.kind, Accessor: accessor}
}

func (d *Detalhe) unknownKind() error {
	return fmt.Errorf("tipo de pagamento desconhecido: %s", d.kind)
}

func (d *Detalhe) boletoDecimal(accessor string, tag SegmentTag, field string) (decimal.Decimal, error) {
	switch d.kind {
	case domain.Boleto:
		seg, err := d.segment(tag, accessor)
		if err != nil {
			return decimal.Zero, err
		}
		return seg.Decimal(field)
	case domain.WireTransfer:
		return decimal.Zero, d.unsupported(accessor)
	}
	return decimal.Zero, d.unknownKind()
}

func (d *Detalhe) boletoString(accessor string, field string) (string, error) {
	switch d.kind {
	case domain.Boleto:
		seg, err := d.segment(SegmentT, accessor)
		if err != nil {
			return "", err
		}
		return seg.String(field)
	case domain.WireTransfer:
		return "", d.unsupported(accessor)
	}
	return "", d.unknownKind()
}

func (d *Detalhe) boletoDate(accessor string, tag SegmentTag, field string) (*time.Time, error) {
	switch d.kind {
	case domain.Boleto:
		seg, err := d.segment(tag, accessor)
		if err != nil {
			return nil, err
		}
		return seg.Date(field)
	case domain.WireTransfer:
		return nil, d.unsupported(accessor)
	}
	return nil, d.unknownKind()
}

// MovementCode identifica o tipo do detalhe (liquidação, baixa, tarifa...).
func (d *Detalhe) MovementCode() (int, error) {
	switch d.kind {
	case domain.Boleto:
		seg, err := d.segment(SegmentT, "MovementCode")
		if err != nil {
			return 0, err
		}
		code, err := seg.Int("codigo_movimento")
		return int(code), err
	case domain.WireTransfer:
		return 0, d.unsupported("MovementCode")
	}
	return 0, d.unknownKind()
}

// IsWriteOff informa se o retorno pede a baixa do boleto.
func (d *Detalhe) IsWriteOff() (bool, error) {
	code, err := d.MovementCode()
	if err != nil {
		return false, err
	}
	return IsWriteOffCode(code), nil
}

// IsWriteOffRejected informa se o retorno é de baixa ou alteração rejeitada.
func (d *Detalhe) IsWriteOffRejected() (bool, error) {
	code, err := d.MovementCode()
	if err != nil {
		return false, err
	}
	return IsWriteOffRejectedCode(code), nil
}

// MovementDescription descreve o código de movimento do detalhe.
func (d *Detalhe) MovementDescription() (string, error) {
	code, err := d.MovementCode()
	if err != nil {
		return "", err
	}
	return MovementDescription(code), nil
}

// ReceivedValue é o valor líquido creditado em conta.
func (d *Detalhe) ReceivedValue() (decimal.Decimal, error) {
	return d.boletoDecimal("ReceivedValue", SegmentU, "valor_liquido")
}

// TitleValue é o valor nominal do título.
func (d *Detalhe) TitleValue() (decimal.Decimal, error) {
	return d.boletoDecimal("TitleValue", SegmentT, "valor_titulo")
}

// PaidValue é o valor pago pelo sacado; para TED, o valor efetivado.
func (d *Detalhe) PaidValue() (decimal.Decimal, error) {
	switch d.kind {
	case domain.Boleto:
		return d.boletoDecimal("PaidValue", SegmentU, "valor_pago")
	case domain.WireTransfer:
		seg, err := d.segment(SegmentA, "PaidValue")
		if err != nil {
			return decimal.Zero, err
		}
		return seg.Decimal("valor_real")
	}
	return decimal.Zero, d.unknownKind()
}

// FeeValue é a tarifa cobrada pelo banco.
func (d *Detalhe) FeeValue() (decimal.Decimal, error) {
	return d.boletoDecimal("FeeValue", SegmentT, "valor_tarifa")
}

// FinancialTaxValue é o IOF recolhido.
func (d *Detalhe) FinancialTaxValue() (decimal.Decimal, error) {
	return d.boletoDecimal("FinancialTaxValue", SegmentU, "valor_iof")
}

// DiscountValue é o desconto concedido antes da emissão.
func (d *Detalhe) DiscountValue() (decimal.Decimal, error) {
	return d.boletoDecimal("DiscountValue", SegmentU, "valor_desconto")
}

// RebateValue é o abatimento concedido depois da emissão.
func (d *Detalhe) RebateValue() (decimal.Decimal, error) {
	return d.boletoDecimal("RebateValue", SegmentU, "valor_abatimento")
}

func (d *Detalhe) OtherExpensesValue() (decimal.Decimal, error) {
	return d.boletoDecimal("OtherExpensesValue", SegmentU, "valor_outras_despesas")
}

func (d *Detalhe) OtherCreditsValue() (decimal.Decimal, error) {
	return d.boletoDecimal("OtherCreditsValue", SegmentU, "valor_outros_creditos")
}

// LateFeeValue soma juros e multa.
func (d *Detalhe) LateFeeValue() (decimal.Decimal, error) {
	return d.boletoDecimal("LateFeeValue", SegmentU, "valor_acrescimos")
}

// DocumentNumber devolve o número do documento; um campo só com zeros
// significa "não informado" e devolve "".
func (d *Detalhe) DocumentNumber() (string, error) {
	value, err := d.boletoString("DocumentNumber", "numero_documento")
	if err != nil {
		return "", err
	}
	if strings.Trim(value, "0") == "" {
		return "", nil
	}
	return value, nil
}

// OurNumber devolve o nosso número já com os ajustes do banco. Para TED é o
// número do documento do segmento A.
func (d *Detalhe) OurNumber() (string, error) {
	switch d.kind {
	case domain.Boleto:
		value, err := d.boletoString("OurNumber", "nosso_numero")
		if err != nil {
			return "", err
		}
		return Adjust(d.file.BankCode(), PurposeOurNumber, value, d.file), nil
	case domain.WireTransfer:
		seg, err := d.segment(SegmentA, "OurNumber")
		if err != nil {
			return "", err
		}
		return seg.String("numero_documento")
	}
	return "", d.unknownKind()
}

// DueDate é o vencimento do título; nil quando não informado.
func (d *Detalhe) DueDate() (*time.Time, error) {
	return d.boletoDate("DueDate", SegmentT, "data_vencimento")
}

// CreditDate é a data em que o dinheiro entrou na conta; para TED, a data
// efetiva do pagamento.
func (d *Detalhe) CreditDate() (*time.Time, error) {
	switch d.kind {
	case domain.Boleto:
		return d.boletoDate("CreditDate", SegmentU, "data_credito")
	case domain.WireTransfer:
		seg, err := d.segment(SegmentA, "CreditDate")
		if err != nil {
			return nil, err
		}
		return seg.Date("data_real")
	}
	return nil, d.unknownKind()
}

// OccurrenceDate é a data da ocorrência (dia do pagamento).
func (d *Detalhe) OccurrenceDate() (*time.Time, error) {
	return d.boletoDate("OccurrenceDate", SegmentU, "data_ocorrencia")
}

// WalletNumber devolve a carteira do boleto. A Caixa (104) só informa o
// código FEBRABAN da modalidade, então a carteira nunca é exposta; layouts
// sem o campo também devolvem "".
func (d *Detalhe) WalletNumber() (string, error) {
	switch d.kind {
	case domain.Boleto:
		seg, err := d.segment(SegmentT, "WalletNumber")
		if err != nil {
			return "", err
		}
		if d.file.BankCode() == domain.Caixa || !seg.ExistField("carteira") {
			return "", nil
		}
		return seg.String("carteira")
	case domain.WireTransfer:
		return "", d.unsupported("WalletNumber")
	}
	return "", d.unknownKind()
}

func (d *Detalhe) Agency() (string, error) {
	return d.boletoString("Agency", "agencia_mantenedora")
}

func (d *Detalhe) AgencyDV() (string, error) {
	return d.boletoString("AgencyDV", "agencia_dv")
}

// CollectingAgency é a agência que recebeu o pagamento.
func (d *Detalhe) CollectingAgency() (string, error) {
	return d.boletoString("CollectingAgency", "agencia_cobradora")
}

func (d *Detalhe) CollectingAgencyDAC() (string, error) {
	return d.boletoString("CollectingAgencyDAC", "agencia_cobradora_dac")
}

// SequenceNumber é o número sequencial do primeiro segmento no lote.
func (d *Detalhe) SequenceNumber() (int64, error) {
	segments := d.Segments()
	if len(segments) == 0 {
		return 0, d.unsupported("SequenceNumber")
	}
	return segments[0].Int("numero_sequencial_lote")
}

// ComplementaryInfo devolve as linhas informativas do segmento W, que é
// opcional: sem W o resultado é nil.
func (d *Detalhe) ComplementaryInfo() ([]string, error) {
	switch d.kind {
	case domain.Boleto:
		seg, ok := d.Segment(SegmentW)
		if !ok {
			return nil, nil
		}
		var out []string
		for _, name := range []string{"informacao_1", "informacao_2", "informacao_3", "informacao_4"} {
			value, err := seg.String(name)
			if err != nil {
				return nil, err
			}
			if value != "" {
				out = append(out, value)
			}
		}
		return out, nil
	case domain.WireTransfer:
		return nil, d.unsupported("ComplementaryInfo")
	}
	return nil, d.unknownKind()
}

// OccurrenceCode devolve o campo de ocorrências do pagamento (até cinco
// códigos de duas posições).
func (d *Detalhe) OccurrenceCode() (string, error) {
	switch d.kind {
	case domain.WireTransfer:
		seg, err := d.segment(SegmentA, "OccurrenceCode")
		if err != nil {
			return "", err
		}
		return seg.String("ocorrencias")
	case domain.Boleto:
		return "", d.unsupported("OccurrenceCode")
	}
	return "", d.unknownKind()
}

// OccurrenceCodes separa o campo de ocorrências em códigos de duas posições.
func (d *Detalhe) OccurrenceCodes() ([]string, error) {
	value, err := d.OccurrenceCode()
	if err != nil {
		return nil, err
	}
	runes := []rune(value)
	var codes []string
	for i := 0; i < len(runes); i += 2 {
		end := i + 2
		if end > len(runes) {
			end = len(runes)
		}
		if code := strings.TrimSpace(string(runes[i:end])); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

// OccurrenceDescription descreve a primeira ocorrência do pagamento. ok é
// false quando não há ocorrência ou o código não consta da tabela.
func (d *Detalhe) OccurrenceDescription() (string, bool, error) {
	codes, err := d.OccurrenceCodes()
	if err != nil || len(codes) == 0 {
		return "", false, err
	}
	desc, ok := OccurrenceDescription(codes[0])
	return desc, ok, nil
}

// OccurrenceDescriptions descreve cada ocorrência do pagamento; códigos fora
// da tabela são devolvidos como vieram.
func (d *Detalhe) OccurrenceDescriptions() ([]string, error) {
	codes, err := d.OccurrenceCodes()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if desc, ok := OccurrenceDescription(code); ok {
			out = append(out, desc)
			continue
		}
		out = append(out, code)
	}
	return out, nil
}
