package converter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"cnab-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const retornoSheet = "Retorno"

type column struct {
	header string
	value  func(r domain.RetornoRow) interface{}
}

var retornoColumns = []column{
	{"Linha", func(r domain.RetornoRow) interface{} { return r.Line }},
	{"Tipo", func(r domain.RetornoRow) interface{} { return r.Kind }},
	{"Movimento", func(r domain.RetornoRow) interface{} { return r.MovementCode }},
	{"Descrição Movimento", func(r domain.RetornoRow) interface{} { return r.MovementDescription }},
	{"Baixa", func(r domain.RetornoRow) interface{} { return r.WriteOff }},
	{"Baixa Rejeitada", func(r domain.RetornoRow) interface{} { return r.WriteOffRejected }},
	{"Nosso Número", func(r domain.RetornoRow) interface{} { return r.OurNumber }},
	{"Documento", func(r domain.RetornoRow) interface{} { return r.DocumentNumber }},
	{"Carteira", func(r domain.RetornoRow) interface{} { return r.WalletNumber }},
	{"Vencimento", func(r domain.RetornoRow) interface{} { return r.DueDate }},
	{"Data Ocorrência", func(r domain.RetornoRow) interface{} { return r.OccurrenceDate }},
	{"Data Crédito", func(r domain.RetornoRow) interface{} { return r.CreditDate }},
	{"Valor Título", func(r domain.RetornoRow) interface{} { return r.TitleValue }},
	{"Valor Pago", func(r domain.RetornoRow) interface{} { return r.PaidValue }},
	{"Valor Recebido", func(r domain.RetornoRow) interface{} { return r.ReceivedValue }},
	{"Tarifa", func(r domain.RetornoRow) interface{} { return r.FeeValue }},
	{"IOF", func(r domain.RetornoRow) interface{} { return r.FinancialTaxValue }},
	{"Desconto", func(r domain.RetornoRow) interface{} { return r.DiscountValue }},
	{"Abatimento", func(r domain.RetornoRow) interface{} { return r.RebateValue }},
	{"Outras Despesas", func(r domain.RetornoRow) interface{} { return r.OtherExpensesValue }},
	{"Outros Créditos", func(r domain.RetornoRow) interface{} { return r.OtherCreditsValue }},
	{"Juros/Multa", func(r domain.RetornoRow) interface{} { return r.LateFeeValue }},
	{"Ocorrências", func(r domain.RetornoRow) interface{} { return strings.Join(r.Occurrences, " | ") }},
	{"Válido", func(r domain.RetornoRow) interface{} { return r.Valid }},
	{"Erros", func(r domain.RetornoRow) interface{} { return strings.Join(r.Errors, " | ") }},
}

// sanitizeForCSV remove tabs e quebras de linha embutidas, troca outros
// caracteres de controle por espaço e faz trim.
func sanitizeForCSV(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatDecimalComma(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

func csvCell(v interface{}) string {
	switch x := v.(type) {
	case string:
		return sanitizeForCSV(x)
	case int:
		if x == 0 {
			return ""
		}
		return strconv.Itoa(x)
	case bool:
		if x {
			return "S"
		}
		return "N"
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format("02/01/2006")
	case *decimal.Decimal:
		if x == nil {
			return ""
		}
		return formatDecimalComma(*x)
	default:
		return sanitizeForCSV(fmt.Sprint(x))
	}
}

func xlsxCell(v interface{}) interface{} {
	switch x := v.(type) {
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.Format("02/01/2006")
	case *decimal.Decimal:
		if x == nil {
			return nil
		}
		return x.InexactFloat64()
	case int:
		if x == 0 {
			return nil
		}
		return x
	default:
		return x
	}
}

// RetornoToCSV gera o CSV em cp1252 separado por ";", o formato que os
// sistemas contábeis importam.
func (svc *service) RetornoToCSV(rows []domain.RetornoRow) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	writer := csv.NewWriter(transform.NewWriter(&buffer, encoder))
	writer.Comma = ';'

	header := make([]string, len(retornoColumns))
	for i, col := range retornoColumns {
		header[i] = col.header
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		record := make([]string, len(retornoColumns))
		for i, col := range retornoColumns {
			record[i] = csvCell(col.value(row))
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return buffer.Bytes(), writer.Error()
}

// RetornoToExcel gera uma planilha xlsx com uma linha por detalhe.
func (svc *service) RetornoToExcel(rows []domain.RetornoRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), retornoSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(retornoColumns))
	for i, col := range retornoColumns {
		header[i] = col.header
	}
	if err := f.SetSheetRow(retornoSheet, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(retornoColumns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(retornoSheet, "A1", lastHeader, bold); err != nil {
		return nil, err
	}

	for i, row := range rows {
		cells := make([]interface{}, len(retornoColumns))
		for j, col := range retornoColumns {
			cells[j] = xlsxCell(col.value(row))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(retornoSheet, cell, &cells); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("falha ao gerar planilha: %w", err)
	}
	return buf.Bytes(), nil
}
