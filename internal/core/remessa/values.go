package remessa

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/metakeule/fmtdate"
	"github.com/shopspring/decimal"
)

// parseAmount entende valores digitados em planilhas brasileiras ou
// americanas: "R$ 1.234,56", "1,234.56", "(10,00)" e "1234.5".
func parseAmount(val string) (decimal.Decimal, error) {
	s := strings.TrimSpace(val)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	if s == "" {
		return decimal.Zero, nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimPrefix(strings.TrimSuffix(s, ")"), "(")
	}
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}

	// a última ocorrência de . ou , decide o separador decimal
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastDot > lastComma:
		s = strings.ReplaceAll(s, ",", "")
		if strings.Count(s, ".") > 1 {
			parts := strings.Split(s, ".")
			s = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("valor inválido %q", val)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

var dateLayouts = []string{"DD/MM/YYYY", "YYYY-MM-DD", "DDMMYYYY"}

// parseDate aceita dd/mm/aaaa, aaaa-mm-dd, ddmmaaaa e o número serial do
// Excel. Vazio ou zero significa "sem data".
func parseDate(val string) (*time.Time, error) {
	s := strings.TrimSpace(val)
	if s == "" || strings.Trim(s, "0") == "" {
		return nil, nil
	}
	if len(s) > 10 {
		s = s[:10]
	}
	for _, layout := range dateLayouts {
		if t, err := fmtdate.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 35000 && f < 60000 {
		t := excelSerialToDate(f)
		return &t, nil
	}
	return nil, fmt.Errorf("data inválida %q", val)
}

func excelSerialToDate(serial float64) time.Time {
	// base Excel serial -> 1899-12-30
	base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(serial))
}
