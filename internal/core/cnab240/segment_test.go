package cnab240_test

import (
	"strings"
	"testing"
	"time"

	"cnab-service/internal/core/cnab240"
	"cnab-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSegmentRejectsWrongWidth(t *testing.T) {
	schema, err := loader.Load(1, "", "T")
	require.NoError(t, err)

	for _, width := range []int{0, 239, 241} {
		_, err := cnab240.DecodeSegment(schema, strings.Repeat("0", width))
		var formatErr *cnab240.FormatError
		require.ErrorAs(t, err, &formatErr)
		assert.Equal(t, cnab240.SegmentT, formatErr.Segment)
	}
}

func TestDecodeSegmentRejectsOtherSegmentLetter(t *testing.T) {
	file := domain.NewFileContext(domain.BancoDoBrasil, "", "")
	u := buildSegment(t, loader, file, cnab240.SegmentU, nil)
	tSchema, err := loader.Load(1, "", "T")
	require.NoError(t, err)

	_, err = cnab240.DecodeSegment(tSchema, u.Encoded())
	var formatErr *cnab240.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, "codigo_segmento", formatErr.Field)
}

func TestSegmentRoundTrip(t *testing.T) {
	file := domain.NewFileContext(domain.BancoDoBrasil, "", "")
	seg := buildSegment(t, loader, file, cnab240.SegmentT, map[string]string{
		"codigo_movimento": "06",
		"nosso_numero":     "  12345",
		"sacado_nome":      "FULANO DE TAL",
		"valor_titulo":     "150000",
	})
	line := seg.Encoded()
	require.Len(t, []rune(line), 240)

	decoded := decodeSegment(t, seg)
	assert.Equal(t, line, decoded.Encoded())

	raw, err := decoded.Raw("nosso_numero")
	require.NoError(t, err)
	assert.Equal(t, "  12345"+strings.Repeat(" ", 13), raw)

	value, err := decoded.String("nosso_numero")
	require.NoError(t, err)
	assert.Equal(t, "12345", value)
}

func TestSegmentRoundTripKeepsUnmappedColumns(t *testing.T) {
	file := domain.NewFileContext(domain.Caixa, "", "")
	seg := buildSegment(t, loader, file, cnab240.SegmentT, nil)
	// a coluna 58 é a carteira no layout FEBRABAN, que a Caixa não usa
	line := replaceAt(seg.Encoded(), 58, "7")

	decoded, err := cnab240.DecodeSegment(seg.Schema(), line)
	require.NoError(t, err)
	assert.Equal(t, line, decoded.Encoded())
	assert.False(t, decoded.ExistField("carteira"))
}

func TestSegmentTypedGetters(t *testing.T) {
	file := domain.NewFileContext(domain.BancoDoBrasil, "", "")
	seg := decodeSegment(t, buildSegment(t, loader, file, cnab240.SegmentU, map[string]string{
		"valor_pago":      "000000000012345",
		"data_ocorrencia": "05012024",
	}))

	paid, err := seg.Decimal("valor_pago")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("123.45").Equal(paid), paid.String())

	code, err := seg.Int("codigo_banco")
	require.NoError(t, err)
	assert.EqualValues(t, 1, code)

	date, err := seg.Date("data_ocorrencia")
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.Equal(t, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), *date)

	_, err = seg.String("nao_existe")
	assert.Error(t, err)
}

func TestSegmentDateAbsence(t *testing.T) {
	file := domain.NewFileContext(domain.BancoDoBrasil, "", "")
	base := buildSegment(t, loader, file, cnab240.SegmentU, nil)

	t.Run("zeros", func(t *testing.T) {
		date, err := decodeSegment(t, base).Date("data_credito")
		require.NoError(t, err)
		assert.Nil(t, date)
	})

	t.Run("blank", func(t *testing.T) {
		line := replaceAt(base.Encoded(), 146, "        ")
		seg, err := cnab240.DecodeSegment(base.Schema(), line)
		require.NoError(t, err)
		date, err := seg.Date("data_credito")
		require.NoError(t, err)
		assert.Nil(t, date)
	})

	t.Run("invalid", func(t *testing.T) {
		line := replaceAt(base.Encoded(), 146, "31022024")
		seg, err := cnab240.DecodeSegment(base.Schema(), line)
		require.NoError(t, err)
		_, err = seg.Date("data_credito")
		var formatErr *cnab240.FormatError
		assert.ErrorAs(t, err, &formatErr)
	})
}

func TestSegmentSetters(t *testing.T) {
	file := domain.NewFileContext(domain.BancoDoBrasil, "", "")
	seg := buildSegment(t, loader, file, cnab240.SegmentP, nil)

	require.NoError(t, seg.SetString("numero_documento", "Ação 123"))
	doc, err := seg.String("numero_documento")
	require.NoError(t, err)
	assert.Equal(t, "Acao 123", doc)

	require.NoError(t, seg.SetString("uso_empresa", strings.Repeat("X", 30)))
	raw, err := seg.Raw("uso_empresa")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("X", 25), raw)

	require.NoError(t, seg.SetDecimal("valor_titulo", decimal.RequireFromString("1234.567")))
	raw, err = seg.Raw("valor_titulo")
	require.NoError(t, err)
	assert.Equal(t, "000000000123457", raw)

	due := time.Date(2025, time.March, 9, 15, 30, 0, 0, time.UTC)
	require.NoError(t, seg.SetDate("data_vencimento", &due))
	raw, err = seg.Raw("data_vencimento")
	require.NoError(t, err)
	assert.Equal(t, "09032025", raw)

	require.NoError(t, seg.SetDate("data_vencimento", nil))
	date, err := seg.Date("data_vencimento")
	require.NoError(t, err)
	assert.Nil(t, date)

	assert.Error(t, seg.SetString("agencia", "12A"))
	assert.Error(t, seg.SetInt("agencia", 123456))
	assert.Error(t, seg.SetInt("agencia", -1))
	assert.Error(t, seg.SetDecimal("valor_titulo", decimal.NewFromInt(-1)))
	assert.Error(t, seg.SetString("nao_existe", "x"))
	assert.Len(t, []rune(seg.Encoded()), 240)
}

func TestSegmentValidate(t *testing.T) {
	file := domain.NewFileContext(domain.BancoDoBrasil, "", "")

	t.Run("required blank", func(t *testing.T) {
		seg := buildSegment(t, loader, file, cnab240.SegmentP, map[string]string{"numero_documento": "10"})
		assert.False(t, seg.Validate())
		assert.Equal(t, "nosso_numero: campo obrigatório em branco", seg.LastError())

		var validationErr *cnab240.ValidationError
		require.ErrorAs(t, seg.Err(), &validationErr)
		assert.Equal(t, cnab240.SegmentP, validationErr.Segment)
		assert.Equal(t, "nosso_numero", validationErr.Field)
	})

	t.Run("numeric with letters", func(t *testing.T) {
		base := buildSegment(t, loader, file, cnab240.SegmentR, nil)
		seg, err := cnab240.DecodeSegment(base.Schema(), replaceAt(base.Encoded(), 18, "X"))
		require.NoError(t, err)
		assert.False(t, seg.Validate())
		assert.Equal(t, "codigo_desconto_2: campo numérico com caracteres inválidos", seg.LastError())
	})

	t.Run("valid clears previous failure", func(t *testing.T) {
		seg := buildSegment(t, loader, file, cnab240.SegmentP, map[string]string{"numero_documento": "10"})
		require.False(t, seg.Validate())
		require.NoError(t, seg.SetString("nosso_numero", "123"))
		assert.True(t, seg.Validate())
		assert.Empty(t, seg.LastError())
		assert.NoError(t, seg.Err())
	})
}

func TestSegmentDump(t *testing.T) {
	file := domain.NewFileContext(domain.BancoDoBrasil, "", "")
	seg := buildSegment(t, loader, file, cnab240.SegmentQ, map[string]string{"nome": "FULANO"})
	dump := seg.Dump()
	assert.True(t, strings.HasPrefix(dump, "codigo_banco: 001\n"))
	assert.Contains(t, dump, "nome: FULANO\n")
}

func TestParseSegmentTag(t *testing.T) {
	tag, err := cnab240.ParseSegmentTag(" t ")
	require.NoError(t, err)
	assert.Equal(t, cnab240.SegmentT, tag)

	_, err = cnab240.ParseSegmentTag("B")
	assert.ErrorIs(t, err, cnab240.ErrUnknownSegmentTag)
}
