package cnab240_test

import (
	"testing"

	"cnab-service/internal/core/cnab240"
	"cnab-service/internal/core/layout"
	"cnab-service/internal/domain"

	"github.com/stretchr/testify/require"
)

var loader = layout.NewLoader()

// buildSegment monta um segmento preenchido pelos setters, como numa remessa.
func buildSegment(t *testing.T, schemas cnab240.SchemaSource, file *domain.FileContext, tag cnab240.SegmentTag, fields map[string]string) *cnab240.Segment {
	t.Helper()
	schema, err := schemas.Load(int(file.BankCode()), file.LayoutVersion(), string(tag))
	require.NoError(t, err)

	seg := cnab240.NewSegment(schema)
	require.NoError(t, seg.SetInt("codigo_banco", int64(file.BankCode())))
	for name, value := range fields {
		require.NoError(t, seg.SetString(name, value))
	}
	return seg
}

// decodeSegment passa o segmento pela linha de 240 colunas, como num retorno.
func decodeSegment(t *testing.T, seg *cnab240.Segment) *cnab240.Segment {
	t.Helper()
	decoded, err := cnab240.DecodeSegment(seg.Schema(), seg.Encoded())
	require.NoError(t, err)
	return decoded
}

func retornoBoleto(t *testing.T, file *domain.FileContext, tFields, uFields map[string]string) *cnab240.Detalhe {
	t.Helper()
	d, err := cnab240.NewRetorno(file, domain.Boleto)
	require.NoError(t, err)
	require.NoError(t, d.Attach(decodeSegment(t, buildSegment(t, loader, file, cnab240.SegmentT, tFields))))
	require.NoError(t, d.Attach(decodeSegment(t, buildSegment(t, loader, file, cnab240.SegmentU, uFields))))
	return d
}

func retornoTED(t *testing.T, file *domain.FileContext, aFields map[string]string) *cnab240.Detalhe {
	t.Helper()
	d, err := cnab240.NewRetorno(file, domain.WireTransfer)
	require.NoError(t, err)
	require.NoError(t, d.Attach(decodeSegment(t, buildSegment(t, loader, file, cnab240.SegmentA, aFields))))
	return d
}

// replaceAt troca o conteúdo da linha a partir da coluna (1-based).
func replaceAt(line string, column int, content string) string {
	runes := []rune(line)
	copy(runes[column-1:], []rune(content))
	return string(runes)
}
