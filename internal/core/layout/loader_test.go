package layout

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePicture(t *testing.T) {
	tests := []struct {
		picture string
		kind    Kind
		size    int
		scale   int
		wantErr bool
	}{
		{picture: "9(3)", kind: Integer, size: 3},
		{picture: "X(20)", kind: Text, size: 20},
		{picture: "9(13)V9(2)", kind: Decimal, size: 15, scale: 2},
		{picture: "x(1)", kind: Text, size: 1},
		{picture: "X(2)V9(2)", wantErr: true},
		{picture: "N(3)", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.picture, func(t *testing.T) {
			kind, size, scale, err := parsePicture(tt.picture)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.size, size)
			assert.Equal(t, tt.scale, scale)
		})
	}
}

func TestLoaderBuildsEverySegment(t *testing.T) {
	loader := NewLoader()
	for _, tag := range []string{"P", "Q", "R", "T", "U", "W", "A", "Z"} {
		t.Run(tag, func(t *testing.T) {
			schema, err := loader.Load(341, "", tag)
			require.NoError(t, err)
			assert.Equal(t, tag, schema.Tag())
			assert.Equal(t, LineWidth, schema.Width())
			assert.True(t, schema.HasField("codigo_banco"))

			f, err := schema.Field("codigo_segmento")
			require.NoError(t, err)
			assert.Equal(t, tag, f.Default)

			fields := schema.Fields()
			assert.Equal(t, 1, fields[0].Start)
			assert.Equal(t, LineWidth, fields[len(fields)-1].End)
		})
	}
}

func TestLoaderBankOverrides(t *testing.T) {
	loader := NewLoader()

	t.Run("caixa has no wallet", func(t *testing.T) {
		schema, err := loader.Load(104, "", "T")
		require.NoError(t, err)
		assert.False(t, schema.HasField("carteira"))
		assert.True(t, schema.HasField("nosso_numero"))
	})

	t.Run("caixa sigcb moves our number", func(t *testing.T) {
		schema, err := loader.Load(104, "sigcb", "T")
		require.NoError(t, err)
		f, err := schema.Field("nosso_numero")
		require.NoError(t, err)
		assert.Equal(t, 42, f.Start)
		assert.Equal(t, 56, f.End)
		assert.False(t, schema.HasField("numero_conta"))
		assert.False(t, schema.HasField("carteira"))
	})

	t.Run("santander replaces T keeping common fields", func(t *testing.T) {
		schema, err := loader.Load(33, "", "T")
		require.NoError(t, err)
		f, err := schema.Field("nosso_numero")
		require.NoError(t, err)
		assert.Equal(t, 41, f.Start)
		assert.Equal(t, 13, f.Width())
		assert.True(t, schema.HasField("codigo_banco"))
		assert.True(t, schema.HasField("conta_cobranca"))
	})

	t.Run("santander keeps febraban U", func(t *testing.T) {
		schema, err := loader.Load(33, "", "U")
		require.NoError(t, err)
		assert.True(t, schema.HasField("valor_liquido"))
	})
}

func TestLoaderCachesSchemas(t *testing.T) {
	loader := NewLoader()
	first, err := loader.Load(1, "", "p")
	require.NoError(t, err)
	second, err := loader.Load(1, "", "P")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoaderErrors(t *testing.T) {
	loader := NewLoader()

	_, err := loader.Load(104, "nao-existe", "T")
	assert.Error(t, err)

	_, err = loader.Load(1, "", "B")
	assert.True(t, errors.Is(err, ErrUnknownSegment))
}

func TestLoaderOmitThenRedeclare(t *testing.T) {
	src := fstest.MapFS{
		"febraban.yml": {Data: []byte(`
segments:
  T:
    fields:
      conta:        {pos: [1, 10], picture: '9(10)'}
      nosso_numero: {pos: [11, 30], picture: 'X(20)'}
`)},
		"237.yml": {Data: []byte(`
segments:
  T:
    omit: [conta, nosso_numero]
    fields:
      nosso_numero: {pos: [1, 15], picture: 'X(15)'}
`)},
	}
	schema, err := NewLoader(src).Load(237, "", "T")
	require.NoError(t, err)

	f, err := schema.Field("nosso_numero")
	require.NoError(t, err)
	assert.Equal(t, 1, f.Start)
	assert.Equal(t, 15, f.End)
	assert.False(t, schema.HasField("conta"))
}

func TestLoaderRejectsOverlappingFields(t *testing.T) {
	src := fstest.MapFS{
		"febraban.yml": {Data: []byte(`
segments:
  P:
    fields:
      a: {pos: [1, 10], picture: 'X(10)'}
      b: {pos: [5, 12], picture: 'X(8)'}
`)},
	}
	_, err := NewLoader(src).Load(1, "", "P")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sobrepõe")
}

func TestLoaderRejectsPictureWidthMismatch(t *testing.T) {
	src := fstest.MapFS{
		"febraban.yml": {Data: []byte(`
segments:
  P:
    fields:
      a: {pos: [1, 10], picture: '9(9)'}
`)},
	}
	_, err := NewLoader(src).Load(1, "", "P")
	assert.Error(t, err)
}

func TestSchemaRoundTripPreservesGaps(t *testing.T) {
	src := fstest.MapFS{
		"febraban.yml": {Data: []byte(`
segments:
  P:
    fields:
      numero: {pos: [1, 5], picture: '9(5)'}
      nome:   {pos: [11, 20], picture: 'X(10)'}
`)},
	}
	schema, err := NewLoader(src).Load(1, "", "P")
	require.NoError(t, err)

	line := "00042LIVREFULANO    " + strings.Repeat("#", LineWidth-20)
	values, err := schema.Decode(line)
	require.NoError(t, err)
	assert.Equal(t, "00042", values["numero"])
	assert.Equal(t, "FULANO    ", values["nome"])

	assert.Equal(t, line, schema.Overlay(line, values))

	encoded := schema.Encode(values)
	assert.Equal(t, "00042     FULANO    ", encoded[:20])
	assert.Len(t, encoded, LineWidth)
}

func TestSchemaDecodeRejectsWrongWidth(t *testing.T) {
	schema, err := NewLoader().Load(1, "", "T")
	require.NoError(t, err)

	_, err = schema.Decode(strings.Repeat(" ", 239))
	var widthErr *WidthError
	require.ErrorAs(t, err, &widthErr)
	assert.Equal(t, 239, widthErr.Got)
}

func TestSchemaEncodeDecodeFieldMap(t *testing.T) {
	schema, err := NewLoader().Load(1, "", "U")
	require.NoError(t, err)

	values := Values{}
	for _, f := range schema.Fields() {
		values[f.Name] = f.Pad(strings.Repeat("7", f.Width()/2))
	}
	decoded, err := schema.Decode(schema.Encode(values))
	require.NoError(t, err)
	assert.Equal(t, values, decoded)
}

func TestFieldPad(t *testing.T) {
	numeric := Field{Name: "n", Start: 1, End: 5, Kind: Integer}
	text := Field{Name: "t", Start: 1, End: 5, Kind: Text}

	assert.Equal(t, "00042", numeric.Pad("42"))
	assert.Equal(t, "AB   ", text.Pad("AB"))
	assert.Equal(t, "ABCDE", text.Pad("ABCDEFG"))
}

func TestUnknownFieldSuggestion(t *testing.T) {
	schema, err := NewLoader().Load(1, "", "T")
	require.NoError(t, err)

	_, err = schema.Field("nosso_numro")
	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nosso_numero", unknown.Suggestion)
}
