// Package cnab240 monta detalhes CNAB240 a partir de segmentos de largura fixa
// e resolve os valores de negócio de cada detalhe.
package cnab240

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"cnab-service/internal/core/layout"

	"github.com/metakeule/fmtdate"
	"github.com/shopspring/decimal"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SegmentTag identifica o segmento pela letra da coluna 14.
type SegmentTag string

const (
	SegmentP SegmentTag = "P"
	SegmentQ SegmentTag = "Q"
	SegmentR SegmentTag = "R"
	SegmentA SegmentTag = "A"
	SegmentT SegmentTag = "T"
	SegmentU SegmentTag = "U"
	SegmentW SegmentTag = "W"
	// SegmentZ (autenticação eletrônica) existe no modelo mas ainda não é
	// montado nem aceito pelos detalhes.
	SegmentZ SegmentTag = "Z"
)

// ParseSegmentTag valida a letra do segmento.
func ParseSegmentTag(s string) (SegmentTag, error) {
	switch tag := SegmentTag(strings.ToUpper(strings.TrimSpace(s))); tag {
	case SegmentP, SegmentQ, SegmentR, SegmentA, SegmentT, SegmentU, SegmentW, SegmentZ:
		return tag, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSegmentTag, s)
	}
}

// SchemaSource fornece o layout de cada segmento. *layout.Loader o implementa.
type SchemaSource interface {
	Load(bank int, version, tag string) (*layout.Schema, error)
}

const dateFormat = "DDMMYYYY"

// Segment é uma linha de 240 colunas interpretada segundo o seu layout.
type Segment struct {
	tag       SegmentTag
	schema    *layout.Schema
	raw       []rune
	values    layout.Values
	lastError *ValidationError
}

// NewSegment cria um segmento vazio, com os defaults do layout, para ser
// preenchido pelos setters.
func NewSegment(schema *layout.Schema) *Segment {
	line := schema.Blank()
	values, _ := schema.Decode(line)
	return &Segment{
		tag:    SegmentTag(schema.Tag()),
		schema: schema,
		raw:    []rune(line),
		values: values,
	}
}

// DecodeSegment interpreta uma linha. Falha com *FormatError se a largura
// não bater com o layout ou se a coluna 14 trouxer outro segmento.
func DecodeSegment(schema *layout.Schema, line string) (*Segment, error) {
	tag := SegmentTag(schema.Tag())
	values, err := schema.Decode(line)
	if err != nil {
		return nil, &FormatError{Segment: tag, Err: err}
	}
	if code, ok := values["codigo_segmento"]; ok && strings.TrimSpace(code) != string(tag) {
		return nil, &FormatError{Segment: tag, Field: "codigo_segmento", Err: fmt.Errorf("linha traz o segmento %q", code)}
	}
	return &Segment{
		tag:    tag,
		schema: schema,
		raw:    []rune(line),
		values: values,
	}, nil
}

func (s *Segment) Tag() SegmentTag {
	return s.tag
}

func (s *Segment) Schema() *layout.Schema {
	return s.schema
}

// ExistField informa se o layout deste banco declara o campo.
func (s *Segment) ExistField(name string) bool {
	return s.schema.HasField(name)
}

func (s *Segment) field(name string) (layout.Field, error) {
	f, err := s.schema.Field(name)
	if err != nil {
		return layout.Field{}, &FormatError{Segment: s.tag, Field: name, Err: err}
	}
	return f, nil
}

// Raw devolve o conteúdo do campo exatamente como está na linha.
func (s *Segment) Raw(name string) (string, error) {
	if _, err := s.field(name); err != nil {
		return "", err
	}
	return s.values[name], nil
}

// String devolve o campo sem os espaços de preenchimento.
func (s *Segment) String(name string) (string, error) {
	raw, err := s.Raw(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

// Int interpreta o campo como inteiro. Campo em branco vale zero.
func (s *Segment) Int(name string) (int64, error) {
	digits, err := s.digits(name)
	if err != nil || digits == "" {
		return 0, err
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, &FormatError{Segment: s.tag, Field: name, Err: err}
	}
	return n, nil
}

// Decimal interpreta o campo aplicando as casas decimais da picture.
func (s *Segment) Decimal(name string) (decimal.Decimal, error) {
	f, err := s.field(name)
	if err != nil {
		return decimal.Zero, err
	}
	digits, err := s.digits(name)
	if err != nil || digits == "" {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, &FormatError{Segment: s.tag, Field: name, Err: err}
	}
	return d.Shift(int32(-f.Scale)), nil
}

// Date interpreta um campo ddmmyyyy. Zero ou branco significam "sem data" e
// devolvem nil. A hora é sempre meia-noite UTC.
func (s *Segment) Date(name string) (*time.Time, error) {
	n, err := s.Int(name)
	if err != nil || n == 0 {
		return nil, err
	}
	t, err := fmtdate.Parse(dateFormat, fmt.Sprintf("%08d", n))
	if err != nil {
		return nil, &FormatError{Segment: s.tag, Field: name, Err: fmt.Errorf("data inválida %08d: %w", n, err)}
	}
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &t, nil
}

func (s *Segment) digits(name string) (string, error) {
	raw, err := s.String(name)
	if err != nil {
		return "", err
	}
	if !isDigits(raw) {
		return "", &FormatError{Segment: s.tag, Field: name, Err: fmt.Errorf("valor não numérico %q", raw)}
	}
	return raw, nil
}

// SetString grava um texto. Em campos alfanuméricos os acentos são removidos
// e o valor é truncado na largura; em campos numéricos o valor deve conter
// só dígitos e caber no campo.
func (s *Segment) SetString(name, value string) error {
	f, err := s.field(name)
	if err != nil {
		return err
	}
	if !f.Numeric() {
		s.write(f, normalizeText(value))
		return nil
	}
	value = strings.TrimSpace(value)
	if !isDigits(value) {
		return &FormatError{Segment: s.tag, Field: name, Err: fmt.Errorf("valor não numérico %q", value)}
	}
	return s.writeDigits(f, value)
}

// SetInt grava um inteiro não negativo.
func (s *Segment) SetInt(name string, value int64) error {
	f, err := s.field(name)
	if err != nil {
		return err
	}
	if value < 0 {
		return &FormatError{Segment: s.tag, Field: name, Err: errors.New("valor negativo")}
	}
	if !f.Numeric() {
		s.write(f, strconv.FormatInt(value, 10))
		return nil
	}
	return s.writeDigits(f, strconv.FormatInt(value, 10))
}

// SetDecimal grava um valor monetário arredondado às casas da picture.
func (s *Segment) SetDecimal(name string, value decimal.Decimal) error {
	f, err := s.field(name)
	if err != nil {
		return err
	}
	if !f.Numeric() {
		return &FormatError{Segment: s.tag, Field: name, Err: errors.New("campo não numérico")}
	}
	if value.IsNegative() {
		return &FormatError{Segment: s.tag, Field: name, Err: errors.New("valor negativo")}
	}
	return s.writeDigits(f, value.Shift(int32(f.Scale)).Round(0).String())
}

// SetDate grava uma data ddmmyyyy; nil grava zeros.
func (s *Segment) SetDate(name string, value *time.Time) error {
	f, err := s.field(name)
	if err != nil {
		return err
	}
	if value == nil || value.IsZero() {
		return s.writeDigits(f, "0")
	}
	return s.writeDigits(f, fmtdate.Format(dateFormat, *value))
}

func (s *Segment) writeDigits(f layout.Field, digits string) error {
	if len(digits) > f.Width() {
		return &FormatError{Segment: s.tag, Field: f.Name, Err: fmt.Errorf("%s não cabe em %d posições", digits, f.Width())}
	}
	s.write(f, digits)
	return nil
}

func (s *Segment) write(f layout.Field, value string) {
	padded := f.Pad(value)
	s.values[f.Name] = padded
	copy(s.raw[f.Start-1:f.End], []rune(padded))
}

// Validate aplica as regras do layout: colunas numéricas só com dígitos (ou
// em branco) e colunas obrigatórias preenchidas. Guarda a primeira falha.
func (s *Segment) Validate() bool {
	s.lastError = nil
	for _, f := range s.schema.Fields() {
		raw := s.values[f.Name]
		switch {
		case f.Required && strings.TrimSpace(raw) == "":
			s.lastError = &ValidationError{Segment: s.tag, Field: f.Name, Rule: "campo obrigatório em branco"}
		case f.Numeric() && strings.TrimSpace(raw) != "" && !isDigits(raw):
			s.lastError = &ValidationError{Segment: s.tag, Field: f.Name, Rule: "campo numérico com caracteres inválidos"}
		default:
			continue
		}
		return false
	}
	return true
}

// LastError devolve "<campo>: <regra>" da última validação, ou "".
func (s *Segment) LastError() string {
	if s.lastError == nil {
		return ""
	}
	return s.lastError.Field + ": " + s.lastError.Rule
}

// Err devolve a falha da última validação como *ValidationError, ou nil.
func (s *Segment) Err() error {
	if s.lastError == nil {
		return nil
	}
	return s.lastError
}

// Encoded devolve a linha de 240 colunas com os valores atuais.
func (s *Segment) Encoded() string {
	return s.schema.Overlay(string(s.raw), s.values)
}

// Dump lista "campo: valor" na ordem das colunas, para depuração.
func (s *Segment) Dump() string {
	var b strings.Builder
	for _, f := range s.schema.Fields() {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, strings.TrimSpace(s.values[f.Name]))
	}
	return b.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeText remove acentos, que não cabem em arquivos CNAB.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, _ := transform.String(t, str)
	return result
}
