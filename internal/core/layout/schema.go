// Package layout descreve as colunas de cada segmento CNAB240 e converte
// linhas de largura fixa em valores nomeados (e vice-versa).
package layout

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/schollz/closestmatch"
)

// LineWidth é a largura de toda linha CNAB240.
const LineWidth = 240

// Kind é o tipo de conteúdo declarado pela picture do campo.
type Kind int

const (
	Text Kind = iota
	Integer
	Decimal
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	default:
		return "text"
	}
}

var pictureRegex = regexp.MustCompile(`^(9|X)\((\d+)\)(?:V9\((\d+)\))?$`)

// Field define uma faixa de colunas (1-based, inclusiva) de um segmento.
type Field struct {
	Name     string
	Start    int
	End      int
	Kind     Kind
	Scale    int
	Default  string
	Required bool
}

// Width devolve o número de colunas ocupadas pelo campo.
func (f Field) Width() int {
	return f.End - f.Start + 1
}

// Numeric indica campos preenchidos com zeros à esquerda.
func (f Field) Numeric() bool {
	return f.Kind != Text
}

// Pad alinha o valor na largura do campo: numéricos com zeros à esquerda,
// textos com espaços à direita. Valores maiores são truncados.
func (f Field) Pad(value string) string {
	runes := []rune(value)
	width := f.Width()
	if len(runes) >= width {
		return string(runes[:width])
	}
	fill := strings.Repeat(" ", width-len(runes))
	if f.Numeric() {
		return strings.Repeat("0", width-len(runes)) + value
	}
	return value + fill
}

// parsePicture interpreta pictures no formato FEBRABAN: 9(n), X(n) e 9(n)V9(m).
func parsePicture(picture string) (Kind, int, int, error) {
	m := pictureRegex.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(picture)))
	if m == nil {
		return Text, 0, 0, fmt.Errorf("picture inválida: %q", picture)
	}
	size, _ := strconv.Atoi(m[2])
	if m[1] == "X" {
		if m[3] != "" {
			return Text, 0, 0, fmt.Errorf("picture inválida: %q", picture)
		}
		return Text, size, 0, nil
	}
	if m[3] == "" {
		return Integer, size, 0, nil
	}
	scale, _ := strconv.Atoi(m[3])
	return Decimal, size + scale, scale, nil
}

// Values guarda o conteúdo bruto (com preenchimento) de cada campo.
type Values map[string]string

// Schema é o layout de um segmento para um (banco, versão).
type Schema struct {
	bank    int
	version string
	tag     string
	fields  []Field
	index   map[string]int
	names   []string
	matcher *closestmatch.ClosestMatch
}

func newSchema(bank int, version, tag string, fields []Field) (*Schema, error) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].Start < fields[j].Start })

	s := &Schema{
		bank:    bank,
		version: version,
		tag:     tag,
		fields:  fields,
		index:   make(map[string]int, len(fields)),
	}
	prevEnd := 0
	prevName := ""
	for i, f := range fields {
		if f.Start < 1 || f.End > LineWidth || f.Start > f.End {
			return nil, fmt.Errorf("segmento %s: campo %s fora da linha (%d-%d)", tag, f.Name, f.Start, f.End)
		}
		if f.Start <= prevEnd {
			return nil, fmt.Errorf("segmento %s: campo %s sobrepõe %s", tag, f.Name, prevName)
		}
		prevEnd, prevName = f.End, f.Name
		s.index[f.Name] = i
		s.names = append(s.names, f.Name)
	}
	if len(s.names) > 0 {
		s.matcher = closestmatch.New(s.names, []int{2, 3})
	}
	return s, nil
}

func (s *Schema) Bank() int { return s.bank }
func (s *Schema) Version() string { return s.version }
func (s *Schema) Tag() string { return s.tag }
func (s *Schema) Width() int { return LineWidth }

// Fields devolve os campos ordenados pela coluna inicial.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// HasField informa se o layout declara o campo.
func (s *Schema) HasField(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Field localiza a definição de um campo. Para nomes desconhecidos o erro
// sugere o campo mais parecido.
func (s *Schema) Field(name string) (Field, error) {
	if i, ok := s.index[name]; ok {
		return s.fields[i], nil
	}
	err := &UnknownFieldError{Segment: s.tag, Name: name}
	if s.matcher != nil {
		err.Suggestion = s.matcher.Closest(name)
	}
	return Field{}, err
}

// Decode fatia a linha nos campos do layout. A linha precisa ter exatamente
// Width() caracteres.
func (s *Schema) Decode(line string) (Values, error) {
	runes := []rune(line)
	if len(runes) != s.Width() {
		return nil, &WidthError{Segment: s.tag, Expected: s.Width(), Got: len(runes)}
	}
	values := make(Values, len(s.fields))
	for _, f := range s.fields {
		values[f.Name] = string(runes[f.Start-1 : f.End])
	}
	return values, nil
}

// Blank devolve uma linha nova com os defaults do layout aplicados.
func (s *Schema) Blank() string {
	values := make(Values, len(s.fields))
	for _, f := range s.fields {
		values[f.Name] = f.Default
	}
	return s.Overlay(strings.Repeat(" ", s.Width()), values)
}

// Encode monta uma linha a partir dos valores; colunas sem campo ficam em branco.
func (s *Schema) Encode(values Values) string {
	return s.Overlay(strings.Repeat(" ", s.Width()), values)
}

// Overlay escreve os valores sobre uma linha existente, preservando as
// colunas que não pertencem a nenhum campo.
func (s *Schema) Overlay(base string, values Values) string {
	runes := []rune(base)
	if len(runes) < s.Width() {
		runes = append(runes, []rune(strings.Repeat(" ", s.Width()-len(runes)))...)
	}
	for _, f := range s.fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		copy(runes[f.Start-1:f.End], []rune(f.Pad(v)))
	}
	return string(runes[:s.Width()])
}

// WidthError indica linha com largura diferente da esperada.
type WidthError struct {
	Segment  string
	Expected int
	Got      int
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("segmento %s: linha com %d caracteres, esperado %d", e.Segment, e.Got, e.Expected)
}

// UnknownFieldError indica campo que o layout não declara.
type UnknownFieldError struct {
	Segment    string
	Name       string
	Suggestion string
}

func (e *UnknownFieldError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("segmento %s: campo %q não existe (quis dizer %q?)", e.Segment, e.Name, e.Suggestion)
	}
	return fmt.Sprintf("segmento %s: campo %q não existe", e.Segment, e.Name)
}
