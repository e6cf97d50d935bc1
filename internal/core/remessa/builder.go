// Package remessa gera os registros de detalhe de um arquivo de remessa
// CNAB240 a partir de instruções de pagamento.
package remessa

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"cnab-service/internal/core/cnab240"
	"cnab-service/internal/core/layout"
	"cnab-service/internal/domain"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Builder transforma instruções em detalhes de remessa.
type Builder struct {
	schemas cnab240.SchemaSource
	logger  *zap.Logger
}

func NewBuilder(schemas cnab240.SchemaSource, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{schemas: schemas, logger: logger}
}

// Build monta um detalhe por instrução, numerando os segmentos em sequência
// dentro do lote. Os detalhes são devolvidos mesmo quando alguma instrução
// falha; o erro combina as falhas de todas elas.
func (b *Builder) Build(file *domain.FileContext, lot int, instructions []domain.Instruction) ([]*cnab240.Detalhe, error) {
	if lot <= 0 {
		lot = 1
	}
	detalhes := make([]*cnab240.Detalhe, 0, len(instructions))
	var errs error
	sequence := 0

	for i, inst := range instructions {
		d, err := cnab240.NewRemessa(file, inst.Kind, b.schemas)
		if err != nil {
			return nil, fmt.Errorf("instrução %d: %w", i+1, err)
		}

		for _, seg := range d.Segments() {
			sequence++
			if err := stamp(seg, file, lot, sequence); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("instrução %d: %w", i+1, err))
			}
		}
		if err := fill(d, inst.Fields); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("instrução %d: %w", i+1, err))
		}
		if !d.Validate() {
			errs = multierr.Append(errs, fmt.Errorf("instrução %d: %w", i+1, d.Errors()))
		}
		detalhes = append(detalhes, d)
	}

	if errs != nil {
		b.logger.Warn("remessa com instruções inválidas",
			zap.Int("instrucoes", len(instructions)),
			zap.Int("falhas", len(multierr.Errors(errs))),
		)
	} else {
		b.logger.Info("remessa montada",
			zap.String("banco", file.BankCode().String()),
			zap.Int("instrucoes", len(instructions)),
			zap.Int("segmentos", sequence),
		)
	}
	return detalhes, errs
}

func stamp(seg *cnab240.Segment, file *domain.FileContext, lot, sequence int) error {
	return multierr.Combine(
		seg.SetInt("codigo_banco", int64(file.BankCode())),
		seg.SetInt("lote_servico", int64(lot)),
		seg.SetInt("numero_sequencial_lote", int64(sequence)),
	)
}

// fill grava os campos da instrução. "P.nosso_numero" vai só para o segmento
// P; "nosso_numero" vai para todo segmento que declara o campo.
func fill(d *cnab240.Detalhe, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs error
	for _, key := range names {
		value := fields[key]
		tagPart, name, scoped := strings.Cut(key, ".")
		if !scoped {
			name = key
			targets := 0
			for _, seg := range d.Segments() {
				if !seg.ExistField(name) {
					continue
				}
				targets++
				errs = multierr.Append(errs, assign(seg, name, value))
			}
			if targets == 0 {
				errs = multierr.Append(errs, fmt.Errorf("campo %q não existe nos segmentos de %s", name, d.Kind()))
			}
			continue
		}

		tag, err := cnab240.ParseSegmentTag(tagPart)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		seg, ok := d.Segment(tag)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("segmento %s não faz parte de %s", tag, d.Kind()))
			continue
		}
		errs = multierr.Append(errs, assign(seg, name, value))
	}
	return errs
}

// assign converte o valor conforme a picture do campo: decimais aceitam
// valores formatados, datas aceitam dd/mm/aaaa e aaaa-mm-dd.
func assign(seg *cnab240.Segment, name, value string) error {
	f, err := seg.Schema().Field(name)
	if err != nil {
		return fmt.Errorf("segmento %s: %w", seg.Tag(), err)
	}
	switch {
	case f.Kind == layout.Decimal:
		amount, err := parseAmount(value)
		if err != nil {
			return fmt.Errorf("segmento %s, campo %s: %w", seg.Tag(), name, err)
		}
		return seg.SetDecimal(name, amount)
	case isDateField(f):
		date, err := parseDate(value)
		if err != nil {
			return fmt.Errorf("segmento %s, campo %s: %w", seg.Tag(), name, err)
		}
		return seg.SetDate(name, date)
	default:
		return seg.SetString(name, value)
	}
}

func isDateField(f layout.Field) bool {
	return f.Kind == layout.Integer && f.Width() == 8 && strings.HasPrefix(f.Name, "data_")
}

// Encode junta os detalhes em linhas CRLF codificadas em ISO-8859-1.
// Caracteres sem representação viram SUB (0x1A), mantendo a largura da linha.
func Encode(detalhes []*cnab240.Detalhe) ([]byte, error) {
	var buf bytes.Buffer
	for _, d := range detalhes {
		buf.WriteString(d.Encoded())
		buf.WriteString(cnab240.LineBreak)
	}
	encoder := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	out, err := encoder.Bytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("falha ao codificar remessa: %w", err)
	}
	return out, nil
}
