package cnab240

import (
	"fmt"
	"strings"

	"cnab-service/internal/domain"

	"go.uber.org/multierr"
)

// LineBreak separa as linhas de um arquivo CNAB.
const LineBreak = "\r\n"

// Direction indica se o detalhe pertence a uma remessa ou a um retorno.
type Direction int

const (
	Remessa Direction = iota
	Retorno
)

func (d Direction) String() string {
	if d == Retorno {
		return "retorno"
	}
	return "remessa"
}

var canonicalOrder = map[Direction][]SegmentTag{
	Remessa: {SegmentP, SegmentQ, SegmentR, SegmentA, SegmentZ},
	Retorno: {SegmentT, SegmentU, SegmentW, SegmentA, SegmentZ},
}

type slotRule struct {
	allowed  []SegmentTag
	required []SegmentTag
}

// Z fica fora de allowed em todas as combinações.
var slotRules = map[Direction]map[domain.PaymentKind]slotRule{
	Remessa: {
		domain.Boleto:       {allowed: []SegmentTag{SegmentP, SegmentQ, SegmentR}, required: []SegmentTag{SegmentP, SegmentQ, SegmentR}},
		domain.WireTransfer: {allowed: []SegmentTag{SegmentA}, required: []SegmentTag{SegmentA}},
	},
	Retorno: {
		domain.Boleto:       {allowed: []SegmentTag{SegmentT, SegmentU, SegmentW}, required: []SegmentTag{SegmentT, SegmentU}},
		domain.WireTransfer: {allowed: []SegmentTag{SegmentA}, required: []SegmentTag{SegmentA}},
	},
}

// Detalhe é uma instrução de pagamento composta pelos seus segmentos.
// Todos os slots da direção existem no mapa; slots vazios guardam nil.
type Detalhe struct {
	kind      domain.PaymentKind
	direction Direction
	file      *domain.FileContext
	slots     map[SegmentTag]*Segment
	lastError string
}

func newDetalhe(file *domain.FileContext, kind domain.PaymentKind, direction Direction) (*Detalhe, error) {
	if _, ok := slotRules[direction][kind]; !ok {
		return nil, fmt.Errorf("tipo de pagamento não suportado: %s", kind)
	}
	d := &Detalhe{
		kind:      kind,
		direction: direction,
		file:      file,
		slots:     make(map[SegmentTag]*Segment),
	}
	for _, tag := range canonicalOrder[direction] {
		d.slots[tag] = nil
	}
	return d, nil
}

// NewRemessa cria um detalhe de remessa com os segmentos obrigatórios do
// tipo de pagamento já montados a partir do layout: P, Q e R para boleto, A
// para TED.
func NewRemessa(file *domain.FileContext, kind domain.PaymentKind, schemas SchemaSource) (*Detalhe, error) {
	d, err := newDetalhe(file, kind, Remessa)
	if err != nil {
		return nil, err
	}
	for _, tag := range slotRules[Remessa][kind].required {
		schema, err := schemas.Load(int(file.BankCode()), file.LayoutVersion(), string(tag))
		if err != nil {
			return nil, fmt.Errorf("falha ao carregar layout do segmento %s: %w", tag, err)
		}
		d.slots[tag] = NewSegment(schema)
	}
	return d, nil
}

// NewRetorno cria um detalhe de retorno vazio; os segmentos lidos do arquivo
// entram por Attach.
func NewRetorno(file *domain.FileContext, kind domain.PaymentKind) (*Detalhe, error) {
	return newDetalhe(file, kind, Retorno)
}

func (d *Detalhe) Kind() domain.PaymentKind {
	return d.kind
}

func (d *Detalhe) Direction() Direction {
	return d.direction
}

func (d *Detalhe) File() *domain.FileContext {
	return d.file
}

// Attach ocupa o slot do segmento. O segmento Z é sempre recusado.
func (d *Detalhe) Attach(seg *Segment) error {
	if seg.Tag() == SegmentZ {
		return ErrSegmentDisabled
	}
	if !containsTag(slotRules[d.direction][d.kind].allowed, seg.Tag()) {
		return fmt.Errorf("segmento %s em %s de %s: %w", seg.Tag(), d.direction, d.kind, ErrSegmentNotAllowed)
	}
	if d.slots[seg.Tag()] != nil {
		return fmt.Errorf("segmento %s: %w", seg.Tag(), ErrSegmentOccupied)
	}
	d.slots[seg.Tag()] = seg
	return nil
}

// Segment devolve o segmento do slot, se preenchido.
func (d *Detalhe) Segment(tag SegmentTag) (*Segment, bool) {
	seg := d.slots[tag]
	return seg, seg != nil
}

// Segments lista os segmentos preenchidos na ordem canônica da direção.
func (d *Detalhe) Segments() []*Segment {
	var out []*Segment
	for _, tag := range canonicalOrder[d.direction] {
		if seg := d.slots[tag]; seg != nil {
			out = append(out, seg)
		}
	}
	return out
}

// Complete confere se os segmentos obrigatórios do tipo estão presentes.
func (d *Detalhe) Complete() error {
	for _, tag := range slotRules[d.direction][d.kind].required {
		if d.slots[tag] == nil {
			return &UnsupportedCombinationError{Kind: d.kind, Accessor: "Complete", Segment: tag}
		}
	}
	return nil
}

// Validate valida todos os segmentos, mesmo depois de uma falha. LastError
// fica com a mensagem da última falha encontrada no laço; use Errors para
// obter todas.
func (d *Detalhe) Validate() bool {
	d.lastError = ""
	for _, seg := range d.Segments() {
		if !seg.Validate() {
			d.lastError = seg.Err().Error()
		}
	}
	return d.lastError == ""
}

// LastError devolve a mensagem registrada pela última chamada de Validate.
func (d *Detalhe) LastError() string {
	return d.lastError
}

// Errors combina as falhas de todos os segmentos na última validação.
func (d *Detalhe) Errors() error {
	var err error
	for _, seg := range d.Segments() {
		err = multierr.Append(err, seg.Err())
	}
	return err
}

// Encoded devolve as linhas dos segmentos na ordem canônica, separadas por CRLF.
func (d *Detalhe) Encoded() string {
	segments := d.Segments()
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, seg.Encoded())
	}
	return strings.Join(lines, LineBreak)
}

// Dump descreve todos os segmentos preenchidos, para depuração.
func (d *Detalhe) Dump() string {
	var b strings.Builder
	b.WriteString("\n")
	for _, seg := range d.Segments() {
		fmt.Fprintf(&b, "== SEGMENTO %s ==\n", seg.Tag())
		b.WriteString(seg.Dump())
	}
	return b.String()
}

func containsTag(tags []SegmentTag, tag SegmentTag) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
