package cnab240

import (
	"errors"
	"fmt"

	"cnab-service/internal/domain"
)

var (
	// ErrSegmentDisabled é devolvido ao anexar o segmento Z, que ainda não é suportado.
	ErrSegmentDisabled = errors.New("segmento Z desabilitado")
	// ErrSegmentNotAllowed indica segmento que não pertence ao tipo/direção do detalhe.
	ErrSegmentNotAllowed = errors.New("segmento não permitido para o detalhe")
	// ErrSegmentOccupied indica slot já preenchido no detalhe.
	ErrSegmentOccupied = errors.New("segmento já presente no detalhe")
	// ErrUnknownSegmentTag indica letra de segmento fora do modelo (B, C, Y...).
	ErrUnknownSegmentTag = errors.New("segmento desconhecido")
)

// FormatError indica linha cujo conteúdo não bate com o layout (largura ou
// valor não interpretável). É fatal apenas para a linha em questão.
type FormatError struct {
	Segment SegmentTag
	Field   string
	Err     error
}

func (e *FormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("segmento %s, campo %s: %v", e.Segment, e.Field, e.Err)
	}
	return fmt.Sprintf("segmento %s: %v", e.Segment, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ValidationError descreve a primeira regra violada por um segmento.
type ValidationError struct {
	Segment SegmentTag
	Field   string
	Rule    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Segmento %s: %s: %s", e.Segment, e.Field, e.Rule)
}

// UnsupportedCombinationError indica acesso a um valor que o tipo de
// pagamento não carrega, ou cujo segmento não foi preenchido.
type UnsupportedCombinationError struct {
	Kind     domain.PaymentKind
	Accessor string
	Segment  SegmentTag
}

func (e *UnsupportedCombinationError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("%s não se aplica a detalhes do tipo %s", e.Accessor, e.Kind)
	}
	return fmt.Sprintf("%s exige o segmento %s, ausente no detalhe do tipo %s", e.Accessor, e.Segment, e.Kind)
}
