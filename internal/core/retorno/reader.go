// Package retorno lê arquivos de retorno CNAB240 e monta um detalhe por
// título ou pagamento.
package retorno

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cnab-service/internal/core/cnab240"
	"cnab-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const detailRecord = '3'

// Entry é um detalhe lido do arquivo. Line é a linha do primeiro segmento.
// Quando Err não é nil o detalhe não pôde ser montado e Detalhe é nil.
type Entry struct {
	Line    int
	Detalhe *cnab240.Detalhe
	Err     error
}

// Reader agrupa os segmentos de detalhe e os interpreta em paralelo.
type Reader struct {
	schemas cnab240.SchemaSource
	workers int
	logger  *zap.Logger
}

// NewReader cria o leitor. workers <= 0 usa um único worker; logger nil
// desliga os logs.
func NewReader(schemas cnab240.SchemaSource, workers int, logger *zap.Logger) *Reader {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{schemas: schemas, workers: workers, logger: logger}
}

type line struct {
	number int
	text   string
}

type group struct {
	lines []line
	err   error
}

// Read interpreta o arquivo (ISO-8859-1). Se file não trouxer o banco, o
// código é lido das três primeiras colunas do arquivo. O resultado segue a
// ordem do arquivo; falhas de um detalhe não afetam os demais.
func (r *Reader) Read(ctx context.Context, src io.Reader, file *domain.FileContext) ([]Entry, error) {
	lines, err := readLines(src)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("arquivo de retorno vazio")
	}

	if file == nil || file.BankCode() == 0 {
		bank, err := bankFromLine(lines[0].text)
		if err != nil {
			return nil, err
		}
		version, agreement := "", ""
		if file != nil {
			version, agreement = file.LayoutVersion(), file.AgreementCode()
		}
		file = domain.NewFileContext(bank, version, agreement)
	}

	groups := r.group(lines)
	entries := make([]Entry, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, grp := range groups {
		i, grp := i, grp
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i] = r.decode(grp, file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, e := range entries {
		if e.Err != nil {
			failed++
		}
	}
	r.logger.Info("retorno lido",
		zap.String("banco", file.BankCode().String()),
		zap.Int("linhas", len(lines)),
		zap.Int("detalhes", len(entries)),
		zap.Int("falhas", failed),
	)
	return entries, nil
}

func readLines(src io.Reader) ([]line, error) {
	scanner := bufio.NewScanner(transform.NewReader(src, charmap.ISO8859_1.NewDecoder()))
	var lines []line
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, line{number: n, text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("falha ao ler retorno: %w", err)
	}
	return lines, nil
}

func bankFromLine(text string) (domain.BankCode, error) {
	runes := []rune(text)
	if len(runes) < 3 {
		return 0, fmt.Errorf("linha 1 curta demais para conter o código do banco")
	}
	code, err := strconv.Atoi(string(runes[:3]))
	if err != nil || code <= 0 {
		return 0, fmt.Errorf("código de banco inválido na linha 1: %q", string(runes[:3]))
	}
	return domain.BankCode(code), nil
}

// group separa os detalhes: T ou A abrem um detalhe, os demais segmentos se
// juntam ao detalhe aberto. Header, trailer e linhas de lote ficam de fora.
func (r *Reader) group(lines []line) []group {
	var groups []group
	open := false
	for _, l := range lines {
		runes := []rune(l.text)
		if len(runes) < 14 {
			groups = append(groups, group{
				lines: []line{l},
				err:   fmt.Errorf("linha %d: registro com %d caracteres", l.number, len(runes)),
			})
			open = false
			continue
		}
		if runes[7] != detailRecord {
			open = false
			continue
		}
		switch cnab240.SegmentTag(runes[13]) {
		case cnab240.SegmentT, cnab240.SegmentA:
			groups = append(groups, group{lines: []line{l}})
			open = true
		default:
			if !open {
				groups = append(groups, group{
					lines: []line{l},
					err:   fmt.Errorf("linha %d: segmento %c sem segmento T ou A antes", l.number, runes[13]),
				})
				continue
			}
			last := &groups[len(groups)-1]
			last.lines = append(last.lines, l)
		}
	}
	return groups
}

func (r *Reader) decode(grp group, file *domain.FileContext) Entry {
	entry := Entry{Line: grp.lines[0].number}
	if grp.err != nil {
		entry.Err = grp.err
		r.logger.Warn("detalhe ignorado", zap.Int("linha", entry.Line), zap.Error(grp.err))
		return entry
	}

	kind := domain.Boleto
	if cnab240.SegmentTag([]rune(grp.lines[0].text)[13]) == cnab240.SegmentA {
		kind = domain.WireTransfer
	}
	d, err := cnab240.NewRetorno(file, kind)
	if err != nil {
		entry.Err = err
		return entry
	}

	for _, l := range grp.lines {
		if err := r.attach(d, file, l); err != nil {
			entry.Err = fmt.Errorf("linha %d: %w", l.number, err)
			r.logger.Warn("falha ao interpretar detalhe", zap.Int("linha", l.number), zap.Error(err))
			return entry
		}
	}
	entry.Detalhe = d
	return entry
}

func (r *Reader) attach(d *cnab240.Detalhe, file *domain.FileContext, l line) error {
	tag, err := cnab240.ParseSegmentTag(string([]rune(l.text)[13]))
	if errors.Is(err, cnab240.ErrUnknownSegmentTag) {
		// B, C, Y e afins não entram no modelo; o restante do detalhe segue.
		r.logger.Debug("segmento não modelado ignorado", zap.Int("linha", l.number), zap.String("segmento", string([]rune(l.text)[13])))
		return nil
	}
	if err != nil {
		return err
	}
	if tag == cnab240.SegmentZ {
		r.logger.Debug("segmento Z ignorado", zap.Int("linha", l.number))
		return nil
	}
	schema, err := r.schemas.Load(int(file.BankCode()), file.LayoutVersion(), string(tag))
	if err != nil {
		return err
	}
	seg, err := cnab240.DecodeSegment(schema, l.text)
	if err != nil {
		return err
	}
	return d.Attach(seg)
}
