package converter

import (
	"context"
	"errors"
	"io"
	"time"

	"cnab-service/internal/core/cnab240"
	"cnab-service/internal/core/remessa"
	"cnab-service/internal/core/retorno"
	"cnab-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Service define a interface para os serviços de leitura e geração de
// arquivos CNAB240.
type Service interface {
	ProcessRetorno(ctx context.Context, file io.Reader, fileCtx *domain.FileContext) ([]domain.RetornoRow, error)
	RetornoToExcel(rows []domain.RetornoRow) ([]byte, error)
	RetornoToCSV(rows []domain.RetornoRow) ([]byte, error)
	LoadInstructions(file io.Reader, filename string) ([]domain.Instruction, error)
	GenerateRemessa(fileCtx *domain.FileContext, lot int, instructions []domain.Instruction) ([]byte, error)
}

type service struct {
	reader  *retorno.Reader
	builder *remessa.Builder
	logger  *zap.Logger
}

// NewService cria uma nova instância do serviço.
func NewService(schemas cnab240.SchemaSource, workers int, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		reader:  retorno.NewReader(schemas, workers, logger),
		builder: remessa.NewBuilder(schemas, logger),
		logger:  logger,
	}
}

// ---------------------- retorno ----------------------

func (svc *service) ProcessRetorno(ctx context.Context, file io.Reader, fileCtx *domain.FileContext) ([]domain.RetornoRow, error) {
	entries, err := svc.reader.Read(ctx, file, fileCtx)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.RetornoRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, svc.buildRow(e))
	}
	return rows, nil
}

// buildRow lê os valores de negócio do detalhe. Valores que o tipo de
// pagamento não carrega ficam vazios; segmentos ausentes aparecem uma vez,
// via Complete, e as demais falhas vão para Errors.
func (svc *service) buildRow(e retorno.Entry) domain.RetornoRow {
	row := domain.RetornoRow{Line: e.Line}
	if e.Err != nil {
		row.Errors = []string{e.Err.Error()}
		return row
	}
	d := e.Detalhe
	row.Kind = d.Kind().String()

	var errs []string
	if err := d.Complete(); err != nil {
		errs = append(errs, err.Error())
	}

	row.MovementCode, _ = value(&errs, d.MovementCode)
	row.MovementDescription, _ = value(&errs, d.MovementDescription)
	row.WriteOff, _ = value(&errs, d.IsWriteOff)
	row.WriteOffRejected, _ = value(&errs, d.IsWriteOffRejected)
	row.OurNumber, _ = value(&errs, d.OurNumber)
	row.DocumentNumber, _ = value(&errs, d.DocumentNumber)
	row.WalletNumber, _ = value(&errs, d.WalletNumber)

	row.DueDate, _ = value(&errs, d.DueDate)
	row.CreditDate, _ = value(&errs, d.CreditDate)
	row.OccurrenceDate, _ = value(&errs, d.OccurrenceDate)

	row.TitleValue = amount(&errs, d.TitleValue)
	row.PaidValue = amount(&errs, d.PaidValue)
	row.ReceivedValue = amount(&errs, d.ReceivedValue)
	row.FeeValue = amount(&errs, d.FeeValue)
	row.FinancialTaxValue = amount(&errs, d.FinancialTaxValue)
	row.DiscountValue = amount(&errs, d.DiscountValue)
	row.RebateValue = amount(&errs, d.RebateValue)
	row.OtherExpensesValue = amount(&errs, d.OtherExpensesValue)
	row.OtherCreditsValue = amount(&errs, d.OtherCreditsValue)
	row.LateFeeValue = amount(&errs, d.LateFeeValue)

	row.OccurrenceCodes, _ = value(&errs, d.OccurrenceCodes)
	row.Occurrences, _ = value(&errs, d.OccurrenceDescriptions)

	valid := d.Validate()
	for _, err := range multierr.Errors(d.Errors()) {
		errs = append(errs, err.Error())
	}
	row.Valid = valid && len(errs) == 0
	row.Errors = errs
	if len(errs) > 0 {
		svc.logger.Debug("detalhe com inconsistências", zap.Int("linha", e.Line), zap.Strings("erros", errs))
	}
	return row
}

func value[T any](errs *[]string, get func() (T, error)) (T, bool) {
	v, err := get()
	if err != nil {
		var unsupported *cnab240.UnsupportedCombinationError
		if !errors.As(err, &unsupported) {
			*errs = append(*errs, err.Error())
		}
		var zero T
		return zero, false
	}
	return v, true
}

func amount(errs *[]string, get func() (decimal.Decimal, error)) *decimal.Decimal {
	v, ok := value(errs, get)
	if !ok {
		return nil
	}
	return &v
}

// ---------------------- remessa ----------------------

func (svc *service) LoadInstructions(file io.Reader, filename string) ([]domain.Instruction, error) {
	return remessa.LoadInstructions(file, filename)
}

func (svc *service) GenerateRemessa(fileCtx *domain.FileContext, lot int, instructions []domain.Instruction) ([]byte, error) {
	if fileCtx == nil || fileCtx.BankCode() == 0 {
		return nil, errors.New("código do banco não informado")
	}
	if len(instructions) == 0 {
		return nil, errors.New("nenhuma instrução informada")
	}
	start := time.Now()
	detalhes, err := svc.builder.Build(fileCtx, lot, instructions)
	if err != nil {
		return nil, err
	}
	out, err := remessa.Encode(detalhes)
	if err != nil {
		return nil, err
	}
	svc.logger.Info("remessa gerada",
		zap.String("banco", fileCtx.BankCode().String()),
		zap.Int("detalhes", len(detalhes)),
		zap.Duration("duracao", time.Since(start)),
	)
	return out, nil
}
