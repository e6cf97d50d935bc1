package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cnab-service/internal/api/responses"
	"cnab-service/internal/core/converter"
	"cnab-service/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ConverterHandler lida com as requisições de leitura de retorno e geração
// de remessa.
type ConverterHandler struct {
	service        converter.Service
	defaultVersion string
}

// NewConverterHandler cria um novo handler. defaultVersion é usada quando a
// requisição não informa a versão do layout.
func NewConverterHandler(service converter.Service, defaultVersion string) *ConverterHandler {
	return &ConverterHandler{
		service:        service,
		defaultVersion: defaultVersion,
	}
}

// fileContextFromForm monta o contexto do arquivo a partir dos campos do
// formulário. Banco vazio fica 0 e é lido do próprio arquivo.
func (h *ConverterHandler) fileContextFromForm(c *gin.Context, bankRequired bool) (*domain.FileContext, error) {
	return h.fileContext(c.PostForm("banco"), c.PostForm("versao"), c.PostForm("convenio"), bankRequired)
}

func (h *ConverterHandler) fileContext(bank, version, agreement string, bankRequired bool) (*domain.FileContext, error) {
	var code domain.BankCode
	if strings.TrimSpace(bank) != "" || bankRequired {
		var err error
		code, err = domain.ParseBankCode(bank)
		if err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(version) == "" {
		version = h.defaultVersion
	}
	return domain.NewFileContext(code, version, agreement), nil
}

// HandleRetornoParse lê um arquivo de retorno e devolve os detalhes em JSON,
// xlsx ou csv (campo "formato").
func (h *ConverterHandler) HandleRetornoParse(c *gin.Context) {
	retornoFileHeader, err := c.FormFile("retornoFile")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Arquivo de retorno não encontrado ou inválido")
		return
	}

	format := strings.ToLower(c.DefaultPostForm("formato", "json"))
	if format != "json" && format != "xlsx" && format != "csv" {
		responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Formato de saída não suportado: %s", format))
		return
	}

	fileCtx, err := h.fileContextFromForm(c, false)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Banco inválido", err.Error())
		return
	}

	retornoFile, err := retornoFileHeader.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo de retorno")
		return
	}
	defer retornoFile.Close()

	rows, err := h.service.ProcessRetorno(c.Request.Context(), retornoFile, fileCtx)
	if err != nil {
		responses.Error(c, http.StatusUnprocessableEntity, "Erro ao processar o arquivo de retorno", err.Error())
		return
	}

	baseName := strings.TrimSuffix(retornoFileHeader.Filename, filepath.Ext(retornoFileHeader.Filename))
	switch format {
	case "xlsx":
		out, err := h.service.RetornoToExcel(rows)
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar a planilha", err.Error())
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+baseName+".xlsx")
		c.Data(http.StatusOK, xlsxContentType, out)
	case "csv":
		out, err := h.service.RetornoToCSV(rows)
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Erro ao gerar o CSV", err.Error())
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+baseName+".csv")
		c.Data(http.StatusOK, "text/csv; charset=windows-1252", out)
	default:
		responses.Success(c, rows, fmt.Sprintf("%d detalhes lidos", len(rows)))
	}
}

// InstructionRequest é uma instrução de pagamento no corpo JSON.
type InstructionRequest struct {
	Tipo   string            `json:"tipo"`
	Campos map[string]string `json:"campos" binding:"required"`
}

// RemessaRequest é o corpo JSON de geração de remessa.
type RemessaRequest struct {
	Banco      string               `json:"banco" binding:"required"`
	Versao     string               `json:"versao"`
	Convenio   string               `json:"convenio"`
	Lote       int                  `json:"lote" binding:"gte=0"`
	Instrucoes []InstructionRequest `json:"instrucoes" binding:"required,min=1,dive"`
}

// HandleRemessaGenerate gera os detalhes de uma remessa a partir de um corpo
// JSON ou de uma planilha enviada em "instrucoesFile".
func (h *ConverterHandler) HandleRemessaGenerate(c *gin.Context) {
	var (
		fileCtx      *domain.FileContext
		lot          int
		instructions []domain.Instruction
		err          error
	)

	if c.ContentType() == gin.MIMEJSON {
		var req RemessaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.Error(c, http.StatusBadRequest, "Requisição inválida", err.Error())
			return
		}
		fileCtx, err = h.fileContext(req.Banco, req.Versao, req.Convenio, true)
		if err != nil {
			responses.Error(c, http.StatusBadRequest, "Banco inválido", err.Error())
			return
		}
		lot = req.Lote
		for i, inst := range req.Instrucoes {
			kind, err := domain.ParsePaymentKind(inst.Tipo)
			if err != nil {
				responses.Error(c, http.StatusBadRequest, fmt.Sprintf("Instrução %d inválida", i+1), err.Error())
				return
			}
			instructions = append(instructions, domain.Instruction{Kind: kind, Fields: inst.Campos})
		}
	} else {
		instructionsFileHeader, err := c.FormFile("instrucoesFile")
		if err != nil {
			responses.Error(c, http.StatusBadRequest, "Arquivo de instruções (.csv, .xls, .xlsx) não encontrado ou inválido")
			return
		}
		fileCtx, err = h.fileContextFromForm(c, true)
		if err != nil {
			responses.Error(c, http.StatusBadRequest, "Banco inválido", err.Error())
			return
		}
		if v := c.PostForm("lote"); v != "" {
			if lot, err = strconv.Atoi(v); err != nil || lot < 0 {
				responses.Error(c, http.StatusBadRequest, "Lote inválido", v)
				return
			}
		}

		instructionsFile, err := instructionsFileHeader.Open()
		if err != nil {
			responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo de instruções")
			return
		}
		defer instructionsFile.Close()

		instructions, err = h.service.LoadInstructions(instructionsFile, instructionsFileHeader.Filename)
		if err != nil {
			responses.Error(c, http.StatusBadRequest, "Erro ao ler o arquivo de instruções", err.Error())
			return
		}
	}

	out, err := h.service.GenerateRemessa(fileCtx, lot, instructions)
	if err != nil {
		responses.Error(c, http.StatusUnprocessableEntity, "Instruções inválidas", errorMessages(err)...)
		return
	}

	fileName := fmt.Sprintf("REMESSA_%s_%s.rem", fileCtx.BankCode(), time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "application/octet-stream", out)
}

// errorMessages abre as falhas combinadas, uma mensagem por instrução.
func errorMessages(err error) []string {
	var msgs []string
	for _, e := range multierr.Errors(err) {
		msgs = append(msgs, e.Error())
	}
	return msgs
}
