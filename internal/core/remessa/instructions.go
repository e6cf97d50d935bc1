package remessa

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"cnab-service/internal/domain"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// kindColumn é a coluna opcional com o tipo de pagamento (boleto ou TED).
const kindColumn = "tipo"

// LoadInstructions lê as instruções de uma planilha (.xlsx, .xls) ou CSV
// separado por ";". A primeira linha traz os nomes dos campos.
func LoadInstructions(file io.Reader, filename string) ([]domain.Instruction, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		rows, err = loadCSV(file)
	case ".xlsx", ".xls":
		rows, err = loadWorkbook(file)
	default:
		return nil, fmt.Errorf("formato de arquivo não suportado: %s", filename)
	}
	if err != nil {
		return nil, err
	}
	return instructionsFromRows(rows)
}

func loadCSV(file io.Reader) ([][]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	// planilhas exportadas pelo Excel no Windows chegam em cp1252
	if !utf8.Valid(data) {
		data, err = charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, err
		}
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func loadWorkbook(file io.Reader) ([][]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	// tenta xlsx
	if f, err := excelize.OpenReader(bytes.NewReader(data)); err == nil {
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("a planilha não contém abas")
		}
		return f.GetRows(sheets[0])
	}

	// tenta xls
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported workbook file format")
	}
	if len(workbook.GetSheets()) == 0 {
		return nil, fmt.Errorf("o arquivo .xls não contém planilhas")
	}
	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("erro ao obter planilha do arquivo .xls: %w", err)
	}
	var rows [][]string
	for _, row := range sheet.GetRows() {
		var cols []string
		for _, cell := range row.GetCols() {
			cols = append(cols, cell.GetString())
		}
		rows = append(rows, cols)
	}
	return rows, nil
}

func instructionsFromRows(rows [][]string) ([]domain.Instruction, error) {
	header := -1
	for i, row := range rows {
		if !blankRow(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, fmt.Errorf("planilha sem cabeçalho")
	}

	names := make([]string, len(rows[header]))
	for i, name := range rows[header] {
		names[i] = strings.TrimSpace(name)
	}

	var out []domain.Instruction
	for i, row := range rows[header+1:] {
		if blankRow(row) {
			continue
		}
		inst := domain.Instruction{Fields: make(map[string]string)}
		for col, value := range row {
			if col >= len(names) || names[col] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if strings.EqualFold(names[col], kindColumn) {
				kind, err := domain.ParsePaymentKind(value)
				if err != nil {
					return nil, fmt.Errorf("linha %d: %w", header+i+2, err)
				}
				inst.Kind = kind
				continue
			}
			if value == "" {
				continue
			}
			inst.Fields[names[col]] = value
		}
		out = append(out, inst)
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
