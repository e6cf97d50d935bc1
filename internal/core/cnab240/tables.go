package cnab240

// UnknownMovement é a descrição devolvida para códigos de movimento fora da tabela.
const UnknownMovement = "Unknown"

var writeOffCodes = map[int]struct{}{6: {}, 9: {}, 17: {}, 25: {}}

var writeOffRejectedCodes = map[int]struct{}{3: {}, 26: {}, 30: {}}

// Códigos de movimento do retorno de cobrança (FEBRABAN).
var movementDescriptions = map[int]string{
	2:  "Entrada Confirmada",
	3:  "Entrada Rejeitada",
	4:  "Transferência de Carteira/Entrada",
	5:  "Transferência de Carteira/Baixa",
	6:  "Liquidação",
	9:  "Baixa",
	12: "Confirmação Recebimento Instrução de Abatimento",
	13: "Confirmação Recebimento Instrução de Cancelamento Abatimento",
	14: "Confirmação Recebimento Instrução Alteração de Vencimento",
	17: "Liquidação Após Baixa ou Liquidação Título Não Registrado",
	19: "Confirmação Recebimento Instrução de Protesto",
	20: "Confirmação Recebimento Instrução de Sustação/Cancelamento de Protesto",
	23: "Remessa a Cartório (Aponte em Cartório)",
	24: "Retirada de Cartório e Manutenção em Carteira",
	25: "Protestado e Baixado (Baixa por Ter Sido Protestado)",
	26: "Instrução Rejeitada",
	27: "Confirmação do Pedido de Alteração de Outros Dados",
	28: "Débito de Tarifas/Custas",
	30: "Alteração de Dados Rejeitada",
	36: "Confirmação de envio de e-mail/SMS",
	37: "Envio de e-mail/SMS rejeitado",
	43: "Estorno de Protesto/Sustação",
	44: "Estorno de Baixa/Liquidação",
	45: "Alteração de dados",
	51: "Título DDA reconhecido pelo sacado",
	52: "Título DDA não reconhecido pelo sacado",
	53: "Título DDA recusado pela CIP",
}

// Ocorrências do retorno de pagamentos (segmento A).
var occurrenceDescriptions = map[string]string{
	"00": "PAGAMENTO EFETUADO",
	"AE": "DATA DE PAGAMENTO ALTERADA",
	"AG": "NÚMERO DO LOTE INVÁLIDO",
	"AH": "NÚMERO SEQUENCIAL DO REGISTRO NO LOTE INVÁLIDO",
	"AI": "PRODUTO DEMONSTRATIVO DE PAGAMENTO NÃO CONTRATADO",
	"AJ": "TIPO DE MOVIMENTO INVÁLIDO",
	"AL": "CÓDIGO DO BANCO FAVORECIDO INVÁLIDO",
	"AM": "AGÊNCIA DO FAVORECIDO INVÁLIDA",
	"AN": "CONTA CORRENTE DO FAVORECIDO INVÁLIDA / CONTA INVESTIMENTO EXTINTA EM 30/04/2011",
	"AO": "NOME DO FAVORECIDO INVÁLIDO",
	"AP": "DATA DE PAGAMENTO / DATA DE VALIDADE / HORA DE LANÇAMENTO /ARRECADAÇÃO / APURAÇÃO INVÁLIDA",
	"AQ": "QUANTIDADE DE REGISTROS MAIOR QUE 999999",
	"AR": "VALOR ARRECADADO / LANÇAMENTO INVÁLIDO",
	"BC": "NOSSO NÚMERO INVÁLIDO",
	"BD": "PAGAMENTO AGENDADO",
	"BE": "PAGAMENTO AGENDADO COM FORMA ALTERADA PARA OP",
	"BI": "CNPJ / CPF DO FAVORECIDO NO SEGMENTOJ-52 ou B INVÁLIDO",
	"BL": "VALOR DA PARCELA INVÁLIDO",
	"CD": "CNPJ / CPF INFORMADO DIVERGENTE DO CADASTRADO",
	"CE": "PAGAMENTO CANCELADO",
	"CF": "VALOR DO DOCUMENTO INVÁLIDO",
	"CG": "VALOR DO ABATIMENTO INVÁLIDO",
	"CH": "VALOR DO DESCONTO INVÁLIDO",
	"CI": "CNPJ / CPF / IDENTIFICADOR / INSCRIÇÃO ESTADUAL / INSCRIÇÃO NO CAD / ICMS INVÁLIDO",
	"CJ": "VALOR DA MULTA INVÁLIDO",
	"CK": "TIPO DE INSCRIÇÃO INVÁLIDA",
	"CL": "VALOR DO INSS INVÁLIDO",
	"CM": "VALOR DO COFINS INVÁLIDO",
	"CN": "CONTA NÃO CADASTRADA",
	"CO": "VALOR DE OUTRAS ENTIDADES INVÁLIDO",
	"CP": "CONFIRMAÇÃO DE OP CUMPRIDA",
	"CQ": "SOMA DAS FATURAS DIFERE DO PAGAMENTO",
	"CR": "VALOR DO CSLL INVÁLIDO",
	"CS": "DATA DE VENCIMENTO DA FATURA INVÁLIDA",
	"DA": "NÚMERO DE DEPEND. SALÁRIO FAMILIA INVALIDO",
	"DB": "NÚMERO DE HORAS SEMANAIS INVÁLIDO",
	"DC": "SALÁRIO DE CONTRIBUIÇÃO INSS INVÁLIDO",
	"DD": "SALÁRIO DE CONTRIBUIÇÃO FGTS INVÁLIDO",
	"DE": "VALOR TOTAL DOS PROVENTOS INVÁLIDO",
	"DF": "VALOR TOTAL DOS DESCONTOS INVÁLIDO",
	"DG": "VALOR LÍQUIDO NÃO NUMÉRICO",
	"DH": "VALOR LIQ. INFORMADO DIFERE DO CALCULADO",
	"DI": "VALOR DO SALÁRIO-BASE INVÁLIDO",
	"DJ": "BASE DE CÁLCULO IRRF INVÁLIDA",
	"DK": "BASE DE CÁLCULO FGTS INVÁLIDA",
	"DL": "FORMA DE PAGAMENTO INCOMPATÍVEL COM HOLERITE",
	"DM": "E-MAIL DO FAVORECIDO INVÁLIDO",
	"DV": "DOC / TED DEVOLVIDO PELO BANCO FAVORECIDO",
	"D0": "FINALIDADE DO HOLERITE INVÁLIDA",
	"D1": "MÊS DE COMPETENCIA DO HOLERITE INVÁLIDA",
	"D2": "DIA DA COMPETENCIA DO HOLETITE INVÁLIDA",
	"D3": "CENTRO DE CUSTO INVÁLIDO",
	"D4": "CAMPO NUMÉRICO DA FUNCIONAL INVÁLIDO",
	"D5": "DATA INÍCIO DE FÉRIAS NÃO NUMÉRICA",
	"D6": "DATA INÍCIO DE FÉRIAS INCONSISTENTE",
	"D7": "DATA FIM DE FÉRIAS NÃO NUMÉRICO",
	"D8": "DATA FIM DE FÉRIAS INCONSISTENTE",
	"D9": "NÚMERO DE DEPENDENTES IR INVÁLIDO",
	"EM": "CONFIRMAÇÃO DE OP EMITIDA",
	"EX": "DEVOLUÇÃO DE OP NÃO SACADA PELO FAVORECIDO",
	"E0": "TIPO DE MOVIMENTO HOLERITE INVÁLIDO",
	"E1": "VALOR 01 DO HOLERITE / INFORME INVÁLIDO",
	"E2": "VALOR 02 DO HOLERITE / INFORME INVÁLIDO",
	"E3": "VALOR 03 DO HOLERITE / INFORME INVÁLIDO",
	"E4": "VALOR 04 DO HOLERITE / INFORME INVÁLIDO",
}

// IsWriteOffCode informa se o código de movimento é de baixa (6, 9, 17 ou 25).
func IsWriteOffCode(code int) bool {
	_, ok := writeOffCodes[code]
	return ok
}

// IsWriteOffRejectedCode informa se o código é de baixa/alteração rejeitada (3, 26 ou 30).
func IsWriteOffRejectedCode(code int) bool {
	_, ok := writeOffRejectedCodes[code]
	return ok
}

// MovementDescription descreve o código de movimento; códigos fora da tabela
// devolvem UnknownMovement.
func MovementDescription(code int) string {
	if desc, ok := movementDescriptions[code]; ok {
		return desc
	}
	return UnknownMovement
}

// OccurrenceDescription descreve uma ocorrência de pagamento. Ao contrário
// de MovementDescription não há descrição padrão: ok é false para códigos
// desconhecidos.
func OccurrenceDescription(code string) (string, bool) {
	desc, ok := occurrenceDescriptions[code]
	return desc, ok
}
