package otsemsdk

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const receiptRule = 40

var monthsPT = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// Text renders the receipt as plain text for sharing.
func (r *Receipt) Text() string {
	rule := strings.Repeat("═", receiptRule)

	lines := []string{
		r.Title,
		rule,
		"",
		"Valor: " + FormatBRL(r.Amount),
		"Data: " + formatDateTime(r.Date),
	}

	if r.CompletionDate != nil && !r.CompletionDate.IsZero() {
		lines = append(lines, "Concluído em: "+formatDateTime(*r.CompletionDate))
	}

	lines = append(lines, "", "── Pagador ──")
	lines = append(lines, r.Payer.lines()...)

	lines = append(lines, "", "── Recebedor ──")
	lines = append(lines, r.Receiver.lines()...)

	lines = append(lines, "", "── Identificação ──", "ID: "+r.TransactionID)
	if r.EndToEndID != "" {
		lines = append(lines, "End-to-End: "+r.EndToEndID)
	}
	if r.TxID != "" {
		lines = append(lines, "TxID: "+r.TxID)
	}
	if r.BankProvider != "" {
		lines = append(lines, "Provedor: "+r.BankProvider)
	}

	if r.PayerMessage != "" {
		lines = append(lines, "", "Mensagem: "+r.PayerMessage)
	}

	lines = append(lines, "", rule, "Otsem Pay")
	return strings.Join(lines, "\n")
}

func (p ReceiptParty) lines() []string {
	out := []string{
		"Nome: " + p.Name,
		"CPF/CNPJ: " + p.MaskedTaxNumber,
	}
	if p.PixKey != "" {
		out = append(out, "Chave PIX: "+p.PixKey)
	}
	if p.BankCode != "" {
		out = append(out, "Banco: "+p.BankCode)
	}
	return out
}

// ShortID keeps long identifiers readable: the first and last eight
// characters around an ellipsis.
func ShortID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// FormatBRL formats v as Brazilian reais, e.g. "R$ 1.234,56".
func FormatBRL(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	cents := int64(math.Round(v * 100))
	whole, frac := cents/100, cents%100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), frac)
}

func formatDateTime(t time.Time) string {
	return fmt.Sprintf("%02d de %s de %d às %02d:%02d",
		t.Day(), monthsPT[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
