package source

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"herd-census/internal/domain"
	"herd-census/internal/normalize"
)

// Each logical field lists every key a store has been seen to use for it, in
// lookup order.
var (
	keysID         = []string{"id", "animalId", "animal_id", "identification", "codigo", "code", "brinco"}
	keysSeries     = []string{"identitySeries", "identity_series", "series", "serie"}
	keysBreed      = []string{"breed", "raca", "raça", "breedName", "breed_name"}
	keysSex        = []string{"sex", "sexo", "gender"}
	keysBirthDate  = []string{"birthDate", "birth_date", "dataNascimento", "data_nascimento", "nascimento"}
	keysAgeMonths  = []string{"ageMonths", "age_months", "idadeMeses", "idade_meses", "months"}
	keysDescriptor = []string{"ageDescriptor", "age_descriptor", "ageRange", "age_range", "faixaEtaria", "faixa_etaria", "idade"}
	keysLocality   = []string{"locality", "site", "localidade", "fazenda", "farm"}
	keysActive     = []string{"statusActive", "status_active", "active", "isActive", "is_active", "ativo"}
	keysStatus     = []string{"status", "situacao", "situação"}
	keysQuantity   = []string{"quantity", "quantidade", "qtd", "qty"}
	keysDate       = []string{"date", "movementDate", "movement_date", "data"}

	keysInvoiceID     = []string{"id", "invoiceId", "invoice_id"}
	keysInvoiceNumber = []string{"number", "invoiceNumber", "invoice_number", "numero", "numeroNota", "numero_nota"}
	keysIssuedAt      = []string{"issuedAt", "issued_at", "issueDate", "issue_date", "dataEmissao", "data_emissao", "date"}
	keysDirection     = []string{"direction", "kind", "type", "tipo", "operacao"}
	keysTaxID         = []string{"taxId", "tax_id", "counterpartyTaxId", "counterparty_tax_id", "recipientTaxId", "recipient_tax_id", "issuerTaxId", "issuer_tax_id", "cnpj", "cpf"}
	keysCounterparty  = []string{"counterpartyName", "counterparty_name", "counterparty", "razaoSocial", "razao_social", "nome", "name"}
)

var (
	inactiveStatuses = map[string]bool{
		"inativo": true, "inactive": true, "vendido": true, "sold": true, "morto": true, "dead": true,
		"abatido": true, "slaughtered": true, "baixado": true, "transferido": true, "transferred": true,
	}
	cancelledStatuses = map[string]bool{
		"cancelada": true, "cancelado": true, "cancelled": true, "canceled": true, "void": true,
	}
	inboundWords  = map[string]bool{"inbound": true, "in": true, "incoming": true, "entrada": true, "compra": true, "purchase": true, "e": true}
	outboundWords = map[string]bool{"outbound": true, "out": true, "outgoing": true, "saida": true, "venda": true, "sale": true, "s": true}
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"02/01/2006",
}

func firstValue(row domain.RawRow, keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func firstString(row domain.RawRow, keys ...string) string {
	v, ok := firstValue(row, keys...)
	if !ok {
		return ""
	}
	return asString(v)
}

// allStrings collects every non-empty value among keys.
func allStrings(row domain.RawRow, keys ...string) []string {
	var out []string
	for _, k := range keys {
		if v, ok := firstValue(row, k); ok {
			out = append(out, asString(v))
		}
	}
	return out
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func firstDecimal(row domain.RawRow, keys ...string) (decimal.Decimal, bool) {
	v, ok := firstValue(row, keys...)
	if !ok {
		return decimal.Zero, false
	}
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	}
	return parseDecimal(asString(v))
}

// parseDecimal accepts "2", "2.5", "2,5" and "1.200,00".
func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func firstNumber(row domain.RawRow, keys ...string) (float64, bool) {
	d, ok := firstDecimal(row, keys...)
	if !ok {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

func firstTime(row domain.RawRow, keys ...string) (time.Time, bool) {
	v, ok := firstValue(row, keys...)
	if !ok {
		return time.Time{}, false
	}
	if t, isTime := v.(time.Time); isTime {
		return t, !t.IsZero()
	}
	s := asString(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// lineQuantity reads a line item quantity; absent, unparseable and
// non-positive quantities count as one animal. Fractions are truncated. It
// returns false for a quantity above limit.
func lineQuantity(row domain.RawRow, limit int) (int, bool) {
	d, ok := firstDecimal(row, keysQuantity...)
	if !ok {
		return 1, true
	}
	n, ok := boundedCount(d, limit)
	if !ok {
		return 0, false
	}
	if n < 1 {
		return 1, true
	}
	return n, true
}

// boundedCount truncates d to a whole count. Non-positive values come back as
// 0; values above limit are rejected before conversion so huge inputs cannot
// overflow.
func boundedCount(d decimal.Decimal, limit int) (int, bool) {
	whole := d.Truncate(0)
	if whole.Sign() <= 0 {
		return 0, true
	}
	if whole.GreaterThan(decimal.NewFromInt(int64(limit))) {
		return 0, false
	}
	return int(whole.IntPart()), true
}

// isActive treats a record without any status information as active.
func isActive(row domain.RawRow) bool {
	if v, ok := firstValue(row, keysActive...); ok {
		switch t := v.(type) {
		case bool:
			return t
		case int64:
			return t != 0
		case int:
			return t != 0
		case float64:
			return t != 0
		}
		word := normalize.Fold(asString(v))
		switch word {
		case "false", "0", "no", "nao", "n":
			return false
		case "true", "1", "yes", "sim", "s":
			return true
		}
		if inactiveStatuses[word] {
			return false
		}
	}
	if status := firstString(row, keysStatus...); status != "" {
		return !inactiveStatuses[normalize.Fold(status)]
	}
	return true
}

func isCancelled(row domain.RawRow) bool {
	return cancelledStatuses[normalize.Fold(firstString(row, keysStatus...))]
}

// direction treats an invoice without a direction as inbound. A direction
// that is present but not recognized is unknown.
func direction(row domain.RawRow) domain.Direction {
	word := normalize.Fold(firstString(row, keysDirection...))
	switch {
	case word == "":
		return domain.DirectionInbound
	case inboundWords[word]:
		return domain.DirectionInbound
	case outboundWords[word]:
		return domain.DirectionOutbound
	}
	return domain.DirectionUnknown
}

// withinPeriod compares whole days, both bounds inclusive.
func withinPeriod(t, start, end time.Time) bool {
	d := dayOf(t)
	return !d.Before(dayOf(start)) && !d.After(dayOf(end))
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
