package pricing

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/money"
	"github.com/shopspring/decimal"
)

// RecomputeMode algoritmo de totales elegido por quien invoca el recálculo.
type RecomputeMode int

const (
	// BaseRecompute: las líneas son la fuente de verdad, sin descuento.
	BaseRecompute RecomputeMode = iota + 1
	// ProportionalDiscount: el descuento se reparte línea a línea sin tocar las líneas.
	ProportionalDiscount
)

func (m RecomputeMode) String() string {
	switch m {
	case BaseRecompute:
		return "base"
	case ProportionalDiscount:
		return "proportional"
	}
	return "unknown"
}

// ParseRecomputeMode acepta "base" o "proportional" (sin distinguir mayúsculas).
func ParseRecomputeMode(s string) (RecomputeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "base", "base_recompute":
		return BaseRecompute, nil
	case "proportional", "proportional_discount":
		return ProportionalDiscount, nil
	}
	return 0, fmt.Errorf("%w: modo de recálculo %q", domain.ErrInvalidInput, s)
}

// Balances montos de cabecera que no salen de las líneas.
type Balances struct {
	PreviousBalance decimal.Decimal
	AmountPaid      decimal.Decimal
	CreditsApplied  decimal.Decimal
}

// BalancesOf extrae los saldos actuales de una factura.
func BalancesOf(inv *entity.Invoice) Balances {
	return Balances{
		PreviousBalance: inv.PreviousBalance,
		AmountPaid:      inv.AmountPaid,
		CreditsApplied:  inv.CreditsApplied,
	}
}

// Totals objeto de valor cerrado que se persiste en la cabecera.
// Subtotal es siempre el neto después de descuento, de modo que Subtotal + VATAmount == Total.
type Totals struct {
	Mode                   RecomputeMode
	SubtotalBeforeDiscount decimal.Decimal
	Subtotal               decimal.Decimal
	VATAmount              decimal.Decimal
	DiscountPercent        decimal.Decimal
	DiscountAmount         decimal.Decimal
	Total                  decimal.Decimal
	PreviousBalance        decimal.Decimal
	GrossTotal             decimal.Decimal
	AmountPaid             decimal.Decimal
	CreditsApplied         decimal.Decimal
	BalanceRemaining       decimal.Decimal
}

// RecomputeBase calcula totales con las líneas como fuente de verdad.
//
// Las bases sin IVA se suman sin redondear por tasa, el IVA se aplica una vez por tasa
// y se redondea una sola vez sobre el agregado. Nunca se redondea por línea para volver a sumar.
func RecomputeBase(lines []entity.LineItem, b Balances) Totals {
	buckets := bucketByRate(lines)

	base := decimal.Zero
	vat := decimal.Zero
	for _, bk := range buckets {
		base = base.Add(bk.base)
		vat = vat.Add(money.Percent(bk.base, bk.rate))
	}

	subtotal := money.Round2(base)
	t := Totals{
		Mode:                   BaseRecompute,
		SubtotalBeforeDiscount: subtotal,
		Subtotal:               subtotal,
		VATAmount:              money.Round2(vat),
		DiscountPercent:        decimal.Zero,
		DiscountAmount:         decimal.Zero,
	}
	t.Total = money.Round2(t.Subtotal.Add(t.VATAmount))
	return t.withBalances(b)
}

// ApplyProportionalDiscount aplica un descuento porcentual sin modificar las líneas.
//
// Por línea: baseAfter = round2(qty*unit_excl*(1-d/100)); IVA desde baseAfter con la tasa propia de la línea.
// Subtotal e IVA se suman y redondean una sola vez. DiscountAmount = round2(subtotal_original*d/100).
func ApplyProportionalDiscount(lines []entity.LineItem, discountPct decimal.Decimal, b Balances) (Totals, error) {
	if discountPct.IsNegative() || discountPct.GreaterThan(money.Hundred) {
		return Totals{}, fmt.Errorf("%w: descuento %s%% fuera de [0, 100]", domain.ErrInvalidInput, discountPct.String())
	}
	keep := one.Sub(discountPct.Shift(-2))

	original := decimal.Zero
	discounted := decimal.Zero
	vat := decimal.Zero
	for i := range lines {
		lineExcl := lines[i].ExclVATAmount()
		baseAfter := money.Round2(lineExcl.Mul(keep))
		original = original.Add(lineExcl)
		discounted = discounted.Add(baseAfter)
		vat = vat.Add(money.Percent(baseAfter, lines[i].VATRate))
	}

	originalSubtotal := money.Round2(original)
	t := Totals{
		Mode:                   ProportionalDiscount,
		SubtotalBeforeDiscount: originalSubtotal,
		Subtotal:               money.Round2(discounted),
		VATAmount:              money.Round2(vat),
		DiscountPercent:        discountPct,
		DiscountAmount:         money.Round2(money.Percent(originalSubtotal, discountPct)),
	}
	t.Total = money.Round2(t.Subtotal.Add(t.VATAmount))
	return t.withBalances(b), nil
}

// Recompute despacha al algoritmo indicado. En BaseRecompute el descuento se ignora.
func Recompute(mode RecomputeMode, lines []entity.LineItem, discountPct decimal.Decimal, b Balances) (Totals, error) {
	switch mode {
	case BaseRecompute:
		return RecomputeBase(lines, b), nil
	case ProportionalDiscount:
		return ApplyProportionalDiscount(lines, discountPct, b)
	}
	return Totals{}, fmt.Errorf("%w: modo de recálculo %d", domain.ErrInvalidInput, int(mode))
}

// BalanceRemaining = round2(max(0, gross - paid - credits)).
func BalanceRemaining(gross, paid, credits decimal.Decimal) decimal.Decimal {
	return money.Round2(money.NonNegative(gross.Sub(paid).Sub(credits)))
}

// WithPayments recalcula solo los saldos (pagos y créditos) sobre totales existentes.
func (t Totals) WithPayments(paid, credits decimal.Decimal) Totals {
	t.AmountPaid = paid
	t.CreditsApplied = credits
	t.BalanceRemaining = BalanceRemaining(t.GrossTotal, paid, credits)
	return t
}

// ApplyTo copia los totales en la cabecera de la factura.
func (t Totals) ApplyTo(inv *entity.Invoice) {
	inv.SubtotalBeforeDiscount = t.SubtotalBeforeDiscount
	inv.Subtotal = t.Subtotal
	inv.VATAmount = t.VATAmount
	inv.DiscountPercent = t.DiscountPercent
	inv.DiscountAmount = t.DiscountAmount
	inv.Total = t.Total
	inv.PreviousBalance = t.PreviousBalance
	inv.GrossTotal = t.GrossTotal
	inv.AmountPaid = t.AmountPaid
	inv.CreditsApplied = t.CreditsApplied
	inv.BalanceRemaining = t.BalanceRemaining
}

// TotalsOf reconstruye el objeto de valor desde una cabecera persistida.
func TotalsOf(inv *entity.Invoice) Totals {
	mode := BaseRecompute
	if inv.DiscountPercent.IsPositive() {
		mode = ProportionalDiscount
	}
	return Totals{
		Mode:                   mode,
		SubtotalBeforeDiscount: inv.SubtotalBeforeDiscount,
		Subtotal:               inv.Subtotal,
		VATAmount:              inv.VATAmount,
		DiscountPercent:        inv.DiscountPercent,
		DiscountAmount:         inv.DiscountAmount,
		Total:                  inv.Total,
		PreviousBalance:        inv.PreviousBalance,
		GrossTotal:             inv.GrossTotal,
		AmountPaid:             inv.AmountPaid,
		CreditsApplied:         inv.CreditsApplied,
		BalanceRemaining:       inv.BalanceRemaining,
	}
}

// ApplyToCreditNote copia subtotal, IVA y total en la nota crédito (sin descuento).
func (t Totals) ApplyToCreditNote(cn *entity.CreditNote) {
	cn.Subtotal = t.Subtotal
	cn.VATAmount = t.VATAmount
	cn.Total = t.Total
}

func (t Totals) withBalances(b Balances) Totals {
	t.PreviousBalance = b.PreviousBalance
	t.GrossTotal = money.Round2(t.Total.Add(b.PreviousBalance))
	return t.WithPayments(b.AmountPaid, b.CreditsApplied)
}

type rateBucket struct {
	rate decimal.Decimal
	base decimal.Decimal
}

// bucketByRate agrupa las bases sin IVA por tasa conservando el orden de aparición.
func bucketByRate(lines []entity.LineItem) []rateBucket {
	var buckets []rateBucket
	index := make(map[string]int)
	for i := range lines {
		key := lines[i].VATRate.String()
		pos, ok := index[key]
		if !ok {
			pos = len(buckets)
			index[key] = pos
			buckets = append(buckets, rateBucket{rate: lines[i].VATRate})
		}
		buckets[pos].base = buckets[pos].base.Add(lines[i].ExclVATAmount())
	}
	return buckets
}
