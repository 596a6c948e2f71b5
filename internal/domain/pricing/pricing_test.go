package pricing_test

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/money"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, "esperado "+want+", obtenido "+got.String(), msgAndArgs...)
	}
}

func line(qty, unitExcl, rate string) entity.LineItem {
	return pricing.Price(entity.LineItem{
		Unit:             entity.UnitPcs,
		Quantity:         dec(qty),
		UnitPriceExclVAT: dec(unitExcl),
		VATRate:          dec(rate),
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Redondeo
// ──────────────────────────────────────────────────────────────────────────────

func TestRound2_MitadAlejandoseDeCero(t *testing.T) {
	assertDec(t, "2.35", money.Round2(dec("2.345")))
	assertDec(t, "-2.35", money.Round2(dec("-2.345")))
	assertDec(t, "1.01", money.Round2(dec("1.005")))
	assertDec(t, "0.50", money.Round2(dec("0.495")))
}

func TestRound2_Idempotente(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		x := decimal.New(r.Int63n(10_000_000)-5_000_000, -int32(r.Intn(6)))
		once := money.Round2(x)
		assert.True(t, once.Equal(money.Round2(once)), "round2(round2(%s)) debe ser igual a round2(%s)", x, x)
	}
}

func TestRound3_Cantidades(t *testing.T) {
	assertDec(t, "1.235", money.Round3(dec("1.2345")))
	assertDec(t, "50", money.Round3(dec("50.0004")))
}

// ──────────────────────────────────────────────────────────────────────────────
// UnitConverter
// ──────────────────────────────────────────────────────────────────────────────

func TestConvert_BultoPorDefecto25Kg(t *testing.T) {
	c := pricing.NewUnitConverter(decimal.Zero)
	conv, err := c.Convert(entity.UnitBag, dec("2"), decimal.NullDecimal{}, decimal.Zero)
	require.NoError(t, err)
	assertDec(t, "25", conv.Factor)
	assertDec(t, "50.000", conv.Quantity)
	assert.Equal(t, "50", conv.Quantity.String())
}

func TestConvert_CajaDe12(t *testing.T) {
	c := pricing.NewUnitConverter(decimal.Zero)
	conv, err := c.Convert(entity.UnitBox, dec("3"), decimal.NullDecimal{}, dec("12"))
	require.NoError(t, err)
	assertDec(t, "12", conv.Factor)
	assertDec(t, "36", conv.Quantity)
}

func TestConvert_CajaTruncaFactor(t *testing.T) {
	c := pricing.NewUnitConverter(decimal.Zero)
	conv, err := c.Convert(entity.UnitBox, dec("2"), decimal.NewNullDecimal(dec("12.9")), dec("6"))
	require.NoError(t, err)
	assertDec(t, "12", conv.Factor, "el override tiene prioridad y se trunca")
	assertDec(t, "24", conv.Quantity)
}

func TestConvert_CajaSinFactorUsaUno(t *testing.T) {
	c := pricing.NewUnitConverter(decimal.Zero)
	conv, err := c.Convert(entity.UnitBox, dec("5"), decimal.NullDecimal{}, decimal.Zero)
	require.NoError(t, err)
	assertDec(t, "1", conv.Factor)
	assertDec(t, "5", conv.Quantity)
}

func TestConvert_BultoFactorMinimo(t *testing.T) {
	c := pricing.NewUnitConverter(decimal.Zero)
	conv, err := c.Convert(entity.UnitBag, dec("1000"), decimal.NewNullDecimal(dec("0.0004")), decimal.Zero)
	require.NoError(t, err)
	assertDec(t, "0.001", conv.Factor)
	assertDec(t, "1", conv.Quantity)
}

func TestConvert_BultoDefectoConfigurado(t *testing.T) {
	c := pricing.NewUnitConverter(dec("50"))
	conv, err := c.Convert(entity.UnitBag, dec("1.5"), decimal.NullDecimal{}, decimal.Zero)
	require.NoError(t, err)
	assertDec(t, "75", conv.Quantity)
}

func TestConvert_UnidadesSimplesRedondeanA3(t *testing.T) {
	c := pricing.NewUnitConverter(decimal.Zero)
	for _, u := range []entity.Unit{entity.UnitPcs, entity.UnitKg, entity.UnitG} {
		conv, err := c.Convert(u, dec("1.23456"), decimal.NewNullDecimal(dec("99")), dec("12"))
		require.NoError(t, err)
		assertDec(t, "1", conv.Factor, "unidad %s no usa factor", u)
		assertDec(t, "1.235", conv.Quantity)
	}
}

func TestConvert_CantidadNoPositiva(t *testing.T) {
	c := pricing.NewUnitConverter(decimal.Zero)
	for _, q := range []string{"0", "-1", "-0.001"} {
		_, err := c.Convert(entity.UnitPcs, dec(q), decimal.NullDecimal{}, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "cantidad %s debe rechazarse", q)
	}
}

func TestConvert_UnidadDesconocida(t *testing.T) {
	c := pricing.NewUnitConverter(decimal.Zero)
	_, err := c.Convert(entity.Unit("LITRO"), dec("1"), decimal.NullDecimal{}, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidUnit)
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want entity.Unit
		err  error
	}{
		{"box", entity.UnitBox, nil},
		{" Bag ", entity.UnitBag, nil},
		{"", entity.UnitPcs, nil},
		{"g", entity.UnitG, nil},
		{"ton", "", domain.ErrInvalidUnit},
	}
	for _, tt := range tests {
		got, err := pricing.ParseUnit(tt.in)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// LineItemPricer
// ──────────────────────────────────────────────────────────────────────────────

func TestPrice_DerivadosDeLaLinea(t *testing.T) {
	l := line("3", "9.99", "15")
	assertDec(t, "1.50", l.UnitVAT)
	assertDec(t, "11.49", l.UnitPriceInclVAT)
	assertDec(t, "34.47", l.LineTotal)
}

func TestBuild_ProductoInexistente(t *testing.T) {
	p := pricing.NewLinePricer(pricing.NewUnitConverter(decimal.Zero))
	_, err := p.Build(nil, pricing.LineInput{ProductID: "x", Quantity: dec("1")}, dec("15"))
	assert.ErrorIs(t, err, domain.ErrMissingProduct)
}

func TestBuild_ProductoSinPrecio(t *testing.T) {
	p := pricing.NewLinePricer(pricing.NewUnitConverter(decimal.Zero))
	product := &entity.Product{ID: "p1", Name: "Arroz"}
	_, err := p.Build(product, pricing.LineInput{ProductID: "p1", Quantity: dec("1")}, dec("15"))
	assert.ErrorIs(t, err, domain.ErrMissingPrice)
}

func TestBuild_CantidadCeroSeRechazaAntesDePrecio(t *testing.T) {
	p := pricing.NewLinePricer(pricing.NewUnitConverter(decimal.Zero))
	product := &entity.Product{ID: "p1", SellingPrice: dec("10")}
	_, err := p.Build(product, pricing.LineInput{ProductID: "p1", Quantity: decimal.Zero}, dec("15"))
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestBuild_BultoConPrecioDelProductoYTasaDelDocumento(t *testing.T) {
	p := pricing.NewLinePricer(pricing.NewUnitConverter(decimal.Zero))
	product := &entity.Product{ID: "p1", Name: "Azúcar", SellingPrice: dec("1.20"), KgPerBag: dec("50")}
	l, err := p.Build(product, pricing.LineInput{ProductID: "p1", Unit: entity.UnitBag, Quantity: dec("2")}, dec("15"))
	require.NoError(t, err)
	assert.Equal(t, "Azúcar", l.Description)
	assertDec(t, "100", l.Quantity)
	assertDec(t, "15", l.VATRate)
	assertDec(t, "0.18", l.UnitVAT)
	assertDec(t, "1.38", l.UnitPriceInclVAT)
	assertDec(t, "138.00", l.LineTotal)
}

func TestBuild_OverridesDePrecioYTasa(t *testing.T) {
	p := pricing.NewLinePricer(pricing.NewUnitConverter(decimal.Zero))
	product := &entity.Product{ID: "p1", SellingPrice: dec("10"), UnitsPerBox: dec("6")}
	l, err := p.Build(product, pricing.LineInput{
		ProductID: "p1",
		Unit:      entity.UnitBox,
		Quantity:  dec("2"),
		UnitPrice: decimal.NewNullDecimal(dec("8")),
		VATRate:   decimal.NewNullDecimal(decimal.Zero),
	}, dec("15"))
	require.NoError(t, err)
	assertDec(t, "12", l.Quantity)
	assertDec(t, "0", l.VATRate, "una tasa explícita de 0% se respeta")
	assertDec(t, "96", l.LineTotal)
}

func TestReprice_CambiaSoloLaTasa(t *testing.T) {
	l := pricing.Reprice(line("2", "10", "15"), dec("19"))
	assertDec(t, "1.90", l.UnitVAT)
	assertDec(t, "11.90", l.UnitPriceInclVAT)
	assertDec(t, "23.80", l.LineTotal)
}

// ──────────────────────────────────────────────────────────────────────────────
// TotalsCalculator
// ──────────────────────────────────────────────────────────────────────────────

// El IVA se aplica sobre la base sumada, no redondeando línea por línea.
// Por línea: 3 × round2(0.015) = 0.06; sobre el agregado: round2(0.045) = 0.05.
func TestRecomputeBase_SinDobleRedondeo(t *testing.T) {
	lines := []entity.LineItem{line("1", "0.10", "15"), line("1", "0.10", "15"), line("1", "0.10", "15")}
	tot := pricing.RecomputeBase(lines, pricing.Balances{})
	assertDec(t, "0.30", tot.Subtotal)
	assertDec(t, "0.05", tot.VATAmount)
	assertDec(t, "0.35", tot.Total)
	assert.Equal(t, pricing.BaseRecompute, tot.Mode)
}

func TestRecomputeBase_TasasMixtas(t *testing.T) {
	lines := []entity.LineItem{line("2", "100", "15"), line("1", "50", "0"), line("1.5", "20", "5")}
	tot := pricing.RecomputeBase(lines, pricing.Balances{})
	assertDec(t, "280.00", tot.Subtotal)
	assertDec(t, "31.50", tot.VATAmount) // 200*15% + 0 + 30*5%
	assertDec(t, "311.50", tot.Total)
	assertDec(t, "311.50", tot.GrossTotal)
}

func TestRecomputeBase_EscenarioSaldos(t *testing.T) {
	lines := []entity.LineItem{line("1", "1000", "0")}
	tot := pricing.RecomputeBase(lines, pricing.Balances{
		PreviousBalance: dec("200"),
		AmountPaid:      dec("500"),
		CreditsApplied:  dec("100"),
	})
	assertDec(t, "1000", tot.Total)
	assertDec(t, "1200", tot.GrossTotal)
	assertDec(t, "600", tot.BalanceRemaining)
}

func TestBalanceRemaining_NuncaNegativo(t *testing.T) {
	assertDec(t, "0", pricing.BalanceRemaining(dec("100"), dec("150"), dec("10")))
	assertDec(t, "0.01", pricing.BalanceRemaining(dec("100.006"), dec("100"), decimal.Zero))
}

func TestProportionalDiscount_TasasMixtasPorLinea(t *testing.T) {
	lines := []entity.LineItem{line("1", "100", "15"), line("1", "50", "0")}
	tot, err := pricing.ApplyProportionalDiscount(lines, dec("10"), pricing.Balances{})
	require.NoError(t, err)
	assertDec(t, "150.00", tot.SubtotalBeforeDiscount)
	assertDec(t, "135.00", tot.Subtotal)
	assertDec(t, "13.50", tot.VATAmount, "15% solo sobre la base descontada de la línea gravada")
	assert.False(t, tot.VATAmount.Equal(dec("20.25")), "no se debe aplicar la tasa del documento sobre todo el subtotal")
	assertDec(t, "15.00", tot.DiscountAmount)
	assertDec(t, "148.50", tot.Total)
	assert.Equal(t, pricing.ProportionalDiscount, tot.Mode)
}

// Cada base se descuenta y redondea por separado: 9.99*0.9 = 8.991 → 8.99; 0.55*0.9 = 0.495 → 0.50.
func TestProportionalDiscount_RedondeoPorLineaDeLaBase(t *testing.T) {
	lines := []entity.LineItem{line("3", "3.33", "15"), line("1", "0.55", "0")}
	tot, err := pricing.ApplyProportionalDiscount(lines, dec("10"), pricing.Balances{})
	require.NoError(t, err)
	assertDec(t, "9.49", tot.Subtotal)
	assertDec(t, "1.35", tot.VATAmount) // round2(8.99*0.15 = 1.3485)
	assertDec(t, "10.84", tot.Total)
	assertDec(t, "1.05", tot.DiscountAmount) // round2(10.54*0.10)
}

func TestProportionalDiscount_NoMutaLineas(t *testing.T) {
	lines := []entity.LineItem{line("3", "3.33", "15"), line("2", "7.5", "0")}
	before := make([]entity.LineItem, len(lines))
	copy(before, lines)

	_, err := pricing.ApplyProportionalDiscount(lines, dec("25"), pricing.Balances{})
	require.NoError(t, err)
	assert.Equal(t, before, lines, "las líneas deben quedar intactas")
}

func TestProportionalDiscount_FueraDeRango(t *testing.T) {
	lines := []entity.LineItem{line("1", "10", "15")}
	_, err := pricing.ApplyProportionalDiscount(lines, dec("-1"), pricing.Balances{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = pricing.ApplyProportionalDiscount(lines, dec("100.01"), pricing.Balances{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProportionalDiscount_CeroEquivaleABase(t *testing.T) {
	lines := []entity.LineItem{line("3", "3.33", "15"), line("1", "0.55", "0")}
	base := pricing.RecomputeBase(lines, pricing.Balances{})
	prop, err := pricing.ApplyProportionalDiscount(lines, decimal.Zero, pricing.Balances{})
	require.NoError(t, err)
	assert.True(t, base.Total.Equal(prop.Total))
	assert.True(t, prop.DiscountAmount.IsZero())
}

// subtotal + IVA == total al centavo, en ambos modos, para conjuntos aleatorios de líneas.
func TestTotals_SubtotalMasIVAIgualTotal(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	rates := []string{"0", "5", "15", "19"}
	for i := 0; i < 200; i++ {
		n := 1 + r.Intn(8)
		lines := make([]entity.LineItem, n)
		for j := range lines {
			lines[j] = pricing.Price(entity.LineItem{
				Quantity:         decimal.New(1+r.Int63n(50_000), -3),
				UnitPriceExclVAT: decimal.New(1+r.Int63n(100_000), -2),
				VATRate:          dec(rates[r.Intn(len(rates))]),
			})
		}
		b := pricing.Balances{PreviousBalance: decimal.New(r.Int63n(10_000), -2), AmountPaid: decimal.New(r.Int63n(100_000), -2)}

		base := pricing.RecomputeBase(lines, b)
		assert.True(t, base.Subtotal.Add(base.VATAmount).Equal(base.Total), "base: %s + %s != %s", base.Subtotal, base.VATAmount, base.Total)
		assert.False(t, base.BalanceRemaining.IsNegative())

		d := decimal.New(r.Int63n(10_000), -2)
		prop, err := pricing.ApplyProportionalDiscount(lines, d, b)
		require.NoError(t, err)
		assert.True(t, prop.Subtotal.Add(prop.VATAmount).Equal(prop.Total), "proporcional: %s + %s != %s", prop.Subtotal, prop.VATAmount, prop.Total)
		want := money.Round2(money.NonNegative(prop.GrossTotal.Sub(prop.AmountPaid).Sub(prop.CreditsApplied)))
		assert.True(t, want.Equal(prop.BalanceRemaining))
	}
}

func TestRecompute_Despacho(t *testing.T) {
	lines := []entity.LineItem{line("1", "100", "15")}
	tot, err := pricing.Recompute(pricing.BaseRecompute, lines, dec("50"), pricing.Balances{})
	require.NoError(t, err)
	assertDec(t, "115", tot.Total, "en modo base el descuento se ignora")

	_, err = pricing.Recompute(pricing.RecomputeMode(99), lines, decimal.Zero, pricing.Balances{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseRecomputeMode(t *testing.T) {
	m, err := pricing.ParseRecomputeMode("Base")
	require.NoError(t, err)
	assert.Equal(t, pricing.BaseRecompute, m)
	m, err = pricing.ParseRecomputeMode("proportional")
	require.NoError(t, err)
	assert.Equal(t, pricing.ProportionalDiscount, m)
	_, err = pricing.ParseRecomputeMode("magic")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTotals_ApplyToYTotalsOf(t *testing.T) {
	lines := []entity.LineItem{line("1", "100", "15")}
	tot, err := pricing.ApplyProportionalDiscount(lines, dec("10"), pricing.Balances{PreviousBalance: dec("5")})
	require.NoError(t, err)

	inv := &entity.Invoice{}
	tot.ApplyTo(inv)
	assertDec(t, "103.50", inv.Total)
	assertDec(t, "108.50", inv.GrossTotal)
	assertDec(t, "10", inv.DiscountPercent)

	back := pricing.TotalsOf(inv)
	assert.Equal(t, pricing.ProportionalDiscount, back.Mode)
	assert.True(t, back.BalanceRemaining.Equal(tot.BalanceRemaining))
}
