// Package pdf genera el estado de cuenta imprimible del cliente.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: ESTADO DE CUENTA     │  Periodo + fecha de corte    │
//	│  CLIENTE: Nombre + NIT/CC + contacto                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Fecha | Tipo | Referencia | Movimiento | Saldo       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SALDOS: inicial / final                                     │
//	│  NOTAS: abonos generados por conciliación                    │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/application/statement"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

var _ statement.PDFRenderer = (*StatementRenderer)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 160, Green: 30, Blue: 30}
)

var kindLabels = map[string]string{
	"OPENING":     "Saldo anterior",
	"INVOICE":     "Factura",
	"CREDIT_NOTE": "Nota crédito",
	"PAYMENT":     "Abono",
}

// ── Renderer ──────────────────────────────────────────────────────────────────

// StatementRenderer implementa statement.PDFRenderer usando Maroto v2.
type StatementRenderer struct {
	company string
	printer *message.Printer
}

// NewStatementRenderer construye el renderer. company aparece como autor y en el encabezado.
func NewStatementRenderer(company string) *StatementRenderer {
	return &StatementRenderer{
		company: company,
		printer: message.NewPrinter(language.Spanish),
	}
}

// RenderStatement genera el PDF y devuelve sus bytes.
func (g *StatementRenderer) RenderStatement(_ context.Context, customer *entity.Customer, st *dto.StatementResponse) ([]byte, error) {
	if st == nil {
		return nil, fmt.Errorf("pdf: estado de cuenta vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Estado de cuenta", true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(st))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(customer, st))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(g.movementRows(st.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.balancesRow(st))

	if len(st.Reconciliations) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(g.reconciliationRows(st.Reconciliations)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *StatementRenderer) headerRow(st *dto.StatementResponse) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(g.company, "Cartera"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("ESTADO DE CUENTA", props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Periodo", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(st.From+" a "+st.To, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
		),
	)
}

func customerRow(customer *entity.Customer, st *dto.StatementResponse) core.Row {
	name, taxID, email, phone := st.CustomerName, "—", "—", "—"
	if customer != nil {
		name = customer.Name
		taxID = nonEmpty(customer.TaxID, "—")
		email = nonEmpty(customer.Email, "—")
		phone = nonEmpty(customer.Phone, "—")
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(name, st.CustomerID), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("NIT/CC: %s   |   Email: %s   |   Tel: %s", taxID, email, phone),
				props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Referencia", 3, align.Left),
		h("Movimiento", 2, align.Right),
		h("Saldo", 3, align.Right),
	)
}

func (g *StatementRenderer) movementRows(lines []dto.StatementLineResponse) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		kind := kindLabels[l.Kind]
		if kind == "" {
			kind = l.Kind
		}
		if l.Synthetic {
			kind += " *"
		}
		amountProps := props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1}
		if l.Amount.IsNegative() {
			amountProps.Color = colorRed
		}
		result = append(result, row.New(6).Add(
			col.New(2).Add(text.New(l.Date, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(kind, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(l.Reference, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(g.money(l.Amount), amountProps)),
			col.New(3).Add(text.New(g.money(l.Balance), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func (g *StatementRenderer) balancesRow(st *dto.StatementResponse) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(
			label("Saldo inicial:"),
			text.New("SALDO FINAL:", props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 6,
			}),
		),
		col.New(3).Add(
			text.New(g.money(st.OpeningBalance), props.Text{Size: 9, Align: align.Right, Right: 1}),
			text.New(g.money(st.ClosingBalance), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 6,
			}),
		),
	)
}

func (g *StatementRenderer) reconciliationRows(recs []dto.ReconciliationResponse) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("* Abonos generados por conciliación (factura pagada sin abonos registrados)", props.Text{
				Style: fontstyle.Bold, Size: 7, Color: colorGray, Top: 1,
			}),
		)),
	}
	for _, r := range recs {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(fmt.Sprintf("%s (%s): total %s, registrado %s, faltante %s",
				r.Reference, r.Date, g.money(r.Total), g.money(r.Matched), g.money(r.Shortfall)),
				props.Text{Size: 7, Color: colorGray, Left: 2}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

// money formatea con separadores de miles en es: 1234.5 → "$1.234,50".
func (g *StatementRenderer) money(d decimal.Decimal) string {
	return g.printer.Sprintf("$%.2f", d.Round(2).InexactFloat64())
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
