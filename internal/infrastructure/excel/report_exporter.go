// Package excel exporta los reportes netos a libros XLSX.
package excel

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/application/reporting"
)

var _ reporting.XLSXExporter = (*ReportExporter)(nil)

// SheetName nombre de la hoja con los datos.
const SheetName = "Reporte"

var (
	periodHeadings = []string{
		"Periodo", "Facturas", "Notas crédito", "Clientes", "Cantidad",
		"Subtotal", "IVA", "Descuento", "Total", "Recaudado", "Neto después de abonos",
	}
	rollupHeadings = []string{
		"Periodo", "Dimensión", "ID", "Cantidad",
		"Subtotal", "IVA", "Total", "Recaudado", "Neto después de abonos", "Documentos",
	}
)

// ReportExporter implementa reporting.XLSXExporter con excelize.
type ReportExporter struct{}

// NewReportExporter construye el exportador.
func NewReportExporter() *ReportExporter { return &ReportExporter{} }

// ExportReport escribe encabezado en negrilla y una fila por bucket. Montos como números
// con formato #,##0.00 para que la hoja pueda sumarlos.
func (e *ReportExporter) ExportReport(_ context.Context, r *dto.ReportResponse) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("excel: reporte vacío")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("excel: renombrar hoja: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo encabezado: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("excel: estilo montos: %w", err)
	}

	var rows [][]any
	var headings []string
	var moneyCols []int // índices 1-based
	if r.Key == reporting.KeyNetSales {
		headings = periodHeadings
		moneyCols = []int{6, 7, 8, 9, 10, 11}
		for _, p := range r.Periods {
			rows = append(rows, []any{
				p.Key, p.InvoiceCount, p.CreditNoteCount, p.CustomerCount, num(p.Quantity),
				num(p.Subtotal), num(p.VATAmount), num(p.DiscountAmount), num(p.Total),
				num(p.Collected), num(p.NetAfterPayments),
			})
		}
	} else {
		headings = rollupHeadings
		moneyCols = []int{5, 6, 7, 8, 9}
		for _, ru := range r.Rollups {
			rows = append(rows, []any{
				ru.Key, ru.Dimension, ru.DimensionID, num(ru.Quantity),
				num(ru.Subtotal), num(ru.VATAmount), num(ru.Total),
				num(ru.Collected), num(ru.NetAfterPayments), ru.DocumentCount,
			})
		}
	}

	for i, h := range headings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, fmt.Errorf("excel: encabezado: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headings), 1)
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("excel: estilo encabezado: %w", err)
	}

	for ri, values := range rows {
		for ci, v := range values {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("excel: fila %d: %w", ri+2, err)
			}
		}
	}
	if len(rows) > 0 {
		for _, c := range moneyCols {
			top, _ := excelize.CoordinatesToCellName(c, 2)
			bottom, _ := excelize.CoordinatesToCellName(c, len(rows)+1)
			if err := f.SetCellStyle(SheetName, top, bottom, moneyStyle); err != nil {
				return nil, fmt.Errorf("excel: estilo montos: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("excel: escribir libro: %w", err)
	}
	return buf.Bytes(), nil
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
