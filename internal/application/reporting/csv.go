package reporting

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
)

var (
	periodHeader = []string{
		"periodo", "facturas", "notas_credito", "clientes", "cantidad",
		"subtotal", "iva", "descuento", "total", "recaudado", "neto_despues_de_abonos",
	}
	rollupHeader = []string{
		"periodo", "dimension", "dimension_id", "cantidad",
		"subtotal", "iva", "total", "recaudado", "neto_despues_de_abonos", "documentos",
	}
)

// WriteCSV escribe el reporte con separador coma y fin de línea CRLF. Los montos van con
// dos decimales y punto decimal para que la hoja los lea como números. charset
// "windows-1252" reescribe la salida en esa página de códigos (Excel en español).
func WriteCSV(w io.Writer, r *dto.ReportResponse, charset string) error {
	if !isWindows1252(charset) {
		return writeCSV(w, r)
	}
	tw := transform.NewWriter(w, charmap.Windows1252.NewEncoder())
	if err := writeCSV(tw, r); err != nil {
		return err
	}
	return tw.Close()
}

func writeCSV(w io.Writer, r *dto.ReportResponse) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if r.Key == KeyNetSales {
		if err := cw.Write(periodHeader); err != nil {
			return err
		}
		for _, p := range r.Periods {
			row := []string{
				p.Key,
				strconv.Itoa(p.InvoiceCount),
				strconv.Itoa(p.CreditNoteCount),
				strconv.Itoa(p.CustomerCount),
				p.Quantity.StringFixed(3),
				p.Subtotal.StringFixed(2),
				p.VATAmount.StringFixed(2),
				p.DiscountAmount.StringFixed(2),
				p.Total.StringFixed(2),
				p.Collected.StringFixed(2),
				p.NetAfterPayments.StringFixed(2),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	} else {
		if err := cw.Write(rollupHeader); err != nil {
			return err
		}
		for _, ru := range r.Rollups {
			row := []string{
				ru.Key,
				ru.Dimension,
				ru.DimensionID,
				ru.Quantity.StringFixed(3),
				ru.Subtotal.StringFixed(2),
				ru.VATAmount.StringFixed(2),
				ru.Total.StringFixed(2),
				ru.Collected.StringFixed(2),
				ru.NetAfterPayments.StringFixed(2),
				strconv.Itoa(ru.DocumentCount),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func isWindows1252(charset string) bool {
	return strings.EqualFold(charset, "windows-1252")
}
