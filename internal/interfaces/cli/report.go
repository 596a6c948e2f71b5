package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/application/reporting"
	infraexcel "github.com/jhoicas/Cartera-api/internal/infrastructure/excel"
)

func newReportCommand(a *app) *cobra.Command {
	var (
		q   dto.ReportQuery
		out string
	)
	cmd := &cobra.Command{
		Use:       "report <key>",
		Short:     "Reporte neto de ventas: " + strings.Join(reporting.Keys(), ", "),
		ValidArgs: reporting.Keys(),
		Args:      cobra.ExactArgs(1),
		Example: `  cartera report net-sales --company co-1 --from 2024-01-01 --to 2024-06-30 --granularity month
  cartera report products --company co-1 --from 2024-01-01 --to 2024-01-31 --format xlsx --out productos.xlsx
  cartera report customers --company co-1 --from 2024-01-01 --to 2024-01-31 --format csv --charset windows-1252`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireCompany(); err != nil {
				return err
			}
			store, err := a.loadStore()
			if err != nil {
				return err
			}
			r := store.Repos()
			uc := reporting.NewUseCase(r.Invoices, r.CreditNotes, r.Payments, infraexcel.NewReportExporter(), a.log)

			key := args[0]
			format := strings.ToLower(q.Format)
			if format == "" || format == "json" {
				res, err := uc.Run(cmd.Context(), a.companyID, key, q)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			}
			if format == "xlsx" && (out == "" || out == "-") {
				return fmt.Errorf("--format xlsx requiere --out")
			}
			data, filename, _, err := uc.Export(cmd.Context(), a.companyID, key, q)
			if err != nil {
				return err
			}
			a.log.Info().Str("report", key).Str("file", filename).Int("bytes", len(data)).Msg("reporte exportado")
			return writeOutput(cmd.OutOrStdout(), out, data)
		},
	}
	cmd.Flags().StringVar(&q.From, "from", "", "inicio del período (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.To, "to", "", "fin del período (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.Granularity, "granularity", "month", "day o month")
	cmd.Flags().StringVar(&q.Format, "format", "json", "json, csv o xlsx")
	cmd.Flags().StringVar(&q.Charset, "charset", "utf-8", "codificación CSV: utf-8 o windows-1252")
	cmd.Flags().StringVar(&out, "out", "", "archivo de salida (por defecto stdout)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
