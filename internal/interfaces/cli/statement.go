package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Cartera-api/internal/application/statement"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/ledger"
	infrapdf "github.com/jhoicas/Cartera-api/internal/infrastructure/pdf"
)

func newStatementCommand(a *app) *cobra.Command {
	var (
		from, to string
		all      bool
		pdfOut   string
	)
	cmd := &cobra.Command{
		Use:   "statement [customer-id...]",
		Short: "Estado de cuenta de uno o varios clientes",
		Long: `Arma el estado de cuenta en [--from, --to] con saldo inicial, movimientos y saldo final.
Con --all incluye todos los clientes de la empresa. --pdf solo admite un cliente.`,
		Example: `  cartera statement cli-7 --company co-1 --from 2024-01-01 --to 2024-03-31
  cartera statement cli-7 --company co-1 --from 2024-01-01 --to 2024-03-31 --pdf estado.pdf
  cartera statement --all --company co-1 --from 2024-01-01 --to 2024-01-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireCompany(); err != nil {
				return err
			}
			if to == "" {
				to = time.Now().Format(time.DateOnly)
			}
			start, end, err := ledger.ParseWindow(from, to)
			if err != nil {
				return err
			}
			store, err := a.loadStore()
			if err != nil {
				return err
			}
			ids := args
			if all {
				ids = store.CustomerIDs(a.companyID)
			}
			if len(ids) == 0 {
				return fmt.Errorf("%w: indique al menos un cliente o --all", domain.ErrInvalidInput)
			}

			r := store.Repos()
			uc := statement.NewUseCase(r.Customers, r.Invoices, r.Payments, r.CreditNotes,
				infrapdf.NewStatementRenderer(a.cfg.App.Name), a.cfg.Ledger.StatementParallelism, a.log)

			ctx := cmd.Context()
			if pdfOut != "" {
				if len(ids) != 1 {
					return fmt.Errorf("%w: --pdf admite un solo cliente", domain.ErrInvalidInput)
				}
				data, filename, err := uc.StatementPDF(ctx, a.companyID, ids[0], start, end)
				if err != nil {
					return err
				}
				a.log.Info().Str("customer_id", ids[0]).Str("file", filename).Int("bytes", len(data)).Msg("estado de cuenta PDF generado")
				return writeOutput(cmd.OutOrStdout(), pdfOut, data)
			}

			if len(ids) == 1 {
				res, err := uc.GetStatement(ctx, a.companyID, ids[0], start, end)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			}
			res, err := uc.GetStatements(ctx, a.companyID, ids, start, end)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "inicio del período (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "fin del período (YYYY-MM-DD, por defecto hoy)")
	cmd.Flags().BoolVar(&all, "all", false, "todos los clientes de la empresa")
	cmd.Flags().StringVar(&pdfOut, "pdf", "", "generar PDF en este archivo (- para stdout)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
