package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Cartera-api/internal/application/billing"
	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
	"github.com/jhoicas/Cartera-api/internal/infrastructure/lock"
)

func newTotalsCommand(a *app) *cobra.Command {
	var (
		mode       string
		discount   string
		vat        string
		autoRecalc bool
		write      bool
		out        string
	)
	cmd := &cobra.Command{
		Use:   "totals <invoice-id>",
		Short: "Recalcula los totales de una factura",
		Long: `Recalcula la cabecera de la factura desde sus líneas.

Con --discount fija el descuento del documento y lo reparte por línea; con --vat cambia la
tasa del documento y re-valoriza las líneas que la seguían. Sin --write el volcado no cambia.`,
		Example: `  cartera totals fv-102 --company co-1
  cartera totals fv-102 --company co-1 --mode proportional
  cartera totals fv-102 --company co-1 --discount 5 --write`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireCompany(); err != nil {
				return err
			}
			if discount != "" && vat != "" {
				return fmt.Errorf("%w: --discount y --vat son excluyentes", domain.ErrInvalidInput)
			}
			store, err := a.loadStore()
			if err != nil {
				return err
			}
			pricer := pricing.NewLinePricer(pricing.NewUnitConverter(a.cfg.Ledger.DefaultKgPerBag))
			uc := billing.NewInvoiceUseCase(store, lock.NewLocalLocker(), store.Repos().Invoices, pricer, a.log)

			ctx := cmd.Context()
			invoiceID := args[0]
			var res *dto.InvoiceResponse
			switch {
			case discount != "":
				pct, err := decimal.NewFromString(discount)
				if err != nil {
					return fmt.Errorf("%w: --discount %q", domain.ErrInvalidInput, discount)
				}
				res, err = uc.ApplyDiscount(ctx, a.companyID, invoiceID, pct, autoRecalc)
				if err != nil {
					return err
				}
			case vat != "":
				pct, err := decimal.NewFromString(vat)
				if err != nil {
					return fmt.Errorf("%w: --vat %q", domain.ErrInvalidInput, vat)
				}
				res, err = uc.SetVATPercent(ctx, a.companyID, invoiceID, pct)
				if err != nil {
					return err
				}
			default:
				m, err := pricing.ParseRecomputeMode(mode)
				if err != nil {
					return err
				}
				res, err = uc.Recompute(ctx, a.companyID, invoiceID, m)
				if err != nil {
					return err
				}
			}

			if write || out != "" {
				if err := a.saveStore(out); err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "base", "modo de recálculo: base o proportional")
	cmd.Flags().StringVar(&discount, "discount", "", "descuento del documento en porcentaje [0, 100]")
	cmd.Flags().BoolVar(&autoRecalc, "auto-recalc", true, "con --discount, recalcular primero desde las líneas")
	cmd.Flags().StringVar(&vat, "vat", "", "nueva tasa de IVA del documento en porcentaje")
	cmd.Flags().BoolVar(&write, "write", false, "guardar el resultado en el volcado")
	cmd.Flags().StringVar(&out, "out", "", "guardar el volcado resultante en otro archivo")
	return cmd
}
