package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Cartera-api/pkg/jwt"
)

var roles = []string{jwt.RoleAdmin, jwt.RoleCartera, jwt.RoleVendedor, jwt.RoleAuditor}

func newTokenCommand(a *app) *cobra.Command {
	var (
		userID  string
		role    string
		minutes int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT para el API",
		Long: `Firma un token con JWT_SECRET y JWT_ISSUER de la configuración.
Roles: admin, cartera, vendedor, auditor.`,
		Example: `  JWT_SECRET=... cartera token --user u-1 --company co-1 --role cartera`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireCompany(); err != nil {
				return err
			}
			if a.cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET no configurado")
			}
			if !slices.Contains(roles, role) {
				return fmt.Errorf("rol %q desconocido", role)
			}
			if minutes <= 0 {
				minutes = a.cfg.JWT.Expiration
			}
			token, err := jwt.Generate(a.cfg.JWT.Secret, userID, a.companyID, role, a.cfg.JWT.Issuer, minutes)
			if err != nil {
				return fmt.Errorf("firmar token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "usuario (sub del token)")
	cmd.Flags().StringVar(&role, "role", jwt.RoleAuditor, "rol del usuario")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
