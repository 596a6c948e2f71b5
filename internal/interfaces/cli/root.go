// Package cli comandos de línea para operar la cartera sobre un volcado JSON sin base de datos:
// recálculo de totales, estados de cuenta, reportes netos y emisión de tokens.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jhoicas/Cartera-api/internal/infrastructure/snapshot"
	"github.com/jhoicas/Cartera-api/pkg/config"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

var version = "1.0.0"

// app estado compartido entre comandos; se llena en PersistentPreRunE.
type app struct {
	configFile   string
	snapshotPath string
	companyID    string

	cfg   *config.Config
	log   *logger.Logger
	store *snapshot.Store
}

// NewRootCommand arma el árbol de comandos. Salida en cmd.OutOrStdout, logs en cmd.ErrOrStderr.
func NewRootCommand() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "cartera",
		Short: "Totales de facturas, estados de cuenta y reportes de cartera",
		Long: `cartera opera sobre un volcado JSON (--snapshot) con clientes, productos,
facturas, notas crédito y abonos, usando las mismas reglas de cálculo del API.

La configuración se lee de variables de entorno (DEFAULT_KG_PER_BAG, DEFAULT_VAT_PERCENT,
JWT_SECRET, LOG_LEVEL, ...) y opcionalmente de un archivo --config.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "archivo de configuración (env, yaml o json)")
	root.PersistentFlags().StringVar(&a.snapshotPath, "snapshot", "cartera.json", "volcado JSON de la cartera")
	root.PersistentFlags().StringVar(&a.companyID, "company", "", "empresa (company_id) sobre la que se opera")

	root.AddCommand(
		newTotalsCommand(a),
		newStatementCommand(a),
		newReportCommand(a),
		newTokenCommand(a),
	)
	return root
}

// Execute corre el CLI y termina el proceso con código 1 si el comando falla.
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init(cmd *cobra.Command) error {
	v := viper.New()
	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("leer configuración: %w", err)
		}
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.App.LogLevel).Component("cli")
	return nil
}

// loadStore abre el volcado una sola vez por ejecución.
func (a *app) loadStore() (*snapshot.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := snapshot.LoadFile(a.snapshotPath)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.log.Debug().Str("snapshot", a.snapshotPath).Msg("volcado cargado")
	return s, nil
}

func (a *app) requireCompany() error {
	if a.companyID == "" {
		return fmt.Errorf("--company es obligatorio")
	}
	return nil
}

// saveStore reescribe el volcado en path (por defecto el mismo --snapshot).
func (a *app) saveStore(path string) error {
	if path == "" {
		path = a.snapshotPath
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("escribir snapshot: %w", err)
	}
	if err := a.store.Save(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("escribir snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("escribir snapshot: %w", err)
	}
	a.log.Info().Str("snapshot", path).Msg("volcado actualizado")
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput escribe data en path, o en w si path es vacío o "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", path, err)
	}
	return nil
}
