// Command ledgerctl inspects and maintains wallet ledgers from the shell:
// balances, history, drift audits, locks and expiry of abandoned gateway
// fundings.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"edupay/internal/config"
	"edupay/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = newRootCmd()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Inspect and maintain wallet ledgers",
		Long: `ledgerctl talks to the wallet ledger directly, bypassing the HTTP API.

Configuration comes from the same environment as the server, a .env file,
an optional YAML config file, and EDUPAY_* variables (EDUPAY_DATABASE_HOST,
EDUPAY_LEDGER_STORE, ...), in increasing order of precedence.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ledgerctl.yaml)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("store", "", "ledger store (sql, redis)")
	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("ledger.store", root.PersistentFlags().Lookup("store"))

	root.AddCommand(balanceCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(auditCmd())
	root.AddCommand(lockCmd())
	root.AddCommand(unlockCmd())
	root.AddCommand(expireCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	config.LoadEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("ledgerctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("EDUPAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	slog.SetDefault(logging.NewWithWriter(config.LoggingConfig{
		Level:  viper.GetString("logging.level"),
		Format: "text",
	}, os.Stderr))
	return nil
}

// loadConfig overlays viper settings on the server's environment config.
func loadConfig() config.Config {
	cfg := config.Load()

	overrides := map[string]*string{
		"database.host":     &cfg.Database.Host,
		"database.port":     &cfg.Database.Port,
		"database.user":     &cfg.Database.User,
		"database.password": &cfg.Database.Password,
		"database.name":     &cfg.Database.Name,
		"database.sslmode":  &cfg.Database.SSLMode,
		"redis.host":        &cfg.Redis.Host,
		"redis.port":        &cfg.Redis.Port,
		"redis.password":    &cfg.Redis.Password,
		"ledger.store":      &cfg.Wallet.Store,
		"payment.gateway":   &cfg.Payment.Gateway,
	}
	for key, dst := range overrides {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	if viper.IsSet("redis.db") {
		cfg.Redis.DB = viper.GetInt("redis.db")
	}
	return cfg
}
