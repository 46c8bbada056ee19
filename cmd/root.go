package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/price-tracker/internal/config"
)

var (
	cfg         *config.Config
	catalogPath string
)

var rootCmd = &cobra.Command{
	Use:   "price-tracker",
	Short: "Hardware price history across retailers",
	Long:  "Scrapes Micro Center, Newegg and ShopBLT product pages, appends prices to a JSON catalog, and serves or exports the history.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if catalogPath != "" {
			c.Catalog.Path = catalogPath
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog file (default from config)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		zap.L().Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}
