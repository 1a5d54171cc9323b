package main

import (
	"fmt"
	"os"

	"github.com/ashwinyue/assessly/internal/config"
	"github.com/ashwinyue/assessly/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version 构建时通过 -ldflags 注入
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "assessly",
	Short: "Assessly HR assistant chat service",
	Long: `Assessly answers website chat messages from a FAQ table, collects contact
details through a short form dialogue and falls back to a generative model.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./configs/config.yaml"
	}
	rootCmd.PersistentFlags().String("config", defaultPath, "Path to the YAML config file (optional)")
}

// loadConfig 加载配置并创建日志器
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if version != "dev" {
		cfg.App.Version = version
	}

	log, err := logger.New(cfg.App.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, log, nil
}
