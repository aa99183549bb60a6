package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aussiebroadwan/influxmcp/internal/server/app"
)

func serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}
	addServeFlags(cmd.Flags(), &flags)
	return cmd
}

func addServeFlags(f *pflag.FlagSet, flags *serveFlags) {
	f.StringVarP(&flags.configFile, "config", "c", "", "YAML config file; environment variables override its values")
	f.IntVarP(&flags.port, "port", "p", 0, "HTTP listen port (overrides PORT)")
	f.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	f.StringVar(&flags.store, "store", "", "store driver: memory or sqlite (overrides STORE_DRIVER)")
}

// loadConfig layers the config file, the environment and explicit flags.
func loadConfig(cmd *cobra.Command, flags serveFlags) (app.Config, error) {
	cfg := app.LoadConfig()
	if flags.configFile != "" {
		var err error
		if cfg, err = app.LoadConfigFile(flags.configFile); err != nil {
			return app.Config{}, err
		}
	}

	f := cmd.Flags()
	if f.Changed("port") {
		cfg.Port = flags.port
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("store") {
		cfg.StoreDriver = flags.store
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, flags serveFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run(cmd.Context())
}
