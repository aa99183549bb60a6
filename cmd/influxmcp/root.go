package main

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/influxmcp/internal/server/app"
)

// serveFlags are shared by the root command and serve, since serve is the
// default action.
type serveFlags struct {
	configFile string
	port       int
	logLevel   string
	store      string
}

func rootCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:           "influxmcp",
		Short:         "InfluxDB MCP server with OAuth 2.1 authorization",
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	addServeFlags(cmd.Flags(), &flags)

	cmd.AddCommand(serveCommand())
	cmd.AddCommand(toolsCommand())
	cmd.AddCommand(selftestCommand())
	cmd.AddCommand(versionCommand())

	return cmd
}
