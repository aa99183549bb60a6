package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/influxmcp/internal/mcp"
)

func toolsCommand() *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the MCP tool catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := mcp.NewDispatcher(mcp.Config{ToolNameStyle: style}, nil, nil)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(d.Tools())
		},
	}
	cmd.Flags().StringVar(&style, "style", mcp.ToolNameHyphen, "tool name style: hyphen or underscore")
	return cmd
}
