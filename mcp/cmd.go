package mcp

import (
	"github.com/ka2n/sitelens/api"
	"github.com/spf13/cobra"
)

// Command returns the MCP server command. newClient is called once the
// command runs, after flags and config are resolved.
func Command(newClient func() (*api.Client, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			return NewServer(client).Run()
		},
	}
}
