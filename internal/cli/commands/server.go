package commands

import (
	"harbormaster/internal/config"
	"harbormaster/internal/operations"
	"harbormaster/internal/server"

	"github.com/spf13/cobra"
)

// ServerCommand creates the server command
func ServerCommand(cfg *config.GlobalConfig, ops *operations.ProjectOperations) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the harbormaster HTTP API server",
		Long: `Start the harbormaster HTTP API server. The server exposes project
lifecycle operations (add, sync, build, deploy, stop, remove), health
checks, and log access over a REST API with websocket log streaming.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			srvCfg := server.DefaultConfig()
			srvCfg.Host = cfg.Server.Host
			srvCfg.Port = cfg.Server.Port
			srvCfg.LogLevel = cfg.Log.Level

			if cmd.Flags().Changed("port") {
				srvCfg.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("host") {
				srvCfg.Host, _ = cmd.Flags().GetString("host")
			}

			return server.New(srvCfg, ops).Start(cmd.Context())
		},
	}
	cmd.Flags().IntP("port", "p", cfg.Server.Port, "Port to run the server on")
	cmd.Flags().String("host", cfg.Server.Host, "Address to bind")
	return cmd
}
