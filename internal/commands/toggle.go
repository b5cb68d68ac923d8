package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdpower/ctxgw-report/internal/logger"
	"github.com/sdpower/ctxgw-report/internal/settings"
)

func NewToggleCommand() *cobra.Command {
	var (
		flags        commonFlags
		on           bool
		off          bool
		gatewayURL   string
		settingsPath string
	)

	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Route Claude Code through the gateway or back to the API",
		Long: `Add or remove ANTHROPIC_BASE_URL in the Claude Code settings file.
Without --on or --off the current state is flipped. A backup is written
next to the settings file. The change takes effect on the next Claude Code start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.setup()
			if err != nil {
				return err
			}
			if gatewayURL != "" {
				cfg.GatewayURL = gatewayURL
			}
			if settingsPath != "" {
				cfg.SettingsPath = settingsPath
			}

			mode := settings.Flip
			switch {
			case on:
				mode = settings.On
			case off:
				mode = settings.Off
			}

			state, err := settings.Toggle(cfg.SettingsPath, cfg.GatewayURL, mode)
			if err != nil {
				return err
			}
			logger.Info("settings updated", "path", cfg.SettingsPath, "enabled", state.Enabled, "backup", state.Backup)

			out := cmd.OutOrStdout()
			if state.Enabled {
				fmt.Fprintf(out, "Gateway ON  - Claude Code will use %s\n", state.URL)
			} else {
				fmt.Fprintln(out, "Gateway OFF - Claude Code will connect directly to Anthropic")
			}
			fmt.Fprintf(out, "Backup written to %s\n", state.Backup)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&on, "on", false, "Route through the gateway")
	cmd.Flags().BoolVar(&off, "off", false, "Connect directly to the API")
	cmd.Flags().StringVar(&gatewayURL, "url", "", "Gateway URL (default from config)")
	cmd.Flags().StringVar(&settingsPath, "settings", "", "Claude Code settings file (default ~/.claude/settings.json)")
	cmd.MarkFlagsMutuallyExclusive("on", "off")

	return cmd
}
