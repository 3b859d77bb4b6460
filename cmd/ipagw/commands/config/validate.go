package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ipagw/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the ipagw configuration file.

Checks for syntax errors, missing required fields, and invalid values, then
lists settings that are valid but leave part of the gateway unusable.

Examples:
  # Validate default config
  ipagw config validate

  # Validate specific config file
  ipagw config validate --config /etc/ipagw/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := cfg.Warnings(); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	host := cfg.Directory.Host
	if host == "" {
		host = "(not set)"
	}
	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Directory host:  %s\n", host)
	_, _ = fmt.Fprintf(out, "  Secret links:    %s via %s\n", cfg.SecretLink.URL, cfg.SecretLink.Binary)
	_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  Session TTL:     %s\n", cfg.Session.TTL)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)
	return nil
}
