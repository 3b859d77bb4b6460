package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ipagw/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample ipagw configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/ipagw/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  ipagw config init

  # Initialize with custom path
  ipagw config init --config /etc/ipagw/config.yaml

  # Force overwrite existing config
  ipagw config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	configPath := configFile
	var err error
	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Set directory.host to your FreeIPA server (or export IPA_HOST)")
	_, _ = fmt.Fprintln(out, "  2. Set secret_link.url to your yopass service (or export YOPASS_URL)")
	_, _ = fmt.Fprintln(out, "  3. Check the directory settings with: ipagw directory check --user <you>")
	_, _ = fmt.Fprintf(out, "  4. Start the gateway with: ipagw start --config %s\n", configPath)
	return nil
}
