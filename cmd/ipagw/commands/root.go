// Package commands implements the ipagw command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/ipagw/cmd/ipagw/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "ipagw",
	Short: "ipagw - HTTP gateway for FreeIPA user administration",
	Long: `ipagw exposes FreeIPA user administration over HTTP. Operators log in
with their own FreeIPA credentials and create, disable, enable, delete and
reset accounts one at a time or in bulk from a spreadsheet. Generated
passwords are handed out as one-time yopass links.

Use "ipagw [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/ipagw/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(usernameCmd)
	rootCmd.AddCommand(directoryCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
