package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/ipagw/internal/cli/output"
	"github.com/marmos91/ipagw/internal/cli/prompt"
	"github.com/marmos91/ipagw/pkg/directory"
)

var (
	checkUser   string
	checkHost   string
	checkOutput string
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "FreeIPA directory tools",
}

var directoryCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Log in to FreeIPA and show the account",
	Long: `Log in to the configured FreeIPA server the same way the gateway does
and print the operator's own account. Use it to check the directory
settings (host, CA file, API version) before starting the gateway.

The password is always prompted for.

Examples:
  ipagw directory check --user admin
  ipagw directory check --user admin --host ipa.example.com --output yaml`,
	RunE: runDirectoryCheck,
}

func init() {
	directoryCheckCmd.Flags().StringVarP(&checkUser, "user", "u", "", "FreeIPA username (prompted when empty)")
	directoryCheckCmd.Flags().StringVar(&checkHost, "host", "", "FreeIPA host (overrides directory.host)")
	directoryCheckCmd.Flags().StringVarP(&checkOutput, "output", "o", "table", "Output format (table|json|yaml)")
	directoryCmd.AddCommand(directoryCheckCmd)
}

func runDirectoryCheck(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(checkOutput)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if checkHost != "" {
		cfg.Directory.Host = checkHost
	}
	if strings.TrimSpace(cfg.Directory.Host) == "" {
		return fmt.Errorf("no FreeIPA host configured: set directory.host, IPA_HOST or --host")
	}

	connector, err := directory.NewConnector(cfg.Directory)
	if err != nil {
		return fmt.Errorf("invalid directory configuration: %w", err)
	}

	username := checkUser
	if username == "" {
		if username, err = prompt.Input("Username", ""); err != nil {
			return err
		}
	}
	password, err := prompt.Password("Password for " + username)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	client, err := connector.Authenticate(ctx, username, password)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(ctx) }()

	user, err := client.ShowUser(ctx, username, true)
	if err != nil {
		return fmt.Errorf("logged in but could not read %s: %w", username, err)
	}

	out := cmd.OutOrStdout()
	if format != output.FormatTable {
		return output.NewPrinter(out, format).Print(user)
	}
	_, _ = fmt.Fprintf(out, "Logged in to %s as %s\n\n", connector.Host(), client.Principal())
	return output.KeyValueTable(out, output.UserPairs(user))
}
