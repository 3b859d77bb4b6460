package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ipagw/internal/cli/prompt"
	"github.com/marmos91/ipagw/pkg/secretlink"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Secret link tools",
}

var linkPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a secret and print its one-time link",
	Long: `Publish a secret through the configured yopass service and print the
link. The secret is prompted for and never echoed.

Examples:
  ipagw link publish
  YOPASS_URL=https://yopass.example.com ipagw link publish`,
	RunE: runLinkPublish,
}

var linkProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that secret links can be generated",
	Long: `Check that the yopass binary is installed and publish a fixed test
payload to the configured service.`,
	RunE: runLinkProbe,
}

func init() {
	linkCmd.AddCommand(linkPublishCmd)
	linkCmd.AddCommand(linkProbeCmd)
}

func newPublisher() (*secretlink.Publisher, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	publisher := secretlink.NewPublisher(cfg.SecretLink)
	if err := publisher.Available(); err != nil {
		return nil, err
	}
	return publisher, nil
}

func runLinkPublish(cmd *cobra.Command, args []string) error {
	publisher, err := newPublisher()
	if err != nil {
		return err
	}

	secret, err := prompt.Password("Secret")
	if err != nil {
		return err
	}

	link, err := publisher.Publish(cmd.Context(), secret)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}

func runLinkProbe(cmd *cobra.Command, args []string) error {
	publisher, err := newPublisher()
	if err != nil {
		return err
	}
	if err := publisher.Probe(cmd.Context()); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Secret links: OK")
	return nil
}
