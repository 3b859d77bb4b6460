package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/ipagw/internal/cli/output"
	"github.com/marmos91/ipagw/internal/translit"
)

var usernameOutput string

var usernameCmd = &cobra.Command{
	Use:   "username <full name>...",
	Short: "Show the usernames generated for full names",
	Long: `Show the account name the gateway would generate for each full name.

Each argument is one full name written as "Surname Given [Patronymic]".
Cyrillic names are transliterated. No directory access is needed.

Examples:
  ipagw username "Ivanov Ivan" "Щукин Пётр Ильич"
  ipagw username --output json "Ivanov Ivan"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUsername,
}

func init() {
	usernameCmd.Flags().StringVarP(&usernameOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// usernameRow is one generated name. Error is set instead of Username when
// the full name could not be split.
type usernameRow struct {
	FullName  string `json:"full_name" yaml:"full_name"`
	Surname   string `json:"surname,omitempty" yaml:"surname,omitempty"`
	GivenName string `json:"given_name,omitempty" yaml:"given_name,omitempty"`
	Username  string `json:"username,omitempty" yaml:"username,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

type usernameRows []usernameRow

func (r usernameRows) Headers() []string {
	return []string{"Full name", "Surname", "Given name", "Username"}
}

func (r usernameRows) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, row := range r {
		username := row.Username
		if row.Error != "" {
			username = "error: " + row.Error
		}
		rows = append(rows, []string{row.FullName, row.Surname, row.GivenName, username})
	}
	return rows
}

func generateUsernames(fullNames []string) (usernameRows, int) {
	rows := make(usernameRows, 0, len(fullNames))
	failed := 0
	for _, fullName := range fullNames {
		name, err := translit.GenerateUsername(fullName)
		if err != nil {
			failed++
			rows = append(rows, usernameRow{FullName: fullName, Error: err.Error()})
			continue
		}
		rows = append(rows, usernameRow{
			FullName:  fullName,
			Surname:   name.Surname,
			GivenName: name.GivenName,
			Username:  name.Username,
		})
	}
	return rows, failed
}

func runUsername(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(usernameOutput)
	if err != nil {
		return err
	}

	rows, failed := generateUsernames(args)
	if err := output.NewPrinter(cmd.OutOrStdout(), format).Print(rows); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d names could not be converted", failed, len(args))
	}
	return nil
}
