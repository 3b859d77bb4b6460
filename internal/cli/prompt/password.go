package prompt

import (
	"github.com/manifoldco/promptui"
)

// Password prompts for a masked, non-blank value such as a directory
// password or a secret to publish.
func Password(label string) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: required,
	}

	result, err := prompt.Run()
	return result, wrapError(err)
}
