// Package prompt reads operator input interactively.
package prompt

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the operator aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// ErrEmpty is returned by validators when a required answer is blank.
var ErrEmpty = errors.New("a value is required")

// IsAborted reports whether err means the operator aborted.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

func required(input string) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmpty
	}
	return nil
}

// Input prompts for a non-blank value, offering defaultValue.
func Input(label, defaultValue string) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: required,
	}

	result, err := prompt.Run()
	return strings.TrimSpace(result), wrapError(err)
}
