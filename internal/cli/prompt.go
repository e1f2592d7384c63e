// prompt.go implements the interactive collision resolver used when the
// conflict policy is "ask".
//
// The merge engine itself never prompts; it only consumes the
// merge.Resolver capability. This file is the terminal-bound
// implementation of that capability, built on pterm's interactive
// select component.
package cli

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/mmr-tortoise/quilt/internal/merge"
	"github.com/mmr-tortoise/quilt/internal/model"
)

// Prompt option labels. Skip is listed first and preselected: leaving
// existing files alone is the safest default.
const (
	optionSkip      = "Skip (keep the existing file)"
	optionOverwrite = "Overwrite (replace with the new file)"
	optionConcat    = "Concatenate (append the new content)"
)

// newInteractiveResolver returns a merge.Resolver that asks the user on
// every collision. Cancelling the prompt (Ctrl-C / closed stdin) aborts
// the merge with the user-cancelled exit code.
func newInteractiveResolver() merge.Resolver {
	return merge.ResolverFunc(func(conflict merge.Conflict) (model.MergeDecision, error) {
		choice, err := pterm.DefaultInteractiveSelect.
			WithOptions([]string{optionSkip, optionOverwrite, optionConcat}).
			WithDefaultOption(optionSkip).
			Show(fmt.Sprintf("%q from %s already exists in the destination", conflict.Name, conflict.Repo))
		if err != nil {
			return "", model.WrapCLIError(model.ExitUserCancelled,
				fmt.Sprintf("collision prompt for %q cancelled", conflict.Name), err)
		}

		switch choice {
		case optionOverwrite:
			return model.DecisionOverwrite, nil
		case optionConcat:
			return model.DecisionConcat, nil
		default:
			return model.DecisionSkip, nil
		}
	})
}
