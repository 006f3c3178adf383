package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

// Evaluation modes.
const (
	ModeText      = "text"
	ModeCondition = "condition"
	ModeBlock     = "block"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Mode string
}

// EvalResult holds one evaluation.
type EvalResult struct {
	Mode   string `json:"mode"`
	Source string `json:"source"`
	Result string `json:"result"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <character-id> <source>",
		Short: "Evaluate text, a condition or a block",
		Long: `Evaluate rule-language source against a character without changing it.

Range expressions in the source roll real dice, and %apply inside the
source runs against a throwaway copy; nothing is saved.

Examples:
  storylet eval 0190... "You have {$gold} gold."
  storylet eval 0190... "$gold >= 5" --mode condition
  storylet eval 0190... "{ 1~6 }" --mode block`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", ModeText, "evaluation mode (text|condition|block)")
	return cmd
}

func runEval(opts *EvalOptions, characterID, src string, cmd *cobra.Command) error {
	switch opts.Mode {
	case ModeText, ModeCondition, ModeBlock:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid mode %q: must be text, condition or block", opts.Mode))
	}

	s, err := openSession(context.Background(), opts.RootOptions, cmd, characterID)
	if err != nil {
		return err
	}
	defer s.Close()

	result := EvalResult{Mode: opts.Mode, Source: src}
	switch opts.Mode {
	case ModeText:
		result.Result = s.engine.EvaluateText(src)
	case ModeCondition:
		result.Result = strconv.FormatBool(s.engine.EvaluateCondition(src))
	case ModeBlock:
		result.Result = s.engine.EvaluateBlock(src)
	}

	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		fmt.Fprintln(w, result.Result)
	})
}
