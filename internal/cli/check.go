package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/storylet/internal/compiler"
)

// CheckResult holds the content check result.
type CheckResult struct {
	Dir        string           `json:"dir"`
	Qualities  int              `json:"qualities"`
	Storylets  int              `json:"storylets"`
	LoadErrors []string         `json:"load_errors,omitempty"`
	Issues     []compiler.Issue `json:"issues,omitempty"`
	Dynamic    []string         `json:"dynamic,omitempty"` // referenced by effects but never defined
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [content-dir]",
		Short: "Compile and validate content",
		Long: `Compile every .cue file in the content directory and validate it.

Every template, condition and effect list is parsed; quality definitions
are checked for bad caps and slots, and name/description templates for
render cycles. Qualities that effects create without a definition are
listed but are not an error.

Exit codes:
  0 - Content is valid
  1 - Compile errors or validation issues found
  2 - Command error (directory not found, etc.)

Examples:
  storylet check
  storylet check ./content --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Config.Content
			if len(args) == 1 {
				dir = args[0]
			}
			return runCheck(rootOpts, dir, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, dir string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	content, errs := LoadContent(dir)
	if content == nil {
		le := errs[0]
		code := ErrCodeGeneric
		if l, ok := le.(*LoadError); ok {
			code = l.Code
		}
		_ = out.Error(code, le.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load content", le)
	}

	result := CheckResult{
		Dir:        dir,
		Qualities:  len(content.Qualities),
		Storylets:  len(content.Storylets),
		LoadErrors: errorStrings(errs),
		Issues:     compiler.Validate(content),
		Dynamic:    compiler.DynamicQualities(content),
	}

	err := out.Success(result, func(w io.Writer) {
		for _, e := range result.LoadErrors {
			fmt.Fprintf(w, "error: %s\n", e)
		}
		for _, issue := range result.Issues {
			fmt.Fprintf(w, "issue: %s\n", issue.Error())
		}
		for _, id := range result.Dynamic {
			fmt.Fprintf(w, "dynamic: %s\n", id)
		}
		fmt.Fprintf(w, "%d qualities, %d storylets, %d errors, %d issues\n",
			result.Qualities, result.Storylets, len(result.LoadErrors), len(result.Issues))
	})
	if err != nil {
		return err
	}

	if n := len(result.LoadErrors) + len(result.Issues); n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("content has %d problem(s)", n))
	}
	return nil
}
