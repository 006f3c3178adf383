package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ApplyResult holds the outcome of applying effects.
type ApplyResult struct {
	CharacterID string   `json:"character_id"`
	Version     int64    `json:"version"`
	Changes     []string `json:"changes"`
	Skipped     []string `json:"skipped,omitempty"`
	Cleared     []string `json:"cleared,omitempty"` // slots emptied because their quality was lost
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <character-id> <effects>...",
		Short: "Apply effect lists to a character",
		Long: `Apply one or more effect lists in order and save the character.

Statements that fail (bad syntax, type mismatches, unknown macros) are
skipped and reported; the rest still apply. Equipment whose quality drops
below level 1 is unequipped. The save is rejected if the character changed
since it was loaded.

Examples:
  storylet apply 0190... "$gold -= 6, $sword++"
  storylet apply 0190... "$hp = 10" "%apply[$xp += 5]"`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(rootOpts, args[0], args[1:], cmd)
		},
	}
	return cmd
}

func runApply(opts *RootOptions, characterID string, effects []string, cmd *cobra.Command) error {
	ctx := context.Background()

	s, err := openSession(ctx, opts, cmd, characterID)
	if err != nil {
		return err
	}
	defer s.Close()

	changes, errs := s.engine.ApplyEffects(effects)
	var cleared []string
	if len(changes) > 0 {
		cleared = s.engine.ReconcileEquipment(changes)
	}

	saved, err := s.commit(ctx)
	if err != nil {
		return err
	}

	result := ApplyResult{
		CharacterID: saved.ID,
		Version:     saved.Version,
		Changes:     formatChanges(changes),
		Skipped:     errorStrings(errs),
		Cleared:     cleared,
	}
	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		for _, ch := range result.Changes {
			fmt.Fprintln(w, ch)
		}
		for _, sk := range result.Skipped {
			fmt.Fprintf(w, "skipped: %s\n", sk)
		}
		for _, slot := range result.Cleared {
			fmt.Fprintf(w, "unequipped: %s\n", slot)
		}
		fmt.Fprintf(w, "%s saved at version %d\n", result.CharacterID, result.Version)
	})
}
