package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/storylet/internal/store"
)

// ReplayCharacterResult holds the replay result for a single character.
type ReplayCharacterResult struct {
	CharacterID  string  `json:"character_id"`
	Changes      int     `json:"changes"`
	LastSeq      int64   `json:"last_seq"`
	Digest       string  `json:"digest"`
	StoredDigest string  `json:"stored_digest"`
	Breaks       []int64 `json:"breaks,omitempty"` // seqs whose previous state did not match
	Match        bool    `json:"match"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Characters []ReplayCharacterResult `json:"characters"`
	Total      int                     `json:"total"`
	AllMatch   bool                    `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [character-id]...",
		Short: "Replay change logs and verify stored snapshots",
		Long: `Rebuild each character's qualities from its starting state and change
log, then compare the digest with the stored snapshot.

Without ids every character in the database is replayed.

Exit codes:
  0 - Every replay matches its snapshot
  1 - A replay diverged (tampered snapshot or broken change chain)
  2 - Command error (database not found, unknown character, etc.)

Examples:
  storylet replay
  storylet replay 0190... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runReplay(opts *RootOptions, ids []string, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openStore(opts.Config.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if len(ids) == 0 {
		chars, err := st.ListCharacters(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list characters", err)
		}
		for _, c := range chars {
			ids = append(ids, c.ID)
		}
	}

	result := ReplayResult{Characters: []ReplayCharacterResult{}, AllMatch: true}
	for _, id := range ids {
		r, err := st.VerifyReplay(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, "character not found", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "replay failed", err)
		}
		result.Characters = append(result.Characters, ReplayCharacterResult{
			CharacterID:  r.CharacterID,
			Changes:      r.Changes,
			LastSeq:      r.LastSeq,
			Digest:       r.Digest,
			StoredDigest: r.StoredDigest,
			Breaks:       r.Breaks,
			Match:        r.Match,
		})
		if !r.Match {
			result.AllMatch = false
		}
	}
	result.Total = len(result.Characters)

	err = opts.formatter(cmd).Success(result, func(w io.Writer) {
		for _, c := range result.Characters {
			status := "ok"
			if !c.Match {
				status = "MISMATCH"
			}
			fmt.Fprintf(w, "%s %s changes=%d last_seq=%d\n", status, c.CharacterID, c.Changes, c.LastSeq)
			if !c.Match {
				fmt.Fprintf(w, "  replayed %s\n  stored   %s\n", c.Digest, c.StoredDigest)
				if len(c.Breaks) > 0 {
					fmt.Fprintf(w, "  chain breaks at seq %v\n", c.Breaks)
				}
			}
		}
		fmt.Fprintf(w, "%d character(s) replayed\n", result.Total)
	})
	if err != nil {
		return err
	}

	if !result.AllMatch {
		return NewExitError(ExitFailure, "replay diverged from stored snapshot")
	}
	return nil
}
