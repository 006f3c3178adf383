package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/quality"
	"github.com/roach88/storylet/internal/store"
)

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	Qualities []string // id=value
	Slots     []string // empty equipment slots
}

// CharacterResult describes a stored character.
type CharacterResult struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Version   int64              `json:"version"`
	LastSeq   int64              `json:"last_seq"`
	Qualities ir.PlayerQualities `json:"qualities"`
	Equipment ir.Equipment       `json:"equipment"`
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a character",
		Long: `Create a character with optional starting qualities and equipment slots.

A quality value that is an integer sets a pyramidal level; anything else
sets a string value.

Examples:
  storylet new "Ada"
  storylet new "Ada" --quality gold=3 --quality title=Smith --slot hand --slot head`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Qualities, "quality", "q", nil, "starting quality as id=value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Slots, "slot", nil, "equipment slot to create empty (repeatable)")

	return cmd
}

func runNew(opts *NewOptions, name string, cmd *cobra.Command) error {
	ctx := context.Background()

	quals, err := parseQualityFlags(opts.Qualities)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --quality", err)
	}
	equip := ir.Equipment{}
	for _, slot := range opts.Slots {
		equip[strings.TrimSpace(slot)] = ""
	}

	st, err := openStore(opts.Config.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	c, err := st.CreateCharacter(ctx, name, quals, equip)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create character", err)
	}

	result := newCharacterResult(c)
	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "created %s (%s)\n", c.ID, c.Name)
	})
}

func newCharacterResult(c store.Character) CharacterResult {
	return CharacterResult{
		ID:        c.ID,
		Name:      c.Name,
		Version:   c.Version,
		LastSeq:   c.LastSeq,
		Qualities: c.Qualities,
		Equipment: c.Equipment,
	}
}

// parseQualityFlags parses id=value pairs.
func parseQualityFlags(pairs []string) (ir.PlayerQualities, error) {
	quals := ir.PlayerQualities{}
	for _, pair := range pairs {
		id, value, ok := strings.Cut(pair, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, fmt.Errorf("expected id=value, got %q", pair)
		}
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			if n < 0 || n > quality.MaxLevel {
				return nil, fmt.Errorf("%s: level must be within 0..%d", id, quality.MaxLevel)
			}
			quals[id] = ir.Pyramidal{Level: n, ChangePoints: quality.Triangular(n)}
			continue
		}
		quals[id] = ir.Text{Value: value}
	}
	return quals, nil
}
