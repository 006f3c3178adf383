package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/storylet/internal/engine"
	"github.com/roach88/storylet/internal/ir"
)

// EquipResult holds a character's equipment after an equip or unequip.
type EquipResult struct {
	CharacterID string       `json:"character_id"`
	Version     int64        `json:"version"`
	Equipment   ir.Equipment `json:"equipment"`
}

// NewEquipCommand creates the equip command.
func NewEquipCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "equip <character-id> <slot> <quality-id>",
		Short: "Equip a quality in a slot",
		Long: `Equip an owned quality in one of its allowed slots and save the character.

A cursed quality cannot be replaced or moved once equipped.

Exit codes:
  0 - Equipped
  1 - Rejected (unknown slot, slot not allowed, not owned, cursed)
  2 - Command error

Examples:
  storylet equip 0190... hand sword`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEquip(rootOpts, args[0], cmd, func(e *engine.Engine) error {
				return e.Equip(args[1], args[2])
			})
		},
	}
}

// NewUnequipCommand creates the unequip command.
func NewUnequipCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unequip <character-id> <slot>",
		Short: "Clear an equipment slot",
		Long: `Clear an equipment slot and save the character. Clearing an empty slot
succeeds; a cursed quality cannot be removed.

Examples:
  storylet unequip 0190... hand`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEquip(rootOpts, args[0], cmd, func(e *engine.Engine) error {
				return e.Unequip(args[1])
			})
		},
	}
}

func runEquip(opts *RootOptions, characterID string, cmd *cobra.Command, op func(*engine.Engine) error) error {
	ctx := context.Background()
	out := opts.formatter(cmd)

	s, err := openSession(ctx, opts, cmd, characterID)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := op(s.engine); err != nil {
		var ee *engine.EquipError
		if errors.As(err, &ee) {
			_ = out.Error(ErrCodeEquip, err.Error(), map[string]string{
				"reason":  string(ee.Code),
				"slot":    ee.Slot,
				"quality": ee.QualityID,
			})
			return WrapExitError(ExitFailure, "equipment change rejected", err)
		}
		return WrapExitError(ExitCommandError, "equipment change failed", err)
	}

	saved, err := s.commit(ctx)
	if err != nil {
		return err
	}

	result := EquipResult{CharacterID: saved.ID, Version: saved.Version, Equipment: saved.Equipment}
	return out.Success(result, func(w io.Writer) {
		for _, slot := range s.engine.Slots() {
			id := result.Equipment[slot]
			if id == "" {
				id = "-"
			}
			fmt.Fprintf(w, "%s: %s\n", slot, id)
		}
	})
}
