package engine

import (
	"slices"

	"github.com/roach88/storylet/internal/ir"
)

// Equip places quality id in slot.
//
// The slot must be known, listed in the quality's allowed slots, and the
// quality must be owned (level >= 1). A cursed occupant cannot be replaced,
// and a cursed quality cannot be moved out of the slot it is in. On any
// rejection the Equipment map is unchanged.
func (e *Engine) Equip(slot, id string) error {
	if !e.knownSlot(slot) {
		return &EquipError{Code: ErrCodeUnknownSlot, Slot: slot, QualityID: id, Message: "no such equipment slot"}
	}
	def, ok := e.defs[id]
	if !ok || !def.AllowsSlot(slot) {
		return &EquipError{Code: ErrCodeSlotNotAllowed, Slot: slot, QualityID: id, Message: "quality cannot be equipped in this slot"}
	}
	if e.store.EffectiveLevel(id) < 1 {
		return &EquipError{Code: ErrCodeNotOwned, Slot: slot, QualityID: id, Message: "quality is not owned"}
	}

	occupant := e.equip[slot]
	if occupant == id {
		return nil
	}
	if occupant != "" && e.cursed(occupant) {
		return &EquipError{Code: ErrCodeCursed, Slot: slot, QualityID: occupant, Message: "slot holds a cursed quality"}
	}

	from := e.equip.SlotOf(id)
	if from != "" && e.cursed(id) {
		return &EquipError{Code: ErrCodeCursed, Slot: from, QualityID: id, Message: "cursed quality cannot be moved"}
	}
	if from != "" {
		e.equip[from] = ""
	}
	e.equip[slot] = id
	e.log.Debug("equipped", "slot", slot, "quality", id)
	return nil
}

// Unequip clears slot. Clearing an empty slot is a no-op; clearing a cursed
// quality is rejected.
func (e *Engine) Unequip(slot string) error {
	if !e.knownSlot(slot) {
		return &EquipError{Code: ErrCodeUnknownSlot, Slot: slot, Message: "no such equipment slot"}
	}
	occupant := e.equip[slot]
	if occupant == "" {
		return nil
	}
	if e.cursed(occupant) {
		return &EquipError{Code: ErrCodeCursed, Slot: slot, QualityID: occupant, Message: "cursed quality cannot be removed"}
	}
	e.equip[slot] = ""
	e.log.Debug("unequipped", "slot", slot, "quality", occupant)
	return nil
}

// ReconcileEquipment clears every slot whose quality dropped below level 1,
// curse or not, since the quality is no longer owned. Only qualities named
// in changes are checked; an empty changes list checks every slot. It
// returns the cleared slots in sorted order.
func (e *Engine) ReconcileEquipment(changes []ir.Change) []string {
	touched := make(map[string]bool, len(changes))
	for _, ch := range changes {
		touched[ch.QualityID] = true
	}

	var cleared []string
	for slot, id := range e.equip {
		if id == "" || (len(changes) > 0 && !touched[id]) {
			continue
		}
		if e.store.EffectiveLevel(id) < 1 {
			e.equip[slot] = ""
			cleared = append(cleared, slot)
			e.log.Debug("unequipped unowned quality", "slot", slot, "quality", id)
		}
	}
	slices.Sort(cleared)
	return cleared
}

// Slots returns every known slot name in sorted order: the character's
// equipment keys plus any slot a definition allows.
func (e *Engine) Slots() []string {
	seen := make(map[string]bool)
	for slot := range e.equip {
		seen[slot] = true
	}
	for _, def := range e.defs {
		for _, slot := range def.AllowedSlots() {
			seen[slot] = true
		}
	}
	out := make([]string, 0, len(seen))
	for slot := range seen {
		out = append(out, slot)
	}
	slices.Sort(out)
	return out
}

func (e *Engine) knownSlot(slot string) bool {
	if slot == "" {
		return false
	}
	return slices.Contains(e.Slots(), slot)
}

func (e *Engine) cursed(id string) bool {
	def, ok := e.defs[id]
	return ok && def.HasTag(ir.TagCursed)
}
