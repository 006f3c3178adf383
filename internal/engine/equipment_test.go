package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storylet/internal/ir"
	"github.com/roach88/storylet/internal/testutil"
)

func ownedEngine(equipment ir.Equipment) *Engine {
	return newTestEngine(Context{
		Qualities: ir.PlayerQualities{
			"sword":  testutil.Level(1),
			"ring":   testutil.Level(1),
			"shield": testutil.Level(2),
			"gold":   testutil.Level(5),
		},
		Equipment: equipment,
	})
}

func TestEquip(t *testing.T) {
	e := ownedEngine(nil)

	require.NoError(t, e.Equip("hand", "sword"))
	assert.Equal(t, "sword", e.Equipment()["hand"])
	assert.True(t, e.EvaluateCondition("$sword.equipped"))
	assert.Equal(t, "hand", e.EvaluateText("{$sword.slot}"))

	require.NoError(t, e.Equip("hand", "sword"), "re-equipping in place is a no-op")
}

func TestEquip_Rejections(t *testing.T) {
	equipment := ir.Equipment{"hand": "ring", "offhand": ""}

	tests := []struct {
		name string
		slot string
		id   string
		code EquipErrorCode
	}{
		{"unknown slot", "head", "sword", ErrCodeUnknownSlot},
		{"empty slot name", "", "sword", ErrCodeUnknownSlot},
		{"slot not allowed", "offhand", "ring", ErrCodeSlotNotAllowed},
		{"no definition", "hand", "gold", ErrCodeSlotNotAllowed},
		{"undefined quality", "offhand", "missing", ErrCodeSlotNotAllowed},
		{"cursed occupant", "hand", "sword", ErrCodeCursed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ownedEngine(equipment)
			before := e.Equipment()

			err := e.Equip(tt.slot, tt.id)
			require.Error(t, err)

			var ee *EquipError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.code, ee.Code)

			if diff := cmp.Diff(before, e.Equipment()); diff != "" {
				t.Errorf("equipment changed on rejection (-before +after):\n%s", diff)
			}
		})
	}
}

func TestEquip_NotOwned(t *testing.T) {
	e := newTestEngine(Context{Qualities: ir.PlayerQualities{"sword": ir.Pyramidal{}}})

	err := e.Equip("hand", "sword")
	require.Error(t, err)
	assert.True(t, IsEquipError(err))
	assert.False(t, IsCursedError(err))
	assert.Equal(t, "NOT_OWNED: quality is not owned (slot=hand, quality=sword)", err.Error())
}

func TestEquip_MovesBetweenSlots(t *testing.T) {
	e := ownedEngine(ir.Equipment{"hand": "sword", "offhand": ""})

	require.NoError(t, e.Equip("offhand", "sword"))
	assert.Equal(t, ir.Equipment{"hand": "", "offhand": "sword"}, e.Equipment())
}

func TestEquip_CursedCannotMove(t *testing.T) {
	defs := fixtureDefs()
	ring := defs["ring"]
	ring.Slots = "hand, offhand"
	defs["ring"] = ring

	e := newTestEngine(Context{
		Definitions: defs,
		Qualities:   ir.PlayerQualities{"ring": testutil.Level(1)},
		Equipment:   ir.Equipment{"hand": "ring", "offhand": ""},
	})

	err := e.Equip("offhand", "ring")
	assert.True(t, IsCursedError(err))
	assert.Equal(t, ir.Equipment{"hand": "ring", "offhand": ""}, e.Equipment())
}

func TestUnequip(t *testing.T) {
	e := ownedEngine(ir.Equipment{"hand": "ring", "offhand": "shield"})

	require.NoError(t, e.Unequip("offhand"))
	require.NoError(t, e.Unequip("offhand"), "empty slot")
	assert.Equal(t, "", e.Equipment()["offhand"])

	err := e.Unequip("hand")
	assert.True(t, IsCursedError(err))
	assert.Equal(t, "CURSED: cursed quality cannot be removed (slot=hand, quality=ring)", err.Error())
	assert.Equal(t, "ring", e.Equipment()["hand"])

	err = e.Unequip("feet")
	assert.Equal(t, "UNKNOWN_SLOT: no such equipment slot (slot=feet)", err.Error())
}

func TestReconcileEquipment(t *testing.T) {
	e := ownedEngine(ir.Equipment{"hand": "ring", "offhand": "shield"})

	changes, errs := e.ApplyEffect("$ring = 0, $shield -= 1")
	require.Empty(t, errs)

	cleared := e.ReconcileEquipment(changes)
	assert.Equal(t, []string{"hand"}, cleared, "cursed items are cleared once unowned")
	assert.Equal(t, ir.Equipment{"hand": "", "offhand": "shield"}, e.Equipment())
}

func TestReconcileEquipment_OnlyTouched(t *testing.T) {
	e := newTestEngine(Context{
		Qualities: ir.PlayerQualities{"sword": ir.Pyramidal{}, "gold": testutil.Level(1)},
		Equipment: ir.Equipment{"hand": "sword"},
	})

	changes, _ := e.ApplyEffect("$gold += 1")
	assert.Empty(t, e.ReconcileEquipment(changes))
	assert.Equal(t, "sword", e.Equipment()["hand"])

	assert.Equal(t, []string{"hand"}, e.ReconcileEquipment(nil))
	assert.Equal(t, "", e.Equipment()["hand"])
}

func TestSlots(t *testing.T) {
	e := newTestEngine(Context{Equipment: ir.Equipment{"head": ""}})

	assert.Equal(t, []string{"hand", "head", "offhand"}, e.Slots())
}
