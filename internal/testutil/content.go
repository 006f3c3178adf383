package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/storylet/internal/ir"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// IntPtr returns a pointer to n, for optional caps.
func IntPtr(n int) *int {
	return &n
}

// Definitions indexes defs by ID.
func Definitions(defs ...ir.QualityDefinition) ir.Definitions {
	out := make(ir.Definitions, len(defs))
	for _, d := range defs {
		out[d.ID] = d
	}
	return out
}

// PyramidalDef is a Pyramidal definition with an optional cap.
func PyramidalDef(id string, limit *int) ir.QualityDefinition {
	return ir.QualityDefinition{ID: id, Kind: ir.KindPyramidal, Cap: limit, Name: id}
}

// StringDef is a String definition.
func StringDef(id string) ir.QualityDefinition {
	return ir.QualityDefinition{ID: id, Kind: ir.KindString, Name: id}
}

// ItemDef is an equippable Pyramidal definition. Passing cursed tags it.
func ItemDef(id, slots string, cursed bool) ir.QualityDefinition {
	d := ir.QualityDefinition{ID: id, Kind: ir.KindPyramidal, Slots: slots, Name: id}
	if cursed {
		d.Properties = map[string]string{ir.TagCursed: "true"}
	}
	return d
}

// Level returns the Pyramidal state sitting exactly at level.
func Level(level int) ir.Pyramidal {
	return ir.Pyramidal{Level: level, ChangePoints: level * (level + 1) / 2}
}
