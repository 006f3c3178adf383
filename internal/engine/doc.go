// Package engine evaluates the storylet rule language against one
// character's state.
//
// An Engine is built per request from a Context (definitions, qualities,
// equipment, world overlay, aliases) and exposes the operations callers use:
//
//	EvaluateCondition / EvaluateConditions   gate content
//	EvaluateText / EvaluateBlock             render templates and quantities
//	ApplyEffect / ApplyEffects               mutate qualities
//	ChangeQuality / CreateNewQuality         mutate one quality directly
//	RenderStorylet / RenderQuality           resolve content for display
//	Equip / Unequip / ReconcileEquipment     validate equipment changes
//
// Evaluation degrades instead of failing. Unresolved references read as
// Null (0, "" or false). A condition that fails to parse is false, a
// template that fails to parse renders as its raw source, and an effect
// statement that fails is logged and skipped while the rest still run.
//
// Every applied change is stamped by the engine's Clock and kept in a
// change log (Changes) so the caller can persist it next to the snapshot
// returned by Qualities.
package engine
