// Package harness runs scripted scenarios against the storylet engine.
//
// A scenario compiles its content, builds a character, executes a list of
// steps through a real engine and checks the outcome. The final state is
// committed to an in-memory store together with its change log, and the log
// must replay to the same snapshot.
//
// # Scenario Format
//
//	name: forge_purchase
//	description: "Buying a sword spends gold and equips it"
//	content: |
//	  quality: gold: { name: "Gold" }
//	  quality: sword: { name: "Sword", slots: "hand" }
//	qualities:
//	  gold: 4          # pyramidal level
//	  title: "Smith"   # string value
//	  favour: {cp: 5}  # raw change points
//	equipment:
//	  hand: ""
//	rolls: [3, 6]
//	steps:
//	  - apply: "$gold -= 6, $sword++"
//	    expect: { changes: 2 }
//	  - equip: { slot: hand, quality: sword }
//	  - text: "You carry {$sword.name}."
//	    expect: { output: "You carry Sword." }
//	assertions:
//	  - { type: level, quality: sword, level: 1 }
//	  - { type: equipped, slot: hand, quality: sword }
//
// Each step names exactly one of apply, condition, text, block, equip or
// unequip. An expect clause may check output, the number of changes, and
// the equipment error code (or "any" for an apply step with skipped
// statements). A step with an expect clause fails on any error it did not
// expect.
//
// # Assertion Types
//
//   - level: effective level of a quality, cap applied
//   - cp: change points of a pyramidal quality
//   - value: a String's value or a Pyramidal's level, as text
//   - equipped: the occupant of a slot ("" for empty)
//   - change_count: total changes recorded by the scenario
//
// # Deterministic Testing
//
// Ranges roll from the scenario's rolls (testutil.SequenceRoller), the
// clock starts at 1, and the character id is the scenario name, so the
// same scenario always yields the same trace for golden comparison.
package harness
