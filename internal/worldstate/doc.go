// Package worldstate stores the shared world overlay read by #id
// references.
//
// A world is a flat map of string values kept in a Redis hash, with a
// companion counter key that increments on every write. Update runs a
// read-modify-write under WATCH/MULTI so concurrent writers never lose
// each other's changes; Set is the explicit compare-and-swap form.
package worldstate
