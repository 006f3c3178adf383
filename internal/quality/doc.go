// Package quality holds per-character quality state and the pyramidal
// leveling curve.
//
// A Pyramidal quality accumulates change points (cp). Reaching level L costs
// Triangular(L) = L(L+1)/2 points in total, so each level costs one more
// point than the last:
//
//	cp:    0  1  2  3  4  5  6  ...
//	level: 0  1  1  2  2  2  3  ...
//
// Store is the only place state is mutated. The engine's effect applier
// calls Change and Create; everything else reads Snapshot or EffectiveLevel.
package quality
