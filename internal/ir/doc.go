// Package ir provides the data model shared by every storylet package.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal, so the model stays
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - QualityState is a sealed union (Pyramidal or Text); switches over it are exhaustive
//   - Change records are stamped with a logical seq, never wall-clock time
//   - All JSON tags use snake_case
//   - Snapshots hash through MarshalCanonical so digests are stable across runs
package ir
