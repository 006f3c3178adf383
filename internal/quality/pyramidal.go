package quality

import "math"

// Bounds for Pyramidal qualities. MaxChangePoints is Triangular(MaxLevel)
// and fits in a 32-bit int, so level and cp arithmetic never overflows.
// Operands and stored values beyond them saturate.
const (
	MaxLevel        = 65535
	MaxChangePoints = MaxLevel * (MaxLevel + 1) / 2
)

// Triangular returns the total change points required for level. Levels
// above MaxLevel cost MaxChangePoints.
func Triangular(level int) int {
	if level <= 0 {
		return 0
	}
	if level >= MaxLevel {
		return MaxChangePoints
	}
	return level * (level + 1) / 2
}

// LevelFor returns the largest level L with cp >= Triangular(L), at most
// MaxLevel.
func LevelFor(cp int) int {
	if cp <= 0 {
		return 0
	}
	if cp >= MaxChangePoints {
		return MaxLevel
	}
	// Solve L(L+1)/2 <= cp, then correct for float rounding.
	l := int((math.Sqrt(8*float64(cp)+1) - 1) / 2)
	for Triangular(l+1) <= cp {
		l++
	}
	for l > 0 && Triangular(l) > cp {
		l--
	}
	return l
}

// NextLevelCost returns the change points still needed to reach the next
// level; 0 at MaxLevel.
func NextLevelCost(cp int) int {
	cp = clampChangePoints(cp)
	l := LevelFor(cp)
	if l >= MaxLevel {
		return 0
	}
	return Triangular(l+1) - cp
}

// clampLevel bounds level to [0, limit], and always to MaxLevel. A nil
// limit means no cap.
func clampLevel(level int, limit *int) int {
	if level < 0 {
		level = 0
	}
	if limit != nil && level > *limit {
		level = max(*limit, 0)
	}
	return min(level, MaxLevel)
}

func clampChangePoints(cp int) int {
	return min(max(cp, 0), MaxChangePoints)
}

// addChangePoints returns cp+delta within [0, MaxChangePoints]. Both inputs
// are already within +/-MaxChangePoints.
func addChangePoints(cp, delta int) int {
	cp = clampChangePoints(cp)
	if delta > MaxChangePoints-cp {
		return MaxChangePoints
	}
	return clampChangePoints(cp + delta)
}
