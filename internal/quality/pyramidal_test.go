package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriangular(t *testing.T) {
	want := []int{0, 1, 3, 6, 10, 15, 21}
	for level, cp := range want {
		assert.Equal(t, cp, Triangular(level), "level %d", level)
	}
	assert.Equal(t, 0, Triangular(-3))
}

func TestTriangular_Saturates(t *testing.T) {
	assert.Equal(t, MaxChangePoints, Triangular(MaxLevel))
	assert.Equal(t, MaxChangePoints, Triangular(MaxLevel+1))
	assert.Equal(t, MaxChangePoints, Triangular(5000000000))
	assert.Equal(t, 2147450880, MaxChangePoints)
	assert.Equal(t, Triangular(MaxLevel-1)+MaxLevel, MaxChangePoints)
}

func TestLevelFor_Saturates(t *testing.T) {
	assert.Equal(t, MaxLevel, LevelFor(MaxChangePoints))
	assert.Equal(t, MaxLevel, LevelFor(MaxChangePoints+1))
	assert.Equal(t, MaxLevel-1, LevelFor(MaxChangePoints-1))
	assert.Equal(t, 0, NextLevelCost(MaxChangePoints))
	assert.Equal(t, 1, NextLevelCost(MaxChangePoints-1))
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		cp    int
		level int
	}{
		{-4, 0},
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{5, 2},
		{6, 3},
		{9, 3},
		{10, 4},
		{5050, 100},
		{5049, 99},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelFor(tt.cp), "cp %d", tt.cp)
	}
}

func TestLevelFor_MonotonicAndBracketed(t *testing.T) {
	prev := 0
	for cp := 0; cp <= 20000; cp++ {
		level := LevelFor(cp)
		assert.GreaterOrEqual(t, level, prev, "cp %d", cp)
		assert.LessOrEqual(t, Triangular(level), cp, "cp %d", cp)
		assert.Less(t, cp, Triangular(level+1), "cp %d", cp)
		prev = level
	}
}

func TestNextLevelCost(t *testing.T) {
	assert.Equal(t, 1, NextLevelCost(0))
	assert.Equal(t, 2, NextLevelCost(1))
	assert.Equal(t, 1, NextLevelCost(2))
	assert.Equal(t, 3, NextLevelCost(3))
	assert.Equal(t, 1, NextLevelCost(5))
}

func TestClampLevel(t *testing.T) {
	five := 5
	neg := -1
	assert.Equal(t, 0, clampLevel(-2, nil))
	assert.Equal(t, 9, clampLevel(9, nil))
	assert.Equal(t, 5, clampLevel(9, &five))
	assert.Equal(t, 0, clampLevel(3, &neg))
	assert.Equal(t, MaxLevel, clampLevel(MaxLevel+10, nil))
}

func TestAddChangePoints(t *testing.T) {
	assert.Equal(t, 7, addChangePoints(5, 2))
	assert.Equal(t, 0, addChangePoints(5, -9))
	assert.Equal(t, MaxChangePoints, addChangePoints(MaxChangePoints-1, MaxChangePoints))
	assert.Equal(t, 0, addChangePoints(0, -MaxChangePoints))
}
