// Package progress holds the experience, streak and achievement arithmetic
// behind the profile page, plus the Tracker that persists it.
package progress

import "math"

// BaseLevelExp is the experience needed to reach level 2. Every further
// level doubles the threshold.
const BaseLevelExp = 100

// maxShift keeps BaseLevelExp<<shift inside int.
const maxShift = 56

// MaxLevel is the last level with a real threshold.
const MaxLevel = maxShift + 1

// Level maps experience to a level: 0-99 is level 1, 100 is level 2,
// 200 is 3, 400 is 4, 800 is 5 and so on.
func Level(exp int) int {
	if exp < BaseLevelExp {
		return 1
	}
	level := min(int(math.Floor(math.Log2(float64(exp)/BaseLevelExp)))+2, MaxLevel)
	// Guard against float rounding right at a threshold.
	for level < MaxLevel && LevelThreshold(level+1) <= exp {
		level++
	}
	for level > 1 && LevelThreshold(level) > exp {
		level--
	}
	return level
}

// LevelThreshold returns the minimum experience for the given level.
func LevelThreshold(level int) int {
	if level <= 1 {
		return 0
	}
	if level-2 >= maxShift {
		return math.MaxInt
	}
	return BaseLevelExp << (level - 2)
}

type LevelInfo struct {
	Level       int     `json:"level"`
	Exp         int     `json:"exp"`
	CurrentExp  int     `json:"currentLevelExp"`
	NextExp     int     `json:"nextLevelExp"`
	ProgressPct float64 `json:"progressPct"`
}

func LevelProgress(exp int) LevelInfo {
	if exp < 0 {
		exp = 0
	}
	level := Level(exp)
	current := LevelThreshold(level)
	next := LevelThreshold(level + 1)

	pct := float64(exp-current) / float64(next-current) * 100
	return LevelInfo{
		Level:       level,
		Exp:         exp,
		CurrentExp:  current,
		NextExp:     next,
		ProgressPct: math.Round(pct*10) / 10,
	}
}
