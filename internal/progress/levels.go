// Package progress derives achievement state from a user's solved count:
// level, trophies and per-trophy progress. It also tracks certification
// roadmaps, whose completion is ticked independently of machine status.
package progress

import "math"

// Level is a named tier of the solved count.
type Level struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
}

// Levels lists the tiers in ascending order of threshold.
var Levels = []Level{
	{Name: "Noob", Threshold: 0},
	{Name: "Hacker", Threshold: 10},
	{Name: "Pro Hacker", Threshold: 25},
	{Name: "Elite Hacker", Threshold: 50},
	{Name: "Guru", Threshold: 100},
	{Name: "Omniscient", Threshold: 200},
}

func levelIndex(solved int) int {
	for i := len(Levels) - 1; i >= 0; i-- {
		if solved >= Levels[i].Threshold {
			return i
		}
	}
	return 0
}

// LevelFor returns the highest tier whose threshold solved reaches.
func LevelFor(solved int) Level {
	return Levels[levelIndex(solved)]
}

// LevelProgress is the percentage of the way from zero to the next tier's
// threshold, capped at 100. The top tier always reports 100.
func LevelProgress(solved int) float64 {
	i := levelIndex(solved)
	if i == len(Levels)-1 {
		return 100
	}
	next := Levels[i+1].Threshold
	return math.Min(100, float64(solved)*100/float64(next))
}
