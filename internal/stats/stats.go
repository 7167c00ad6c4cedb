// Package stats computes the user aggregate fields the evaluator
// maintains as a side effect of every evaluation: completed count,
// success rate, experience, level and the daily streak. Everything is
// recomputed from authoritative history rather than incremented, so
// concurrent evaluations for one user cannot lose updates.
package stats

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Solve is one submission outcome in a user's history.
type Solve struct {
	ProblemID int64
	Accepted  bool
}

// Summary recomputes the completed-problem count (distinct problems
// with at least one accepted submission) and the success rate in
// percent over all submissions.
func Summary(history []Solve) (completed int, successRate float64) {
	solved := mapset.NewThreadUnsafeSet[int64]()
	accepted := 0
	for _, s := range history {
		if s.Accepted {
			accepted++
			solved.Add(s.ProblemID)
		}
	}
	if len(history) > 0 {
		successRate = float64(accepted) / float64(len(history)) * 100.0
	}
	return solved.Cardinality(), successRate
}

// Experience points per problem difficulty tier.
const (
	easyPoints   = 10
	mediumPoints = 20
	hardPoints   = 30

	fastBonus      = 5 // total execution time under a second
	lowMemoryBonus = 5 // peak memory under 10 MB

	fastThresholdSeconds = 1.0
	lowMemoryThresholdMB = 10.0
)

// ExperienceAward returns the points for an accepted submission:
// a base amount by difficulty plus speed and memory bonuses. Unknown
// difficulties award nothing.
func ExperienceAward(difficulty string, totalTimeSec, peakMemoryMB float64) int {
	var base int
	switch difficulty {
	case "Easy":
		base = easyPoints
	case "Medium":
		base = mediumPoints
	case "Hard":
		base = hardPoints
	default:
		return 0
	}
	if totalTimeSec < fastThresholdSeconds {
		base += fastBonus
	}
	if peakMemoryMB < lowMemoryThresholdMB {
		base += lowMemoryBonus
	}
	return base
}

type levelThreshold struct {
	name   string
	points int
}

var levels = []levelThreshold{
	{"Beginner", 0},
	{"Intermediate", 100},
	{"Advanced", 250},
	{"Expert", 500},
	{"Master", 1000},
}

// LevelFor maps cumulative experience onto the highest reached level.
func LevelFor(experience int) string {
	name := levels[0].name
	for _, l := range levels {
		if experience >= l.points {
			name = l.name
		}
	}
	return name
}

// NextStreak advances the daily streak for an accepted submission at
// now: +1 if the last accepted solve was exactly yesterday, unchanged
// if already recorded today, reset to 1 after a longer gap or on the
// first solve.
func NextStreak(current int, lastAccepted *time.Time, now time.Time) int {
	if lastAccepted == nil {
		return 1
	}
	today := dateOf(now)
	last := dateOf(*lastAccepted)
	switch today.Sub(last) {
	case 0:
		return current
	case 24 * time.Hour:
		return current + 1
	default:
		return 1
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
