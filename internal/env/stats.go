package env

import "math"

// DeathReason indicates how an episode ended
type DeathReason int

const (
	DeathNone      DeathReason = iota
	DeathWall                  // left the board
	DeathSelf                  // hit own body
	DeathStall                 // frame budget exhausted
	DeathBoardFull             // no free cell left for food
)

func (d DeathReason) String() string {
	switch d {
	case DeathNone:
		return "none"
	case DeathWall:
		return "wall"
	case DeathSelf:
		return "self"
	case DeathStall:
		return "stall"
	case DeathBoardFull:
		return "board_full"
	default:
		return "unknown"
	}
}

// EpisodeStats captures the outcome of a single episode
type EpisodeStats struct {
	Score int         // food eaten
	Ticks int         // number of ticks survived
	Death DeathReason // how the episode ended
	Seed  int64       // seed used for this episode
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	ScoreMean   float64
	ScoreStd    float64
	ScoreMax    int
	TicksMean   float64
	DeathCounts map[DeathReason]int
	NumEpisodes int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	n := len(episodes)
	if n == 0 {
		return AggregatedStats{DeathCounts: make(map[DeathReason]int)}
	}

	agg := AggregatedStats{
		DeathCounts: make(map[DeathReason]int),
		NumEpisodes: n,
	}

	var scoreSum, ticksSum float64
	for _, ep := range episodes {
		scoreSum += float64(ep.Score)
		ticksSum += float64(ep.Ticks)
		if ep.Score > agg.ScoreMax {
			agg.ScoreMax = ep.Score
		}
		agg.DeathCounts[ep.Death]++
	}

	nf := float64(n)
	agg.ScoreMean = scoreSum / nf
	agg.TicksMean = ticksSum / nf

	var variance float64
	for _, ep := range episodes {
		diff := float64(ep.Score) - agg.ScoreMean
		variance += diff * diff
	}
	agg.ScoreStd = math.Sqrt(variance / nf)

	return agg
}

// RobustnessScore computes the ranking score: mean - lambda * std
func (a AggregatedStats) RobustnessScore(lambda float64) float64 {
	return a.ScoreMean - lambda*a.ScoreStd
}
