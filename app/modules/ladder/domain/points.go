package ladderdomain

import "math"

const (
	BaseVictory           = 20
	RankingFactor         = 2
	ParticipationBonus    = 10
	BaseDefeat            = -10
	DefeatFactor          = 1
	UpsetLossCap          = -5
	ProvisionalMultiplier = 1.5
)

// RatingSnapshot is the view of a player the calculator needs.
// RankingGeneral is the skill proxy: a lower ordinal is a better player.
type RatingSnapshot struct {
	Points         int
	RankingGeneral int
	Provisional    bool
}

// PointsAward is the outcome of a settlement.
type PointsAward struct {
	WinnerDelta       int     `json:"winner_delta"`
	LoserDelta        int     `json:"loser_delta"`
	Multiplier        float64 `json:"multiplier"`
	RankingDifference int     `json:"ranking_difference"`
}

// CalculateMatchPoints computes signed point deltas for a settled match.
// The ranking difference is loserRank - winnerRank on the general ladder.
// Floors are applied after the provisional multiplier so the winner always
// gains at least one point and the loser never drops below zero.
func CalculateMatchPoints(winner, loser RatingSnapshot) PointsAward {
	diff := loser.RankingGeneral - winner.RankingGeneral

	winnerDelta := float64(BaseVictory + diff*RankingFactor + ParticipationBonus)
	loserDelta := float64(BaseDefeat - diff*DefeatFactor + ParticipationBonus)
	if diff > 0 {
		loserDelta = math.Min(loserDelta, UpsetLossCap)
	} else {
		loserDelta = math.Max(loserDelta, 0)
	}

	multiplier := 1.0
	if winner.Provisional || loser.Provisional {
		multiplier = ProvisionalMultiplier
		winnerDelta = roundHalfUp(winnerDelta * multiplier)
		loserDelta = roundHalfUp(loserDelta * multiplier)
	}

	w := max(int(winnerDelta), 1)
	l := max(int(loserDelta), -max(loser.Points, 0))

	return PointsAward{
		WinnerDelta:       w,
		LoserDelta:        l,
		Multiplier:        multiplier,
		RankingDifference: diff,
	}
}

// ApplyDelta adds delta to points, never going below zero.
func ApplyDelta(points, delta int) int {
	return max(points+delta, 0)
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
