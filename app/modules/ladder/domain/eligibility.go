package ladderdomain

import (
	"fmt"

	"github.com/google/uuid"
)

// DenialReason classifies why a challenge is not allowed.
type DenialReason string

const (
	DenialNone             DenialReason = ""
	DenialSelfChallenge    DenialReason = "self_challenge"
	DenialInactivePlayer   DenialReason = "inactive_player"
	DenialLevelTooFarAbove DenialReason = "level_too_far_above"
	DenialLevelBelow       DenialReason = "level_below"
	DenialNotBetterPlaced  DenialReason = "not_better_placed"
	DenialOutsideReach     DenialReason = "outside_reach"
	DenialActiveCap        DenialReason = "active_challenge_cap"
)

// EligibilitySnapshot is the view of a player the evaluator needs.
// RankingByLevel must be derived from current points, not read from a cache.
type EligibilitySnapshot struct {
	ID                   uuid.UUID
	IsActive             bool
	Level                Level
	RankingByLevel       int
	ActiveChallengeCount int
}

// EligibilityDecision is a business verdict, not an error.
type EligibilityDecision struct {
	Allowed bool         `json:"allowed"`
	Reason  DenialReason `json:"reason,omitempty"`
	Message string       `json:"message,omitempty"`
	Reach   int          `json:"reach,omitempty"`
}

// DynamicReach is how many better-placed positions a player may challenge
// within their own level: max(1, ceil(5% of the cohort)).
func DynamicReach(totalActiveAtLevel int) int {
	if totalActiveAtLevel <= 0 {
		return 1
	}
	return max(1, (totalActiveAtLevel+19)/20)
}

func deny(reason DenialReason, format string, args ...any) EligibilityDecision {
	return EligibilityDecision{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// CanChallenge applies the challenge rules in order; the first failure wins.
func CanChallenge(challenger, challenged EligibilitySnapshot, totalActiveAtChallengerLevel int) EligibilityDecision {
	if challenger.ID == challenged.ID {
		return deny(DenialSelfChallenge, "you cannot challenge yourself")
	}
	if !challenger.IsActive || !challenged.IsActive {
		return deny(DenialInactivePlayer, "both players must be active")
	}

	gap := int(challenged.Level) - int(challenger.Level)
	if gap > 1 {
		return deny(DenialLevelTooFarAbove, "you can only challenge players up to one level above yours")
	}
	if gap < 0 {
		return deny(DenialLevelBelow, "you cannot challenge players from a lower level")
	}

	var reach int
	if gap == 0 {
		reach = DynamicReach(totalActiveAtChallengerLevel)
		positional := challenger.RankingByLevel - challenged.RankingByLevel
		if positional <= 0 {
			d := deny(DenialNotBetterPlaced, "you can only challenge players ranked above you in your level")
			d.Reach = reach
			return d
		}
		if positional > reach {
			d := deny(DenialOutsideReach, "you can only challenge players up to %d position(s) above you (current reach: %d)", reach, reach)
			d.Reach = reach
			return d
		}
	}

	if challenger.ActiveChallengeCount >= MaxActiveChallenges {
		return deny(DenialActiveCap, "you already have %d active challenges", MaxActiveChallenges)
	}

	return EligibilityDecision{Allowed: true, Reach: reach}
}
