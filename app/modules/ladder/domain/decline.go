package ladderdomain

import (
	"fmt"
	"time"
)

const (
	FreeDeclinesPerMonth = 2
	DeclinePenaltyPoints = 10
)

// PeriodKey identifies a calendar month, e.g. "2026-10".
type PeriodKey string

// PeriodKeyFor returns the UTC month containing t.
func PeriodKeyFor(t time.Time) PeriodKey {
	return PeriodKey(t.UTC().Format("2006-01"))
}

// DeclineCounter is a monthly decline count tagged with the month it counts.
type DeclineCounter struct {
	Count  int
	Period PeriodKey
}

// In returns the counter as seen from period: a counter from another month reads as zero.
func (c DeclineCounter) In(period PeriodKey) DeclineCounter {
	if c.Period != period {
		return DeclineCounter{Count: 0, Period: period}
	}
	return c
}

// DeclineOutcome is the result of recording one decline.
type DeclineOutcome struct {
	Counter               DeclineCounter `json:"-"`
	PenaltyApplied        bool           `json:"penalty_applied"`
	PointsTransferred     int            `json:"points_transferred"`
	DeclinesThisMonth     int            `json:"declines_this_month"`
	FreeDeclinesRemaining int            `json:"free_declines_remaining"`
	RecuserPoints         int            `json:"recuser_points"`
	ChallengerPoints      int            `json:"challenger_points"`
	Message               string         `json:"message"`
}

// ApplyDeclinePenalty records a decline by the recuser. From the third decline
// in a month on, a fixed penalty moves from the recuser (floored at zero) to
// the challenger.
func ApplyDeclinePenalty(counter DeclineCounter, recuserPoints, challengerPoints int, now time.Time) DeclineOutcome {
	c := counter.In(PeriodKeyFor(now))
	c.Count++

	out := DeclineOutcome{
		Counter:               c,
		DeclinesThisMonth:     c.Count,
		FreeDeclinesRemaining: max(0, FreeDeclinesPerMonth-c.Count),
		RecuserPoints:         recuserPoints,
		ChallengerPoints:      challengerPoints,
	}

	if c.Count > FreeDeclinesPerMonth {
		out.PenaltyApplied = true
		out.PointsTransferred = DeclinePenaltyPoints
		out.RecuserPoints = ApplyDelta(recuserPoints, -DeclinePenaltyPoints)
		out.ChallengerPoints = challengerPoints + DeclinePenaltyPoints
		out.Message = fmt.Sprintf("decline #%d this month: %d points transferred to the challenger", c.Count, DeclinePenaltyPoints)
		return out
	}

	out.Message = fmt.Sprintf("challenge declined, %d free decline(s) left this month", out.FreeDeclinesRemaining)
	return out
}
