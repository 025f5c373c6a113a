package ladderdomain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodKeyFor(t *testing.T) {
	assert.Equal(t, PeriodKey("2026-10"), PeriodKeyFor(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)))
	// Keys are taken in UTC.
	loc := time.FixedZone("BRT", -3*3600)
	assert.Equal(t, PeriodKey("2026-11"), PeriodKeyFor(time.Date(2026, 11, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, PeriodKey("2026-10"), PeriodKeyFor(time.Date(2026, 10, 31, 20, 0, 0, 0, loc)))
}

func TestDeclineCounter_In(t *testing.T) {
	c := DeclineCounter{Count: 2, Period: "2026-09"}
	assert.Equal(t, DeclineCounter{Count: 0, Period: "2026-10"}, c.In("2026-10"))
	assert.Equal(t, c, c.In("2026-09"))
}

func TestApplyDeclinePenalty(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	current := PeriodKeyFor(now)

	tests := []struct {
		name           string
		counter        DeclineCounter
		recuser        int
		challenger     int
		wantPenalty    bool
		wantCount      int
		wantRemaining  int
		wantRecuser    int
		wantChallenger int
	}{
		{
			name:           "first decline is free",
			counter:        DeclineCounter{Count: 0, Period: current},
			recuser:        1000,
			challenger:     900,
			wantCount:      1,
			wantRemaining:  1,
			wantRecuser:    1000,
			wantChallenger: 900,
		},
		{
			name:           "second decline is free",
			counter:        DeclineCounter{Count: 1, Period: current},
			recuser:        1000,
			challenger:     900,
			wantCount:      2,
			wantRemaining:  0,
			wantRecuser:    1000,
			wantChallenger: 900,
		},
		{
			name:           "third decline transfers points",
			counter:        DeclineCounter{Count: 2, Period: current},
			recuser:        1000,
			challenger:     900,
			wantPenalty:    true,
			wantCount:      3,
			wantRecuser:    990,
			wantChallenger: 910,
		},
		{
			name:           "recuser floored at zero",
			counter:        DeclineCounter{Count: 5, Period: current},
			recuser:        4,
			challenger:     900,
			wantPenalty:    true,
			wantCount:      6,
			wantRecuser:    0,
			wantChallenger: 910,
		},
		{
			name:           "new month resets before counting",
			counter:        DeclineCounter{Count: 7, Period: "2026-09"},
			recuser:        1000,
			challenger:     900,
			wantCount:      1,
			wantRemaining:  1,
			wantRecuser:    1000,
			wantChallenger: 900,
		},
		{
			name:           "never declined before",
			counter:        DeclineCounter{},
			recuser:        1000,
			challenger:     900,
			wantCount:      1,
			wantRemaining:  1,
			wantRecuser:    1000,
			wantChallenger: 900,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyDeclinePenalty(tt.counter, tt.recuser, tt.challenger, now)
			assert.Equal(t, tt.wantPenalty, got.PenaltyApplied)
			assert.Equal(t, tt.wantCount, got.DeclinesThisMonth)
			assert.Equal(t, tt.wantCount, got.Counter.Count)
			assert.Equal(t, current, got.Counter.Period)
			assert.Equal(t, tt.wantRemaining, got.FreeDeclinesRemaining)
			assert.Equal(t, tt.wantRecuser, got.RecuserPoints)
			assert.Equal(t, tt.wantChallenger, got.ChallengerPoints)
			if tt.wantPenalty {
				assert.Equal(t, DeclinePenaltyPoints, got.PointsTransferred)
			} else {
				assert.Zero(t, got.PointsTransferred)
			}
			assert.NotEmpty(t, got.Message)
		})
	}
}
