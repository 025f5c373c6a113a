package ladderdomain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func TestChallengeState_Accept(t *testing.T) {
	s := NewChallengeState(t0)
	assert.Equal(t, ChallengePending, s.Status)
	assert.Equal(t, t0.Add(48*time.Hour), s.ExpiresAt)

	now := t0.Add(3 * time.Hour)
	accepted, err := s.Accept(now)
	require.NoError(t, err)
	assert.Equal(t, ChallengeAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)
	assert.Equal(t, now, *accepted.AcceptedAt)
	assert.Equal(t, now.Add(7*24*time.Hour), *accepted.MatchDeadline)
	assert.Equal(t, ChallengePending, s.Status, "original value is untouched")

	_, err = accepted.Accept(now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = accepted.Decline(now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestChallengeState_ResponseAfterExpiry(t *testing.T) {
	s := NewChallengeState(t0)
	_, err := s.Accept(t0.Add(48 * time.Hour))
	assert.ErrorIs(t, err, ErrDeadlinePassed)
	_, err = s.Decline(t0.Add(49 * time.Hour))
	assert.ErrorIs(t, err, ErrDeadlinePassed)
}

func TestChallengeState_Expire(t *testing.T) {
	s := NewChallengeState(t0)
	_, err := s.Expire(t0.Add(47 * time.Hour))
	assert.ErrorIs(t, err, ErrDeadlineNotReached)

	expired, err := s.Expire(t0.Add(48 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ChallengeExpired, expired.Status)

	_, err = expired.Expire(t0.Add(100 * time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestChallengeState_FullLifecycle(t *testing.T) {
	s := NewChallengeState(t0)
	_, err := s.FileMatch()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s, err = s.Accept(t0.Add(time.Hour))
	require.NoError(t, err)
	_, err = s.Complete()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	s, err = s.FileMatch()
	require.NoError(t, err)
	assert.Equal(t, ChallengeAwaitingValidation, s.Status)

	s, err = s.Complete()
	require.NoError(t, err)
	assert.Equal(t, ChallengeCompleted, s.Status)

	var te *TransitionError
	_, err = s.FileMatch()
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "completed", te.From)
	assert.Equal(t, "awaiting_validation", te.To)
}

func TestMatchState(t *testing.T) {
	loser := uuid.New()

	t.Run("confirm inside and after the window", func(t *testing.T) {
		for _, at := range []time.Time{t0.Add(time.Hour), t0.Add(72 * time.Hour)} {
			m, err := NewMatchState(t0).Confirm(loser, at)
			require.NoError(t, err)
			assert.Equal(t, MatchValidated, m.Status)
			assert.Equal(t, loser, *m.ValidatedBy)
			assert.False(t, m.AutoValidated)
		}
	})

	t.Run("auto validate only after deadline", func(t *testing.T) {
		m := NewMatchState(t0)
		_, err := m.AutoValidate(t0.Add(47 * time.Hour))
		assert.ErrorIs(t, err, ErrDeadlineNotReached)

		v, err := m.AutoValidate(t0.Add(48 * time.Hour))
		require.NoError(t, err)
		assert.True(t, v.AutoValidated)
		assert.Nil(t, v.ValidatedBy)

		_, err = v.AutoValidate(t0.Add(50 * time.Hour))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("dispute inside the window", func(t *testing.T) {
		m, err := NewMatchState(t0).Dispute("  wrong score  ", t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, MatchDisputed, m.Status)
		assert.Equal(t, "wrong score", m.DisputeReason)

		_, err = m.Confirm(loser, t0.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("dispute after the window", func(t *testing.T) {
		_, err := NewMatchState(t0).Dispute("late", t0.Add(49*time.Hour))
		assert.ErrorIs(t, err, ErrDeadlinePassed)
	})

	t.Run("reject", func(t *testing.T) {
		m, err := NewMatchState(t0).Reject()
		require.NoError(t, err)
		assert.Equal(t, MatchRejected, m.Status)
	})
}

func TestResolveOutcome(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	w, l, err := ResolveOutcome(p1, p2, p2)
	require.NoError(t, err)
	assert.Equal(t, p2, w)
	assert.Equal(t, p1, l)

	_, _, err = ResolveOutcome(p1, p2, uuid.New())
	assert.ErrorIs(t, err, ErrNotAParticipant)
}
