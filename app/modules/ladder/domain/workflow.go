package ladderdomain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ChallengeStatus string

const (
	ChallengePending            ChallengeStatus = "pending"
	ChallengeAccepted           ChallengeStatus = "accepted"
	ChallengeDeclined           ChallengeStatus = "declined"
	ChallengeExpired            ChallengeStatus = "expired"
	ChallengeAwaitingValidation ChallengeStatus = "awaiting_validation"
	ChallengeCompleted          ChallengeStatus = "completed"
)

// LiveChallengeStatuses are the states in which a pair already has a challenge in play.
var LiveChallengeStatuses = []ChallengeStatus{ChallengePending, ChallengeAccepted, ChallengeAwaitingValidation}

type MatchStatus string

const (
	MatchPendingValidation MatchStatus = "pending_validation"
	MatchValidated         MatchStatus = "validated"
	MatchDisputed          MatchStatus = "disputed"
	MatchRejected          MatchStatus = "rejected"
)

// PairReleasingMatchStatuses end a challenge's hold on its pair even though the
// challenge itself stays awaiting_validation for admin review.
var PairReleasingMatchStatuses = []MatchStatus{MatchDisputed, MatchRejected}

const (
	ChallengeResponseWindow = 48 * time.Hour
	MatchPlayWindow         = 7 * 24 * time.Hour
	ValidationWindow        = 48 * time.Hour
)

var (
	// ErrInvalidTransition is matched by every TransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrDeadlinePassed is returned when a transition needs a deadline that has elapsed.
	ErrDeadlinePassed = errors.New("deadline passed")
	// ErrDeadlineNotReached is returned when an automatic transition runs too early.
	ErrDeadlineNotReached = errors.New("deadline not reached")
)

// TransitionError describes a rejected state change.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// ChallengeState is the lifecycle part of a challenge. Every transition
// returns a new value with all derived timestamps filled in.
type ChallengeState struct {
	Status        ChallengeStatus
	CreatedAt     time.Time
	ExpiresAt     time.Time
	RespondedAt   *time.Time
	AcceptedAt    *time.Time
	MatchDeadline *time.Time
}

// NewChallengeState opens a challenge at now.
func NewChallengeState(now time.Time) ChallengeState {
	return ChallengeState{
		Status:    ChallengePending,
		CreatedAt: now,
		ExpiresAt: now.Add(ChallengeResponseWindow),
	}
}

func (s ChallengeState) move(from, to ChallengeStatus) error {
	if s.Status != from {
		return &TransitionError{Entity: "challenge", From: string(s.Status), To: string(to)}
	}
	return nil
}

// Accept records the challenged player's acceptance.
func (s ChallengeState) Accept(now time.Time) (ChallengeState, error) {
	if err := s.move(ChallengePending, ChallengeAccepted); err != nil {
		return s, err
	}
	if !now.Before(s.ExpiresAt) {
		return s, fmt.Errorf("challenge response window: %w", ErrDeadlinePassed)
	}
	deadline := now.Add(MatchPlayWindow)
	s.Status = ChallengeAccepted
	s.RespondedAt = &now
	s.AcceptedAt = &now
	s.MatchDeadline = &deadline
	return s, nil
}

// Decline records the challenged player's refusal.
func (s ChallengeState) Decline(now time.Time) (ChallengeState, error) {
	if err := s.move(ChallengePending, ChallengeDeclined); err != nil {
		return s, err
	}
	if !now.Before(s.ExpiresAt) {
		return s, fmt.Errorf("challenge response window: %w", ErrDeadlinePassed)
	}
	s.Status = ChallengeDeclined
	s.RespondedAt = &now
	return s, nil
}

// Expire closes an unanswered challenge once its response window is over.
func (s ChallengeState) Expire(now time.Time) (ChallengeState, error) {
	if err := s.move(ChallengePending, ChallengeExpired); err != nil {
		return s, err
	}
	if now.Before(s.ExpiresAt) {
		return s, ErrDeadlineNotReached
	}
	s.Status = ChallengeExpired
	return s, nil
}

// FileMatch marks that a result has been reported.
func (s ChallengeState) FileMatch() (ChallengeState, error) {
	if err := s.move(ChallengeAccepted, ChallengeAwaitingValidation); err != nil {
		return s, err
	}
	s.Status = ChallengeAwaitingValidation
	return s, nil
}

// Complete closes the challenge after its match is validated.
func (s ChallengeState) Complete() (ChallengeState, error) {
	if err := s.move(ChallengeAwaitingValidation, ChallengeCompleted); err != nil {
		return s, err
	}
	s.Status = ChallengeCompleted
	return s, nil
}

// MatchState is the lifecycle part of a match.
type MatchState struct {
	Status             MatchStatus
	CreatedAt          time.Time
	ValidationDeadline time.Time
	ValidatedBy        *uuid.UUID
	ValidatedAt        *time.Time
	AutoValidated      bool
	DisputedAt         *time.Time
	DisputeReason      string
}

// NewMatchState files a result at now.
func NewMatchState(now time.Time) MatchState {
	return MatchState{
		Status:             MatchPendingValidation,
		CreatedAt:          now,
		ValidationDeadline: now.Add(ValidationWindow),
	}
}

func (s MatchState) move(to MatchStatus) error {
	if s.Status != MatchPendingValidation {
		return &TransitionError{Entity: "match", From: string(s.Status), To: string(to)}
	}
	return nil
}

// DeadlinePassed reports whether the validation window is over at now.
func (s MatchState) DeadlinePassed(now time.Time) bool {
	return !now.Before(s.ValidationDeadline)
}

// Confirm validates the match on the loser's confirmation.
func (s MatchState) Confirm(by uuid.UUID, now time.Time) (MatchState, error) {
	if err := s.move(MatchValidated); err != nil {
		return s, err
	}
	s.Status = MatchValidated
	s.ValidatedBy = &by
	s.ValidatedAt = &now
	return s, nil
}

// AutoValidate validates the match because nobody answered in time.
func (s MatchState) AutoValidate(now time.Time) (MatchState, error) {
	if err := s.move(MatchValidated); err != nil {
		return s, err
	}
	if !s.DeadlinePassed(now) {
		return s, ErrDeadlineNotReached
	}
	s.Status = MatchValidated
	s.ValidatedAt = &now
	s.AutoValidated = true
	return s, nil
}

// Dispute rejects the reported result. Only possible inside the window.
func (s MatchState) Dispute(reason string, now time.Time) (MatchState, error) {
	if err := s.move(MatchDisputed); err != nil {
		return s, err
	}
	if s.DeadlinePassed(now) {
		return s, fmt.Errorf("validation window: %w", ErrDeadlinePassed)
	}
	s.Status = MatchDisputed
	s.DisputedAt = &now
	s.DisputeReason = strings.TrimSpace(reason)
	return s, nil
}

// Reject closes a stale unvalidated match without settling it.
func (s MatchState) Reject() (MatchState, error) {
	if err := s.move(MatchRejected); err != nil {
		return s, err
	}
	s.Status = MatchRejected
	return s, nil
}

// ErrNotAParticipant is returned when a named player is not in the match.
var ErrNotAParticipant = errors.New("player is not a participant")

// ResolveOutcome returns (winner, loser) for a reported winner.
func ResolveOutcome(player1, player2, winner uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	switch winner {
	case player1:
		return player1, player2, nil
	case player2:
		return player2, player1, nil
	}
	return uuid.Nil, uuid.Nil, ErrNotAParticipant
}
