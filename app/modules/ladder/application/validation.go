package ladderservice

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	"github.com/google/uuid"
)

func (r *RegisterPlayerRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Region = strings.TrimSpace(r.Region)

	if r.Name == "" {
		return invalid("name", "name is required")
	}
	if utf8.RuneCountInString(r.Name) > 100 {
		return invalid("name", "name must be at most 100 characters")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return invalid("email", "email is not a valid address")
	}
	if !r.Gender.Valid() {
		return invalid("gender", "gender must be one of male, female, other")
	}
	if !r.Level.Valid() {
		return invalid("level", "level must be between 1 and 4")
	}
	return nil
}

func (r *CreateChallengeRequest) validate() error {
	r.Message = strings.TrimSpace(r.Message)
	if r.ChallengerID == uuid.Nil {
		return invalid("challenger_id", "challenger is required")
	}
	if r.ChallengedID == uuid.Nil {
		return invalid("challenged_id", "challenged player is required")
	}
	if utf8.RuneCountInString(r.Message) > MaxChallengeMessageLength {
		return invalid("message", "message must be at most %d characters", MaxChallengeMessageLength)
	}
	return nil
}

func (r *SubmitMatchRequest) validate() error {
	r.Score = strings.TrimSpace(r.Score)
	r.Location = strings.TrimSpace(r.Location)
	r.Notes = strings.TrimSpace(r.Notes)

	if r.ChallengeID == uuid.Nil {
		return invalid("challenge_id", "challenge is required")
	}
	if r.WinnerID == uuid.Nil {
		return invalid("winner_id", "winner is required")
	}
	if r.Score == "" {
		return invalid("score", "score is required")
	}
	if r.DurationMinutes < 0 {
		return invalid("duration_minutes", "duration cannot be negative")
	}
	for i, set := range r.Sets {
		if set.Player1 < 0 || set.Player2 < 0 {
			return invalid("sets", "set %d has a negative score", i+1)
		}
	}
	return nil
}

func parseRespondAction(a RespondAction) error {
	switch a {
	case ActionAccept, ActionDecline:
		return nil
	}
	return invalid("action", "action must be accept or decline")
}

func parseValidateAction(a ValidateAction) error {
	switch a {
	case ActionConfirm, ActionDispute:
		return nil
	}
	return invalid("action", "action must be confirm or dispute")
}

// ParseStatuses converts a comma separated status filter.
func ParseStatuses(raw string) ([]ladderdomain.ChallengeStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []ladderdomain.ChallengeStatus
	for _, part := range strings.Split(raw, ",") {
		st := ladderdomain.ChallengeStatus(strings.TrimSpace(strings.ToLower(part)))
		switch st {
		case ladderdomain.ChallengePending, ladderdomain.ChallengeAccepted, ladderdomain.ChallengeDeclined,
			ladderdomain.ChallengeExpired, ladderdomain.ChallengeAwaitingValidation, ladderdomain.ChallengeCompleted:
			out = append(out, st)
		default:
			return nil, invalid("status", "unknown challenge status %q", part)
		}
	}
	return out, nil
}
