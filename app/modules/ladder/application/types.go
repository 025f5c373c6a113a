package ladderservice

import (
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	"github.com/Black-And-White-Club/acerank/pkg/results"
	"github.com/google/uuid"
)

// LadderOperationResult is the result shape every write operation produces.
type LadderOperationResult[S any] = results.OperationResult[S, error]

// RespondAction is the challenged player's answer.
type RespondAction string

const (
	ActionAccept  RespondAction = "accept"
	ActionDecline RespondAction = "decline"
)

// ValidateAction is the loser's answer to a reported result.
type ValidateAction string

const (
	ActionConfirm ValidateAction = "confirm"
	ActionDispute ValidateAction = "dispute"
)

const (
	MaxChallengeMessageLength = 500
	DefaultRankingPageSize    = 50
	MaxRankingPageSize        = 200
)

type RegisterPlayerRequest struct {
	Name   string              `json:"name"`
	Email  string              `json:"email"`
	Gender ladderdomain.Gender `json:"gender"`
	Region string              `json:"region"`
	Level  ladderdomain.Level  `json:"level"`
}

type CreateChallengeRequest struct {
	ChallengerID uuid.UUID `json:"challenger_id"`
	ChallengedID uuid.UUID `json:"challenged_id"`
	Message      string    `json:"message,omitempty"`
	// ProposedDate accepts RFC 3339 or natural language ("next saturday 10am").
	ProposedDate string `json:"proposed_date,omitempty"`
}

type SubmitMatchRequest struct {
	ChallengeID     uuid.UUID           `json:"challenge_id"`
	ReporterID      uuid.UUID           `json:"reporter_id"`
	WinnerID        uuid.UUID           `json:"winner_id"`
	Score           string              `json:"score"`
	Sets            []ladderdb.SetScore `json:"sets,omitempty"`
	MatchDate       *time.Time          `json:"match_date,omitempty"`
	Location        string              `json:"location,omitempty"`
	DurationMinutes int                 `json:"duration_minutes,omitempty"`
	Notes           string              `json:"notes,omitempty"`
}

type PlayerView struct {
	ID                   uuid.UUID           `json:"id"`
	Name                 string              `json:"name"`
	Gender               ladderdomain.Gender `json:"gender"`
	Region               string              `json:"region"`
	Level                ladderdomain.Level  `json:"level"`
	LevelName            string              `json:"level_name"`
	Points               int                 `json:"points"`
	Rankings             ladderdomain.Ranks  `json:"rankings"`
	Provisional          bool                `json:"provisional"`
	ProvisionalRemaining int                 `json:"provisional_remaining"`
	ActiveChallenges     int                 `json:"active_challenges"`
	DeclinesThisMonth    int                 `json:"declines_this_month"`
	Wins                 int                 `json:"wins"`
	Losses               int                 `json:"losses"`
	WinStreak            int                 `json:"win_streak"`
	IsActive             bool                `json:"is_active"`
	LastActivityAt       *time.Time          `json:"last_activity_at,omitempty"`
}

type ChallengeView struct {
	ID                uuid.UUID                    `json:"id"`
	ChallengerID      uuid.UUID                    `json:"challenger_id"`
	ChallengedID      uuid.UUID                    `json:"challenged_id"`
	Status            ladderdomain.ChallengeStatus `json:"status"`
	Message           string                       `json:"message,omitempty"`
	ProposedDate      *time.Time                   `json:"proposed_date,omitempty"`
	ChallengerRanking int                          `json:"challenger_ranking"`
	ChallengedRanking int                          `json:"challenged_ranking"`
	ChallengerPoints  int                          `json:"challenger_points"`
	ChallengedPoints  int                          `json:"challenged_points"`
	CreatedAt         time.Time                    `json:"created_at"`
	ExpiresAt         time.Time                    `json:"expires_at"`
	RespondedAt       *time.Time                   `json:"responded_at,omitempty"`
	AcceptedAt        *time.Time                   `json:"accepted_at,omitempty"`
	MatchDeadline     *time.Time                   `json:"match_deadline,omitempty"`
}

type MatchView struct {
	ID                 uuid.UUID                 `json:"id"`
	ChallengeID        uuid.UUID                 `json:"challenge_id"`
	Player1ID          uuid.UUID                 `json:"player1_id"`
	Player2ID          uuid.UUID                 `json:"player2_id"`
	WinnerID           uuid.UUID                 `json:"winner_id"`
	LoserID            uuid.UUID                 `json:"loser_id"`
	Score              string                    `json:"score"`
	Sets               []ladderdb.SetScore       `json:"sets,omitempty"`
	MatchDate          time.Time                 `json:"match_date"`
	Location           string                    `json:"location,omitempty"`
	DurationMinutes    int                       `json:"duration_minutes,omitempty"`
	Notes              string                    `json:"notes,omitempty"`
	Status             ladderdomain.MatchStatus  `json:"status"`
	ReportedBy         uuid.UUID                 `json:"reported_by"`
	SelfReportedWinner bool                      `json:"self_reported_winner"`
	ValidationDeadline time.Time                 `json:"validation_deadline"`
	ValidatedBy        *uuid.UUID                `json:"validated_by,omitempty"`
	ValidatedAt        *time.Time                `json:"validated_at,omitempty"`
	AutoValidated      bool                      `json:"auto_validated"`
	DisputedAt         *time.Time                `json:"disputed_at,omitempty"`
	DisputeReason      string                    `json:"dispute_reason,omitempty"`
	Points             *ladderdomain.PointsAward `json:"points,omitempty"`
	RankingBefore      *ladderdb.RankingSnapshot `json:"ranking_before,omitempty"`
	RankingAfter       *ladderdb.RankingSnapshot `json:"ranking_after,omitempty"`
	CreatedAt          time.Time                 `json:"created_at"`
}

// EligibilityView is EvaluateChallenge's answer.
type EligibilityView struct {
	ladderdomain.EligibilityDecision
	ChallengerID         uuid.UUID `json:"challenger_id"`
	ChallengedID         uuid.UUID `json:"challenged_id"`
	ChallengerPosition   int       `json:"challenger_level_position"`
	ChallengedPosition   int       `json:"challenged_level_position"`
	ActivePlayersAtLevel int       `json:"active_players_at_level"`
}

type RespondResult struct {
	Challenge ChallengeView                `json:"challenge"`
	Decline   *ladderdomain.DeclineOutcome `json:"decline,omitempty"`
}

type RankingEntry struct {
	Position int        `json:"position"`
	Player   PlayerView `json:"player"`
}

type RankingPage struct {
	Category ladderdomain.CategoryKind `json:"category"`
	Value    string                    `json:"value,omitempty"`
	Total    int                       `json:"total"`
	Limit    int                       `json:"limit"`
	Offset   int                       `json:"offset"`
	Entries  []RankingEntry            `json:"entries"`
}

type CategoryStatsView struct {
	Category      ladderdomain.CategoryKind `json:"category"`
	Value         string                    `json:"value,omitempty"`
	TotalPlayers  int                       `json:"total_players"`
	AveragePoints float64                   `json:"average_points"`
	TopPlayer     *PlayerView               `json:"top_player,omitempty"`
}

type CleanupReport struct {
	ChallengesDeleted int `json:"challenges_deleted"`
	MatchesRejected   int `json:"matches_rejected"`
}

func toPlayerView(p *ladderdb.Player, now time.Time) PlayerView {
	v := PlayerView{
		ID:                p.ID,
		Name:              p.Name,
		Gender:            p.Gender,
		Region:            p.Region,
		Level:             p.Level,
		LevelName:         p.Level.String(),
		Points:            p.Points,
		Rankings:          p.Ranks(),
		Provisional:       p.Provisional,
		ActiveChallenges:  p.ActiveChallenges,
		DeclinesThisMonth: p.DeclineCounter().In(ladderdomain.PeriodKeyFor(now)).Count,
		Wins:              p.Wins,
		Losses:            p.Losses,
		WinStreak:         p.WinStreak,
		IsActive:          p.IsActive,
		LastActivityAt:    p.LastActivityAt,
	}
	if p.Provisional {
		v.ProvisionalRemaining = max(0, ladderdomain.ProvisionalMatchesRequired-p.ProvisionalMatches)
	}
	return v
}

func toChallengeView(c *ladderdb.Challenge) ChallengeView {
	return ChallengeView{
		ID:                c.ID,
		ChallengerID:      c.ChallengerID,
		ChallengedID:      c.ChallengedID,
		Status:            c.Status,
		Message:           c.Message,
		ProposedDate:      c.ProposedDate,
		ChallengerRanking: c.ChallengerRanking,
		ChallengedRanking: c.ChallengedRanking,
		ChallengerPoints:  c.ChallengerPoints,
		ChallengedPoints:  c.ChallengedPoints,
		CreatedAt:         c.CreatedAt,
		ExpiresAt:         c.ExpiresAt,
		RespondedAt:       c.RespondedAt,
		AcceptedAt:        c.AcceptedAt,
		MatchDeadline:     c.MatchDeadline,
	}
}

func toMatchView(m *ladderdb.Match) MatchView {
	v := MatchView{
		ID:                 m.ID,
		ChallengeID:        m.ChallengeID,
		Player1ID:          m.Player1ID,
		Player2ID:          m.Player2ID,
		WinnerID:           m.WinnerID,
		LoserID:            m.LoserID,
		Score:              m.Score,
		Sets:               m.Sets,
		MatchDate:          m.MatchDate,
		Location:           m.Location,
		DurationMinutes:    m.DurationMinutes,
		Notes:              m.Notes,
		Status:             m.Status,
		ReportedBy:         m.ReportedBy,
		SelfReportedWinner: m.ReportedBy == m.WinnerID,
		ValidationDeadline: m.ValidationDeadline,
		ValidatedBy:        m.ValidatedBy,
		ValidatedAt:        m.ValidatedAt,
		AutoValidated:      m.AutoValidated,
		DisputedAt:         m.DisputedAt,
		DisputeReason:      m.DisputeReason,
		RankingBefore:      m.RankingBefore,
		RankingAfter:       m.RankingAfter,
		CreatedAt:          m.CreatedAt,
	}
	if m.Status == ladderdomain.MatchValidated {
		v.Points = &ladderdomain.PointsAward{
			WinnerDelta: m.WinnerPointsDelta,
			LoserDelta:  m.LoserPointsDelta,
			Multiplier:  m.Multiplier,
		}
	}
	return v
}
