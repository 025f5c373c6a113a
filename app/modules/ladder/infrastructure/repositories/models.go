package ladderdb

import (
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Player is a ladder participant.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID                  uuid.UUID           `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name                string              `bun:"name,notnull"`
	Email               string              `bun:"email,notnull,unique"`
	Gender              ladderdomain.Gender `bun:"gender,notnull"`
	Region              string              `bun:"region,notnull,default:''"`
	Level               ladderdomain.Level  `bun:"level,notnull"`
	Points              int                 `bun:"points,notnull"`
	RankingGeneral      int                 `bun:"ranking_general,notnull,default:0"`
	RankingGender       int                 `bun:"ranking_gender,notnull,default:0"`
	RankingRegion       int                 `bun:"ranking_region,notnull,default:0"`
	RankingLevel        int                 `bun:"ranking_level,notnull,default:0"`
	Provisional         bool                `bun:"provisional,notnull"`
	ProvisionalMatches  int                 `bun:"provisional_matches,notnull,default:0"`
	ActiveChallenges    int                 `bun:"active_challenges,notnull,default:0"`
	MonthlyDeclineCount int                 `bun:"monthly_decline_count,notnull,default:0"`
	DeclinePeriod       string              `bun:"decline_period,notnull,default:''"`
	Wins                int                 `bun:"wins,notnull,default:0"`
	Losses              int                 `bun:"losses,notnull,default:0"`
	WinStreak           int                 `bun:"win_streak,notnull,default:0"`
	IsActive            bool                `bun:"is_active,notnull"`
	LastActivityAt      *time.Time          `bun:"last_activity_at"`
	CreatedAt           time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt           time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// NewPlayer returns a player with the starting balance, provisional and active.
func NewPlayer(name, email string, gender ladderdomain.Gender, region string, level ladderdomain.Level) *Player {
	return &Player{
		ID:          uuid.New(),
		Name:        name,
		Email:       email,
		Gender:      gender,
		Region:      region,
		Level:       level,
		Points:      ladderdomain.StartingPoints,
		Provisional: true,
		IsActive:    true,
	}
}

// Standing projects the ranking-relevant fields.
func (p *Player) Standing() ladderdomain.Standing {
	return ladderdomain.Standing{
		ID:       p.ID,
		Name:     p.Name,
		Points:   p.Points,
		Wins:     p.Wins,
		Gender:   p.Gender,
		Region:   p.Region,
		Level:    p.Level,
		IsActive: p.IsActive,
	}
}

// Ranks returns the cached ordinals.
func (p *Player) Ranks() ladderdomain.Ranks {
	return ladderdomain.Ranks{
		General: p.RankingGeneral,
		Gender:  p.RankingGender,
		Region:  p.RankingRegion,
		Level:   p.RankingLevel,
	}
}

// SetRanks overwrites the cached ordinals.
func (p *Player) SetRanks(r ladderdomain.Ranks) {
	p.RankingGeneral = r.General
	p.RankingGender = r.Gender
	p.RankingRegion = r.Region
	p.RankingLevel = r.Level
}

func (p *Player) DeclineCounter() ladderdomain.DeclineCounter {
	return ladderdomain.DeclineCounter{
		Count:  p.MonthlyDeclineCount,
		Period: ladderdomain.PeriodKey(p.DeclinePeriod),
	}
}

func (p *Player) SetDeclineCounter(c ladderdomain.DeclineCounter) {
	p.MonthlyDeclineCount = c.Count
	p.DeclinePeriod = string(c.Period)
}

// Challenge is a request from one player to play another.
type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:c"`

	ID                uuid.UUID                    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ChallengerID      uuid.UUID                    `bun:"challenger_id,type:uuid,notnull"`
	ChallengedID      uuid.UUID                    `bun:"challenged_id,type:uuid,notnull"`
	Status            ladderdomain.ChallengeStatus `bun:"status,notnull"`
	Message           string                       `bun:"message,notnull,default:''"`
	ProposedDate      *time.Time                   `bun:"proposed_date"`
	ChallengerRanking int                          `bun:"challenger_ranking,notnull,default:0"`
	ChallengedRanking int                          `bun:"challenged_ranking,notnull,default:0"`
	ChallengerPoints  int                          `bun:"challenger_points,notnull,default:0"`
	ChallengedPoints  int                          `bun:"challenged_points,notnull,default:0"`
	ExpiresAt         time.Time                    `bun:"expires_at,notnull"`
	RespondedAt       *time.Time                   `bun:"responded_at"`
	AcceptedAt        *time.Time                   `bun:"accepted_at"`
	MatchDeadline     *time.Time                   `bun:"match_deadline"`
	CreatedAt         time.Time                    `bun:"created_at,notnull"`
	UpdatedAt         time.Time                    `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// State extracts the lifecycle fields.
func (c *Challenge) State() ladderdomain.ChallengeState {
	return ladderdomain.ChallengeState{
		Status:        c.Status,
		CreatedAt:     c.CreatedAt,
		ExpiresAt:     c.ExpiresAt,
		RespondedAt:   c.RespondedAt,
		AcceptedAt:    c.AcceptedAt,
		MatchDeadline: c.MatchDeadline,
	}
}

// SetState copies lifecycle fields back onto the row.
func (c *Challenge) SetState(s ladderdomain.ChallengeState) {
	c.Status = s.Status
	c.CreatedAt = s.CreatedAt
	c.ExpiresAt = s.ExpiresAt
	c.RespondedAt = s.RespondedAt
	c.AcceptedAt = s.AcceptedAt
	c.MatchDeadline = s.MatchDeadline
}

// Involves reports whether id is one of the two players.
func (c *Challenge) Involves(id uuid.UUID) bool {
	return c.ChallengerID == id || c.ChallengedID == id
}

// SetScore is one set of a reported match.
type SetScore struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

// RankingSnapshot freezes both players' ordinals around a settlement.
type RankingSnapshot struct {
	Winner ladderdomain.Ranks `json:"winner"`
	Loser  ladderdomain.Ranks `json:"loser"`
}

// Match is a reported result awaiting or past validation.
type Match struct {
	bun.BaseModel `bun:"table:matches,alias:m"`

	ID                 uuid.UUID                `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ChallengeID        uuid.UUID                `bun:"challenge_id,type:uuid,notnull,unique"`
	Player1ID          uuid.UUID                `bun:"player1_id,type:uuid,notnull"`
	Player2ID          uuid.UUID                `bun:"player2_id,type:uuid,notnull"`
	WinnerID           uuid.UUID                `bun:"winner_id,type:uuid,notnull"`
	LoserID            uuid.UUID                `bun:"loser_id,type:uuid,notnull"`
	Score              string                   `bun:"score,notnull"`
	Sets               []SetScore               `bun:"sets,type:jsonb"`
	MatchDate          time.Time                `bun:"match_date,notnull"`
	Location           string                   `bun:"location,notnull,default:''"`
	DurationMinutes    int                      `bun:"duration_minutes,notnull,default:0"`
	Notes              string                   `bun:"notes,notnull,default:''"`
	Status             ladderdomain.MatchStatus `bun:"status,notnull"`
	ReportedBy         uuid.UUID                `bun:"reported_by,type:uuid,notnull"`
	ValidationDeadline time.Time                `bun:"validation_deadline,notnull"`
	ValidatedBy        *uuid.UUID               `bun:"validated_by,type:uuid"`
	ValidatedAt        *time.Time               `bun:"validated_at"`
	AutoValidated      bool                     `bun:"auto_validated,notnull,default:false"`
	DisputedAt         *time.Time               `bun:"disputed_at"`
	DisputeReason      string                   `bun:"dispute_reason,notnull,default:''"`
	WinnerPointsDelta  int                      `bun:"winner_points_delta,notnull,default:0"`
	LoserPointsDelta   int                      `bun:"loser_points_delta,notnull,default:0"`
	Multiplier         float64                  `bun:"multiplier,notnull,default:1"`
	RankingBefore      *RankingSnapshot         `bun:"ranking_before,type:jsonb"`
	RankingAfter       *RankingSnapshot         `bun:"ranking_after,type:jsonb"`
	CreatedAt          time.Time                `bun:"created_at,notnull"`
	UpdatedAt          time.Time                `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (m *Match) State() ladderdomain.MatchState {
	return ladderdomain.MatchState{
		Status:             m.Status,
		CreatedAt:          m.CreatedAt,
		ValidationDeadline: m.ValidationDeadline,
		ValidatedBy:        m.ValidatedBy,
		ValidatedAt:        m.ValidatedAt,
		AutoValidated:      m.AutoValidated,
		DisputedAt:         m.DisputedAt,
		DisputeReason:      m.DisputeReason,
	}
}

func (m *Match) SetState(s ladderdomain.MatchState) {
	m.Status = s.Status
	m.CreatedAt = s.CreatedAt
	m.ValidationDeadline = s.ValidationDeadline
	m.ValidatedBy = s.ValidatedBy
	m.ValidatedAt = s.ValidatedAt
	m.AutoValidated = s.AutoValidated
	m.DisputedAt = s.DisputedAt
	m.DisputeReason = s.DisputeReason
}

// PointReason labels a point_history row.
type PointReason string

const (
	ReasonMatchWin            PointReason = "match_win"
	ReasonMatchLoss           PointReason = "match_loss"
	ReasonDeclinePenalty      PointReason = "decline_penalty"
	ReasonDeclineCompensation PointReason = "decline_compensation"
)

// PointHistory is an append-only ledger of balance changes.
type PointHistory struct {
	bun.BaseModel `bun:"table:point_history,alias:ph"`

	ID          int64       `bun:"id,pk,autoincrement"`
	PlayerID    uuid.UUID   `bun:"player_id,type:uuid,notnull"`
	Delta       int         `bun:"delta,notnull"`
	Balance     int         `bun:"balance,notnull"`
	Reason      PointReason `bun:"reason,notnull"`
	ReferenceID uuid.UUID   `bun:"reference_id,type:uuid,notnull"`
	CreatedAt   time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// CategoryStats summarises one ranking cohort.
type CategoryStats struct {
	TotalPlayers  int     `bun:"total_players"`
	AveragePoints float64 `bun:"average_points"`
	TopPlayer     *Player `bun:"-"`
}
