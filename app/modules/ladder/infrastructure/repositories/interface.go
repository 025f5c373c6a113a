package ladderdb

import (
	"context"
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for ladder persistence.
// Every method takes an optional bun.IDB so callers can run it inside a
// transaction; nil falls back to the repository's own connection.
//
// Error semantics:
//   - ErrNotFound: Record does not exist
//   - ErrNoRowsAffected: UPDATE matched no rows (row missing or status moved on)
//   - ErrDuplicate: a unique constraint rejected the insert
//   - Other errors: Infrastructure failures (DB connection, query errors)
type Repository interface {
	// --- Players ---

	GetPlayer(ctx context.Context, db bun.IDB, id uuid.UUID) (*Player, error)

	// GetPlayersForUpdate locks the given players in id order.
	// Returns ErrNotFound if any of them is missing.
	GetPlayersForUpdate(ctx context.Context, db bun.IDB, ids ...uuid.UUID) (map[uuid.UUID]*Player, error)

	CreatePlayer(ctx context.Context, db bun.IDB, player *Player) error

	// ListPlayers returns every player, active or not.
	ListPlayers(ctx context.Context, db bun.IDB) ([]*Player, error)

	// ListActiveAtLevel returns active players at a level for position derivation.
	ListActiveAtLevel(ctx context.Context, db bun.IDB, level ladderdomain.Level) ([]*Player, error)

	// SavePlayerState writes the mutable scoring columns of a player.
	SavePlayerState(ctx context.Context, db bun.IDB, player *Player) error

	// AdjustActiveChallenges adds delta to the player's active challenge count, floored at zero.
	AdjustActiveChallenges(ctx context.Context, db bun.IDB, id uuid.UUID, delta int) error

	// UpdateRanks bulk-writes the four ranking caches.
	UpdateRanks(ctx context.Context, db bun.IDB, ranks map[uuid.UUID]ladderdomain.Ranks) error

	// ListRanking returns one page of a category ordered by its cached ranking, plus the cohort size.
	ListRanking(ctx context.Context, db bun.IDB, category ladderdomain.Category, limit, offset int) ([]*Player, int, error)

	// CategoryStats aggregates a category's active players.
	CategoryStats(ctx context.Context, db bun.IDB, category ladderdomain.Category) (*CategoryStats, error)

	// ListRegions returns the distinct non-empty regions of active players.
	ListRegions(ctx context.Context, db bun.IDB) ([]string, error)

	// --- Challenges ---

	CreateChallenge(ctx context.Context, db bun.IDB, challenge *Challenge) error
	GetChallenge(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error)
	GetChallengeForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error)

	// FindLiveChallengeBetween looks for a live challenge between the pair in either direction.
	// A challenge whose match was disputed or rejected no longer counts.
	// Returns ErrNotFound if there is none.
	FindLiveChallengeBetween(ctx context.Context, db bun.IDB, a, b uuid.UUID) (*Challenge, error)

	// TransitionChallenge persists challenge state only if its status is still from.
	// Returns ErrNoRowsAffected when another writer got there first.
	TransitionChallenge(ctx context.Context, db bun.IDB, challenge *Challenge, from ladderdomain.ChallengeStatus) error

	// ListChallengesForPlayer returns challenges the player sent or received, newest first.
	ListChallengesForPlayer(ctx context.Context, db bun.IDB, playerID uuid.UUID, statuses []ladderdomain.ChallengeStatus) ([]*Challenge, error)

	ListExpiredPendingChallenges(ctx context.Context, db bun.IDB, now time.Time) ([]*Challenge, error)

	// DeleteStaleChallenges removes declined and expired challenges created before cutoff.
	DeleteStaleChallenges(ctx context.Context, db bun.IDB, cutoff time.Time) (int, error)

	// --- Matches ---

	// CreateMatch returns ErrDuplicate if the challenge already has a match.
	CreateMatch(ctx context.Context, db bun.IDB, match *Match) error
	GetMatch(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error)
	GetMatchForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Match, error)

	// TransitionMatch persists match state only if its status is still from.
	TransitionMatch(ctx context.Context, db bun.IDB, match *Match, from ladderdomain.MatchStatus) error

	// RecordSettlement stores the point deltas and ranking snapshots of a validated match.
	RecordSettlement(ctx context.Context, db bun.IDB, match *Match) error

	ListMatchesPastDeadline(ctx context.Context, db bun.IDB, now time.Time) ([]*Match, error)
	ListPendingValidationsForLoser(ctx context.Context, db bun.IDB, loserID uuid.UUID) ([]*Match, error)

	// ListStaleMatches returns pending_validation matches created before cutoff.
	ListStaleMatches(ctx context.Context, db bun.IDB, cutoff time.Time) ([]*Match, error)

	// --- Point history ---

	AppendPointHistory(ctx context.Context, db bun.IDB, entries ...*PointHistory) error
	ListPointHistory(ctx context.Context, db bun.IDB, playerID uuid.UUID) ([]*PointHistory, error)
}
