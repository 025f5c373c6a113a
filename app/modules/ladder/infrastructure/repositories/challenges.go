package ladderdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (r *Impl) CreateChallenge(ctx context.Context, db bun.IDB, challenge *Challenge) error {
	db = r.resolveDB(db)
	if challenge.ID == uuid.Nil {
		challenge.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(challenge).Exec(ctx); err != nil {
		return fmt.Errorf("ladderdb.CreateChallenge: %w", err)
	}
	return nil
}

func (r *Impl) GetChallenge(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error) {
	return r.getChallenge(ctx, db, id, false)
}

func (r *Impl) GetChallengeForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*Challenge, error) {
	return r.getChallenge(ctx, db, id, true)
}

func (r *Impl) getChallenge(ctx context.Context, db bun.IDB, id uuid.UUID, lock bool) (*Challenge, error) {
	db = r.resolveDB(db)
	challenge := new(Challenge)
	q := db.NewSelect().Model(challenge).Where("c.id = ?", id)
	if lock {
		q = q.For("UPDATE")
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ladderdb.GetChallenge: %w", err)
	}
	return challenge, nil
}

func (r *Impl) FindLiveChallengeBetween(ctx context.Context, db bun.IDB, a, b uuid.UUID) (*Challenge, error) {
	db = r.resolveDB(db)
	challenge := new(Challenge)
	err := db.NewSelect().
		Model(challenge).
		Where("c.status IN (?)", bun.In(ladderdomain.LiveChallengeStatuses)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("c.challenger_id = ? AND c.challenged_id = ?", a, b).
				WhereOr("c.challenger_id = ? AND c.challenged_id = ?", b, a)
		}).
		Where("NOT EXISTS (SELECT 1 FROM matches AS m WHERE m.challenge_id = c.id AND m.status IN (?))",
			bun.In(ladderdomain.PairReleasingMatchStatuses)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ladderdb.FindLiveChallengeBetween: %w", err)
	}
	return challenge, nil
}

func (r *Impl) TransitionChallenge(ctx context.Context, db bun.IDB, challenge *Challenge, from ladderdomain.ChallengeStatus) error {
	db = r.resolveDB(db)
	challenge.UpdatedAt = time.Now().UTC()
	result, err := db.NewUpdate().
		Model(challenge).
		Column("status", "responded_at", "accepted_at", "match_deadline", "updated_at").
		WherePK().
		Where("c.status = ?", from).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("ladderdb.TransitionChallenge: %w", err)
	}
	return requireRows(result, "ladderdb.TransitionChallenge")
}

func (r *Impl) ListChallengesForPlayer(ctx context.Context, db bun.IDB, playerID uuid.UUID, statuses []ladderdomain.ChallengeStatus) ([]*Challenge, error) {
	db = r.resolveDB(db)
	var challenges []*Challenge
	q := db.NewSelect().
		Model(&challenges).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("c.challenger_id = ?", playerID).WhereOr("c.challenged_id = ?", playerID)
		})
	if len(statuses) > 0 {
		q = q.Where("c.status IN (?)", bun.In(statuses))
	}
	if err := q.Order("c.created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("ladderdb.ListChallengesForPlayer: %w", err)
	}
	return challenges, nil
}

func (r *Impl) ListExpiredPendingChallenges(ctx context.Context, db bun.IDB, now time.Time) ([]*Challenge, error) {
	db = r.resolveDB(db)
	var challenges []*Challenge
	err := db.NewSelect().
		Model(&challenges).
		Where("c.status = ?", ladderdomain.ChallengePending).
		Where("c.expires_at <= ?", now).
		Order("c.expires_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("ladderdb.ListExpiredPendingChallenges: %w", err)
	}
	return challenges, nil
}

func (r *Impl) DeleteStaleChallenges(ctx context.Context, db bun.IDB, cutoff time.Time) (int, error) {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Challenge)(nil)).
		Where("c.status IN (?)", bun.In([]ladderdomain.ChallengeStatus{ladderdomain.ChallengeDeclined, ladderdomain.ChallengeExpired})).
		Where("c.created_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("ladderdb.DeleteStaleChallenges: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ladderdb.DeleteStaleChallenges: rows affected: %w", err)
	}
	return int(n), nil
}
