package ladderservice

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	laddermetrics "github.com/Black-And-White-Club/acerank/pkg/observability/metrics/ladder"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

// ------------------------
// Fake Ladder Repo
// ------------------------

// FakeLadderRepo is an in-memory ladderdb.Repository. Every method records
// its name; the optional Func hooks replace the default behavior.
type FakeLadderRepo struct {
	mu    sync.Mutex
	trace []string

	players    map[uuid.UUID]*ladderdb.Player
	challenges map[uuid.UUID]*ladderdb.Challenge
	matches    map[uuid.UUID]*ladderdb.Match
	history    []*ladderdb.PointHistory

	GetPlayerFunc               func(ctx context.Context, db bun.IDB, id uuid.UUID) (*ladderdb.Player, error)
	ListPlayersFunc             func(ctx context.Context, db bun.IDB) ([]*ladderdb.Player, error)
	SavePlayerStateFunc         func(ctx context.Context, db bun.IDB, player *ladderdb.Player) error
	UpdateRanksFunc             func(ctx context.Context, db bun.IDB, ranks map[uuid.UUID]ladderdomain.Ranks) error
	CreateChallengeFunc         func(ctx context.Context, db bun.IDB, challenge *ladderdb.Challenge) error
	TransitionChallengeFunc     func(ctx context.Context, db bun.IDB, challenge *ladderdb.Challenge, from ladderdomain.ChallengeStatus) error
	CreateMatchFunc             func(ctx context.Context, db bun.IDB, match *ladderdb.Match) error
	TransitionMatchFunc         func(ctx context.Context, db bun.IDB, match *ladderdb.Match, from ladderdomain.MatchStatus) error
	ListMatchesPastDeadlineFunc func(ctx context.Context, db bun.IDB, now time.Time) ([]*ladderdb.Match, error)
}

func NewFakeLadderRepo() *FakeLadderRepo {
	return &FakeLadderRepo{
		trace:      []string{},
		players:    map[uuid.UUID]*ladderdb.Player{},
		challenges: map[uuid.UUID]*ladderdb.Challenge{},
		matches:    map[uuid.UUID]*ladderdb.Match{},
	}
}

// Trace returns the sequence of method calls made to the fake.
func (f *FakeLadderRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeLadderRepo) record(step string) {
	f.mu.Lock()
	f.trace = append(f.trace, step)
	f.mu.Unlock()
}

// --- seeding and inspection helpers ---

func (f *FakeLadderRepo) AddPlayer(p *ladderdb.Player) *ladderdb.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.players[p.ID] = &cp
	return p
}

func (f *FakeLadderRepo) AddChallenge(c *ladderdb.Challenge) *ladderdb.Challenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.challenges[c.ID] = &cp
	return c
}

func (f *FakeLadderRepo) AddMatch(m *ladderdb.Match) *ladderdb.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *m
	f.matches[m.ID] = &cp
	return m
}

func (f *FakeLadderRepo) Player(id uuid.UUID) ladderdb.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.players[id]
}

func (f *FakeLadderRepo) Challenge(id uuid.UUID) ladderdb.Challenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.challenges[id]
}

func (f *FakeLadderRepo) Match(id uuid.UUID) ladderdb.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.matches[id]
}

func (f *FakeLadderRepo) History() []ladderdb.PointHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ladderdb.PointHistory, len(f.history))
	for i, h := range f.history {
		out[i] = *h
	}
	return out
}

func (f *FakeLadderRepo) challengeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.challenges)
}

// --- Players ---

func (f *FakeLadderRepo) GetPlayer(ctx context.Context, db bun.IDB, id uuid.UUID) (*ladderdb.Player, error) {
	f.record("GetPlayer")
	if f.GetPlayerFunc != nil {
		return f.GetPlayerFunc(ctx, db, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, ladderdb.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *FakeLadderRepo) GetPlayersForUpdate(ctx context.Context, db bun.IDB, ids ...uuid.UUID) (map[uuid.UUID]*ladderdb.Player, error) {
	f.record("GetPlayersForUpdate")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]*ladderdb.Player, len(ids))
	for _, id := range ids {
		p, ok := f.players[id]
		if !ok {
			return nil, ladderdb.ErrNotFound
		}
		if _, seen := out[id]; !seen {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *FakeLadderRepo) CreatePlayer(ctx context.Context, db bun.IDB, player *ladderdb.Player) error {
	f.record("CreatePlayer")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Email == player.Email {
			return ladderdb.ErrDuplicate
		}
	}
	cp := *player
	f.players[player.ID] = &cp
	return nil
}

func (f *FakeLadderRepo) ListPlayers(ctx context.Context, db bun.IDB) ([]*ladderdb.Player, error) {
	f.record("ListPlayers")
	if f.ListPlayersFunc != nil {
		return f.ListPlayersFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*ladderdb.Player, 0, len(f.players))
	for _, p := range f.players {
		cp := *p
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *ladderdb.Player) int { return cmp.Compare(a.ID.String(), b.ID.String()) })
	return out, nil
}

func (f *FakeLadderRepo) ListActiveAtLevel(ctx context.Context, db bun.IDB, level ladderdomain.Level) ([]*ladderdb.Player, error) {
	f.record("ListActiveAtLevel")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ladderdb.Player
	for _, p := range f.players {
		if p.IsActive && p.Level == level {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeLadderRepo) SavePlayerState(ctx context.Context, db bun.IDB, player *ladderdb.Player) error {
	f.record("SavePlayerState")
	if f.SavePlayerStateFunc != nil {
		return f.SavePlayerStateFunc(ctx, db, player)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.players[player.ID]
	if !ok {
		return ladderdb.ErrNoRowsAffected
	}
	ranks := stored.Ranks()
	cp := *player
	cp.SetRanks(ranks)
	f.players[player.ID] = &cp
	return nil
}

func (f *FakeLadderRepo) AdjustActiveChallenges(ctx context.Context, db bun.IDB, id uuid.UUID, delta int) error {
	f.record("AdjustActiveChallenges")
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return ladderdb.ErrNoRowsAffected
	}
	p.ActiveChallenges = max(0, p.ActiveChallenges+delta)
	return nil
}

func (f *FakeLadderRepo) UpdateRanks(ctx context.Context, db bun.IDB, ranks map[uuid.UUID]ladderdomain.Ranks) error {
	f.record("UpdateRanks")
	if f.UpdateRanksFunc != nil {
		return f.UpdateRanksFunc(ctx, db, ranks)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range ranks {
		if p, ok := f.players[id]; ok {
			p.SetRanks(r)
		}
	}
	return nil
}

func (f *FakeLadderRepo) inCategory(c ladderdomain.Category) []*ladderdb.Player {
	var out []*ladderdb.Player
	for _, p := range f.players {
		if ladderdomain.Belongs(c, p.Standing()) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (f *FakeLadderRepo) ListRanking(ctx context.Context, db bun.IDB, category ladderdomain.Category, limit, offset int) ([]*ladderdb.Player, int, error) {
	f.record("ListRanking")
	f.mu.Lock()
	defer f.mu.Unlock()
	members := f.inCategory(category)
	slices.SortFunc(members, func(a, b *ladderdb.Player) int {
		return cmp.Compare(rankFor(category.Kind(), a.Ranks()), rankFor(category.Kind(), b.Ranks()))
	})
	total := len(members)
	members = members[min(offset, total):]
	if limit > 0 && len(members) > limit {
		members = members[:limit]
	}
	return members, total, nil
}

func (f *FakeLadderRepo) CategoryStats(ctx context.Context, db bun.IDB, category ladderdomain.Category) (*ladderdb.CategoryStats, error) {
	f.record("CategoryStats")
	f.mu.Lock()
	defer f.mu.Unlock()
	members := f.inCategory(category)
	stats := &ladderdb.CategoryStats{TotalPlayers: len(members)}
	if len(members) == 0 {
		return stats, nil
	}
	sum := 0
	for _, p := range members {
		sum += p.Points
	}
	stats.AveragePoints = float64(sum) / float64(len(members))
	slices.SortFunc(members, func(a, b *ladderdb.Player) int {
		return ladderdomain.CompareStandings(a.Standing(), b.Standing())
	})
	stats.TopPlayer = members[0]
	return stats, nil
}

func (f *FakeLadderRepo) ListRegions(ctx context.Context, db bun.IDB) ([]string, error) {
	f.record("ListRegions")
	f.mu.Lock()
	defer f.mu.Unlock()
	standings := make([]ladderdomain.Standing, 0, len(f.players))
	for _, p := range f.players {
		standings = append(standings, p.Standing())
	}
	return ladderdomain.DistinctRegions(standings), nil
}

// --- Challenges ---

func (f *FakeLadderRepo) CreateChallenge(ctx context.Context, db bun.IDB, challenge *ladderdb.Challenge) error {
	f.record("CreateChallenge")
	if f.CreateChallengeFunc != nil {
		return f.CreateChallengeFunc(ctx, db, challenge)
	}
	f.AddChallenge(challenge)
	return nil
}

func (f *FakeLadderRepo) GetChallenge(ctx context.Context, db bun.IDB, id uuid.UUID) (*ladderdb.Challenge, error) {
	f.record("GetChallenge")
	return f.getChallenge(id)
}

func (f *FakeLadderRepo) GetChallengeForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*ladderdb.Challenge, error) {
	f.record("GetChallengeForUpdate")
	return f.getChallenge(id)
}

func (f *FakeLadderRepo) getChallenge(id uuid.UUID) (*ladderdb.Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.challenges[id]
	if !ok {
		return nil, ladderdb.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *FakeLadderRepo) FindLiveChallengeBetween(ctx context.Context, db bun.IDB, a, b uuid.UUID) (*ladderdb.Challenge, error) {
	f.record("FindLiveChallengeBetween")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.challenges {
		if !slices.Contains(ladderdomain.LiveChallengeStatuses, c.Status) || f.pairReleased(c.ID) {
			continue
		}
		if (c.ChallengerID == a && c.ChallengedID == b) || (c.ChallengerID == b && c.ChallengedID == a) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ladderdb.ErrNotFound
}

// pairReleased reports whether the challenge's match ended in dispute or rejection.
// Callers hold f.mu.
func (f *FakeLadderRepo) pairReleased(challengeID uuid.UUID) bool {
	for _, m := range f.matches {
		if m.ChallengeID == challengeID && slices.Contains(ladderdomain.PairReleasingMatchStatuses, m.Status) {
			return true
		}
	}
	return false
}

func (f *FakeLadderRepo) TransitionChallenge(ctx context.Context, db bun.IDB, challenge *ladderdb.Challenge, from ladderdomain.ChallengeStatus) error {
	f.record("TransitionChallenge")
	if f.TransitionChallengeFunc != nil {
		return f.TransitionChallengeFunc(ctx, db, challenge, from)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.challenges[challenge.ID]
	if !ok || stored.Status != from {
		return ladderdb.ErrNoRowsAffected
	}
	cp := *challenge
	f.challenges[challenge.ID] = &cp
	return nil
}

func (f *FakeLadderRepo) ListChallengesForPlayer(ctx context.Context, db bun.IDB, playerID uuid.UUID, statuses []ladderdomain.ChallengeStatus) ([]*ladderdb.Challenge, error) {
	f.record("ListChallengesForPlayer")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ladderdb.Challenge
	for _, c := range f.challenges {
		if !c.Involves(playerID) {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, c.Status) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *ladderdb.Challenge) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *FakeLadderRepo) ListExpiredPendingChallenges(ctx context.Context, db bun.IDB, now time.Time) ([]*ladderdb.Challenge, error) {
	f.record("ListExpiredPendingChallenges")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ladderdb.Challenge
	for _, c := range f.challenges {
		if c.Status == ladderdomain.ChallengePending && !c.ExpiresAt.After(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *FakeLadderRepo) DeleteStaleChallenges(ctx context.Context, db bun.IDB, cutoff time.Time) (int, error) {
	f.record("DeleteStaleChallenges")
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id, c := range f.challenges {
		closed := c.Status == ladderdomain.ChallengeDeclined || c.Status == ladderdomain.ChallengeExpired
		if closed && c.CreatedAt.Before(cutoff) {
			delete(f.challenges, id)
			n++
		}
	}
	return n, nil
}

// --- Matches ---

func (f *FakeLadderRepo) CreateMatch(ctx context.Context, db bun.IDB, match *ladderdb.Match) error {
	f.record("CreateMatch")
	if f.CreateMatchFunc != nil {
		return f.CreateMatchFunc(ctx, db, match)
	}
	f.mu.Lock()
	for _, m := range f.matches {
		if m.ChallengeID == match.ChallengeID {
			f.mu.Unlock()
			return ladderdb.ErrDuplicate
		}
	}
	f.mu.Unlock()
	f.AddMatch(match)
	return nil
}

func (f *FakeLadderRepo) GetMatch(ctx context.Context, db bun.IDB, id uuid.UUID) (*ladderdb.Match, error) {
	f.record("GetMatch")
	return f.getMatch(id)
}

func (f *FakeLadderRepo) GetMatchForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*ladderdb.Match, error) {
	f.record("GetMatchForUpdate")
	return f.getMatch(id)
}

func (f *FakeLadderRepo) getMatch(id uuid.UUID) (*ladderdb.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, ladderdb.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *FakeLadderRepo) TransitionMatch(ctx context.Context, db bun.IDB, match *ladderdb.Match, from ladderdomain.MatchStatus) error {
	f.record("TransitionMatch")
	if f.TransitionMatchFunc != nil {
		return f.TransitionMatchFunc(ctx, db, match, from)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.matches[match.ID]
	if !ok || stored.Status != from {
		return ladderdb.ErrNoRowsAffected
	}
	cp := *stored
	cp.SetState(match.State())
	f.matches[match.ID] = &cp
	return nil
}

func (f *FakeLadderRepo) RecordSettlement(ctx context.Context, db bun.IDB, match *ladderdb.Match) error {
	f.record("RecordSettlement")
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.matches[match.ID]
	if !ok {
		return ladderdb.ErrNoRowsAffected
	}
	stored.WinnerPointsDelta = match.WinnerPointsDelta
	stored.LoserPointsDelta = match.LoserPointsDelta
	stored.Multiplier = match.Multiplier
	stored.RankingBefore = match.RankingBefore
	stored.RankingAfter = match.RankingAfter
	return nil
}

func (f *FakeLadderRepo) ListMatchesPastDeadline(ctx context.Context, db bun.IDB, now time.Time) ([]*ladderdb.Match, error) {
	f.record("ListMatchesPastDeadline")
	if f.ListMatchesPastDeadlineFunc != nil {
		return f.ListMatchesPastDeadlineFunc(ctx, db, now)
	}
	return f.matchesWhere(func(m *ladderdb.Match) bool {
		return m.Status == ladderdomain.MatchPendingValidation && !m.ValidationDeadline.After(now)
	}), nil
}

func (f *FakeLadderRepo) ListPendingValidationsForLoser(ctx context.Context, db bun.IDB, loserID uuid.UUID) ([]*ladderdb.Match, error) {
	f.record("ListPendingValidationsForLoser")
	return f.matchesWhere(func(m *ladderdb.Match) bool {
		return m.Status == ladderdomain.MatchPendingValidation && m.LoserID == loserID
	}), nil
}

func (f *FakeLadderRepo) ListStaleMatches(ctx context.Context, db bun.IDB, cutoff time.Time) ([]*ladderdb.Match, error) {
	f.record("ListStaleMatches")
	return f.matchesWhere(func(m *ladderdb.Match) bool {
		return m.Status == ladderdomain.MatchPendingValidation && m.CreatedAt.Before(cutoff)
	}), nil
}

func (f *FakeLadderRepo) matchesWhere(keep func(*ladderdb.Match) bool) []*ladderdb.Match {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ladderdb.Match
	for _, m := range f.matches {
		if keep(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *ladderdb.Match) int { return a.ValidationDeadline.Compare(b.ValidationDeadline) })
	return out
}

// --- Point history ---

func (f *FakeLadderRepo) AppendPointHistory(ctx context.Context, db bun.IDB, entries ...*ladderdb.PointHistory) error {
	f.record("AppendPointHistory")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range entries {
		cp := *e
		cp.ID = int64(len(f.history) + 1)
		f.history = append(f.history, &cp)
	}
	return nil
}

func (f *FakeLadderRepo) ListPointHistory(ctx context.Context, db bun.IDB, playerID uuid.UUID) ([]*ladderdb.PointHistory, error) {
	f.record("ListPointHistory")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*ladderdb.PointHistory
	for _, h := range f.history {
		if h.PlayerID == playerID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ ladderdb.Repository = (*FakeLadderRepo)(nil)

// ------------------------
// Fake Notifier
// ------------------------

type FakeNotifier struct {
	mu   sync.Mutex
	sent []ladderdomain.Notification

	NotifyFunc func(ctx context.Context, n ladderdomain.Notification) error
}

func (f *FakeNotifier) Notify(ctx context.Context, n ladderdomain.Notification) error {
	f.mu.Lock()
	f.sent = append(f.sent, n)
	f.mu.Unlock()
	if f.NotifyFunc != nil {
		return f.NotifyFunc(ctx, n)
	}
	return nil
}

func (f *FakeNotifier) Types() []ladderdomain.NotificationType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ladderdomain.NotificationType, len(f.sent))
	for i, n := range f.sent {
		out[i] = n.Type
	}
	return out
}

func (f *FakeNotifier) For(recipient uuid.UUID) []ladderdomain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ladderdomain.Notification
	for _, n := range f.sent {
		if n.RecipientID == recipient {
			out = append(out, n)
		}
	}
	return out
}

// ------------------------
// Fixtures
// ------------------------

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestService(repo *FakeLadderRepo, notifier *FakeNotifier) (*LadderService, *fakeClock) {
	clock := &fakeClock{now: testNow}
	s := NewLadderService(repo, notifier, nil, laddermetrics.NewNoop(), noop.NewTracerProvider().Tracer("test"), nil)
	s.clock = clock
	return s, clock
}

// newPlayer builds an active regular player; tweak the result as needed.
func newPlayer(name string, level ladderdomain.Level, points int) *ladderdb.Player {
	p := ladderdb.NewPlayer(name, strings.ToLower(name)+"@example.com", ladderdomain.GenderMale, "North", level)
	p.Points = points
	p.Provisional = false
	p.ProvisionalMatches = ladderdomain.ProvisionalMatchesRequired
	p.CreatedAt = testNow.Add(-90 * 24 * time.Hour)
	return p
}

// seedRanked stores the players with ranks consistent with their points.
func seedRanked(repo *FakeLadderRepo, players ...*ladderdb.Player) {
	ranks := ladderdomain.RecomputeAll(standingsOf(players))
	for _, p := range players {
		p.SetRanks(ranks[p.ID])
		repo.AddPlayer(p)
	}
}

func pendingChallenge(challenger, challenged *ladderdb.Player, createdAt time.Time) *ladderdb.Challenge {
	c := &ladderdb.Challenge{
		ID:           uuid.New(),
		ChallengerID: challenger.ID,
		ChallengedID: challenged.ID,
	}
	c.SetState(ladderdomain.NewChallengeState(createdAt))
	return c
}

func acceptedChallenge(challenger, challenged *ladderdb.Player, createdAt time.Time) *ladderdb.Challenge {
	c := pendingChallenge(challenger, challenged, createdAt)
	st, err := c.State().Accept(createdAt.Add(time.Hour))
	if err != nil {
		panic(err)
	}
	c.SetState(st)
	return c
}

func pendingMatch(c *ladderdb.Challenge, winner, loser uuid.UUID, createdAt time.Time) *ladderdb.Match {
	m := &ladderdb.Match{
		ID:          uuid.New(),
		ChallengeID: c.ID,
		Player1ID:   c.ChallengerID,
		Player2ID:   c.ChallengedID,
		WinnerID:    winner,
		LoserID:     loser,
		Score:       "6-4 6-3",
		MatchDate:   createdAt,
		ReportedBy:  winner,
		Multiplier:  1,
	}
	m.SetState(ladderdomain.NewMatchState(createdAt))
	return m
}

func awaitingChallenge(challenger, challenged *ladderdb.Player, createdAt time.Time) *ladderdb.Challenge {
	c := acceptedChallenge(challenger, challenged, createdAt)
	st, err := c.State().FileMatch()
	if err != nil {
		panic(err)
	}
	c.SetState(st)
	return c
}
