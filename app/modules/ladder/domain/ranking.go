package ladderdomain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// CategoryKind names one of the four ranking dimensions.
type CategoryKind string

const (
	KindOverall CategoryKind = "general"
	KindGender  CategoryKind = "gender"
	KindRegion  CategoryKind = "region"
	KindLevel   CategoryKind = "level"
)

// CategoryKinds lists every ranking dimension.
var CategoryKinds = []CategoryKind{KindOverall, KindGender, KindRegion, KindLevel}

// Category is one ranking cohort. Implementations are closed to this package.
type Category interface {
	Kind() CategoryKind
	Value() string
	isCategory()
}

type OverallCategory struct{}

type GenderCategory struct{ Gender Gender }

type RegionCategory struct{ Region string }

type LevelCategory struct{ Level Level }

func (OverallCategory) Kind() CategoryKind  { return KindOverall }
func (OverallCategory) Value() string       { return "" }
func (OverallCategory) isCategory()         {}
func (c GenderCategory) Kind() CategoryKind { return KindGender }
func (c GenderCategory) Value() string      { return string(c.Gender) }
func (GenderCategory) isCategory()          {}
func (c RegionCategory) Kind() CategoryKind { return KindRegion }
func (c RegionCategory) Value() string      { return c.Region }
func (RegionCategory) isCategory()          {}
func (c LevelCategory) Kind() CategoryKind  { return KindLevel }
func (c LevelCategory) Value() string       { return c.Level.String() }
func (LevelCategory) isCategory()           {}

// ParseCategory builds a Category from its wire form.
func ParseCategory(kind, value string) (Category, error) {
	switch CategoryKind(strings.ToLower(kind)) {
	case KindOverall, "overall":
		return OverallCategory{}, nil
	case KindGender:
		g := Gender(strings.ToLower(value))
		if !g.Valid() {
			return nil, fmt.Errorf("unknown gender %q", value)
		}
		return GenderCategory{Gender: g}, nil
	case KindRegion:
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("region is required")
		}
		return RegionCategory{Region: value}, nil
	case KindLevel:
		l, err := ParseLevel(value)
		if err != nil {
			return nil, err
		}
		return LevelCategory{Level: l}, nil
	}
	return nil, fmt.Errorf("unknown ranking category %q", kind)
}

// Standing is the slice of a player that ranking depends on.
type Standing struct {
	ID       uuid.UUID
	Name     string
	Points   int
	Wins     int
	Gender   Gender
	Region   string
	Level    Level
	IsActive bool
}

// Ranks are a player's ordinal in each category; zero means unranked.
type Ranks struct {
	General int `json:"general"`
	Gender  int `json:"gender"`
	Region  int `json:"region"`
	Level   int `json:"level"`
}

// Belongs reports whether s is an active member of c.
func Belongs(c Category, s Standing) bool {
	if !s.IsActive {
		return false
	}
	switch c := c.(type) {
	case OverallCategory:
		return true
	case GenderCategory:
		return s.Gender == c.Gender
	case RegionCategory:
		return s.Region == c.Region
	case LevelCategory:
		return s.Level == c.Level
	}
	panic(fmt.Sprintf("unhandled category %T", c))
}

// CompareStandings orders by points desc, wins desc, name asc. The id is the
// last tie-breaker so the order is total.
func CompareStandings(a, b Standing) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

// RankCohort returns the active members of c in ladder order, positions 1..N.
func RankCohort(c Category, players []Standing) []Standing {
	members := make([]Standing, 0, len(players))
	for _, p := range players {
		if Belongs(c, p) {
			members = append(members, p)
		}
	}
	slices.SortFunc(members, CompareStandings)
	return members
}

// Positions maps each member of c to its ordinal.
func Positions(c Category, players []Standing) map[uuid.UUID]int {
	ranked := RankCohort(c, players)
	out := make(map[uuid.UUID]int, len(ranked))
	for i, p := range ranked {
		out[p.ID] = i + 1
	}
	return out
}

// Cohorts lists every cohort of a kind present in players. Gender and level
// use their fixed value sets; regions are the distinct non-empty values.
func Cohorts(kind CategoryKind, players []Standing) []Category {
	switch kind {
	case KindOverall:
		return []Category{OverallCategory{}}
	case KindGender:
		out := make([]Category, 0, len(Genders))
		for _, g := range Genders {
			out = append(out, GenderCategory{Gender: g})
		}
		return out
	case KindRegion:
		var out []Category
		for _, r := range DistinctRegions(players) {
			out = append(out, RegionCategory{Region: r})
		}
		return out
	case KindLevel:
		out := make([]Category, 0, len(Levels))
		for _, l := range Levels {
			out = append(out, LevelCategory{Level: l})
		}
		return out
	}
	panic(fmt.Sprintf("unhandled category kind %q", kind))
}

// DistinctRegions returns the sorted set of non-empty regions of active players.
func DistinctRegions(players []Standing) []string {
	seen := map[string]struct{}{}
	for _, p := range players {
		if p.IsActive && strings.TrimSpace(p.Region) != "" {
			seen[p.Region] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// RankKind computes the positions of every player for one dimension.
// Players outside every cohort of the kind get no entry.
func RankKind(kind CategoryKind, players []Standing) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(players))
	for _, c := range Cohorts(kind, players) {
		for id, pos := range Positions(c, players) {
			out[id] = pos
		}
	}
	return out
}

// MergeRanks folds per-kind positions into a Ranks value per player. Every
// player gets an entry so inactive players are reset to unranked.
func MergeRanks(players []Standing, byKind map[CategoryKind]map[uuid.UUID]int) map[uuid.UUID]Ranks {
	out := make(map[uuid.UUID]Ranks, len(players))
	for _, p := range players {
		out[p.ID] = Ranks{
			General: byKind[KindOverall][p.ID],
			Gender:  byKind[KindGender][p.ID],
			Region:  byKind[KindRegion][p.ID],
			Level:   byKind[KindLevel][p.ID],
		}
	}
	return out
}

// RecomputeAll ranks every dimension sequentially.
func RecomputeAll(players []Standing) map[uuid.UUID]Ranks {
	byKind := make(map[CategoryKind]map[uuid.UUID]int, len(CategoryKinds))
	for _, k := range CategoryKinds {
		byKind[k] = RankKind(k, players)
	}
	return MergeRanks(players, byKind)
}
