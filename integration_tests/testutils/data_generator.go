package testutils

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	ladderservice "github.com/Black-And-White-Club/acerank/app/modules/ladder/application"
	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
)

// TestDataGenerator provides methods to create test data for integration tests
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed, for reproducing a failing run.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// PlayerRequest builds a registration at the given level. Names and emails
// carry a counter so generated players never collide.
func (g *TestDataGenerator) PlayerRequest(level ladderdomain.Level, region string) ladderservice.RegisterPlayerRequest {
	genders := ladderdomain.Genders
	return ladderservice.RegisterPlayerRequest{
		Name:   g.faker.Name(),
		Email:  fmt.Sprintf("%d.%s", g.faker.Number(1, 1_000_000_000), g.faker.Email()),
		Gender: genders[g.faker.Number(0, len(genders)-1)],
		Region: region,
		Level:  level,
	}
}

// Region picks a plausible region name.
func (g *TestDataGenerator) Region() string {
	return g.faker.City()
}

// Score returns a straight-sets score line.
func (g *TestDataGenerator) Score() string {
	return fmt.Sprintf("6-%d 6-%d", g.faker.Number(0, 4), g.faker.Number(0, 4))
}
