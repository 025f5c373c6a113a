package ladderintegrationtests

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace/noop"

	ladderservice "github.com/Black-And-White-Club/acerank/app/modules/ladder/application"
	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
	"github.com/Black-And-White-Club/acerank/integration_tests/testutils"
	laddermetrics "github.com/Black-And-White-Club/acerank/pkg/observability/metrics/ladder"
)

// recordingNotifier keeps every notification the service emits.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []ladderdomain.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, msg ladderdomain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) typesFor(recipient uuid.UUID) []ladderdomain.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []ladderdomain.NotificationType
	for _, msg := range n.sent {
		if msg.RecipientID == recipient {
			out = append(out, msg.Type)
		}
	}
	return out
}

type TestDeps struct {
	Env      *testutils.TestEnvironment
	Service  ladderservice.Service
	Notifier *recordingNotifier
	Gen      *testutils.TestDataGenerator
}

func SetupTestLadderService(t *testing.T) TestDeps {
	t.Helper()

	env := testutils.GetOrCreateTestEnv(t)
	env.Reset(t)

	notifier := &recordingNotifier{}
	service := ladderservice.NewLadderService(
		ladderdb.NewRepository(env.DB),
		notifier,
		env.Logger,
		laddermetrics.NewNoop(),
		noop.NewTracerProvider().Tracer("test_ladder_service"),
		env.DB,
	)

	gen := testutils.NewTestDataGenerator()
	t.Logf("data generator seed: %d", gen.Seed())

	return TestDeps{Env: env, Service: service, Notifier: notifier, Gen: gen}
}

// registerPair registers two players at level and returns them as
// (lower-placed, higher-placed) so the first may challenge the second.
func registerPair(t *testing.T, deps TestDeps, level ladderdomain.Level) (low, high *ladderservice.PlayerView) {
	t.Helper()
	ctx := deps.Env.Ctx
	region := deps.Gen.Region()

	a, err := deps.Service.RegisterPlayer(ctx, deps.Gen.PlayerRequest(level, region))
	if err != nil {
		t.Fatalf("register first player: %v", err)
	}
	b, err := deps.Service.RegisterPlayer(ctx, deps.Gen.PlayerRequest(level, region))
	if err != nil {
		t.Fatalf("register second player: %v", err)
	}

	a, err = deps.Service.GetPlayer(ctx, a.ID)
	if err != nil {
		t.Fatalf("reload first player: %v", err)
	}
	b, err = deps.Service.GetPlayer(ctx, b.ID)
	if err != nil {
		t.Fatalf("reload second player: %v", err)
	}

	if a.Rankings.Level > b.Rankings.Level {
		return a, b
	}
	return b, a
}
