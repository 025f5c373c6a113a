package handlerwrapper

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type ping struct {
	Name string `json:"name"`
}

type pong struct {
	Greeting string `json:"greeting"`
}

func TestWrapTransformingTyped(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")

	newMsg := func(body string) *message.Message {
		m := message.NewMessage(watermill.NewUUID(), []byte(body))
		middleware.SetCorrelationID("corr-1", m)
		return m
	}

	t.Run("decodes payload and encodes results", func(t *testing.T) {
		var seenCorrelation string
		h := WrapTransformingTyped("test.ping", logger, tracer, func(ctx context.Context, p *ping) ([]Result, error) {
			seenCorrelation = attr.CorrelationIDFromContext(ctx)
			return []Result{{
				Topic:    "test.pong",
				Payload:  pong{Greeting: "hello " + p.Name},
				Metadata: map[string]string{"source": "test"},
			}}, nil
		})

		out, err := h(newMsg(`{"name":"ana"}`))
		require.NoError(t, err)
		require.Len(t, out, 1)

		var got pong
		require.NoError(t, json.Unmarshal(out[0].Payload, &got))
		assert.Equal(t, "hello ana", got.Greeting)
		assert.Equal(t, "test.pong", out[0].Metadata.Get(MetadataTopic))
		assert.Equal(t, "test", out[0].Metadata.Get("source"))
		assert.Equal(t, "corr-1", middleware.MessageCorrelationID(out[0]))
		assert.Equal(t, "corr-1", seenCorrelation)
	})

	t.Run("undecodable payload is dropped", func(t *testing.T) {
		called := false
		h := WrapTransformingTyped("test.ping", logger, tracer, func(ctx context.Context, p *ping) ([]Result, error) {
			called = true
			return nil, nil
		})

		out, err := h(newMsg(`{not json`))
		assert.NoError(t, err)
		assert.Nil(t, out)
		assert.False(t, called)
	})

	t.Run("handler error is returned for retry", func(t *testing.T) {
		h := WrapTransformingTyped("test.ping", logger, tracer, func(ctx context.Context, p *ping) ([]Result, error) {
			return nil, errors.New("db down")
		})

		_, err := h(newMsg(`{"name":"ana"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "test.ping: db down")
	})

	t.Run("result without topic fails", func(t *testing.T) {
		h := WrapTransformingTyped("test.ping", logger, tracer, func(ctx context.Context, p *ping) ([]Result, error) {
			return []Result{{Payload: pong{}}}, nil
		})

		_, err := h(newMsg(`{}`))
		assert.ErrorContains(t, err, "result has no topic")
	})
}
