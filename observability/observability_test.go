package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/saulfrancisco-ruizacevedo/go-friendgraph"
	"github.com/saulfrancisco-ruizacevedo/go-friendgraph/memstore"
)

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logger, err := NewLogger(level, false)
		require.NoError(t, err, level)
		require.NotNil(t, logger)
	}
	_, err := NewLogger("loud", true)
	assert.Error(t, err)
}

func TestInstrumentStore(t *testing.T) {
	ctx := context.Background()
	c := NewCollector("test")
	s := InstrumentStore(memstore.New(), c)

	require.NoError(t, s.AddNode(ctx, "alice"))
	require.NoError(t, s.AddNode(ctx, "bob"))
	assert.ErrorIs(t, s.AddNode(ctx, "alice"), friendgraph.ErrDuplicateNode)
	require.NoError(t, s.AddEdge(ctx, "alice", "bob"))
	require.NoError(t, s.RemoveEdge(ctx, "alice", "bob"))
	require.NoError(t, s.RemoveNode(ctx, "bob"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.UsersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.UsersDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FriendshipsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FriendshipsRemoved))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("add_node", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("add_node", StatusClientError)))

	assert.NoError(t, s.(friendgraph.Pinger).Ping(ctx))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector("friendgraph")
	c.ObserveHTTP(http.MethodGet, "/users", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `friendgraph_http_requests_total{method="GET",route="/users",status="200"} 1`)
}

func TestInitTracing(t *testing.T) {
	ctx := context.Background()

	shutdown, err := InitTracing(ctx, TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))

	_, err = InitTracing(ctx, TracingConfig{Enabled: true})
	assert.Error(t, err)

	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	shutdown, err = InitTracing(ctx, TracingConfig{Enabled: true, ServiceName: "friendgraph-test", Writer: &buf})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(ctx, "probe-span")
	span.End()
	require.NoError(t, shutdown(ctx))

	assert.Contains(t, buf.String(), "probe-span")
	assert.Contains(t, buf.String(), "friendgraph-test")
}
