package stream

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostPort(t *testing.T) {
	t.Parallel()

	host, port, err := hostPort("nats://broker:4333")
	require.NoError(t, err)
	assert.Equal(t, "broker", host)
	assert.Equal(t, 4333, port)

	host, port, err = hostPort("nats://")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 4222, port)

	_, _, err = hostPort("nats://host:http")
	require.Error(t, err)
}

func TestEmbeddedRoundTrip(t *testing.T) {
	srv, err := StartEmbeddedAt("127.0.0.1", server.RANDOM_PORT)
	require.NoError(t, err)
	defer srv.Shutdown()

	nc, err := Connect(srv.ClientURL(), "embedded-test")
	require.NoError(t, err)
	defer nc.Close()

	subjects := Subjects{Prefix: "rppg"}
	got := make(chan []float64, 1)
	_, err = nc.Subscribe(subjects.Wildcard(KindIntensity), func(msg *nats.Msg) {
		samples, err := DecodeSamples(msg.Data)
		if err == nil {
			got <- samples
		}
	})
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	require.NoError(t, nc.Publish(subjects.Intensity("front"), EncodeSamples([]float64{128, 129.5})))

	select {
	case samples := <-got:
		assert.Equal(t, []float64{128, 129.5}, samples)
	case <-time.After(2 * time.Second):
		t.Fatal("no message from embedded server")
	}
}
