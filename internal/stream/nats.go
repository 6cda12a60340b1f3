package stream

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ivanzxc/go-rppg-stream/internal/logging"
)

// Connect dials NATS with reconnects forever; name identifies the process
// in server monitoring.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logging.Warn().Err(err).Str("client", name).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info().Str("client", name).Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
}
