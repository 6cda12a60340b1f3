package stream

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

var ErrServerNotReady = errors.New("stream: embedded NATS server not ready")

// EmbeddedServer is an in-process NATS server for local runs and tests.
type EmbeddedServer struct {
	ns *server.Server
}

// StartEmbedded runs a core NATS server (no JetStream) listening on the
// host and port of natsURL.
func StartEmbedded(natsURL string) (*EmbeddedServer, error) {
	host, port, err := hostPort(natsURL)
	if err != nil {
		return nil, err
	}
	return StartEmbeddedAt(host, port)
}

// StartEmbeddedAt is StartEmbedded with an explicit address. Port
// server.RANDOM_PORT picks a free one.
func StartEmbeddedAt(host string, port int) (*EmbeddedServer, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "rppg-embedded",
		Host:       host,
		Port:       port,
		NoLog:      true,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("stream: create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, ErrServerNotReady
	}
	return &EmbeddedServer{ns: ns}, nil
}

func (s *EmbeddedServer) ClientURL() string { return s.ns.ClientURL() }

func (s *EmbeddedServer) Shutdown() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}

func hostPort(natsURL string) (string, int, error) {
	u, err := url.Parse(natsURL)
	if err != nil {
		return "", 0, fmt.Errorf("stream: parse %q: %w", natsURL, err)
	}
	host := u.Hostname()
	if host == "" {
		host = "127.0.0.1"
	}
	port := server.DEFAULT_PORT
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			return "", 0, fmt.Errorf("stream: port in %q: %w", natsURL, err)
		}
	}
	return host, port, nil
}
