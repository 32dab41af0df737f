package natsserver

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nguyentantai21042004/voxdrop/internal/config"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
)

// EmbeddedServer wraps an in-process NATS server so the nats delivery
// transport works without an external broker.
type EmbeddedServer struct {
	ns  *server.Server
	log logger.Logger
}

// Start creates and starts an embedded NATS server. It returns nil, nil
// when cfg.Embedded is false. Port -1 picks a random free port.
func Start(ctx context.Context, cfg config.NATSConfig, log logger.Logger) (*EmbeddedServer, error) {
	if !cfg.Embedded {
		return nil, nil
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	opts := &server.Options{
		ServerName: "voxdrop-embedded",
		Host:       host,
		Port:       cfg.Port,
		NoLog:      true,
		NoSigs:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start within 5 seconds")
	}

	log.Info(ctx, "Embedded NATS server started on %s", ns.ClientURL())

	return &EmbeddedServer{
		ns:  ns,
		log: log,
	}, nil
}

// ClientURL returns the URL clients should connect to.
func (e *EmbeddedServer) ClientURL() string {
	if e == nil || e.ns == nil {
		return ""
	}
	return e.ns.ClientURL()
}

// Shutdown gracefully shuts down the embedded NATS server.
func (e *EmbeddedServer) Shutdown(ctx context.Context) {
	if e == nil || e.ns == nil {
		return
	}
	e.log.Info(ctx, "Shutting down embedded NATS server")
	e.ns.Shutdown()
	e.ns.WaitForShutdown()
}
