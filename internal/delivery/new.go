package delivery

import (
	"fmt"

	"github.com/nguyentantai21042004/voxdrop/internal/config"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
)

// New creates the gateway for the configured transport. natsURL overrides
// the configured NATS url, which lets the caller point it at an embedded
// server.
func New(cfg config.DeliveryConfig, natsURL string, log logger.Logger) (Gateway, error) {
	switch cfg.Transport {
	case "zmq":
		return NewZMQ(cfg.Endpoint, log), nil
	case "nats":
		if natsURL == "" {
			natsURL = cfg.NATS.URL
		}
		return NewNATS(natsURL, cfg.NATS.Subject, log)
	default:
		return nil, fmt.Errorf("delivery: unknown transport %q (supported: zmq, nats)", cfg.Transport)
	}
}
