package service

import (
	"context"

	"github.com/nguyentantai21042004/voxdrop/internal/delivery"
)

// stoppableGateway lets shutdown abort the open-ended wait for a peer, the
// one pipeline step that may block forever. Every other stage of an
// in-flight file runs to completion.
type stoppableGateway struct {
	delivery.Gateway
	shutdown context.Context
}

func (g stoppableGateway) Deliver(ctx context.Context, text string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(g.shutdown, cancel)
	defer stop()
	return g.Gateway.Deliver(ctx, text)
}
