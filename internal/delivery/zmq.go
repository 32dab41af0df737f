package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-zeromq/zmq4"
	"github.com/nguyentantai21042004/voxdrop/internal/logger"
)

// replyLinger is how long Close gives the last queued reply to reach its peer.
const replyLinger = 200 * time.Millisecond

type zmqGateway struct {
	endpoint string
	logger   logger.Logger

	mu      sync.Mutex
	closed  bool
	cancel  context.CancelFunc
	replied *zmqExchange
}

// NewZMQ returns a Gateway that binds a REP socket on endpoint for every
// transcript. zmq4 queues outgoing messages, so a replied socket stays open
// until the next Deliver or Close releases it.
func NewZMQ(endpoint string, log logger.Logger) Gateway {
	return &zmqGateway{endpoint: endpoint, logger: log}
}

// zmqExchange is one request/reply round scoped to a single transcript.
type zmqExchange struct {
	sock   zmq4.Socket
	cancel context.CancelFunc
}

func (g *zmqGateway) Deliver(ctx context.Context, text string) error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return ErrClosed
	}
	prev := g.replied
	g.replied = nil
	g.mu.Unlock()

	// The previous peer has had a whole pipeline run to read its reply.
	if prev != nil {
		prev.close()
	}

	ex, err := g.open()
	if err != nil {
		return err
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		ex.close()
		return ErrClosed
	}
	g.cancel = ex.cancel
	g.mu.Unlock()

	// The socket lives on its own context; ctx only aborts the wait.
	stop := context.AfterFunc(ctx, ex.cancel)

	g.logger.Debug(ctx, "Waiting for a peer on %s", g.endpoint)
	req, err := ex.sock.Recv()
	if err != nil {
		stop()
		g.release()
		ex.close()
		if ctx.Err() != nil {
			return fmt.Errorf("delivery: wait for request: %w", ctx.Err())
		}
		return fmt.Errorf("delivery: wait for request: %w", err)
	}

	g.logger.Info(ctx, "Sending transcript (%d chars) in reply to a %d-frame request",
		utf8.RuneCountInString(text), len(req.Frames))
	if err := ex.sock.Send(zmq4.NewMsgString(text)); err != nil {
		stop()
		g.release()
		ex.close()
		return fmt.Errorf("delivery: send reply: %w", err)
	}
	if !stop() {
		// ctx fired after the request arrived and tore the socket down.
		g.release()
		ex.close()
		return fmt.Errorf("delivery: send reply: %w", context.Cause(ctx))
	}

	g.mu.Lock()
	g.cancel = nil
	if g.closed {
		g.mu.Unlock()
		time.Sleep(replyLinger)
		ex.close()
		return nil
	}
	g.replied = ex
	g.mu.Unlock()
	return nil
}

func (g *zmqGateway) open() (*zmqExchange, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewRep(ctx)
	if err := sock.Listen(g.endpoint); err != nil {
		sock.Close()
		cancel()
		return nil, fmt.Errorf("delivery: bind %s: %w", g.endpoint, err)
	}
	return &zmqExchange{sock: sock, cancel: cancel}, nil
}

// release forgets the in-flight exchange.
func (g *zmqGateway) release() {
	g.mu.Lock()
	g.cancel = nil
	g.mu.Unlock()
}

func (e *zmqExchange) close() {
	_ = e.sock.Close()
	e.cancel()
}

// Close aborts a pending wait and releases the last replied socket.
func (g *zmqGateway) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	if g.cancel != nil {
		g.cancel()
	}
	last := g.replied
	g.replied = nil
	g.mu.Unlock()

	if last != nil {
		time.Sleep(replyLinger)
		last.close()
	}
	return nil
}
