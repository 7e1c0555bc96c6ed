package internal

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Conn exchanges JSON frames of type F over a websocket, bounding every read
// and write by its own timeout. Write may be called concurrently; Read must
// have a single caller.
type Conn[F any] struct {
	ws           *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps ws. A zero timeout leaves that direction unbounded.
func NewConn[F any](ws *websocket.Conn, readTimeout, writeTimeout time.Duration) *Conn[F] {
	return &Conn[F]{ws: ws, readTimeout: readTimeout, writeTimeout: writeTimeout}
}

// Read blocks for the next frame.
func (c *Conn[F]) Read(ctx context.Context) (F, error) {
	ctx, cancel := bounded(ctx, c.readTimeout)
	defer cancel()
	var f F
	err := wsjson.Read(ctx, c.ws, &f)
	return f, err
}

func (c *Conn[F]) Write(ctx context.Context, f F) error {
	ctx, cancel := bounded(ctx, c.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c.ws, f)
}

// Close performs the close handshake.
func (c *Conn[F]) Close(code websocket.StatusCode, reason string) error {
	return c.ws.Close(code, reason)
}

// CloseNow drops the connection without a handshake.
func (c *Conn[F]) CloseNow() error {
	return c.ws.CloseNow()
}

func bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
