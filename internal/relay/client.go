package relay

import (
	"sync"

	"github.com/gorilla/websocket"
)

// client is one websocket connection. Reads happen only on the connection's
// own goroutine; writes go through the buffered send channel so any
// goroutine may broadcast to it, drained by a single writeLoop.
type client struct {
	id           string
	conn         *websocket.Conn
	send         chan []byte
	teardownOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, buffer int) *client {
	return &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

// TrySend queues msg without blocking. A full buffer means the recipient is
// too slow and this message is dropped for them; a closed channel means the
// client is already torn down. Either way the caller just logs and moves on.
func (c *client) TrySend(msg []byte) (err error) {
	defer func() {
		if recover() != nil {
			err = errClientClosed
		}
	}()
	select {
	case c.send <- msg:
		return nil
	default:
		return errSendBufferFull
	}
}

// writeLoop drains the send channel onto the wire. It exits when the send
// channel closes (teardown) or a write fails, and closes the socket either
// way so the readLoop unblocks.
func (c *client) writeLoop() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
	_ = c.conn.Close()
}
