package relay

import "errors"

var (
	// ErrUnknownSession means the operation referenced a player id that was
	// never registered. The operation is dropped, the connection stays open.
	ErrUnknownSession = errors.New("unknown session")

	// ErrInvalidPayload means a message was missing required fields.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrEmptyChat suppresses whitespace-only chat lines. Never surfaced to
	// the sender.
	ErrEmptyChat = errors.New("empty chat message")

	errSendBufferFull = errors.New("send buffer full")
	errClientClosed   = errors.New("client closed")
)
