package rustplus

import "errors"

// ErrNotConnected means the companion socket is not currently usable.
// Surfaced by the HTTP facade as 503; there is no automatic retry.
var ErrNotConnected = errors.New("rustplus: not connected to the game server")

// RemoteError is a rejection produced by the game server itself, e.g.
// "not_found" for an entity id the server does not know. The message is
// passed to the HTTP caller verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "rustplus: server error: " + e.Message
}
