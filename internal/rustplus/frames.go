package rustplus

import "encoding/json"

// The companion socket multiplexes many in-flight requests over one
// connection. Every outbound frame carries a process-unique seq and the
// pairing credentials; the server echoes the seq on the matching reply.
// Unsolicited frames (entity changed, alarms) arrive with no seq under the
// broadcast key.
//
// The frame layout is deliberately isolated in this file: the rest of the
// client deals only in decoded frames, so a different codec would not
// touch the correlation or lifecycle logic.

// requestFrame is one outbound request. Exactly one operation field is
// set per frame.
type requestFrame struct {
	Seq         uint32 `json:"seq"`
	PlayerID    int64  `json:"playerId"`
	PlayerToken int64  `json:"playerToken"`
	EntityID    int64  `json:"entityId,omitempty"`

	SetEntityValue *setEntityValue `json:"setEntityValue,omitempty"`
	GetEntityInfo  *struct{}       `json:"getEntityInfo,omitempty"`
}

// setEntityValue is the payload of a switch-state change request.
type setEntityValue struct {
	Value bool `json:"value"`
}

// serverFrame is one inbound frame: a seq-correlated response, an
// unsolicited broadcast, or both fields empty (ignored).
type serverFrame struct {
	Seq       uint32          `json:"seq,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Broadcast json.RawMessage `json:"broadcast,omitempty"`
}

// responseEnvelope is the part of a response payload the client inspects
// itself: the server-side rejection message, if any. Everything else is
// passed through raw.
type responseEnvelope struct {
	Error *struct {
		Error string `json:"error"`
	} `json:"error"`
}

// decodeServerFrame parses one raw websocket message. A frame that is not
// valid JSON is returned as an error so the read loop can log and skip it.
func decodeServerFrame(data []byte) (serverFrame, error) {
	var f serverFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return serverFrame{}, err
	}
	return f, nil
}

// responseError extracts the remote rejection out of a response payload.
// Returns nil when the response is a success.
func responseError(payload json.RawMessage) *RemoteError {
	var env responseEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil
	}
	if env.Error == nil {
		return nil
	}
	return &RemoteError{Message: env.Error.Error}
}
