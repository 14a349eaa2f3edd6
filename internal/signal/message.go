package signal

import "encoding/json"

// SignalType represents the type of signaling message
type SignalType string

const (
	SignalTypeJoin       SignalType = "join"
	SignalTypePeers      SignalType = "peers"
	SignalTypePeerJoined SignalType = "peer-joined"
	SignalTypePeerLeft   SignalType = "peer-left"
	SignalTypeOffer      SignalType = "offer"
	SignalTypeAnswer     SignalType = "answer"
	SignalTypeCandidate  SignalType = "ice-candidate"
	SignalTypeLeave      SignalType = "leave"
	SignalTypeError      SignalType = "error"
)

// Message is the signaling envelope. Payload is opaque to the relay:
// offers, answers and candidates are forwarded verbatim.
type Message struct {
	Type    SignalType      `json:"type"`
	From    string          `json:"from,omitempty"`
	To      string          `json:"to,omitempty"`
	RoomID  string          `json:"roomId"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Peers   []string        `json:"peers,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// IsRelayable reports whether the message type is one the relay forwards.
func (m *Message) IsRelayable() bool {
	switch m.Type {
	case SignalTypeOffer, SignalTypeAnswer, SignalTypeCandidate:
		return true
	}
	return false
}
