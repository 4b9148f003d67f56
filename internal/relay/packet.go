package relay

// Packet is the unit the relay moves between users. Bundle carries the
// sender's canonical registration bundle so a recipient without a session
// can complete the inbound handshake; senders attach it on every message.
// Recipients use it when they hold no session with the sender, or when a
// decrypt on the existing session fails and they lose the initiator
// tie-break; otherwise it is ignored.
type Packet struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Bundle    []byte `json:"bundle,omitempty"`
	Envelope  []byte `json:"envelope"`
	Timestamp int64  `json:"timestamp"`
}
