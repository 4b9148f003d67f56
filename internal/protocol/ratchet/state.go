package ratchet

import (
	"github.com/maximeliseyev/construct-messenger/internal/domain"
)

// DefaultMaxSkip bounds the skipped-key cache when no policy is supplied.
const DefaultMaxSkip = 1000

// SkippedKeyID identifies a cached message key by the ratchet public it was
// derived under and the message number within that chain.
type SkippedKeyID struct {
	DHPublicKey string
	N           uint32
}

// State is the full Double Ratchet session state. Fields are exported so the
// core can serialise sessions into its stable opaque form; nothing outside
// this package and the core should touch them.
type State struct {
	SuiteID domain.SuiteID

	RootKey []byte

	// Local ratchet keypair currently advertised to the peer.
	DHPriv []byte
	DHPub  []byte

	// Last peer ratchet public observed.
	DHRemote []byte

	SendChainKey []byte
	SendCount    uint32

	RecvChainKey []byte
	RecvCount    uint32

	// Length of the previous sending chain, sent with each message.
	PrevCount uint32

	Skipped map[SkippedKeyID][]byte

	// KEM ciphertext attached to outbound envelopes until the peer's first
	// reply proves the handshake completed. Empty on classic sessions.
	PendingKEMCiphertext []byte

	MaxSkip int
}

// clone deep-copies the state so a decrypt can speculate freely and commit
// only on success.
func (st *State) clone() *State {
	w := *st
	w.RootKey = dup(st.RootKey)
	w.DHPriv = dup(st.DHPriv)
	w.DHPub = dup(st.DHPub)
	w.DHRemote = dup(st.DHRemote)
	w.SendChainKey = dup(st.SendChainKey)
	w.RecvChainKey = dup(st.RecvChainKey)
	w.PendingKEMCiphertext = dup(st.PendingKEMCiphertext)
	w.Skipped = make(map[SkippedKeyID][]byte, len(st.Skipped))
	for k, v := range st.Skipped {
		w.Skipped[k] = dup(v)
	}
	return &w
}

func dup(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
