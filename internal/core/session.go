package core

import (
	"encoding/json"
	"fmt"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/protocol/ratchet"
	"github.com/maximeliseyev/construct-messenger/internal/util/memzero"
)

// sessionBlobVersion is bumped when the serialized session layout changes.
const sessionBlobVersion = 1

type skippedEntry struct {
	DHPublicKey []byte `json:"dh"`
	N           uint32 `json:"n"`
	MessageKey  []byte `json:"mk"`
}

// sessionBlob mirrors the ratchet state field for field. It is the stable
// opaque form of the persistence contract; hosts seal it before disk.
type sessionBlob struct {
	V                    int            `json:"v"`
	SuiteID              domain.SuiteID `json:"suite_id"`
	RootKey              []byte         `json:"root_key"`
	DHPriv               []byte         `json:"dh_priv"`
	DHPub                []byte         `json:"dh_pub"`
	DHRemote             []byte         `json:"dh_remote"`
	SendChainKey         []byte         `json:"send_ck,omitempty"`
	SendCount            uint32         `json:"send_n"`
	RecvChainKey         []byte         `json:"recv_ck,omitempty"`
	RecvCount            uint32         `json:"recv_n"`
	PrevCount            uint32         `json:"prev_n"`
	Skipped              []skippedEntry `json:"skipped,omitempty"`
	PendingKEMCiphertext []byte         `json:"pending_kem_ct,omitempty"`
	MaxSkip              int            `json:"max_skip"`
}

// ExportSession serializes a session into its stable opaque byte form.
func (c *Core) ExportSession(h Handle) ([]byte, error) {
	s, err := c.lookup(h)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.st
	blob := sessionBlob{
		V:                    sessionBlobVersion,
		SuiteID:              st.SuiteID,
		RootKey:              st.RootKey,
		DHPriv:               st.DHPriv,
		DHPub:                st.DHPub,
		DHRemote:             st.DHRemote,
		SendChainKey:         st.SendChainKey,
		SendCount:            st.SendCount,
		RecvChainKey:         st.RecvChainKey,
		RecvCount:            st.RecvCount,
		PrevCount:            st.PrevCount,
		PendingKEMCiphertext: st.PendingKEMCiphertext,
		MaxSkip:              st.MaxSkip,
	}
	for k, mk := range st.Skipped {
		blob.Skipped = append(blob.Skipped, skippedEntry{
			DHPublicKey: []byte(k.DHPublicKey),
			N:           k.N,
			MessageKey:  mk,
		})
	}
	return json.Marshal(blob)
}

// ImportSession restores a session exported by ExportSession and registers
// it for the contact, replacing any existing session.
func (c *Core) ImportSession(contactID string, data []byte) (Handle, error) {
	var blob sessionBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return "", fmt.Errorf("%w: session blob: %v", domain.ErrBadBundle, err)
	}
	if blob.V != sessionBlobVersion {
		return "", fmt.Errorf("%w: unsupported session blob version %d", domain.ErrBadBundle, blob.V)
	}
	if blob.SuiteID != c.suite.ID() {
		return "", fmt.Errorf("%w: session suite %d, local suite %d",
			domain.ErrSuiteMismatch, blob.SuiteID, c.suite.ID())
	}
	if blob.MaxSkip <= 0 {
		blob.MaxSkip = c.maxSkip
	}

	st := &ratchet.State{
		SuiteID:              blob.SuiteID,
		RootKey:              blob.RootKey,
		DHPriv:               blob.DHPriv,
		DHPub:                blob.DHPub,
		DHRemote:             blob.DHRemote,
		SendChainKey:         blob.SendChainKey,
		SendCount:            blob.SendCount,
		RecvChainKey:         blob.RecvChainKey,
		RecvCount:            blob.RecvCount,
		PrevCount:            blob.PrevCount,
		Skipped:              make(map[ratchet.SkippedKeyID][]byte, len(blob.Skipped)),
		PendingKEMCiphertext: blob.PendingKEMCiphertext,
		MaxSkip:              blob.MaxSkip,
	}
	for _, e := range blob.Skipped {
		st.Skipped[ratchet.SkippedKeyID{DHPublicKey: string(e.DHPublicKey), N: e.N}] = e.MessageKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register(contactID, st)
}

func wipeState(st *ratchet.State) {
	memzero.ZeroAll(st.RootKey, st.DHPriv, st.SendChainKey, st.RecvChainKey)
	for _, mk := range st.Skipped {
		memzero.Zero(mk)
	}
}
