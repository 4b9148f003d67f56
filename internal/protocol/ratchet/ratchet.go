package ratchet

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/suite"
	"github.com/maximeliseyev/construct-messenger/internal/util/memzero"
)

// NewInitiator seeds a session from the handshake output: the initiator's
// ephemeral keypair becomes the first ratchet keypair and the peer's signed
// prekey is the first remote ratchet public. The sending chain starts
// immediately; the receiving chain waits for the peer's first DH step.
func NewInitiator(s suite.Suite, rootKey, peerSignedPrekey, ephPriv, ephPub, kemCT []byte, maxSkip int) (*State, error) {
	dh, err := s.DH(ephPriv, peerSignedPrekey)
	if err != nil {
		return nil, err
	}
	newRoot, sendCK := s.KDFRootKey(rootKey, dh)
	memzero.Zero(dh)

	return &State{
		SuiteID:              s.ID(),
		RootKey:              newRoot,
		DHPriv:               dup(ephPriv),
		DHPub:                dup(ephPub),
		DHRemote:             dup(peerSignedPrekey),
		SendChainKey:         sendCK,
		Skipped:              make(map[SkippedKeyID][]byte),
		PendingKEMCiphertext: dup(kemCT),
		MaxSkip:              maxSkip,
	}, nil
}

// NewResponder seeds a session from the first received envelope: the local
// signed prekey doubles as the first ratchet keypair and the envelope's
// ratchet public (the initiator's ephemeral) is the first remote. Only the
// receiving chain exists; the first send performs a DH step.
func NewResponder(s suite.Suite, rootKey, prekeyPriv, prekeyPub, peerEphemeralPub []byte, maxSkip int) (*State, error) {
	dh, err := s.DH(prekeyPriv, peerEphemeralPub)
	if err != nil {
		return nil, err
	}
	newRoot, recvCK := s.KDFRootKey(rootKey, dh)
	memzero.Zero(dh)

	return &State{
		SuiteID:      s.ID(),
		RootKey:      newRoot,
		DHPriv:       dup(prekeyPriv),
		DHPub:        dup(prekeyPub),
		DHRemote:     dup(peerEphemeralPub),
		RecvChainKey: recvCK,
		Skipped:      make(map[SkippedKeyID][]byte),
		MaxSkip:      maxSkip,
	}, nil
}

// Encrypt advances the sending chain by one message key and seals plaintext
// into an envelope. A session that has no sending chain yet (a responder
// before its first send) performs a DH ratchet step first. State mutates
// only after the seal succeeds.
func Encrypt(s suite.Suite, st *State, plaintext []byte) (domain.Envelope, error) {
	var (
		rootKey = st.RootKey
		dhPriv  = st.DHPriv
		dhPub   = st.DHPub
		sendCK  = st.SendChainKey
		sendN   = st.SendCount
		prevN   = st.PrevCount
		stepped bool
	)

	if sendCK == nil {
		newPriv, newPub, err := s.GenerateDHKeyPair()
		if err != nil {
			return domain.Envelope{}, err
		}
		dh, err := s.DH(newPriv, st.DHRemote)
		if err != nil {
			return domain.Envelope{}, err
		}
		rootKey, sendCK = s.KDFRootKey(st.RootKey, dh)
		memzero.Zero(dh)
		dhPriv, dhPub = newPriv, newPub
		prevN, sendN = st.SendCount, 0
		stepped = true
	}

	nextCK, mk := s.KDFChainKey(sendCK)
	encKey, nonce := s.KDFMessageKey(mk)
	memzero.Zero(mk)

	aad := associatedData(st.SuiteID, dhPub, prevN, sendN)
	ct, err := s.AEADSeal(encKey, nonce, plaintext, aad)
	memzero.Zero(encKey)
	if err != nil {
		return domain.Envelope{}, err
	}

	env := domain.Envelope{
		SuiteID:             st.SuiteID,
		DHPublicKey:         dup(dhPub),
		PreviousChainLength: prevN,
		MessageNumber:       sendN,
		Nonce:               nonce,
		Ciphertext:          ct,
		KEMCiphertext:       dup(st.PendingKEMCiphertext),
	}

	// Commit point: the seal succeeded.
	if stepped {
		memzero.Zero(st.RootKey)
		memzero.Zero(st.DHPriv)
		st.RootKey = rootKey
		st.DHPriv, st.DHPub = dhPriv, dhPub
		st.PrevCount = prevN
	}
	memzero.Zero(st.SendChainKey)
	st.SendChainKey = nextCK
	st.SendCount = sendN + 1
	return env, nil
}

// Decrypt opens an envelope, handling skipped keys and DH ratchet steps. The
// whole operation runs on a private copy of the state; on any failure the
// session is byte-identical to before the call.
func Decrypt(s suite.Suite, st *State, env domain.Envelope) ([]byte, error) {
	if env.SuiteID != st.SuiteID {
		return nil, fmt.Errorf("%w: envelope suite %d, session suite %d",
			domain.ErrSuiteMismatch, env.SuiteID, st.SuiteID)
	}

	w := st.clone()

	// A key cached for this exact (ratchet public, message number) means the
	// message arrived out of order; consume it.
	skipID := SkippedKeyID{DHPublicKey: string(env.DHPublicKey), N: env.MessageNumber}
	if mk, ok := w.Skipped[skipID]; ok {
		delete(w.Skipped, skipID)
		pt, err := open(s, w.SuiteID, mk, env)
		memzero.Zero(mk)
		if err != nil {
			return nil, err
		}
		commit(st, w)
		return pt, nil
	}

	if !bytes.Equal(env.DHPublicKey, w.DHRemote) {
		// DH ratchet step: close out the current receiving chain, cache its
		// remaining keys, then re-key both directions under the new remote.
		if err := skipMessageKeys(s, w, env.PreviousChainLength); err != nil {
			return nil, err
		}
		w.PrevCount = w.SendCount
		w.SendChainKey = nil
		w.SendCount = 0
		w.DHRemote = dup(env.DHPublicKey)

		dhRecv, err := s.DH(w.DHPriv, w.DHRemote)
		if err != nil {
			return nil, err
		}
		w.RootKey, w.RecvChainKey = s.KDFRootKey(w.RootKey, dhRecv)
		memzero.Zero(dhRecv)
		w.RecvCount = 0

		newPriv, newPub, err := s.GenerateDHKeyPair()
		if err != nil {
			return nil, err
		}
		dhSend, err := s.DH(newPriv, w.DHRemote)
		if err != nil {
			return nil, err
		}
		w.RootKey, w.SendChainKey = s.KDFRootKey(w.RootKey, dhSend)
		memzero.Zero(dhSend)
		memzero.Zero(w.DHPriv)
		w.DHPriv, w.DHPub = newPriv, newPub
	}

	if w.RecvChainKey == nil {
		return nil, domain.ErrDecryptionFailed
	}
	if err := skipMessageKeys(s, w, env.MessageNumber); err != nil {
		return nil, err
	}

	nextCK, mk := s.KDFChainKey(w.RecvChainKey)
	w.RecvChainKey = nextCK
	w.RecvCount++

	pt, err := open(s, w.SuiteID, mk, env)
	memzero.Zero(mk)
	if err != nil {
		return nil, err
	}
	commit(st, w)
	return pt, nil
}

// skipMessageKeys derives and caches message keys on the receiving chain up
// to (but excluding) until. The cache is bounded by MaxSkip; an envelope
// that would overflow it fails closed before any key is derived.
func skipMessageKeys(s suite.Suite, w *State, until uint32) error {
	if w.RecvChainKey == nil || w.RecvCount >= until {
		return nil
	}
	need := int(until - w.RecvCount)
	if len(w.Skipped)+need > w.MaxSkip {
		return fmt.Errorf("%w: %d cached, %d more needed, limit %d",
			domain.ErrTooManySkipped, len(w.Skipped), need, w.MaxSkip)
	}
	for w.RecvCount < until {
		nextCK, mk := s.KDFChainKey(w.RecvChainKey)
		w.Skipped[SkippedKeyID{DHPublicKey: string(w.DHRemote), N: w.RecvCount}] = mk
		w.RecvChainKey = nextCK
		w.RecvCount++
	}
	return nil
}

func open(s suite.Suite, id domain.SuiteID, mk []byte, env domain.Envelope) ([]byte, error) {
	encKey, _ := s.KDFMessageKey(mk)
	defer memzero.Zero(encKey)
	aad := associatedData(id, env.DHPublicKey, env.PreviousChainLength, env.MessageNumber)
	return s.AEADOpen(encKey, env.Nonce, env.Ciphertext, aad)
}

// commit replaces the live state with the speculated copy. A successful
// inbound message also proves the peer completed the handshake, so any
// pending KEM ciphertext stops riding on outbound envelopes.
func commit(st, w *State) {
	memzero.Zero(st.RootKey)
	memzero.Zero(st.DHPriv)
	memzero.Zero(st.SendChainKey)
	memzero.Zero(st.RecvChainKey)
	w.PendingKEMCiphertext = nil
	*st = *w
}

// associatedData binds the envelope framing into the AEAD:
// suite_id || dh_public_key || previous_chain_length || message_number,
// integers big-endian.
func associatedData(id domain.SuiteID, dhPub []byte, prev, n uint32) []byte {
	aad := make([]byte, 0, 2+len(dhPub)+8)
	aad = binary.BigEndian.AppendUint16(aad, uint16(id))
	aad = append(aad, dhPub...)
	aad = binary.BigEndian.AppendUint32(aad, prev)
	aad = binary.BigEndian.AppendUint32(aad, n)
	return aad
}
