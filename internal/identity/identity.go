package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/suite"
	"github.com/maximeliseyev/construct-messenger/internal/util/memzero"
)

// DefaultRetain is how many superseded signed prekeys are kept so that
// in-flight handshakes against a rotated-out prekey can still complete.
const DefaultRetain = 2

// SignedPrekey is a medium-term key-agreement pair plus the signature over
// its public half under the long-term signing key.
type SignedPrekey struct {
	Priv      []byte
	Pub       []byte
	Signature []byte
}

// Store owns the private key material for one user. It is not safe for
// concurrent use; the core serialises access.
type Store struct {
	suite suite.Suite

	identityPriv []byte
	identityPub  []byte

	signingPriv  []byte
	verifyingPub []byte

	active   SignedPrekey
	archived []SignedPrekey // newest first
	retain   int
}

// New generates a fresh identity: the long-term pairs and an initial signed
// prekey. Any failure here is fatal for the caller.
func New(s suite.Suite, retain int) (*Store, error) {
	if retain <= 0 {
		retain = DefaultRetain
	}
	ikPriv, ikPub, err := s.GenerateKEMKeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w: identity keypair: %v", domain.ErrInitializationFailed, err)
	}
	sigPriv, sigPub, err := s.GenerateSignatureKeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w: signature keypair: %v", domain.ErrInitializationFailed, err)
	}
	st := &Store{
		suite:        s,
		identityPriv: ikPriv,
		identityPub:  ikPub,
		signingPriv:  sigPriv,
		verifyingPub: sigPub,
		retain:       retain,
	}
	if st.active, err = st.newSignedPrekey(); err != nil {
		return nil, err
	}
	return st, nil
}

// Rotate generates a fresh signed prekey, archives the previous one and
// returns the public update peers need. Live sessions are untouched.
func (st *Store) Rotate() (domain.SignedPrekeyUpdate, error) {
	spk, err := st.newSignedPrekey()
	if err != nil {
		return domain.SignedPrekeyUpdate{}, err
	}
	st.archived = append([]SignedPrekey{st.active}, st.archived...)
	if len(st.archived) > st.retain {
		for _, old := range st.archived[st.retain:] {
			memzero.Zero(old.Priv)
		}
		st.archived = st.archived[:st.retain]
	}
	st.active = spk
	return domain.SignedPrekeyUpdate{
		SignedPrekey: dup(spk.Pub),
		Signature:    dup(spk.Signature),
	}, nil
}

// Bundle exports the registration bundle. The signature is the one produced
// when the prekey was created; it is never recomputed, so the exported bytes
// stay stable across calls.
func (st *Store) Bundle() domain.RegistrationBundle {
	return domain.RegistrationBundle{
		SuiteID:      st.suite.ID(),
		IdentityKey:  dup(st.identityPub),
		SignedPrekey: dup(st.active.Pub),
		Signature:    dup(st.active.Signature),
		VerifyingKey: dup(st.verifyingPub),
	}
}

// IdentityPrivate exposes the long-term key-agreement private for the
// handshake. The returned slice is the live key; callers must not retain it.
func (st *Store) IdentityPrivate() []byte { return st.identityPriv }

// IdentityPublic returns the long-term key-agreement public.
func (st *Store) IdentityPublic() []byte { return dup(st.identityPub) }

// HandshakePrekeys returns the prekeys a responder should try when
// completing an inbound handshake: the active one first, then the archive,
// newest first.
func (st *Store) HandshakePrekeys() []SignedPrekey {
	out := make([]SignedPrekey, 0, 1+len(st.archived))
	out = append(out, st.active)
	out = append(out, st.archived...)
	return out
}

// Fingerprint returns the SHA-256 hex digest of the identity public key, for
// out-of-band comparison.
func (st *Store) Fingerprint() string {
	sum := sha256.Sum256(st.identityPub)
	return hex.EncodeToString(sum[:])
}

// Wipe zeroizes all private material. The store is unusable afterwards.
func (st *Store) Wipe() {
	memzero.ZeroAll(st.identityPriv, st.signingPriv, st.active.Priv)
	for _, spk := range st.archived {
		memzero.Zero(spk.Priv)
	}
}

func (st *Store) newSignedPrekey() (SignedPrekey, error) {
	priv, pub, err := st.suite.GenerateKEMKeyPair()
	if err != nil {
		return SignedPrekey{}, fmt.Errorf("%w: signed prekey: %v", domain.ErrInitializationFailed, err)
	}
	sig, err := st.suite.Sign(st.signingPriv, pub)
	if err != nil {
		return SignedPrekey{}, fmt.Errorf("%w: signing prekey: %v", domain.ErrInitializationFailed, err)
	}
	return SignedPrekey{Priv: priv, Pub: pub, Signature: sig}, nil
}

func dup(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
