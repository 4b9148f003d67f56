package x3dh

import (
	"fmt"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/suite"
	"github.com/maximeliseyev/construct-messenger/internal/util/memzero"
)

// InitiatorResult carries everything the initiator needs to seed a ratchet
// session: the initial root key, the ephemeral keypair (which becomes the
// first ratchet keypair), and the KEM ciphertext for hybrid suites (empty
// otherwise).
type InitiatorResult struct {
	RootKey       []byte
	EphemeralPriv []byte
	EphemeralPub  []byte
	KEMCiphertext []byte
}

// Initiate runs the initiator side of the handshake against a peer bundle.
func Initiate(s suite.Suite, identityPriv []byte, peer domain.RegistrationBundle) (InitiatorResult, error) {
	if peer.SuiteID != s.ID() {
		return InitiatorResult{}, fmt.Errorf("%w: peer advertises suite %d, local suite is %d",
			domain.ErrSuiteMismatch, peer.SuiteID, s.ID())
	}
	if !s.Verify(peer.VerifyingKey, peer.SignedPrekey, peer.Signature) {
		return InitiatorResult{}, fmt.Errorf("%w: signed prekey", domain.ErrBadSignature)
	}

	ekPriv, ekPub, err := s.GenerateDHKeyPair()
	if err != nil {
		return InitiatorResult{}, err
	}

	dh1, err := s.DH(identityPriv, peer.SignedPrekey)
	if err != nil {
		return InitiatorResult{}, err
	}
	dh2, err := s.DH(ekPriv, peer.IdentityKey)
	if err != nil {
		memzero.Zero(dh1)
		return InitiatorResult{}, err
	}
	dh3, err := s.DH(ekPriv, peer.SignedPrekey)
	if err != nil {
		memzero.Zero(dh1)
		memzero.Zero(dh2)
		return InitiatorResult{}, err
	}

	ikm := make([]byte, 0, 4*len(dh1))
	ikm = append(ikm, dh1...)
	ikm = append(ikm, dh2...)
	ikm = append(ikm, dh3...)
	memzero.Zero(dh1)
	memzero.Zero(dh2)
	memzero.Zero(dh3)

	var kemCT []byte
	if ks, ok := s.(suite.KEMSuite); ok {
		ct, shared, err := ks.Encapsulate(peer.IdentityKey)
		if err != nil {
			memzero.Zero(ikm)
			return InitiatorResult{}, err
		}
		ikm = append(ikm, shared...)
		memzero.Zero(shared)
		kemCT = ct
	}

	root := s.KDFInitialRootKey(ikm)
	memzero.Zero(ikm)

	return InitiatorResult{
		RootKey:       root,
		EphemeralPriv: ekPriv,
		EphemeralPub:  ekPub,
		KEMCiphertext: kemCT,
	}, nil
}

// Respond runs the responder side: identityPriv and prekeyPriv are the local
// long-term and signed-prekey privates, peerIdentity is the initiator's
// identity public from their bundle, and ephemeralPub is the ratchet public
// of the first envelope. kemCT is the envelope's KEM ciphertext, empty for
// classic suites.
func Respond(s suite.Suite, identityPriv, prekeyPriv, peerIdentity, ephemeralPub, kemCT []byte) ([]byte, error) {
	// The DH set mirrors the initiator's: private and public sides swap,
	// the shared values match pairwise.
	dh1, err := s.DH(prekeyPriv, peerIdentity)
	if err != nil {
		return nil, err
	}
	dh2, err := s.DH(identityPriv, ephemeralPub)
	if err != nil {
		memzero.Zero(dh1)
		return nil, err
	}
	dh3, err := s.DH(prekeyPriv, ephemeralPub)
	if err != nil {
		memzero.Zero(dh1)
		memzero.Zero(dh2)
		return nil, err
	}

	ikm := make([]byte, 0, 4*len(dh1))
	ikm = append(ikm, dh1...)
	ikm = append(ikm, dh2...)
	ikm = append(ikm, dh3...)
	memzero.Zero(dh1)
	memzero.Zero(dh2)
	memzero.Zero(dh3)

	if ks, ok := s.(suite.KEMSuite); ok {
		if len(kemCT) == 0 {
			memzero.Zero(ikm)
			return nil, fmt.Errorf("%w: missing KEM ciphertext", domain.ErrDecryptionFailed)
		}
		shared, err := ks.Decapsulate(identityPriv, kemCT)
		if err != nil {
			memzero.Zero(ikm)
			return nil, err
		}
		ikm = append(ikm, shared...)
		memzero.Zero(shared)
	}

	root := s.KDFInitialRootKey(ikm)
	memzero.Zero(ikm)
	return root, nil
}
