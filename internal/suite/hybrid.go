package suite

import (
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"golang.org/x/crypto/curve25519"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
)

// Hybrid is suite 2. Identity and signed-prekey keypairs concatenate an
// X25519 component with an ML-KEM-768 component; the handshake encapsulates
// to the peer's KEM component while the ratchet runs on X25519 alone, in the
// PQXDH arrangement. Signatures and the AEAD are the classic primitives.
type Hybrid struct {
	rng    io.Reader
	scheme kem.Scheme
}

// NewHybrid returns the hybrid suite drawing randomness from rng.
func NewHybrid(rng io.Reader) *Hybrid {
	return &Hybrid{rng: rng, scheme: mlkem768.Scheme()}
}

func (h *Hybrid) ID() domain.SuiteID { return domain.SuiteHybrid }

// GenerateKEMKeyPair returns priv = x25519 || mlkem768 secret key and
// pub = x25519 || mlkem768 public key.
func (h *Hybrid) GenerateKEMKeyPair() (priv, pub []byte, err error) {
	xPriv, xPub, err := generateX25519(h.rng)
	if err != nil {
		return nil, nil, err
	}
	seed := make([]byte, h.scheme.SeedSize())
	if _, err := io.ReadFull(h.rng, seed); err != nil {
		return nil, nil, err
	}
	pqPub, pqPriv := h.scheme.DeriveKeyPair(seed)
	pqPubBytes, err := pqPub.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	pqPrivBytes, err := pqPriv.MarshalBinary()
	if err != nil {
		return nil, nil, err
	}
	return append(xPriv, pqPrivBytes...), append(xPub, pqPubBytes...), nil
}

// GenerateDHKeyPair returns a bare X25519 pair; ratchet keys carry no KEM
// component.
func (h *Hybrid) GenerateDHKeyPair() (priv, pub []byte, err error) {
	return generateX25519(h.rng)
}

// DH operates on the X25519 component. Both bare ratchet keys and hybrid
// identity/prekey keys are accepted.
func (h *Hybrid) DH(priv, pub []byte) ([]byte, error) {
	xPriv, err := h.classicalComponent(priv, h.scheme.PrivateKeySize())
	if err != nil {
		return nil, err
	}
	xPub, err := h.classicalComponent(pub, h.scheme.PublicKeySize())
	if err != nil {
		return nil, err
	}
	return x25519(xPriv, xPub)
}

// Encapsulate targets the ML-KEM component of a hybrid public key.
func (h *Hybrid) Encapsulate(pub []byte) (ct, shared []byte, err error) {
	if len(pub) != curve25519.PointSize+h.scheme.PublicKeySize() {
		return nil, nil, fmt.Errorf("%w: hybrid public key must be %d bytes",
			domain.ErrInvalidKeyData, curve25519.PointSize+h.scheme.PublicKeySize())
	}
	pqPub, err := h.scheme.UnmarshalBinaryPublicKey(pub[curve25519.PointSize:])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyData, err)
	}
	seed := make([]byte, h.scheme.EncapsulationSeedSize())
	if _, err := io.ReadFull(h.rng, seed); err != nil {
		return nil, nil, err
	}
	return h.scheme.EncapsulateDeterministically(pqPub, seed)
}

// Decapsulate recovers the encapsulated secret with the ML-KEM component of
// a hybrid private key.
func (h *Hybrid) Decapsulate(priv, ct []byte) ([]byte, error) {
	if len(priv) != curve25519.ScalarSize+h.scheme.PrivateKeySize() {
		return nil, fmt.Errorf("%w: hybrid private key must be %d bytes",
			domain.ErrInvalidKeyData, curve25519.ScalarSize+h.scheme.PrivateKeySize())
	}
	if len(ct) != h.scheme.CiphertextSize() {
		return nil, fmt.Errorf("%w: KEM ciphertext must be %d bytes",
			domain.ErrInvalidKeyData, h.scheme.CiphertextSize())
	}
	pqPriv, err := h.scheme.UnmarshalBinaryPrivateKey(priv[curve25519.ScalarSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyData, err)
	}
	return h.scheme.Decapsulate(pqPriv, ct)
}

func (h *Hybrid) GenerateSignatureKeyPair() (priv, pub []byte, err error) {
	return (&Classic{rng: h.rng}).GenerateSignatureKeyPair()
}

func (h *Hybrid) Sign(priv, msg []byte) ([]byte, error) {
	return (&Classic{}).Sign(priv, msg)
}

func (h *Hybrid) Verify(pub, msg, sig []byte) bool {
	return (&Classic{}).Verify(pub, msg, sig)
}

func (h *Hybrid) AEADSeal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	return aeadSeal(key, nonce, plaintext, aad)
}

func (h *Hybrid) AEADOpen(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	return aeadOpen(key, nonce, ciphertext, aad)
}

func (h *Hybrid) KDFRootKey(rootKey, dhOut []byte) (newRoot, chainKey []byte) {
	return kdfRoot(rootKey, dhOut)
}

func (h *Hybrid) KDFChainKey(chainKey []byte) (nextChain, messageKey []byte) {
	return kdfChain(chainKey)
}

func (h *Hybrid) KDFMessageKey(messageKey []byte) (encKey, nonce []byte) {
	return kdfMessage(messageKey)
}

func (h *Hybrid) KDFInitialRootKey(ikm []byte) []byte {
	return kdfInitialRoot(ikm)
}

func (h *Hybrid) NonceSize() int { return nonceSize }

// classicalComponent extracts the X25519 part of a key that is either bare
// (32 bytes) or hybrid (32 bytes followed by the ML-KEM component of pqSize).
func (h *Hybrid) classicalComponent(key []byte, pqSize int) ([]byte, error) {
	switch len(key) {
	case curve25519.ScalarSize:
		return key, nil
	case curve25519.ScalarSize + pqSize:
		return key[:curve25519.ScalarSize], nil
	}
	return nil, fmt.Errorf("%w: unexpected hybrid key length %d", domain.ErrInvalidKeyData, len(key))
}

var _ KEMSuite = (*Hybrid)(nil)
