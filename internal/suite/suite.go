package suite

import (
	"crypto/rand"
	"io"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
)

// Suite is the record of operations the handshake and the ratchet call.
// Implementations must be safe for concurrent use.
type Suite interface {
	// ID returns the numeric suite identifier carried on bundles and
	// envelopes.
	ID() domain.SuiteID

	// GenerateKEMKeyPair returns a key-agreement keypair for long and
	// medium-term keys (identity, signed prekey).
	GenerateKEMKeyPair() (priv, pub []byte, err error)

	// GenerateDHKeyPair returns a keypair for ratchet steps. For the classic
	// suite this is the same as GenerateKEMKeyPair; hybrid suites keep
	// ratchet keys classical.
	GenerateDHKeyPair() (priv, pub []byte, err error)

	// DH computes the Diffie-Hellman shared secret. The all-zero output is
	// rejected with ErrInvalidKeyData.
	DH(priv, pub []byte) ([]byte, error)

	// GenerateSignatureKeyPair returns a signing keypair.
	GenerateSignatureKeyPair() (priv, pub []byte, err error)

	// Sign signs msg under priv.
	Sign(priv, msg []byte) ([]byte, error)

	// Verify reports whether sig is a valid signature of msg under pub.
	Verify(pub, msg, sig []byte) bool

	// AEADSeal encrypts plaintext, appending the authentication tag.
	AEADSeal(key, nonce, plaintext, aad []byte) ([]byte, error)

	// AEADOpen decrypts and authenticates. Authentication failure is
	// ErrDecryptionFailed with no further detail.
	AEADOpen(key, nonce, ciphertext, aad []byte) ([]byte, error)

	// KDFRootKey advances the root chain: (rootKey, dhOut) -> (rootKey', chainKey).
	KDFRootKey(rootKey, dhOut []byte) (newRoot, chainKey []byte)

	// KDFChainKey advances a message chain: chainKey -> (chainKey', messageKey).
	KDFChainKey(chainKey []byte) (nextChain, messageKey []byte)

	// KDFMessageKey expands a message key into an AEAD key and nonce.
	KDFMessageKey(messageKey []byte) (encKey, nonce []byte)

	// KDFInitialRootKey derives the initial root key from the concatenated
	// handshake secrets.
	KDFInitialRootKey(ikm []byte) []byte

	// NonceSize returns the AEAD nonce length in bytes.
	NonceSize() int
}

// KEMSuite is implemented by suites whose handshake mixes in an encapsulated
// secret in addition to the Diffie-Hellman transcript.
type KEMSuite interface {
	// Encapsulate produces a ciphertext for pub and the shared secret it
	// encapsulates.
	Encapsulate(pub []byte) (ct, shared []byte, err error)

	// Decapsulate recovers the shared secret from ct under priv.
	Decapsulate(priv, ct []byte) ([]byte, error)
}

// ByID returns the suite registered under id, drawing randomness from rng.
// A nil rng falls back to crypto/rand.
func ByID(id domain.SuiteID, rng io.Reader) (Suite, bool) {
	if rng == nil {
		rng = rand.Reader
	}
	switch id {
	case domain.SuiteClassic:
		return NewClassic(rng), true
	case domain.SuiteHybrid:
		return NewHybrid(rng), true
	}
	return nil, false
}
