package suite

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
)

const (
	keySize   = 32
	nonceSize = chacha20poly1305.NonceSize

	// KDF domain-separation labels.
	infoRoot     = "root"
	infoMessage  = "msg"
	infoInitRoot = "x3dh"
)

// Classic is suite 1: X25519 key agreement, Ed25519 signatures,
// ChaCha20-Poly1305 AEAD and HKDF-SHA256 derivation.
type Classic struct {
	rng io.Reader
}

// NewClassic returns the classic suite drawing randomness from rng.
func NewClassic(rng io.Reader) *Classic { return &Classic{rng: rng} }

func (c *Classic) ID() domain.SuiteID { return domain.SuiteClassic }

func (c *Classic) GenerateKEMKeyPair() (priv, pub []byte, err error) {
	return generateX25519(c.rng)
}

func (c *Classic) GenerateDHKeyPair() (priv, pub []byte, err error) {
	return generateX25519(c.rng)
}

func (c *Classic) DH(priv, pub []byte) ([]byte, error) {
	return x25519(priv, pub)
}

func (c *Classic) GenerateSignatureKeyPair() (priv, pub []byte, err error) {
	edPub, edPriv, err := ed25519.GenerateKey(c.rng)
	if err != nil {
		return nil, nil, err
	}
	return edPriv, edPub, nil
}

func (c *Classic) Sign(priv, msg []byte) ([]byte, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: signing key must be %d bytes", domain.ErrInvalidKeyData, ed25519.PrivateKeySize)
	}
	return ed25519.Sign(ed25519.PrivateKey(priv), msg), nil
}

func (c *Classic) Verify(pub, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}

func (c *Classic) AEADSeal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	return aeadSeal(key, nonce, plaintext, aad)
}

func (c *Classic) AEADOpen(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	return aeadOpen(key, nonce, ciphertext, aad)
}

func (c *Classic) KDFRootKey(rootKey, dhOut []byte) (newRoot, chainKey []byte) {
	return kdfRoot(rootKey, dhOut)
}

func (c *Classic) KDFChainKey(chainKey []byte) (nextChain, messageKey []byte) {
	return kdfChain(chainKey)
}

func (c *Classic) KDFMessageKey(messageKey []byte) (encKey, nonce []byte) {
	return kdfMessage(messageKey)
}

func (c *Classic) KDFInitialRootKey(ikm []byte) []byte {
	return kdfInitialRoot(ikm)
}

func (c *Classic) NonceSize() int { return nonceSize }

// --- shared primitive helpers (used by both suites) ---

func generateX25519(rng io.Reader) (priv, pub []byte, err error) {
	priv = make([]byte, curve25519.ScalarSize)
	if _, err = io.ReadFull(rng, priv); err != nil {
		return nil, nil, err
	}
	clamp(priv)
	pub, err = curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

// clamp applies the RFC 7748 scalar masking.
func clamp(priv []byte) {
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64
}

func x25519(priv, pub []byte) ([]byte, error) {
	if len(priv) != curve25519.ScalarSize || len(pub) != curve25519.PointSize {
		return nil, fmt.Errorf("%w: X25519 keys must be %d bytes", domain.ErrInvalidKeyData, curve25519.ScalarSize)
	}
	// X25519 rejects the all-zero shared secret (low-order peer point).
	out, err := curve25519.X25519(priv, pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyData, err)
	}
	return out, nil
}

func aeadSeal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyData, err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce must be %d bytes", domain.ErrInvalidKeyData, aead.NonceSize())
	}
	return aead.Seal(nil, nonce, plaintext, aad), nil
}

func aeadOpen(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidKeyData, err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, domain.ErrDecryptionFailed
	}
	pt, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		// Deliberately drop the underlying reason: wrong key, wrong aad and
		// corrupt ciphertext must be indistinguishable.
		return nil, domain.ErrDecryptionFailed
	}
	return pt, nil
}

func kdfRoot(rootKey, dhOut []byte) (newRoot, chainKey []byte) {
	r := hkdf.New(sha256.New, dhOut, rootKey, []byte(infoRoot))
	newRoot = make([]byte, keySize)
	chainKey = make([]byte, keySize)
	_, _ = io.ReadFull(r, newRoot)
	_, _ = io.ReadFull(r, chainKey)
	return newRoot, chainKey
}

func kdfChain(chainKey []byte) (nextChain, messageKey []byte) {
	messageKey = hmacSum(chainKey, []byte{0x01})
	nextChain = hmacSum(chainKey, []byte{0x02})
	return nextChain, messageKey
}

func kdfMessage(messageKey []byte) (encKey, nonce []byte) {
	r := hkdf.New(sha256.New, messageKey, nil, []byte(infoMessage))
	encKey = make([]byte, keySize)
	nonce = make([]byte, nonceSize)
	_, _ = io.ReadFull(r, encKey)
	_, _ = io.ReadFull(r, nonce)
	return encKey, nonce
}

func kdfInitialRoot(ikm []byte) []byte {
	salt := make([]byte, sha256.Size)
	r := hkdf.New(sha256.New, ikm, salt, []byte(infoInitRoot))
	root := make([]byte, keySize)
	_, _ = io.ReadFull(r, root)
	return root
}

func hmacSum(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
