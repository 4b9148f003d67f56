package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/maximeliseyev/construct-messenger/internal/util/memzero"
)

// sealedFormatVersion is the current on-disk blob version.
const sealedFormatVersion = 1

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// sealed blob has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted data")

// sealed is the on-disk JSON structure holding ciphertext and KDF parameters.
type sealed struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	Time   uint32 `json:"argon_t"`
	Memory uint32 `json:"argon_m"`
	Lanes  uint8  `json:"argon_p"`
	Cipher []byte `json:"cipher"`
}

// seal derives a key from passphrase with Argon2id and encrypts raw.
func seal(passphrase string, raw []byte) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	t, m, p := argonParamsDefault()
	key := argon2.IDKey([]byte(passphrase), salt[:], t, m, p, chacha20poly1305.KeySize)
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	// Zero nonce; the fresh salt makes the derived key unique per blob.
	var nonce [chacha20poly1305.NonceSize]byte
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return json.Marshal(sealed{
		V:      sealedFormatVersion,
		Salt:   salt[:],
		Time:   t,
		Memory: m,
		Lanes:  p,
		Cipher: ct,
	})
}

// unseal reverses seal.
func unseal(passphrase string, blob []byte) ([]byte, error) {
	var s sealed
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, err
	}
	if s.V > sealedFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", s.V)
	}
	key := argon2.IDKey([]byte(passphrase), s.Salt, s.Time, s.Memory, s.Lanes, chacha20poly1305.KeySize)
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], s.Cipher, s.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}

// Tunables for Argon2id key derivation.
func argonParamsDefault() (t, m uint32, p uint8) { return 1, 1 << 16, 4 }
