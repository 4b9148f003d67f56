package domain

import "errors"

var (
	// ErrInitializationFailed is returned when key generation or signing
	// fails while constructing a core. It is fatal; the host must rebuild.
	ErrInitializationFailed = errors.New("initialization failed")

	// ErrBadBundle is returned for malformed bundle or envelope bytes:
	// truncated fields, wrong lengths, unknown encodings.
	ErrBadBundle = errors.New("bad bundle")

	// ErrBadSignature is returned when a signed-prekey signature does not
	// verify under the bundle's verifying key.
	ErrBadSignature = errors.New("bad signature")

	// ErrSuiteMismatch is returned when a peer bundle or envelope advertises
	// a suite different from the local core or session.
	ErrSuiteMismatch = errors.New("suite mismatch")

	// ErrSessionNotFound is returned when a handle or contact id is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrTooManySkipped is returned when a decrypt would push the skipped-key
	// cache past its bound. Session state is left unchanged.
	ErrTooManySkipped = errors.New("too many skipped messages")

	// ErrDecryptionFailed is returned on AEAD authentication failure. No
	// further detail is exposed: a wrong key, a wrong associated-data binding
	// and a truncated ciphertext are indistinguishable to the caller.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidKeyData is returned when key material has the wrong length or
	// a Diffie-Hellman exchange lands on the all-zero point.
	ErrInvalidKeyData = errors.New("invalid key data")
)
