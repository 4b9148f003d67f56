package domain

// SuiteID identifies the primitive set a bundle, envelope or session was
// created with. A session binds to exactly one suite for its whole life.
type SuiteID uint16

const (
	// SuiteClassic is X25519 + Ed25519 + ChaCha20-Poly1305 + HKDF-SHA256.
	SuiteClassic SuiteID = 1

	// SuiteHybrid augments the classic suite with an ML-KEM-768 component on
	// the identity and signed-prekey keypairs. The ratchet itself stays on the
	// X25519 component; the handshake mixes in an encapsulated secret.
	SuiteHybrid SuiteID = 2
)

// RegistrationBundle is the public material a user publishes so that peers
// can start sessions asynchronously. Byte fields are suite-specific sizes;
// for the classic suite all public keys are 32 bytes and the signature 64.
//
// Invariant: Verify(VerifyingKey, SignedPrekey, Signature) holds for every
// exported bundle.
type RegistrationBundle struct {
	SuiteID      SuiteID `json:"suite_id"`
	IdentityKey  []byte  `json:"identity_key"`
	SignedPrekey []byte  `json:"signed_prekey"`
	Signature    []byte  `json:"signature"`
	VerifyingKey []byte  `json:"verifying_key"`
}

// SignedPrekeyUpdate is emitted by a prekey rotation: the fresh signed-prekey
// public and its signature under the long-term verifying key.
type SignedPrekeyUpdate struct {
	SignedPrekey []byte `json:"signed_prekey"`
	Signature    []byte `json:"signature"`
}

// Envelope is one encrypted message on the wire.
//
// DHPublicKey doubles as the initiator's X3DH ephemeral on the first message
// of a session. KEMCiphertext is only present on hybrid-suite messages sent
// before the first reply; classic envelopes never carry it.
type Envelope struct {
	SuiteID             SuiteID `json:"suite_id"`
	DHPublicKey         []byte  `json:"dh_public_key"`
	PreviousChainLength uint32  `json:"previous_chain_length"`
	MessageNumber       uint32  `json:"message_number"`
	Nonce               []byte  `json:"nonce"`
	Ciphertext          []byte  `json:"ciphertext"`
	KEMCiphertext       []byte  `json:"kem_ciphertext,omitempty"`
}
