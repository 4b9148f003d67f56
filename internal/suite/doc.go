// Package suite supplies the primitive sets the session core is parameterized
// by: key agreement, signatures, AEAD and the ratchet KDFs. All randomness a
// suite consumes flows through the reader it was constructed with.
//
// Two suites exist. The classic suite (id 1) is X25519 + Ed25519 +
// ChaCha20-Poly1305 + HKDF-SHA256. The hybrid suite (id 2) keeps the classic
// primitives for the ratchet and adds an ML-KEM-768 component to identity and
// signed-prekey keypairs, mixed into the handshake by encapsulation.
package suite
