package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/identity"
	"github.com/maximeliseyev/construct-messenger/internal/protocol/ratchet"
	"github.com/maximeliseyev/construct-messenger/internal/protocol/x3dh"
	"github.com/maximeliseyev/construct-messenger/internal/suite"
	"github.com/maximeliseyev/construct-messenger/internal/wire"
)

// Handle addresses one session across the façade. Stable for the session's
// life, opaque to the host.
type Handle string

// Core owns one user's identity and sessions.
type Core struct {
	suite   suite.Suite
	rng     io.Reader
	maxSkip int

	mu        sync.RWMutex
	identity  *identity.Store
	sessions  map[Handle]*session
	byContact map[string]Handle
}

// session pairs ratchet state with its lock and the opaque contact label the
// host supplied. Sessions hold no reference back to any contact object.
type session struct {
	mu        sync.Mutex
	contactID string
	st        *ratchet.State
}

// New constructs a Core: identity, prekeys and an empty session table.
func New(opts ...Option) (*Core, error) {
	cfg := config{rng: rand.Reader, maxSkip: ratchet.DefaultMaxSkip, retain: identity.DefaultRetain}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.suite == nil {
		cfg.suite = suite.NewClassic(cfg.rng)
	}

	var (
		ids *identity.Store
		err error
	)
	if cfg.identity != nil {
		ids, err = identity.Import(cfg.suite, cfg.identity)
	} else {
		ids, err = identity.New(cfg.suite, cfg.retain)
	}
	if err != nil {
		return nil, err
	}

	return &Core{
		suite:     cfg.suite,
		rng:       cfg.rng,
		maxSkip:   cfg.maxSkip,
		identity:  ids,
		sessions:  make(map[Handle]*session),
		byContact: make(map[string]Handle),
	}, nil
}

// InitiatorRole reports whether the local party should initiate when both
// sides hold each other's bundles: the lexicographically smaller stable
// identifier initiates. Both identifiers come from the host so the decision
// survives restarts.
func InitiatorRole(localID, peerID string) bool { return localID < peerID }

// Bundle returns the registration bundle as structured fields.
func (c *Core) Bundle() domain.RegistrationBundle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity.Bundle()
}

// ExportBundle returns the canonical bundle bytes used for FFI transport.
func (c *Core) ExportBundle() ([]byte, error) {
	return wire.EncodeBundle(c.Bundle())
}

// ExportBundleText returns the bundle in the named-field base64 framing.
func (c *Core) ExportBundleText() ([]byte, error) {
	return wire.EncodeBundleText(c.Bundle())
}

// Fingerprint returns the identity key fingerprint for out-of-band checks.
func (c *Core) Fingerprint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity.Fingerprint()
}

// RotateSignedPrekey replaces the signed prekey and returns the public
// update. Live sessions are untouched; the superseded prekey stays
// available to in-flight handshakes.
func (c *Core) RotateSignedPrekey() (domain.SignedPrekeyUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity.Rotate()
}

// ExportIdentity serializes the identity store, private material included,
// for the host to seal and persist.
func (c *Core) ExportIdentity() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity.Export()
}

// InitSendingSession runs the initiator side of the handshake against a
// peer's canonical bundle bytes and registers the resulting session. At most
// one session exists per contact; a replaced session is dropped.
func (c *Core) InitSendingSession(contactID string, peerBundle []byte) (Handle, error) {
	b, err := wire.DecodeBundle(peerBundle)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := x3dh.Initiate(c.suite, c.identity.IdentityPrivate(), b)
	if err != nil {
		return "", err
	}
	st, err := ratchet.NewInitiator(c.suite, res.RootKey, b.SignedPrekey,
		res.EphemeralPriv, res.EphemeralPub, res.KEMCiphertext, c.maxSkip)
	if err != nil {
		return "", err
	}
	return c.register(contactID, st)
}

// InitReceivingSession completes an inbound handshake atomically: it derives
// the root key from the peer bundle and the first envelope's ratchet public,
// builds the responder session and decrypts the first message. If any step
// fails no session is registered. Superseded signed prekeys are tried after
// the active one, so handshakes racing a rotation still land.
func (c *Core) InitReceivingSession(contactID string, peerBundle, firstEnvelope []byte) (Handle, []byte, error) {
	b, err := wire.DecodeBundle(peerBundle)
	if err != nil {
		return "", nil, err
	}
	env, err := wire.DecodeEnvelope(firstEnvelope)
	if err != nil {
		return "", nil, err
	}
	if b.SuiteID != c.suite.ID() || env.SuiteID != c.suite.ID() {
		return "", nil, fmt.Errorf("%w: peer suite %d, local suite %d",
			domain.ErrSuiteMismatch, b.SuiteID, c.suite.ID())
	}
	if env, err = wire.SplitBlobNonce(env, c.suite.NonceSize()); err != nil {
		return "", nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lastErr := error(domain.ErrDecryptionFailed)
	for _, spk := range c.identity.HandshakePrekeys() {
		root, err := x3dh.Respond(c.suite, c.identity.IdentityPrivate(), spk.Priv,
			b.IdentityKey, env.DHPublicKey, env.KEMCiphertext)
		if err != nil {
			lastErr = err
			continue
		}
		st, err := ratchet.NewResponder(c.suite, root, spk.Priv, spk.Pub, env.DHPublicKey, c.maxSkip)
		if err != nil {
			lastErr = err
			continue
		}
		pt, err := ratchet.Decrypt(c.suite, st, env)
		if err != nil {
			lastErr = err
			continue
		}
		h, err := c.register(contactID, st)
		if err != nil {
			return "", nil, err
		}
		return h, pt, nil
	}
	return "", nil, lastErr
}

// HasSession reports whether a session exists for the contact.
func (c *Core) HasSession(contactID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byContact[contactID]
	return ok
}

// SessionHandle returns the active handle for a contact.
func (c *Core) SessionHandle(contactID string) (Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.byContact[contactID]
	return h, ok
}

// Encrypt seals plaintext on the session and returns canonical envelope
// bytes. Message numbers within a sending chain are strictly increasing
// even under concurrent callers; the session lock serialises them.
func (c *Core) Encrypt(h Handle, plaintext []byte) ([]byte, error) {
	s, err := c.lookup(h)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := ratchet.Encrypt(c.suite, s.st, plaintext)
	if err != nil {
		return nil, err
	}
	return wire.EncodeEnvelope(env)
}

// Decrypt opens canonical envelope bytes on the session. Failures leave the
// session state untouched.
func (c *Core) Decrypt(h Handle, envelope []byte) ([]byte, error) {
	s, err := c.lookup(h)
	if err != nil {
		return nil, err
	}
	env, err := wire.DecodeEnvelope(envelope)
	if err != nil {
		return nil, err
	}
	if env, err = wire.SplitBlobNonce(env, c.suite.NonceSize()); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return ratchet.Decrypt(c.suite, s.st, env)
}

// DestroySession zeroizes and drops a session.
func (c *Core) DestroySession(h Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[h]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, h)
	}
	s.mu.Lock()
	wipeState(s.st)
	s.mu.Unlock()
	delete(c.sessions, h)
	delete(c.byContact, s.contactID)
	return nil
}

func (c *Core) lookup(h Handle) (*session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, h)
	}
	return s, nil
}

// register installs a session under a fresh handle. Caller holds c.mu.
func (c *Core) register(contactID string, st *ratchet.State) (Handle, error) {
	if old, ok := c.byContact[contactID]; ok {
		if s, ok := c.sessions[old]; ok {
			s.mu.Lock()
			wipeState(s.st)
			s.mu.Unlock()
		}
		delete(c.sessions, old)
	}
	h, err := c.newHandle()
	if err != nil {
		return "", err
	}
	c.sessions[h] = &session{contactID: contactID, st: st}
	c.byContact[contactID] = h
	return h, nil
}

func (c *Core) newHandle() (Handle, error) {
	var raw [16]byte
	if _, err := io.ReadFull(c.rng, raw[:]); err != nil {
		return "", fmt.Errorf("%w: handle: %v", domain.ErrInitializationFailed, err)
	}
	return Handle(hex.EncodeToString(raw[:])), nil
}
