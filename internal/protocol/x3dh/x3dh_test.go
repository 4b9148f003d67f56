package x3dh_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/protocol/x3dh"
	"github.com/maximeliseyev/construct-messenger/internal/suite"
)

// responder holds the private halves a peer would keep while publishing a
// bundle.
type responder struct {
	bundle     domain.RegistrationBundle
	idPriv     []byte
	prekeyPriv []byte
}

func makeResponder(t *testing.T, s suite.Suite) responder {
	t.Helper()
	idPriv, idPub, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}
	spkPriv, spkPub, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}
	sigPriv, sigPub, err := s.GenerateSignatureKeyPair()
	if err != nil {
		t.Fatalf("GenerateSignatureKeyPair: %v", err)
	}
	sig, err := s.Sign(sigPriv, spkPub)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return responder{
		bundle: domain.RegistrationBundle{
			SuiteID:      s.ID(),
			IdentityKey:  idPub,
			SignedPrekey: spkPub,
			Signature:    sig,
			VerifyingKey: sigPub,
		},
		idPriv:     idPriv,
		prekeyPriv: spkPriv,
	}
}

func TestRootKeyAgreement(t *testing.T) {
	s := suite.NewClassic(rand.Reader)
	bob := makeResponder(t, s)

	aPriv, aPub, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}

	res, err := x3dh.Initiate(s, aPriv, bob.bundle)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if len(res.RootKey) != 32 {
		t.Fatalf("root key length %d", len(res.RootKey))
	}
	if len(res.KEMCiphertext) != 0 {
		t.Fatal("classic handshake emitted a KEM ciphertext")
	}

	root, err := x3dh.Respond(s, bob.idPriv, bob.prekeyPriv, aPub, res.EphemeralPub, nil)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !bytes.Equal(res.RootKey, root) {
		t.Fatal("root keys differ")
	}
}

func TestRootKeyAgreementHybrid(t *testing.T) {
	s := suite.NewHybrid(rand.Reader)
	bob := makeResponder(t, s)

	aPriv, aPub, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}

	res, err := x3dh.Initiate(s, aPriv, bob.bundle)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if len(res.KEMCiphertext) == 0 {
		t.Fatal("hybrid handshake emitted no KEM ciphertext")
	}

	root, err := x3dh.Respond(s, bob.idPriv, bob.prekeyPriv, aPub, res.EphemeralPub, res.KEMCiphertext)
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if !bytes.Equal(res.RootKey, root) {
		t.Fatal("hybrid root keys differ")
	}

	// Without the encapsulated secret the responder cannot derive the root.
	if _, err := x3dh.Respond(s, bob.idPriv, bob.prekeyPriv, aPub, res.EphemeralPub, nil); err == nil {
		t.Fatal("Respond succeeded without KEM ciphertext")
	}
}

func TestInitiateRejectsBadSignature(t *testing.T) {
	s := suite.NewClassic(rand.Reader)
	bob := makeResponder(t, s)
	bob.bundle.Signature[0] ^= 1

	aPriv, _, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}
	if _, err := x3dh.Initiate(s, aPriv, bob.bundle); !errors.Is(err, domain.ErrBadSignature) {
		t.Fatalf("want ErrBadSignature, got %v", err)
	}
}

func TestInitiateRejectsSuiteMismatch(t *testing.T) {
	s := suite.NewClassic(rand.Reader)
	bob := makeResponder(t, s)
	bob.bundle.SuiteID = domain.SuiteHybrid

	aPriv, _, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}
	if _, err := x3dh.Initiate(s, aPriv, bob.bundle); !errors.Is(err, domain.ErrSuiteMismatch) {
		t.Fatalf("want ErrSuiteMismatch, got %v", err)
	}
}
