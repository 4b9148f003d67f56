package suite_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/suite"
)

func TestClassicDHAgreement(t *testing.T) {
	s := suite.NewClassic(rand.Reader)

	aPriv, aPub, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}
	bPriv, bPub, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}

	ab, err := s.DH(aPriv, bPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	ba, err := s.DH(bPriv, aPub)
	if err != nil {
		t.Fatalf("DH: %v", err)
	}
	if !bytes.Equal(ab, ba) {
		t.Fatal("DH outputs differ")
	}
}

func TestClassicDHRejectsBadLengths(t *testing.T) {
	s := suite.NewClassic(rand.Reader)
	if _, err := s.DH(make([]byte, 16), make([]byte, 32)); !errors.Is(err, domain.ErrInvalidKeyData) {
		t.Fatalf("want ErrInvalidKeyData, got %v", err)
	}
	if _, err := s.DH(make([]byte, 32), make([]byte, 31)); !errors.Is(err, domain.ErrInvalidKeyData) {
		t.Fatalf("want ErrInvalidKeyData, got %v", err)
	}
}

func TestClassicDHRejectsLowOrderPoint(t *testing.T) {
	s := suite.NewClassic(rand.Reader)
	priv, _, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}
	// The all-zero point yields the all-zero shared secret, which must be
	// rejected.
	if _, err := s.DH(priv, make([]byte, 32)); !errors.Is(err, domain.ErrInvalidKeyData) {
		t.Fatalf("want ErrInvalidKeyData, got %v", err)
	}
}

func TestClassicSignVerify(t *testing.T) {
	s := suite.NewClassic(rand.Reader)
	priv, pub, err := s.GenerateSignatureKeyPair()
	if err != nil {
		t.Fatalf("GenerateSignatureKeyPair: %v", err)
	}
	msg := []byte("prekey bytes")
	sig, err := s.Sign(priv, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !s.Verify(pub, msg, sig) {
		t.Fatal("signature did not verify")
	}
	sig[0] ^= 1
	if s.Verify(pub, msg, sig) {
		t.Fatal("corrupted signature verified")
	}
	if s.Verify(pub[:31], msg, sig) {
		t.Fatal("short key verified")
	}
}

func TestClassicAEADRoundTrip(t *testing.T) {
	s := suite.NewClassic(rand.Reader)
	key := bytes.Repeat([]byte{0x11}, 32)
	nonce := bytes.Repeat([]byte{0x22}, 12)
	aad := []byte("framing")

	ct, err := s.AEADSeal(key, nonce, []byte("secret"), aad)
	if err != nil {
		t.Fatalf("AEADSeal: %v", err)
	}
	pt, err := s.AEADOpen(key, nonce, ct, aad)
	if err != nil {
		t.Fatalf("AEADOpen: %v", err)
	}
	if string(pt) != "secret" {
		t.Fatalf("got %q, want %q", pt, "secret")
	}

	ct[len(ct)-1] ^= 1
	if _, err := s.AEADOpen(key, nonce, ct, aad); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Fatalf("want ErrDecryptionFailed, got %v", err)
	}
	ct[len(ct)-1] ^= 1
	if _, err := s.AEADOpen(key, nonce, ct, []byte("other")); !errors.Is(err, domain.ErrDecryptionFailed) {
		t.Fatalf("wrong aad: want ErrDecryptionFailed, got %v", err)
	}
}

func TestClassicKDFSizes(t *testing.T) {
	s := suite.NewClassic(rand.Reader)
	root := bytes.Repeat([]byte{0x42}, 32)
	dh := bytes.Repeat([]byte{0x24}, 32)

	newRoot, ck := s.KDFRootKey(root, dh)
	if len(newRoot) != 32 || len(ck) != 32 {
		t.Fatalf("KDFRootKey sizes: %d, %d", len(newRoot), len(ck))
	}
	if bytes.Equal(newRoot, root) || bytes.Equal(newRoot, ck) {
		t.Fatal("KDFRootKey outputs not independent")
	}

	next, mk := s.KDFChainKey(ck)
	if len(next) != 32 || len(mk) != 32 {
		t.Fatalf("KDFChainKey sizes: %d, %d", len(next), len(mk))
	}
	if bytes.Equal(next, mk) {
		t.Fatal("chain and message key equal")
	}

	encKey, nonce := s.KDFMessageKey(mk)
	if len(encKey) != 32 || len(nonce) != 12 {
		t.Fatalf("KDFMessageKey sizes: %d, %d", len(encKey), len(nonce))
	}
}

func TestKDFChainDeterministic(t *testing.T) {
	s := suite.NewClassic(rand.Reader)
	ck := bytes.Repeat([]byte{0x33}, 32)
	n1, m1 := s.KDFChainKey(ck)
	n2, m2 := s.KDFChainKey(ck)
	if !bytes.Equal(n1, n2) || !bytes.Equal(m1, m2) {
		t.Fatal("KDFChainKey is not deterministic")
	}
}

func TestHybridKeySizes(t *testing.T) {
	s := suite.NewHybrid(rand.Reader)
	priv, pub, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}
	if len(pub) <= 32 || len(priv) <= 32 {
		t.Fatalf("hybrid keys should carry a KEM component: pub=%d priv=%d", len(pub), len(priv))
	}

	dhPriv, dhPub, err := s.GenerateDHKeyPair()
	if err != nil {
		t.Fatalf("GenerateDHKeyPair: %v", err)
	}
	if len(dhPriv) != 32 || len(dhPub) != 32 {
		t.Fatalf("ratchet keys must stay classical: priv=%d pub=%d", len(dhPriv), len(dhPub))
	}
}

func TestHybridDHAcceptsMixedKeyForms(t *testing.T) {
	s := suite.NewHybrid(rand.Reader)
	idPriv, idPub, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}
	ekPriv, ekPub, err := s.GenerateDHKeyPair()
	if err != nil {
		t.Fatalf("GenerateDHKeyPair: %v", err)
	}

	ab, err := s.DH(idPriv, ekPub)
	if err != nil {
		t.Fatalf("DH(hybrid, bare): %v", err)
	}
	ba, err := s.DH(ekPriv, idPub)
	if err != nil {
		t.Fatalf("DH(bare, hybrid): %v", err)
	}
	if !bytes.Equal(ab, ba) {
		t.Fatal("hybrid DH outputs differ")
	}
}

func TestHybridEncapsulateRoundTrip(t *testing.T) {
	s := suite.NewHybrid(rand.Reader)
	priv, pub, err := s.GenerateKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateKEMKeyPair: %v", err)
	}
	ct, shared, err := s.Encapsulate(pub)
	if err != nil {
		t.Fatalf("Encapsulate: %v", err)
	}
	got, err := s.Decapsulate(priv, ct)
	if err != nil {
		t.Fatalf("Decapsulate: %v", err)
	}
	if !bytes.Equal(shared, got) {
		t.Fatal("encapsulated secrets differ")
	}
	if _, err := s.Decapsulate(priv, ct[:len(ct)-1]); !errors.Is(err, domain.ErrInvalidKeyData) {
		t.Fatalf("short ciphertext: want ErrInvalidKeyData, got %v", err)
	}
}

func TestByID(t *testing.T) {
	if s, ok := suite.ByID(domain.SuiteClassic, nil); !ok || s.ID() != domain.SuiteClassic {
		t.Fatal("classic suite not registered")
	}
	if s, ok := suite.ByID(domain.SuiteHybrid, nil); !ok || s.ID() != domain.SuiteHybrid {
		t.Fatal("hybrid suite not registered")
	}
	if _, ok := suite.ByID(99, nil); ok {
		t.Fatal("unknown suite id resolved")
	}
}
