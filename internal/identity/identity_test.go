package identity_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/maximeliseyev/construct-messenger/internal/identity"
	"github.com/maximeliseyev/construct-messenger/internal/suite"
)

func newStore(t *testing.T) (*identity.Store, suite.Suite) {
	t.Helper()
	s := suite.NewClassic(rand.Reader)
	st, err := identity.New(s, identity.DefaultRetain)
	if err != nil {
		t.Fatalf("identity.New: %v", err)
	}
	return st, s
}

func TestBundleSignatureVerifies(t *testing.T) {
	st, s := newStore(t)
	b := st.Bundle()
	if !s.Verify(b.VerifyingKey, b.SignedPrekey, b.Signature) {
		t.Fatal("exported bundle signature does not verify")
	}
}

func TestBundleIsStableAcrossExports(t *testing.T) {
	st, _ := newStore(t)
	b1 := st.Bundle()
	b2 := st.Bundle()
	if !bytes.Equal(b1.Signature, b2.Signature) || !bytes.Equal(b1.SignedPrekey, b2.SignedPrekey) {
		t.Fatal("bundle changed between exports without a rotation")
	}
}

func TestRotateArchivesPrekeys(t *testing.T) {
	st, s := newStore(t)
	first := st.Bundle().SignedPrekey

	update, err := st.Rotate()
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if bytes.Equal(update.SignedPrekey, first) {
		t.Fatal("rotation kept the same prekey")
	}
	b := st.Bundle()
	if !bytes.Equal(b.SignedPrekey, update.SignedPrekey) {
		t.Fatal("bundle does not carry the rotated prekey")
	}
	if !s.Verify(b.VerifyingKey, b.SignedPrekey, b.Signature) {
		t.Fatal("rotated bundle signature does not verify")
	}

	// The superseded prekey remains available for in-flight handshakes.
	var found bool
	for _, spk := range st.HandshakePrekeys() {
		if bytes.Equal(spk.Pub, first) {
			found = true
		}
	}
	if !found {
		t.Fatal("previous prekey not retained after one rotation")
	}
}

func TestRotateRetainsOnlyK(t *testing.T) {
	st, _ := newStore(t)
	for i := 0; i < 5; i++ {
		if _, err := st.Rotate(); err != nil {
			t.Fatalf("Rotate %d: %v", i, err)
		}
	}
	if got := len(st.HandshakePrekeys()); got != 1+identity.DefaultRetain {
		t.Fatalf("retained %d prekeys, want %d", got, 1+identity.DefaultRetain)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	st, s := newStore(t)
	if _, err := st.Rotate(); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	exported, err := st.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	restored, err := identity.Import(s, exported)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	b1, b2 := st.Bundle(), restored.Bundle()
	if !bytes.Equal(b1.IdentityKey, b2.IdentityKey) ||
		!bytes.Equal(b1.SignedPrekey, b2.SignedPrekey) ||
		!bytes.Equal(b1.Signature, b2.Signature) ||
		!bytes.Equal(b1.VerifyingKey, b2.VerifyingKey) {
		t.Fatal("restored identity exports a different bundle")
	}
	if st.Fingerprint() != restored.Fingerprint() {
		t.Fatal("fingerprint changed across export/import")
	}
	if len(restored.HandshakePrekeys()) != len(st.HandshakePrekeys()) {
		t.Fatal("archive lost across export/import")
	}
}

func TestImportRejectsWrongSuite(t *testing.T) {
	st, _ := newStore(t)
	exported, err := st.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := identity.Import(suite.NewHybrid(rand.Reader), exported); err == nil {
		t.Fatal("import under a different suite succeeded")
	}
}
