package store

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealedRoundTrip(t *testing.T) {
	blob, err := seal("correct horse", []byte("private material"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	pt, err := unseal("correct horse", blob)
	if err != nil {
		t.Fatalf("unseal: %v", err)
	}
	if string(pt) != "private material" {
		t.Fatalf("got %q", pt)
	}
	if _, err := unseal("wrong", blob); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("want ErrWrongPassphrase, got %v", err)
	}
}

func TestIdentityPersistence(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if s.HasIdentity() {
		t.Fatal("fresh store reports an identity")
	}
	if err := s.SaveIdentity("pass", []byte("identity blob")); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	if !s.HasIdentity() {
		t.Fatal("identity not reported after save")
	}
	got, err := s.LoadIdentity("pass")
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if !bytes.Equal(got, []byte("identity blob")) {
		t.Fatalf("got %q", got)
	}
	if _, err := s.LoadIdentity("nope"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("want ErrWrongPassphrase, got %v", err)
	}
}

func TestSessionPersistence(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, ok, err := s.LoadSession("pass", "bob"); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := s.SaveSession("pass", "bob", []byte("session blob")); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	got, ok, err := s.LoadSession("pass", "bob")
	if err != nil || !ok {
		t.Fatalf("LoadSession: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, []byte("session blob")) {
		t.Fatalf("got %q", got)
	}
	if err := s.DeleteSession("bob"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, ok, _ := s.LoadSession("pass", "bob"); ok {
		t.Fatal("session survived deletion")
	}
	// Deleting twice is fine.
	if err := s.DeleteSession("bob"); err != nil {
		t.Fatalf("second DeleteSession: %v", err)
	}
}

func TestContactBundleCache(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, ok, err := s.LoadContactBundle("bob"); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := s.SaveContactBundle("bob", []byte{1, 2, 3}); err != nil {
		t.Fatalf("SaveContactBundle: %v", err)
	}
	got, ok, err := s.LoadContactBundle("bob")
	if err != nil || !ok {
		t.Fatalf("LoadContactBundle: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("got %v", got)
	}
}

func TestSanitizeKeepsPathsLocal(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.SaveSession("pass", "../../etc/passwd", []byte("x")); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if _, ok, err := s.LoadSession("pass", "../../etc/passwd"); err != nil || !ok {
		t.Fatalf("round trip through sanitized name: ok=%v err=%v", ok, err)
	}
}
