package identity

import (
	"encoding/json"
	"fmt"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/suite"
)

// snapshotVersion is bumped when the serialized layout changes.
const snapshotVersion = 1

type snapshotPrekey struct {
	Priv      []byte `json:"priv"`
	Pub       []byte `json:"pub"`
	Signature []byte `json:"sig"`
}

type snapshot struct {
	V            int              `json:"v"`
	SuiteID      domain.SuiteID   `json:"suite_id"`
	IdentityPriv []byte           `json:"identity_priv"`
	IdentityPub  []byte           `json:"identity_pub"`
	SigningPriv  []byte           `json:"signing_priv"`
	VerifyingPub []byte           `json:"verifying_pub"`
	Active       snapshotPrekey   `json:"active"`
	Archived     []snapshotPrekey `json:"archived,omitempty"`
	Retain       int              `json:"retain"`
}

// Export serializes the full store, private material included. Hosts are
// expected to seal the result before it touches disk.
func (st *Store) Export() ([]byte, error) {
	snap := snapshot{
		V:            snapshotVersion,
		SuiteID:      st.suite.ID(),
		IdentityPriv: st.identityPriv,
		IdentityPub:  st.identityPub,
		SigningPriv:  st.signingPriv,
		VerifyingPub: st.verifyingPub,
		Active:       snapshotPrekey(st.active),
		Retain:       st.retain,
	}
	for _, spk := range st.archived {
		snap.Archived = append(snap.Archived, snapshotPrekey(spk))
	}
	return json.Marshal(snap)
}

// Import rebuilds a store from Export output. The suite must match the one
// the snapshot was taken under.
func Import(s suite.Suite, data []byte) (*Store, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: identity snapshot: %v", domain.ErrBadBundle, err)
	}
	if snap.V != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported identity snapshot version %d", domain.ErrBadBundle, snap.V)
	}
	if snap.SuiteID != s.ID() {
		return nil, fmt.Errorf("%w: snapshot suite %d, local suite %d",
			domain.ErrSuiteMismatch, snap.SuiteID, s.ID())
	}
	st := &Store{
		suite:        s,
		identityPriv: snap.IdentityPriv,
		identityPub:  snap.IdentityPub,
		signingPriv:  snap.SigningPriv,
		verifyingPub: snap.VerifyingPub,
		active:       SignedPrekey(snap.Active),
		retain:       snap.Retain,
	}
	if st.retain <= 0 {
		st.retain = DefaultRetain
	}
	for _, spk := range snap.Archived {
		st.archived = append(st.archived, SignedPrekey(spk))
	}
	return st, nil
}
