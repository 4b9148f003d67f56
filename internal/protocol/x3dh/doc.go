// Package x3dh implements the asynchronous key agreement that bootstraps a
// Double Ratchet session between two parties.
//
// # Flows
//
// Initiator, holding the responder's registration bundle:
//  1. Check the bundle's suite against the local suite.
//  2. Verify the signed-prekey signature under the bundle's verifying key.
//  3. Generate an ephemeral keypair.
//  4. Compute DH(IKa, SPKb), DH(EKa, IKb), DH(EKa, SPKb); hybrid suites add
//     an encapsulated secret against the responder's KEM identity component.
//  5. Derive the initial root key from the concatenated secrets.
//
// Responder, on the first envelope (whose ratchet public is the initiator's
// ephemeral): compute the mirrored DH set with the signed-prekey and identity
// privates, decapsulate if a KEM ciphertext rode along, and derive the same
// root key.
//
// Only public material ever crosses the wire; every intermediate secret is
// zeroized before return.
package x3dh
