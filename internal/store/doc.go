// Package store provides the host-side file persistence the CLI uses around
// the session core: the sealed identity snapshot, exported session blobs and
// cached peer bundles, as JSON files under a home directory.
//
// The core itself never touches disk; everything here operates on the opaque
// byte forms the core exports. Private material is sealed with a passphrase
// before it is written.
package store
