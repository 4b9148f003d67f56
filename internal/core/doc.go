// Package core is the host-facing façade of the session core: one Core per
// user, owning the identity store and a handle-keyed registry of Double
// Ratchet sessions.
//
// Handles are opaque 128-bit identifiers suitable for crossing an FFI
// boundary. Operations on one session are serialised behind its own lock;
// different sessions proceed in parallel. Nothing in this package is process
// global: every piece of state hangs off a Core.
//
// The Core consumes a random source and emits bytes. Transport, persistence
// and UI are host concerns; hosts that want cross-restart sessions use
// ExportSession/ImportSession and ExportIdentity.
package core
