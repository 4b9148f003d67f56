// Package wire frames registration bundles and message envelopes.
//
// The canonical byte form is a fixed field order with big-endian integers
// and length prefixes on variable fields; it is the form that gets signed
// and verified, so encoders never re-canonicalize. A JSON framing with
// base64 byte fields exists for transports that want named fields; both
// round-trip losslessly.
package wire
