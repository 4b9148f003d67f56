// Package identity holds a user's long-term and medium-term private key
// material: the identity key-agreement pair, the signing pair known as the
// master verifying key, and the signed prekey with its rotation archive. It
// exports the registration bundle peers use to start sessions.
package identity
