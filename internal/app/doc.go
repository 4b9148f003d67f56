// Package app wires the CLI host together: the file store, the relay client
// and the lifecycle of a core across invocations (unseal identity, restore
// sessions, persist what changed).
package app
