// Package main runs the untrusted rendezvous relay. It stores published
// registration bundles, pushes envelopes to connected recipients over
// WebSocket and queues them for offline ones, in memory or in redis.
//
// HTTP API
//
//	POST /register {"user": ..., "bundle": base64}
//	    Store a user's canonical registration bundle bytes.
//
//	GET /bundle/{user}
//	    Return the latest published bundle for {user}.
//
//	POST /send {"from": ..., "to": ..., "bundle": ..., "envelope": ...}
//	    Deliver a packet: pushed over WebSocket when {to} is connected,
//	    queued otherwise. A zero timestamp is filled server-side.
//
//	GET /inbox/{user}
//	    Drain and return the queued packets for {user}.
//
//	GET /ws?user={user}
//	    Upgrade to WebSocket; queued packets are flushed on connect and new
//	    ones pushed as they arrive.
//
// The relay never sees plaintext or private keys; it moves ciphertext and
// public bundles. With --redis the mailbox survives restarts; without it,
// state is in memory and lost on exit.
package main
