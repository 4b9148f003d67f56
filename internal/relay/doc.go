// Package relay implements the demo transport around the session core: a
// small rendezvous server that stores published registration bundles and
// queues encrypted envelopes for offline recipients, plus the HTTP/WebSocket
// client the CLI uses against it.
//
// The relay is an untrusted middleman. It only ever sees canonical bundle
// and envelope bytes; plaintext and private keys never reach it.
package relay
