package core

import (
	"io"

	"github.com/maximeliseyev/construct-messenger/internal/suite"
)

// Option configures a Core at construction.
type Option func(*config)

type config struct {
	suite    suite.Suite
	rng      io.Reader
	maxSkip  int
	retain   int
	identity []byte
}

// WithSuite selects the crypto suite. Defaults to the classic suite.
func WithSuite(s suite.Suite) Option {
	return func(c *config) { c.suite = s }
}

// WithRand sets the random source used for session handles and handed to the
// default classic suite. A suite passed with WithSuite keeps the reader it
// was constructed with. Defaults to crypto/rand.
func WithRand(rng io.Reader) Option {
	return func(c *config) { c.rng = rng }
}

// WithMaxSkip bounds the skipped-message-key cache per session. Defaults to
// 1000. Overflow fails the offending decrypt; nothing is evicted silently.
func WithMaxSkip(n int) Option {
	return func(c *config) { c.maxSkip = n }
}

// WithRetainedPrekeys sets how many superseded signed prekeys are kept for
// in-flight handshakes. Defaults to 2.
func WithRetainedPrekeys(n int) Option {
	return func(c *config) { c.retain = n }
}

// WithIdentity restores a previously exported identity instead of
// generating a fresh one.
func WithIdentity(exported []byte) Option {
	return func(c *config) { c.identity = exported }
}
