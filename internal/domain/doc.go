// Package domain defines the wire-visible data models and the error taxonomy
// shared across the session core. It contains plain types only; behaviour
// lives in the suite, protocol and core packages.
package domain
