package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/maximeliseyev/construct-messenger/internal/domain"
)

// EncodeBundle emits the canonical byte form of a registration bundle:
// u16 suite_id, then each byte field u16-length-prefixed in fixed order.
func EncodeBundle(b domain.RegistrationBundle) ([]byte, error) {
	out := make([]byte, 0, 2+4*2+len(b.IdentityKey)+len(b.SignedPrekey)+len(b.Signature)+len(b.VerifyingKey))
	out = binary.BigEndian.AppendUint16(out, uint16(b.SuiteID))
	var err error
	for _, field := range [][]byte{b.IdentityKey, b.SignedPrekey, b.Signature, b.VerifyingKey} {
		if out, err = appendPrefixed16(out, field); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeBundle parses canonical bundle bytes. It is a partial inverse of
// EncodeBundle: it fails only with ErrBadBundle.
func DecodeBundle(data []byte) (domain.RegistrationBundle, error) {
	r := reader{buf: data, what: "bundle"}
	var b domain.RegistrationBundle
	b.SuiteID = domain.SuiteID(r.uint16())
	b.IdentityKey = r.prefixed16()
	b.SignedPrekey = r.prefixed16()
	b.Signature = r.prefixed16()
	b.VerifyingKey = r.prefixed16()
	if err := r.finish(); err != nil {
		return domain.RegistrationBundle{}, err
	}
	return b, nil
}

// EncodeBundleText emits the named-field JSON framing, byte fields base64.
func EncodeBundleText(b domain.RegistrationBundle) ([]byte, error) {
	return json.Marshal(b)
}

// DecodeBundleText parses the JSON framing.
func DecodeBundleText(data []byte) (domain.RegistrationBundle, error) {
	var b domain.RegistrationBundle
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.RegistrationBundle{}, fmt.Errorf("%w: %v", domain.ErrBadBundle, err)
	}
	return b, nil
}

// EncodeEnvelope emits the canonical envelope bytes. The KEM ciphertext
// field trails the frame and is present only when non-empty, so classic
// envelopes match the base layout exactly.
func EncodeEnvelope(e domain.Envelope) ([]byte, error) {
	out := make([]byte, 0, 2+2+len(e.DHPublicKey)+4+4+1+len(e.Nonce)+4+len(e.Ciphertext)+len(e.KEMCiphertext))
	out = binary.BigEndian.AppendUint16(out, uint16(e.SuiteID))
	var err error
	if out, err = appendPrefixed16(out, e.DHPublicKey); err != nil {
		return nil, err
	}
	out = binary.BigEndian.AppendUint32(out, e.PreviousChainLength)
	out = binary.BigEndian.AppendUint32(out, e.MessageNumber)
	if len(e.Nonce) > math.MaxUint8 {
		return nil, fmt.Errorf("%w: nonce too long", domain.ErrBadBundle)
	}
	out = append(out, byte(len(e.Nonce)))
	out = append(out, e.Nonce...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(e.Ciphertext)))
	out = append(out, e.Ciphertext...)
	if len(e.KEMCiphertext) > 0 {
		out = binary.BigEndian.AppendUint32(out, uint32(len(e.KEMCiphertext)))
		out = append(out, e.KEMCiphertext...)
	}
	return out, nil
}

// DecodeEnvelope parses canonical envelope bytes, accepting both the
// structured nonce field and the blob framing where the nonce rides at the
// front of the ciphertext field with a zero nonce length. Callers that know
// the suite's nonce size normalize the blob form via SplitBlobNonce.
func DecodeEnvelope(data []byte) (domain.Envelope, error) {
	r := reader{buf: data, what: "envelope"}
	var e domain.Envelope
	e.SuiteID = domain.SuiteID(r.uint16())
	e.DHPublicKey = r.prefixed16()
	e.PreviousChainLength = r.uint32()
	e.MessageNumber = r.uint32()
	nonceLen := int(r.uint8())
	e.Nonce = r.take(nonceLen)
	e.Ciphertext = r.prefixed32()
	if r.remaining() > 0 {
		e.KEMCiphertext = r.prefixed32()
	}
	if err := r.finish(); err != nil {
		return domain.Envelope{}, err
	}
	return e, nil
}

// SplitBlobNonce normalizes an envelope whose ciphertext field carries
// nonce || ciphertext || tag as one blob. nonceSize comes from the suite.
func SplitBlobNonce(e domain.Envelope, nonceSize int) (domain.Envelope, error) {
	if len(e.Nonce) > 0 {
		return e, nil
	}
	if len(e.Ciphertext) < nonceSize {
		return domain.Envelope{}, fmt.Errorf("%w: envelope too short for nonce", domain.ErrBadBundle)
	}
	e.Nonce = e.Ciphertext[:nonceSize]
	e.Ciphertext = e.Ciphertext[nonceSize:]
	return e, nil
}

// EncodeEnvelopeText emits the JSON framing of an envelope.
func EncodeEnvelopeText(e domain.Envelope) ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEnvelopeText parses the JSON framing of an envelope.
func DecodeEnvelopeText(data []byte) (domain.Envelope, error) {
	var e domain.Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return domain.Envelope{}, fmt.Errorf("%w: %v", domain.ErrBadBundle, err)
	}
	return e, nil
}

func appendPrefixed16(out, field []byte) ([]byte, error) {
	if len(field) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: field too long", domain.ErrBadBundle)
	}
	out = binary.BigEndian.AppendUint16(out, uint16(len(field)))
	return append(out, field...), nil
}

// reader is a cursor over a frame that records the first failure and lets
// the caller check once at the end.
type reader struct {
	buf  []byte
	off  int
	what string
	err  error
}

func (r *reader) fail() {
	if r.err == nil {
		r.err = fmt.Errorf("%w: truncated %s", domain.ErrBadBundle, r.what)
	}
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.buf) {
		r.fail()
		return nil
	}
	out := append([]byte(nil), r.buf[r.off:r.off+n]...)
	r.off += n
	return out
}

func (r *reader) uint8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) uint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *reader) uint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) prefixed16() []byte { return r.take(int(r.uint16())) }
func (r *reader) prefixed32() []byte { return r.take(int(r.uint32())) }

func (r *reader) remaining() int {
	if r.err != nil {
		return 0
	}
	return len(r.buf) - r.off
}

func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.buf) {
		return fmt.Errorf("%w: trailing bytes in %s", domain.ErrBadBundle, r.what)
	}
	return nil
}
