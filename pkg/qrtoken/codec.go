package qrtoken

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const DefaultMaxValidityMinutes = 60

// Codec turns check-in targets into opaque QR tokens and back.
// Tokens are base64 encoded JSON and carry no signature: anyone holding a
// token can redeem it until it expires.
type Codec struct {
	maxValidity int
	requireUUID bool
	now         func() time.Time
	validate    *validator.Validate
}

type Option func(*Codec)

// WithMaxValidity bounds validityMinutes for both encoding and decoding.
func WithMaxValidity(minutes int) Option {
	return func(c *Codec) {
		if minutes > 0 {
			c.maxValidity = minutes
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// RequireUUID makes the codec reject target ids that are not UUIDs.
func RequireUUID() Option {
	return func(c *Codec) { c.requireUUID = true }
}

func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		maxValidity: DefaultMaxValidityMinutes,
		now:         time.Now,
		validate:    validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) MaxValidityMinutes() int {
	return c.maxValidity
}

// Encode builds a payload issued now and returns its token form.
func (c *Codec) Encode(targetID string, validityMinutes int) (string, error) {
	if err := c.checkTarget(targetID); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidRequest, err)
	}
	if validityMinutes < 1 || validityMinutes > c.maxValidity {
		return "", fmt.Errorf("%w: validityMinutes must be between 1 and %d", ErrInvalidRequest, c.maxValidity)
	}

	p := Payload{
		TargetID:        targetID,
		IssuedAt:        c.now().UnixMilli(),
		ValidityMinutes: validityMinutes,
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// Decode parses a token back into a payload. It does not check expiry.
func (c *Codec) Decode(encoded string) (*Payload, error) {
	raw, err := decodeBase64(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformedPayload)
	}

	if err := c.validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}
	if p.ValidityMinutes > c.maxValidity {
		return nil, fmt.Errorf("%w: validityMinutes exceeds %d", ErrMalformedPayload, c.maxValidity)
	}
	if err := c.checkTarget(p.TargetID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPayload, err)
	}

	return &p, nil
}

// Validate fails with ErrExpired once now is past the payload's expiry.
// A scan at exactly the expiry instant is still accepted.
func (c *Codec) Validate(p *Payload) (*Payload, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	if p.IssuedAt <= 0 || p.IssuedAt > MaxIssuedAtMillis || p.ValidityMinutes < 1 || p.ValidityMinutes > c.maxValidity {
		return nil, fmt.Errorf("%w: issuedAt or validityMinutes out of range", ErrMalformedPayload)
	}
	if c.now().UnixMilli() > p.expiryMillis() {
		return nil, fmt.Errorf("%w at %s", ErrExpired, p.ExpiresAt().UTC().Format(time.RFC3339))
	}
	return p, nil
}

// ValidateToken decodes the token and checks its validity window.
func (c *Codec) ValidateToken(encoded string) (*Payload, error) {
	p, err := c.Decode(encoded)
	if err != nil {
		return nil, err
	}
	return c.Validate(p)
}

func (c *Codec) checkTarget(targetID string) error {
	if strings.TrimSpace(targetID) == "" {
		return fmt.Errorf("targetId is empty")
	}
	if c.requireUUID {
		if _, err := uuid.Parse(targetID); err != nil {
			return fmt.Errorf("targetId is not a uuid")
		}
	}
	return nil
}

// Scanners and copy/paste sometimes strip padding or use the URL alphabet.
var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

func decodeBase64(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty token")
	}
	var lastErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(s)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
