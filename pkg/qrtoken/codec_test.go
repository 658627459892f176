package qrtoken_test

import (
	"encoding/base64"
	"errors"
	"math"
	"testing"
	"time"

	"churchcheckin/pkg/qrtoken"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const targetUUID = "5b0c1f8e-3d57-4a7e-9a51-0d8f6f2b9c11"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newCodec(clock *fakeClock, opts ...qrtoken.Option) *qrtoken.Codec {
	return qrtoken.NewCodec(append([]qrtoken.Option{qrtoken.WithClock(clock.Now)}, opts...)...)
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_123)}
	codec := newCodec(clock)

	for _, tc := range []struct {
		target   string
		validity int
	}{
		{"t1", 1},
		{targetUUID, 5},
		{"class-ü-room", 30},
		{"session 42", 60},
	} {
		token, err := codec.Encode(tc.target, tc.validity)
		require.NoError(t, err)

		p, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, tc.target, p.TargetID)
		assert.Equal(t, tc.validity, p.ValidityMinutes)
		assert.Equal(t, int64(1_700_000_000_123), p.IssuedAt)
	}
}

func TestEncode(t *testing.T) {
	clock := &fakeClock{t: time.Now()}

	t.Run("validity out of range", func(t *testing.T) {
		codec := newCodec(clock)
		for _, v := range []int{0, -3, 61} {
			_, err := codec.Encode("t1", v)
			assert.ErrorIs(t, err, qrtoken.ErrInvalidRequest)
		}
	})

	t.Run("configured maximum", func(t *testing.T) {
		codec := newCodec(clock, qrtoken.WithMaxValidity(10))
		assert.Equal(t, 10, codec.MaxValidityMinutes())

		_, err := codec.Encode("t1", 11)
		assert.ErrorIs(t, err, qrtoken.ErrInvalidRequest)

		_, err = codec.Encode("t1", 10)
		assert.NoError(t, err)
	})

	t.Run("empty target", func(t *testing.T) {
		_, err := newCodec(clock).Encode("  ", 5)
		assert.ErrorIs(t, err, qrtoken.ErrInvalidRequest)
	})

	t.Run("uuid required", func(t *testing.T) {
		codec := newCodec(clock, qrtoken.RequireUUID())

		_, err := codec.Encode("not-a-uuid", 5)
		assert.ErrorIs(t, err, qrtoken.ErrInvalidRequest)

		_, err = codec.Encode(targetUUID, 5)
		assert.NoError(t, err)
	})
}

func TestDecodeMalformed(t *testing.T) {
	codec := newCodec(&fakeClock{t: time.Now()}, qrtoken.RequireUUID())

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "not-base64!!!"},
		{"not json", b64("not json")},
		{"json array", b64(`[1,2,3]`)},
		{"missing target", b64(`{"issuedAt":1700000000000,"validityMinutes":5}`)},
		{"missing issuedAt", b64(`{"targetId":"` + targetUUID + `","validityMinutes":5}`)},
		{"missing validity", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000}`)},
		{"mistyped validity", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000,"validityMinutes":"5"}`)},
		{"fractional validity", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000,"validityMinutes":1.5}`)},
		{"mistyped target", b64(`{"targetId":42,"issuedAt":1700000000000,"validityMinutes":5}`)},
		{"zero validity", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000,"validityMinutes":0}`)},
		{"validity above max", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000,"validityMinutes":600}`)},
		{"target not uuid", b64(`{"targetId":"abc","issuedAt":1700000000000,"validityMinutes":5}`)},
		{"unknown field", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000,"validityMinutes":5,"admin":true}`)},
		{"trailing data", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000,"validityMinutes":5}{}`)},
		{"trailing bracket", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000,"validityMinutes":5}]`)},
		{"trailing brace", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000,"validityMinutes":5}}`)},
		{"trailing garbage", b64(`{"targetId":"` + targetUUID + `","issuedAt":1700000000000,"validityMinutes":5}]]]garbage`)},
		{"issuedAt past year 9999", b64(`{"targetId":"` + targetUUID + `","issuedAt":253402300800000,"validityMinutes":5}`)},
		{"issuedAt near int64 max", b64(`{"targetId":"` + targetUUID + `","issuedAt":9223372036854775000,"validityMinutes":5}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := codec.Decode(tc.token)

			assert.Nil(t, p)
			assert.ErrorIs(t, err, qrtoken.ErrMalformedPayload)
			assert.False(t, errors.Is(err, qrtoken.ErrExpired))
		})
	}
}

func TestDecodeAcceptsAlternateAlphabets(t *testing.T) {
	codec := newCodec(&fakeClock{t: time.Now()})
	raw := []byte(`{"targetId":"t1","issuedAt":1700000000000,"validityMinutes":5}`)

	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		p, err := codec.Decode(" " + enc.EncodeToString(raw) + "\n")
		require.NoError(t, err)
		assert.Equal(t, "t1", p.TargetID)
	}
}

func TestValidateExpiryBoundary(t *testing.T) {
	const issued = int64(1_700_000_000_000)
	clock := &fakeClock{t: time.UnixMilli(issued)}
	codec := newCodec(clock)

	token, err := codec.Encode("t1", 5)
	require.NoError(t, err)

	window := int64(5 * 60000)

	t.Run("one millisecond before expiry", func(t *testing.T) {
		clock.t = time.UnixMilli(issued + window - 1)
		p, err := codec.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "t1", p.TargetID)
	})

	t.Run("exactly at expiry", func(t *testing.T) {
		clock.t = time.UnixMilli(issued + window)
		_, err := codec.ValidateToken(token)
		assert.NoError(t, err)
	})

	t.Run("one millisecond after expiry", func(t *testing.T) {
		clock.t = time.UnixMilli(issued + window + 1)
		p, err := codec.ValidateToken(token)
		assert.Nil(t, p)
		assert.ErrorIs(t, err, qrtoken.ErrExpired)
	})

	t.Run("expires at", func(t *testing.T) {
		p, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, issued+window, p.ExpiresAt().UnixMilli())
	})
}

func TestValidateNilPayload(t *testing.T) {
	_, err := qrtoken.NewCodec().Validate(nil)
	assert.ErrorIs(t, err, qrtoken.ErrMalformedPayload)
}

func TestValidateTokenMalformed(t *testing.T) {
	_, err := qrtoken.NewCodec().ValidateToken("%%%")
	assert.ErrorIs(t, err, qrtoken.ErrMalformedPayload)
}

func TestDecodeAcceptsTrailingWhitespace(t *testing.T) {
	codec := newCodec(&fakeClock{t: time.Now()})

	p, err := codec.Decode(b64(`{"targetId":"t1","issuedAt":1700000000000,"validityMinutes":5}` + " \n"))

	require.NoError(t, err)
	assert.Equal(t, "t1", p.TargetID)
}

func TestValidateRejectsOutOfRangePayload(t *testing.T) {
	codec := newCodec(&fakeClock{t: time.UnixMilli(1_700_000_000_000)})

	for _, p := range []*qrtoken.Payload{
		{TargetID: "t1", IssuedAt: math.MaxInt64 - 1000, ValidityMinutes: 5},
		{TargetID: "t1", IssuedAt: 1_700_000_000_000, ValidityMinutes: 0},
		{TargetID: "t1", IssuedAt: -1, ValidityMinutes: 5},
	} {
		_, err := codec.Validate(p)
		assert.ErrorIs(t, err, qrtoken.ErrMalformedPayload)
		assert.NotErrorIs(t, err, qrtoken.ErrExpired)
	}
}
