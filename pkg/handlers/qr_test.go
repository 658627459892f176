package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"churchcheckin/pkg/handlers"
	"churchcheckin/pkg/qrtoken"
	"churchcheckin/pkg/target"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenBody struct {
	Token     string    `json:"token"`
	TargetID  string    `json:"targetId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newCodec(now *time.Time) *qrtoken.Codec {
	return qrtoken.NewCodec(
		qrtoken.RequireUUID(),
		qrtoken.WithClock(func() time.Time { return *now }),
	)
}

func TestQRHandler_Generate(t *testing.T) {
	now := fixedNow
	codec := newCodec(&now)
	vars := map[string]string{"target_id": targetID}

	t.Run("issues token for known target", func(t *testing.T) {
		targets := new(mockTargetService)
		targets.On("Get", targetID).Return(&target.Target{ID: targetID}, nil)
		h := handlers.NewQRHandler(targets, codec, testLogger)

		rr := httptest.NewRecorder()
		h.Generate(rr, jsonRequest(t, http.MethodPost, "/api/targets/"+targetID+"/qr", `{"validityMinutes":15}`, vars))

		require.Equal(t, http.StatusCreated, rr.Code)
		var body tokenBody
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, targetID, body.TargetID)
		assert.True(t, body.ExpiresAt.Equal(fixedNow.Add(15*time.Minute)))

		p, err := codec.ValidateToken(body.Token)
		require.NoError(t, err)
		assert.Equal(t, targetID, p.TargetID)
		assert.Equal(t, 15, p.ValidityMinutes)
	})

	t.Run("unknown target", func(t *testing.T) {
		targets := new(mockTargetService)
		targets.On("Get", targetID).Return(nil, target.ErrNotFound)
		h := handlers.NewQRHandler(targets, codec, testLogger)

		rr := httptest.NewRecorder()
		h.Generate(rr, jsonRequest(t, http.MethodPost, "/api/targets/"+targetID+"/qr", `{"validityMinutes":15}`, vars))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("validity above maximum", func(t *testing.T) {
		targets := new(mockTargetService)
		targets.On("Get", targetID).Return(&target.Target{ID: targetID}, nil)
		h := handlers.NewQRHandler(targets, codec, testLogger)

		rr := httptest.NewRecorder()
		h.Generate(rr, jsonRequest(t, http.MethodPost, "/api/targets/"+targetID+"/qr", `{"validityMinutes":61}`, vars))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeError(t, rr).Code)
	})

	t.Run("zero validity", func(t *testing.T) {
		targets := new(mockTargetService)
		h := handlers.NewQRHandler(targets, codec, testLogger)

		rr := httptest.NewRecorder()
		h.Generate(rr, jsonRequest(t, http.MethodPost, "/api/targets/"+targetID+"/qr", `{"validityMinutes":0}`, vars))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		targets.AssertNotCalled(t, "Get", targetID)
	})
}

func TestQRHandler_Validate(t *testing.T) {
	now := fixedNow
	codec := newCodec(&now)
	h := handlers.NewQRHandler(new(mockTargetService), codec, testLogger)

	token, err := codec.Encode(targetID, 5)
	require.NoError(t, err)

	validate := func(body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.Validate(rr, jsonRequest(t, http.MethodPost, "/api/qr/validate", body, nil))
		return rr
	}

	t.Run("valid at the expiry instant", func(t *testing.T) {
		now = fixedNow.Add(5 * time.Minute)
		rr := validate(`{"token":"` + token + `"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), targetID)
	})

	t.Run("expired", func(t *testing.T) {
		now = fixedNow.Add(5*time.Minute + time.Millisecond)
		rr := validate(`{"token":"` + token + `"}`)

		assert.Equal(t, http.StatusGone, rr.Code)
		assert.Equal(t, "EXPIRED", decodeError(t, rr).Code)
	})

	t.Run("malformed", func(t *testing.T) {
		now = fixedNow
		rr := validate(`{"token":"not-base64!!"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "MALFORMED_PAYLOAD", decodeError(t, rr).Code)
	})

	t.Run("missing token", func(t *testing.T) {
		for _, body := range []string{`{}`, `{"token":""}`, `{"token":"   "}`} {
			rr := validate(body)

			assert.Equal(t, http.StatusBadRequest, rr.Code, body)
			assert.Equal(t, "MALFORMED_PAYLOAD", decodeError(t, rr).Code, body)
		}
	})
}
