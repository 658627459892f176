package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"churchcheckin/pkg/claims"
	"churchcheckin/pkg/qrtoken"
	"churchcheckin/pkg/target"
)

type GenerateForm struct {
	ValidityMinutes int `json:"validityMinutes" validate:"required,gte=1"`
}

type ValidateForm struct {
	Token string `json:"token"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TargetID  string    `json:"targetId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type validateResponse struct {
	TargetID  string    `json:"targetId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type QRHandler struct {
	Targets target.ServiceTarget
	Codec   *qrtoken.Codec
	Logger  *slog.Logger
}

func NewQRHandler(targets target.ServiceTarget, codec *qrtoken.Codec, logger *slog.Logger) *QRHandler {
	return &QRHandler{
		Targets: targets,
		Codec:   codec,
		Logger:  logger,
	}
}

// Generate issues a token for an existing target. Only the target check
// touches storage; the token itself is never persisted.
func (h *QRHandler) Generate(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, muxVarTargetID)
	if !ok {
		return
	}

	var req GenerateForm
	if ok := decodeJSONBody(w, r, &req); !ok {
		return
	}

	var c claims.Claims
	if ok := getClaimsFromContext(w, r, &c); !ok {
		return
	}

	if _, err := h.Targets.Get(r.Context(), targetID); err != nil {
		writeServiceError(w, h.Logger, "generate token", err)
		return
	}

	token, err := h.Codec.Encode(targetID, req.ValidityMinutes)
	if err != nil {
		writeServiceError(w, h.Logger, "generate token", err)
		return
	}

	p, err := h.Codec.Decode(token)
	if err != nil {
		writeServiceError(w, h.Logger, "generate token", err)
		return
	}

	if ok := writeJSONStatus(w, h.Logger, http.StatusCreated, tokenResponse{
		Token:     token,
		TargetID:  targetID,
		ExpiresAt: p.ExpiresAt().UTC(),
	}); ok {
		h.Logger.Info("token issued",
			muxVarTargetID, targetID,
			"validityMinutes", req.ValidityMinutes,
			"user", c.User.ID,
		)
	}
}

func (h *QRHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateForm
	if ok := decodeJSONBody(w, r, &req); !ok {
		return
	}

	p, err := h.Codec.ValidateToken(req.Token)
	if err != nil {
		writeServiceError(w, h.Logger, "validate token", err)
		return
	}

	writeJSON(w, h.Logger, validateResponse{
		TargetID:  p.TargetID,
		ExpiresAt: p.ExpiresAt().UTC(),
	})
}
