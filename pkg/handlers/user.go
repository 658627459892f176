package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"churchcheckin/pkg/claims"
	"churchcheckin/pkg/session"
	"churchcheckin/pkg/user"

	jwt "github.com/dgrijalva/jwt-go"
)

type LoginForm struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

type Handler struct {
	Service user.ServiceInterface
	Logger  *slog.Logger
	secret  []byte
}

type FieldError struct {
	Location string `json:"location"`
	Param    string `json:"param"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
}

func NewUserHandler(service user.ServiceInterface, logger *slog.Logger, secret string) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
		secret:  []byte(secret),
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := decodeJSONBody(w, r, &req); !ok {
		return
	}

	u, err := h.Service.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		h.issueToken(w, u, "register")
	case errors.Is(err, user.ErrAlreadyExists):
		if ok := writeJSONStatus(w, h.Logger, http.StatusUnprocessableEntity, map[string]any{
			"code": codeUserExists,
			"errors": []FieldError{
				{
					Location: "body",
					Param:    "username",
					Value:    req.Username,
					Msg:      "already exists",
				},
			},
		}); ok {
			h.Logger.Info("register", "rejected", codeUserExists, "username", req.Username)
		}
	case errors.Is(err, user.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
	default:
		h.Logger.Error("register", "error", err)
		writeError(w, http.StatusInternalServerError, codeStorageFailure, "internal error")
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := decodeJSONBody(w, r, &req); !ok {
		return
	}

	u, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		msg := "invalid password"
		if errors.Is(err, user.ErrNotFound) {
			msg = "user not found"
		} else if !errors.Is(err, user.ErrInvalidCredentials) {
			h.Logger.Error("login", "error", err)
			writeError(w, http.StatusInternalServerError, codeStorageFailure, "internal error")
			return
		}
		h.Logger.Info("login", "rejected", msg, "username", req.Username)
		writeError(w, http.StatusUnauthorized, codeUnauthorized, msg)
		return
	}

	h.issueToken(w, u, "login")
}

// issueToken signs an HS256 token that lives as long as the session
// opened by the service.
func (h *Handler) issueToken(w http.ResponseWriter, u *user.User, action string) {
	now := time.Now().UTC()
	c := claims.New(u.Username, u.ID)
	c.IssuedAt = now.Unix()
	c.ExpiresAt = now.Add(session.Lifetime).Unix()

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(h.secret)
	if err != nil {
		h.Logger.Error("token signing", "error", err)
		writeError(w, http.StatusInternalServerError, codeStorageFailure, "internal error")
		return
	}

	if ok := writeJSON(w, h.Logger, map[string]string{"token": tokenString}); ok {
		h.Logger.Info(action, "user", u.ID)
	}
}
