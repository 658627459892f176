package handlers

import (
	"log/slog"
	"net/http"

	"churchcheckin/pkg/member"
)

type MemberForm struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
}

type MemberHandler struct {
	Service member.ServiceMember
	Logger  *slog.Logger
}

func NewMemberHandler(service member.ServiceMember, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{
		Service: service,
		Logger:  logger,
	}
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MemberForm
	if ok := decodeJSONBody(w, r, &req); !ok {
		return
	}

	m, err := h.Service.Register(r.Context(), req.FirstName, req.LastName, req.Email)
	if err != nil {
		writeServiceError(w, h.Logger, "create member", err)
		return
	}

	if ok := writeJSONStatus(w, h.Logger, http.StatusCreated, m); ok {
		h.Logger.Info("member created", muxVarMemberID, m.ID)
	}
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, muxVarMemberID)
	if !ok {
		return
	}

	m, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "get member", err)
		return
	}

	writeJSON(w, h.Logger, m)
}
