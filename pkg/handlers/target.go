package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"churchcheckin/pkg/target"
)

type TargetForm struct {
	Name     string     `json:"name" validate:"required,max=200"`
	Kind     string     `json:"kind" validate:"required"`
	StartsAt *time.Time `json:"startsAt"`
}

type TargetHandler struct {
	Service target.ServiceTarget
	Logger  *slog.Logger
}

func NewTargetHandler(service target.ServiceTarget, logger *slog.Logger) *TargetHandler {
	return &TargetHandler{
		Service: service,
		Logger:  logger,
	}
}

func (h *TargetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req TargetForm
	if ok := decodeJSONBody(w, r, &req); !ok {
		return
	}

	t, err := h.Service.Create(r.Context(), req.Name, target.Kind(req.Kind), req.StartsAt)
	if err != nil {
		writeServiceError(w, h.Logger, "create target", err)
		return
	}

	if ok := writeJSONStatus(w, h.Logger, http.StatusCreated, t); ok {
		h.Logger.Info("target created", muxVarTargetID, t.ID, "kind", t.Kind)
	}
}

func (h *TargetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, muxVarTargetID)
	if !ok {
		return
	}

	t, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "get target", err)
		return
	}

	writeJSON(w, h.Logger, t)
}
