package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"churchcheckin/pkg/attendance"
	"churchcheckin/pkg/claims"
	"churchcheckin/pkg/live"
	"churchcheckin/pkg/qrtoken"
	"churchcheckin/pkg/scanlog"
)

const scanLogTimeout = 3 * time.Second

type CheckInForm struct {
	MemberID     string `json:"memberId" validate:"required,uuid"`
	TargetID     string `json:"targetId" validate:"required,uuid"`
	AttendeeType string `json:"attendeeType" validate:"omitempty,oneof=ADULT CHILD VISITOR"`
}

type ScanForm struct {
	Token        string `json:"token" validate:"required"`
	MemberID     string `json:"memberId" validate:"required,uuid"`
	AttendeeType string `json:"attendeeType" validate:"omitempty,oneof=ADULT CHILD VISITOR"`
}

type BulkEntryForm struct {
	MemberID     string `json:"memberId" validate:"required,uuid"`
	AttendeeType string `json:"attendeeType" validate:"omitempty,oneof=ADULT CHILD VISITOR"`
}

type BulkForm struct {
	TargetID string          `json:"targetId" validate:"required,uuid"`
	Members  []BulkEntryForm `json:"members" validate:"required,min=1,dive"`
}

type bulkResponse struct {
	TargetID string               `json:"targetId"`
	Records  []*attendance.Record `json:"records"`
}

// TokenDecoder recovers the target of a scanned token for the scan log,
// even when the token is no longer valid.
type TokenDecoder interface {
	Decode(encoded string) (*qrtoken.Payload, error)
}

// Feed is satisfied by *live.Hub.
type Feed interface {
	Publish(e live.Event)
	ServeWS(w http.ResponseWriter, r *http.Request, targetID string)
}

type AttendanceHandler struct {
	Service attendance.ServiceAttendance
	ScanLog scanlog.Repository
	Tokens  TokenDecoder
	Feed    Feed
	Logger  *slog.Logger
}

func NewAttendanceHandler(
	service attendance.ServiceAttendance,
	scans scanlog.Repository,
	tokens TokenDecoder,
	feed Feed,
	logger *slog.Logger,
) *AttendanceHandler {
	return &AttendanceHandler{
		Service: service,
		ScanLog: scans,
		Tokens:  tokens,
		Feed:    feed,
		Logger:  logger,
	}
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInForm
	if ok := decodeJSONBody(w, r, &req); !ok {
		return
	}

	rec, err := h.Service.CheckIn(r.Context(), req.MemberID, req.TargetID, attendance.AttendeeType(req.AttendeeType))
	if err != nil {
		writeServiceError(w, h.Logger, "check in", err)
		return
	}

	h.publish(live.EventCheckIn, rec)
	if ok := writeJSONStatus(w, h.Logger, http.StatusCreated, rec); ok {
		h.Logger.Info("checked in", "attendance", rec.ID, "member", rec.MemberID, muxVarTargetID, rec.TargetID)
	}
}

// Scan redeems a QR token. Every attempt lands in the scan log, accepted
// or not.
func (h *AttendanceHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanForm
	if ok := decodeJSONBody(w, r, &req); !ok {
		return
	}

	var c claims.Claims
	if ok := getClaimsFromContext(w, r, &c); !ok {
		return
	}

	rec, err := h.Service.ScanCheckIn(r.Context(), req.Token, req.MemberID, attendance.AttendeeType(req.AttendeeType))

	entry := &scanlog.Entry{
		MemberID:  req.MemberID,
		Operator:  c.User.ID,
		ScannedAt: time.Now().UTC(),
	}
	if err != nil {
		_, entry.Reason = classify(err)
		entry.Outcome = scanlog.Rejected
		// unreadable tokens are logged without a target
		if p, decErr := h.Tokens.Decode(req.Token); decErr == nil {
			entry.TargetID = p.TargetID
		}
	} else {
		entry.Outcome = scanlog.Accepted
		entry.TargetID = rec.TargetID
		entry.AttendanceID = rec.ID
	}
	h.recordScan(r.Context(), entry)

	if err != nil {
		writeServiceError(w, h.Logger, "scan check in", err)
		return
	}

	h.publish(live.EventCheckIn, rec)
	if ok := writeJSONStatus(w, h.Logger, http.StatusCreated, rec); ok {
		h.Logger.Info("scan accepted", "attendance", rec.ID, "member", rec.MemberID, muxVarTargetID, rec.TargetID)
	}
}

func (h *AttendanceHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var req BulkForm
	if ok := decodeJSONBody(w, r, &req); !ok {
		return
	}

	entries := make([]attendance.Entry, len(req.Members))
	for i, m := range req.Members {
		entries[i] = attendance.Entry{MemberID: m.MemberID, AttendeeType: attendance.AttendeeType(m.AttendeeType)}
	}

	records, err := h.Service.CheckInBulk(r.Context(), req.TargetID, entries)
	if err != nil {
		writeServiceError(w, h.Logger, "bulk check in", err)
		return
	}

	for _, rec := range records {
		h.publish(live.EventCheckIn, rec)
	}
	if ok := writeJSONStatus(w, h.Logger, http.StatusCreated, bulkResponse{TargetID: req.TargetID, Records: records}); ok {
		h.Logger.Info("bulk checked in", muxVarTargetID, req.TargetID, "count", len(records))
	}
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, muxVarAttendanceID)
	if !ok {
		return
	}

	rec, err := h.Service.CheckOut(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.Logger, "check out", err)
		return
	}

	h.publish(live.EventCheckOut, rec)
	if ok := writeJSON(w, h.Logger, rec); ok {
		h.Logger.Info("checked out", "attendance", rec.ID)
	}
}

func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, muxVarTargetID)
	if !ok {
		return
	}

	records, err := h.Service.ListByTarget(r.Context(), targetID)
	if err != nil {
		writeServiceError(w, h.Logger, "list attendance", err)
		return
	}
	if records == nil {
		records = []*attendance.Record{}
	}

	writeJSON(w, h.Logger, records)
}

func (h *AttendanceHandler) Scans(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, muxVarTargetID)
	if !ok {
		return
	}

	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := h.ScanLog.ListByTarget(r.Context(), targetID, limit)
	if err != nil {
		h.Logger.Error("list scans", muxVarTargetID, targetID, "error", err)
		writeError(w, http.StatusInternalServerError, codeStorageFailure, "internal error")
		return
	}
	if entries == nil {
		entries = []*scanlog.Entry{}
	}

	writeJSON(w, h.Logger, entries)
}

func (h *AttendanceHandler) Live(w http.ResponseWriter, r *http.Request) {
	targetID, ok := pathID(w, r, muxVarTargetID)
	if !ok {
		return
	}
	h.Feed.ServeWS(w, r, targetID)
}

func (h *AttendanceHandler) publish(kind string, rec *attendance.Record) {
	h.Feed.Publish(live.Event{Type: kind, TargetID: rec.TargetID, Data: rec})
}

// recordScan never fails the request; a lost audit entry is only logged.
func (h *AttendanceHandler) recordScan(ctx context.Context, e *scanlog.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), scanLogTimeout)
	defer cancel()

	if err := h.ScanLog.Record(ctx, e); err != nil {
		h.Logger.Warn("scan log", "member", e.MemberID, muxVarTargetID, e.TargetID, "error", err)
	}
}
