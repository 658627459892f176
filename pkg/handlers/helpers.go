package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"churchcheckin/pkg/attendance"
	"churchcheckin/pkg/claims"
	"churchcheckin/pkg/member"
	"churchcheckin/pkg/qrtoken"
	"churchcheckin/pkg/target"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const (
	muxVarMemberID     string = "member_id"
	muxVarTargetID     string = "target_id"
	muxVarAttendanceID string = "attendance_id"

	codeInvalidRequest    = "INVALID_REQUEST"
	codeMalformedPayload  = "MALFORMED_PAYLOAD"
	codeExpired           = "EXPIRED"
	codeMemberNotFound    = "MEMBER_NOT_FOUND"
	codeTargetNotFound    = "TARGET_NOT_FOUND"
	codeRecordNotFound    = "RECORD_NOT_FOUND"
	codeAlreadyCheckedIn  = "ALREADY_CHECKED_IN"
	codeAlreadyCheckedOut = "ALREADY_CHECKED_OUT"
	codeStorageFailure    = "STORAGE_FAILURE"
	codeUnauthorized      = "UNAUTHORIZED"
	codeUserExists        = "USER_EXISTS"
)

var validate = validator.New()

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errorKinds is checked in order; the first match decides the response.
var errorKinds = []struct {
	err    error
	status int
	code   string
}{
	{qrtoken.ErrMalformedPayload, http.StatusBadRequest, codeMalformedPayload},
	{qrtoken.ErrExpired, http.StatusGone, codeExpired},
	{qrtoken.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest},
	{attendance.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest},
	{member.ErrInvalidMember, http.StatusBadRequest, codeInvalidRequest},
	{target.ErrInvalidTarget, http.StatusBadRequest, codeInvalidRequest},
	{attendance.ErrMemberNotFound, http.StatusNotFound, codeMemberNotFound},
	{member.ErrNotFound, http.StatusNotFound, codeMemberNotFound},
	{attendance.ErrTargetNotFound, http.StatusNotFound, codeTargetNotFound},
	{target.ErrNotFound, http.StatusNotFound, codeTargetNotFound},
	{attendance.ErrRecordNotFound, http.StatusNotFound, codeRecordNotFound},
	{attendance.ErrAlreadyCheckedIn, http.StatusConflict, codeAlreadyCheckedIn},
	{attendance.ErrAlreadyCheckedOut, http.StatusConflict, codeAlreadyCheckedOut},
	{attendance.ErrStorageFailure, http.StatusInternalServerError, codeStorageFailure},
}

func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.code
		}
	}
	return http.StatusInternalServerError, codeStorageFailure
}

// writeServiceError maps a domain error to its status. Server side
// failures are logged and their details kept from the client.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	status, code := classify(err)
	msg := err.Error()

	var bulkErr *attendance.BulkError
	if status >= http.StatusInternalServerError {
		logger.Error(action, "error", err)
		msg = "internal error"
	} else if errors.As(err, &bulkErr) {
		logger.Info(action, "rejected", code, "index", bulkErr.Index, "member", bulkErr.MemberID)
	} else {
		logger.Info(action, "rejected", code, "reason", msg)
	}

	writeError(w, status, code, msg)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, data any) bool {
	return writeJSONStatus(w, logger, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, logger *slog.Logger, status int, data any) bool {
	resp, err := json.Marshal(data)
	if err != nil {
		logger.Error("Failed to serialize JSON response", "error", err)
		writeError(w, http.StatusInternalServerError, codeStorageFailure, "failed json marshal")
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(resp); err != nil {
		logger.Error("Failed to write response to client", "error", err)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg, Code: code})
}

// decodeJSONBody reads a single JSON object into req and runs its
// validate tags.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, req any) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid Content-Type")
		return false
	}

	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "bad json")
		return false
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return "invalid fields: " + strings.Join(fields, ", ")
}

// pathID reads a UUID path variable.
func pathID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id, ok := mux.Vars(r)[name]
	if !ok {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "missing "+name)
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid "+name)
		return "", false
	}
	return id, true
}

func getClaimsFromContext(w http.ResponseWriter, r *http.Request, c *claims.Claims) bool {
	val, ok := r.Context().Value(claims.TokenContextKey).(*claims.Claims)
	if !ok || val == nil || val.User.ID == "" {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return false
	}
	*c = *val
	return true
}
