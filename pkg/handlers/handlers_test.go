package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"churchcheckin/pkg/attendance"
	"churchcheckin/pkg/claims"
	"churchcheckin/pkg/member"
	"churchcheckin/pkg/scanlog"
	"churchcheckin/pkg/target"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	memberID     = "6f1c3a52-5f5e-4f8e-9a53-2f6a1a0b7c01"
	otherMember  = "6f1c3a52-5f5e-4f8e-9a53-2f6a1a0b7c02"
	targetID     = "9d2b7c10-7e4a-4c1b-8f3e-0b5d1e2a3c04"
	attendanceID = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c05"
)

var (
	testLogger    = slog.New(slog.NewTextHandler(io.Discard, nil))
	defaultClaims = claims.New("leader", "op-1")
	fixedNow      = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func withClaims(req *http.Request) *http.Request {
	ctx := context.WithValue(req.Context(), claims.TokenContextKey, defaultClaims)
	return req.WithContext(ctx)
}

func jsonRequest(t *testing.T, method, path string, body any, vars map[string]string) *http.Request {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return withClaims(req)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorResponse {
	var e errorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&e))
	return e
}

type mockMemberService struct {
	mock.Mock
}

func (m *mockMemberService) Register(_ context.Context, firstName, lastName, email string) (*member.Member, error) {
	args := m.Called(firstName, lastName, email)
	if v := args.Get(0); v != nil {
		return v.(*member.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockMemberService) Get(_ context.Context, id string) (*member.Member, error) {
	args := m.Called(id)
	if v := args.Get(0); v != nil {
		return v.(*member.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTargetService struct {
	mock.Mock
}

func (m *mockTargetService) Create(_ context.Context, name string, kind target.Kind, startsAt *time.Time) (*target.Target, error) {
	args := m.Called(name, kind, startsAt)
	if v := args.Get(0); v != nil {
		return v.(*target.Target), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTargetService) Get(_ context.Context, id string) (*target.Target, error) {
	args := m.Called(id)
	if v := args.Get(0); v != nil {
		return v.(*target.Target), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAttendanceService struct {
	mock.Mock
}

func (m *mockAttendanceService) CheckIn(_ context.Context, memberID, targetID string, kind attendance.AttendeeType) (*attendance.Record, error) {
	args := m.Called(memberID, targetID, kind)
	if v := args.Get(0); v != nil {
		return v.(*attendance.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAttendanceService) CheckInBulk(_ context.Context, targetID string, entries []attendance.Entry) ([]*attendance.Record, error) {
	args := m.Called(targetID, entries)
	if v := args.Get(0); v != nil {
		return v.([]*attendance.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAttendanceService) CheckOut(_ context.Context, id string) (*attendance.Record, error) {
	args := m.Called(id)
	if v := args.Get(0); v != nil {
		return v.(*attendance.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAttendanceService) ScanCheckIn(_ context.Context, token, memberID string, kind attendance.AttendeeType) (*attendance.Record, error) {
	args := m.Called(token, memberID, kind)
	if v := args.Get(0); v != nil {
		return v.(*attendance.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAttendanceService) ListByTarget(_ context.Context, targetID string) ([]*attendance.Record, error) {
	args := m.Called(targetID)
	if v := args.Get(0); v != nil {
		return v.([]*attendance.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockScanLog struct {
	mock.Mock
}

func (m *mockScanLog) Record(_ context.Context, e *scanlog.Entry) error {
	return m.Called(e).Error(0)
}

func (m *mockScanLog) ListByTarget(_ context.Context, targetID string, limit int64) ([]*scanlog.Entry, error) {
	args := m.Called(targetID, limit)
	if v := args.Get(0); v != nil {
		return v.([]*scanlog.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}
