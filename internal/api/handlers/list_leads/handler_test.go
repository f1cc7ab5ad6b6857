package list_leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/AgencyBookingService/internal/api/handlers"
	"github.com/m04kA/AgencyBookingService/internal/service/bookings/models"
)

type stubService struct {
	got *models.ListLeadsRequest
	err error
}

func (s *stubService) ListByDate(_ context.Context, req *models.ListLeadsRequest) (*models.LeadListResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.LeadListResponse{Leads: []models.LeadResponse{
		{ID: 1, MeetingDate: "2025-03-10", MeetingTime: "9:00", Status: "pending"},
		{ID: 2, MeetingDate: "2025-03-10", MeetingTime: "11:00", Status: "cancelled"},
	}}, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func serve(svc *stubService, target string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/api/v1/leads", NewHandler(svc, nopLogger{}).Handle).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandler_Success(t *testing.T) {
	svc := &stubService{}

	rec := serve(svc, "/api/v1/leads?date=2025-03-10&includeCancelled=true")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.got)
	assert.True(t, svc.got.IncludeCancelled)
	assert.Equal(t, "2025-03-10", svc.got.Date.Format(time.DateOnly))

	var body models.LeadListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Leads, 2)
	assert.Equal(t, "cancelled", body.Leads[1].Status)
}

func TestHandler_ActiveOnlyByDefault(t *testing.T) {
	svc := &stubService{}

	rec := serve(svc, "/api/v1/leads?date=2025-03-10")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.got)
	assert.False(t, svc.got.IncludeCancelled)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "missing date", target: "/api/v1/leads", wantCode: http.StatusBadRequest, wantMsg: msgMissingDate},
		{name: "bad date", target: "/api/v1/leads?date=10.03.2025", wantCode: http.StatusBadRequest, wantMsg: msgInvalidDate},
		{
			name: "bad includeCancelled", target: "/api/v1/leads?date=2025-03-10&includeCancelled=maybe",
			wantCode: http.StatusBadRequest, wantMsg: msgInvalidParams,
		},
		{name: "service failure", target: "/api/v1/leads?date=2025-03-10", err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{err: tt.err}
			rec := serve(svc, tt.target)
			assert.Equal(t, tt.wantCode, rec.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantMsg != "" {
				assert.Equal(t, handlers.CodeBadRequest, body.Code)
				assert.Equal(t, tt.wantMsg, body.Message)
				assert.Nil(t, svc.got, "invalid request does not reach the service")
			}
		})
	}
}
