package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/domain/access"
	domainerrors "github.com/pawbridge/message-security-backend/internal/domain/errors"
	"github.com/pawbridge/message-security-backend/internal/domain/incident"
	"github.com/pawbridge/message-security-backend/internal/domain/message"
	"github.com/pawbridge/message-security-backend/internal/domain/selfdestruct"
	"github.com/pawbridge/message-security-backend/internal/service/audit"
	incidentsvc "github.com/pawbridge/message-security-backend/internal/service/incident"
	selfdestructsvc "github.com/pawbridge/message-security-backend/internal/service/selfdestruct"
)

type stubPolicy struct {
	configureFn func(ctx context.Context, cfg *message.SecurityConfig) (*message.SecurityConfig, error)
	getFn       func(ctx context.Context, messageID uuid.UUID) (*message.SecurityConfig, error)
	evaluateFn  func(ctx context.Context, attempt access.Context) (*access.ValidationResult, error)
}

func (s *stubPolicy) Configure(ctx context.Context, cfg *message.SecurityConfig) (*message.SecurityConfig, error) {
	return s.configureFn(ctx, cfg)
}

func (s *stubPolicy) GetConfig(ctx context.Context, messageID uuid.UUID) (*message.SecurityConfig, error) {
	return s.getFn(ctx, messageID)
}

func (s *stubPolicy) Evaluate(ctx context.Context, attempt access.Context) (*access.ValidationResult, error) {
	return s.evaluateFn(ctx, attempt)
}

type stubDestruct struct {
	configureFn  func(ctx context.Context, messageID uuid.UUID, req selfdestructsvc.ConfigureRequest) (*selfdestruct.State, error)
	recordViewFn func(ctx context.Context, messageID, userID uuid.UUID) (*selfdestruct.State, error)
	destroyFn    func(ctx context.Context, messageID uuid.UUID, method string) (*selfdestruct.State, error)
	getFn        func(ctx context.Context, messageID uuid.UUID) (*selfdestruct.State, error)
}

func (s *stubDestruct) Configure(ctx context.Context, messageID uuid.UUID, req selfdestructsvc.ConfigureRequest) (*selfdestruct.State, error) {
	return s.configureFn(ctx, messageID, req)
}

func (s *stubDestruct) RecordView(ctx context.Context, messageID, userID uuid.UUID) (*selfdestruct.State, error) {
	return s.recordViewFn(ctx, messageID, userID)
}

func (s *stubDestruct) Destroy(ctx context.Context, messageID uuid.UUID, method string) (*selfdestruct.State, error) {
	return s.destroyFn(ctx, messageID, method)
}

func (s *stubDestruct) Get(ctx context.Context, messageID uuid.UUID) (*selfdestruct.State, error) {
	return s.getFn(ctx, messageID)
}

type stubIncidents struct {
	createFn func(ctx context.Context, req incidentsvc.CreateRequest) (*incident.Incident, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*incident.Incident, error)
	updateFn func(ctx context.Context, id uuid.UUID, req incidentsvc.UpdateRequest) (*incident.Incident, error)
	searchFn func(ctx context.Context, filters incidentsvc.SearchFilters) (*incidentsvc.Page, error)
}

func (s *stubIncidents) Create(ctx context.Context, req incidentsvc.CreateRequest) (*incident.Incident, error) {
	return s.createFn(ctx, req)
}

func (s *stubIncidents) Get(ctx context.Context, id uuid.UUID) (*incident.Incident, error) {
	return s.getFn(ctx, id)
}

func (s *stubIncidents) Update(ctx context.Context, id uuid.UUID, req incidentsvc.UpdateRequest) (*incident.Incident, error) {
	return s.updateFn(ctx, id, req)
}

func (s *stubIncidents) Search(ctx context.Context, filters incidentsvc.SearchFilters) (*incidentsvc.Page, error) {
	return s.searchFn(ctx, filters)
}

type stubRecorder struct {
	queryFn func(ctx context.Context, filters audit.QueryFilters) (*audit.Page, error)
}

func (s *stubRecorder) Record(ctx context.Context, record *access.AttemptRecord) error {
	return nil
}

func (s *stubRecorder) Query(ctx context.Context, filters audit.QueryFilters) (*audit.Page, error) {
	return s.queryFn(ctx, filters)
}

func newTestMux(policy *stubPolicy, destruct *stubDestruct, incidents *stubIncidents, recorder *stubRecorder) *http.ServeMux {
	if policy == nil {
		policy = &stubPolicy{}
	}
	if destruct == nil {
		destruct = &stubDestruct{}
	}
	if incidents == nil {
		incidents = &stubIncidents{}
	}
	if recorder == nil {
		recorder = &stubRecorder{}
	}
	mux := http.NewServeMux()
	NewHandler(policy, destruct, incidents, recorder, zap.NewNop()).Register(mux)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestConfigureSecurity(t *testing.T) {
	messageID := uuid.New()

	policy := &stubPolicy{
		configureFn: func(ctx context.Context, cfg *message.SecurityConfig) (*message.SecurityConfig, error) {
			return cfg, nil
		},
	}
	mux := newTestMux(policy, nil, nil, nil)

	t.Run("success", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPut, "/api/v1/messages/"+messageID.String()+"/security", ConfigureSecurityRequest{
			SecurityLevel:          "elevated",
			GeographicRestrictions: []string{"GB"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp SecurityConfigResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, messageID, resp.MessageID)
		assert.Equal(t, "elevated", resp.SecurityLevel)
	})

	t.Run("invalid path id", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPut, "/api/v1/messages/not-a-uuid/security", ConfigureSecurityRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ID", decodeError(t, rec).Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPut, "/api/v1/messages/"+messageID.String()+"/security", ConfigureSecurityRequest{
			GeographicRestrictions: []string{"USA"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Code)
	})

	t.Run("message not found", func(t *testing.T) {
		policy.configureFn = func(ctx context.Context, cfg *message.SecurityConfig) (*message.SecurityConfig, error) {
			return nil, domainerrors.ErrMessageNotFound
		}
		rec := doJSON(t, mux, http.MethodPut, "/api/v1/messages/"+messageID.String()+"/security", ConfigureSecurityRequest{})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestEvaluateAccess(t *testing.T) {
	messageID := uuid.New()

	t.Run("denial is a 200", func(t *testing.T) {
		policy := &stubPolicy{
			evaluateFn: func(ctx context.Context, attempt access.Context) (*access.ValidationResult, error) {
				assert.Equal(t, messageID, attempt.MessageID)
				assert.False(t, attempt.AttemptedAt.IsZero(), "attempt time is stamped server-side")
				return access.Deny(messageID, access.DenialGeoRestricted, 0), nil
			},
		}
		mux := newTestMux(policy, nil, nil, nil)

		rec := doJSON(t, mux, http.MethodPost, "/api/v1/messages/"+messageID.String()+"/access", EvaluateAccessRequest{
			UserID:  uuid.New(),
			Country: "US",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp EvaluateAccessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Granted)
		assert.Equal(t, "geo_restricted", resp.DenialCode)
	})

	t.Run("audit failure is a 500", func(t *testing.T) {
		policy := &stubPolicy{
			evaluateFn: func(ctx context.Context, attempt access.Context) (*access.ValidationResult, error) {
				return nil, domainerrors.NewAuditWriteError(fmt.Errorf("disk full"))
			},
		}
		mux := newTestMux(policy, nil, nil, nil)

		rec := doJSON(t, mux, http.MethodPost, "/api/v1/messages/"+messageID.String()+"/access", EvaluateAccessRequest{
			UserID: uuid.New(),
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "AUDIT_WRITE_FAILED", decodeError(t, rec).Code)
	})

	t.Run("missing user id rejected", func(t *testing.T) {
		mux := newTestMux(&stubPolicy{}, nil, nil, nil)
		rec := doJSON(t, mux, http.MethodPost, "/api/v1/messages/"+messageID.String()+"/access", EvaluateAccessRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRecordView(t *testing.T) {
	messageID := uuid.New()

	t.Run("already destroyed maps to 409", func(t *testing.T) {
		destruct := &stubDestruct{
			recordViewFn: func(ctx context.Context, mid, uid uuid.UUID) (*selfdestruct.State, error) {
				return nil, domainerrors.NewAlreadyDestroyedError(mid.String())
			},
		}
		mux := newTestMux(nil, destruct, nil, nil)

		rec := doJSON(t, mux, http.MethodPost, "/api/v1/messages/"+messageID.String()+"/views", RecordViewRequest{UserID: uuid.New()})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "ALREADY_DESTROYED", decodeError(t, rec).Code)
	})

	t.Run("destroying view returns final state", func(t *testing.T) {
		now := time.Now()
		destruct := &stubDestruct{
			recordViewFn: func(ctx context.Context, mid, uid uuid.UUID) (*selfdestruct.State, error) {
				return &selfdestruct.State{
					ID: uuid.New(), MessageID: mid,
					Mode: selfdestruct.ModeViewCount, Destroyed: true,
					DestroyedAt: &now, DestructionMethod: selfdestruct.MethodViewLimitReached,
					ViewCount: 1,
				}, nil
			},
		}
		mux := newTestMux(nil, destruct, nil, nil)

		rec := doJSON(t, mux, http.MethodPost, "/api/v1/messages/"+messageID.String()+"/views", RecordViewRequest{UserID: uuid.New()})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp DestructStateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Destroyed)
		assert.Equal(t, selfdestruct.MethodViewLimitReached, resp.DestructionMethod)
	})
}

func TestDestroy(t *testing.T) {
	messageID := uuid.New()
	now := time.Now()
	destruct := &stubDestruct{
		destroyFn: func(ctx context.Context, mid uuid.UUID, method string) (*selfdestruct.State, error) {
			assert.Equal(t, selfdestruct.MethodManual, method)
			return &selfdestruct.State{
				ID: uuid.New(), MessageID: mid,
				Mode: selfdestruct.ModeTimer, Destroyed: true,
				DestroyedAt: &now, DestructionMethod: selfdestruct.MethodManual,
			}, nil
		},
	}
	mux := newTestMux(nil, destruct, nil, nil)

	t.Run("body is optional", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/api/v1/messages/"+messageID.String()+"/destroy", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp DestructStateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Destroyed)
		assert.Equal(t, selfdestruct.MethodManual, resp.DestructionMethod)
	})

	t.Run("reason accepted", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/api/v1/messages/"+messageID.String()+"/destroy",
			DestroyRequest{Reason: "sender recall"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("oversize reason rejected", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodPost, "/api/v1/messages/"+messageID.String()+"/destroy",
			DestroyRequest{Reason: strings.Repeat("x", 300)})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUpdateIncident(t *testing.T) {
	id := uuid.New()

	t.Run("illegal transition maps to 409", func(t *testing.T) {
		incidents := &stubIncidents{
			updateFn: func(ctx context.Context, incID uuid.UUID, req incidentsvc.UpdateRequest) (*incident.Incident, error) {
				return nil, domainerrors.NewIllegalTransitionError("resolved", "open")
			},
		}
		mux := newTestMux(nil, nil, incidents, nil)

		status := "open"
		rec := doJSON(t, mux, http.MethodPatch, "/api/v1/incidents/"+id.String(), UpdateIncidentRequest{Status: &status})
		assert.Equal(t, http.StatusConflict, rec.Code)

		detail := decodeError(t, rec)
		assert.Equal(t, "ILLEGAL_STATE_TRANSITION", detail.Code)
		assert.Equal(t, "resolved", detail.Details["current_status"])
	})

	t.Run("unknown status rejected before the service", func(t *testing.T) {
		mux := newTestMux(nil, nil, &stubIncidents{}, nil)
		status := "reopened"
		rec := doJSON(t, mux, http.MethodPatch, "/api/v1/incidents/"+id.String(), UpdateIncidentRequest{Status: &status})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSearchIncidents_QueryParsing(t *testing.T) {
	var captured incidentsvc.SearchFilters
	incidents := &stubIncidents{
		searchFn: func(ctx context.Context, filters incidentsvc.SearchFilters) (*incidentsvc.Page, error) {
			captured = filters
			return &incidentsvc.Page{Incidents: []*incident.Incident{}, Limit: filters.Limit}, nil
		},
	}
	mux := newTestMux(nil, nil, incidents, nil)

	rec := doJSON(t, mux, http.MethodGet,
		"/api/v1/incidents?status=open&severity=high&sort_by=severity&order=desc&limit=25", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NotNil(t, captured.Status)
	assert.Equal(t, incident.StatusOpen, *captured.Status)
	require.NotNil(t, captured.Severity)
	assert.Equal(t, incident.SeverityHigh, *captured.Severity)
	assert.Equal(t, incidentsvc.SortBySeverity, captured.SortBy)
	assert.True(t, captured.SortDesc)
	assert.Equal(t, 25, captured.Limit)

	t.Run("bad filter rejected", func(t *testing.T) {
		rec := doJSON(t, mux, http.MethodGet, "/api/v1/incidents?message_id=nope", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQueryAccessLogs(t *testing.T) {
	messageID := uuid.New()
	recorder := &stubRecorder{
		queryFn: func(ctx context.Context, filters audit.QueryFilters) (*audit.Page, error) {
			require.NotNil(t, filters.MessageID)
			assert.Equal(t, messageID, *filters.MessageID)
			rec := access.NewAttemptRecord(access.Context{
				MessageID:   messageID,
				UserID:      uuid.New(),
				AttemptedAt: time.Now(),
			}, false, access.DenialIPBlacklisted, 0)
			return &audit.Page{Records: []*access.AttemptRecord{rec}, Total: 1, Limit: 50}, nil
		},
	}
	mux := newTestMux(nil, nil, nil, recorder)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/access-logs?message_id="+messageID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AccessLogPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "ip_blacklisted", resp.Records[0].DenialReason)
	assert.Equal(t, 1, resp.Total)
}
