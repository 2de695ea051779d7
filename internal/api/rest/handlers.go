package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pawbridge/message-security-backend/internal/domain/errors"
	"github.com/pawbridge/message-security-backend/internal/domain/incident"
	"github.com/pawbridge/message-security-backend/internal/domain/selfdestruct"
	"github.com/pawbridge/message-security-backend/internal/service/accesspolicy"
	"github.com/pawbridge/message-security-backend/internal/service/audit"
	incidentsvc "github.com/pawbridge/message-security-backend/internal/service/incident"
	selfdestructsvc "github.com/pawbridge/message-security-backend/internal/service/selfdestruct"
)

// Handler exposes the message security services over HTTP.
type Handler struct {
	policy    accesspolicy.Service
	destruct  selfdestructsvc.Service
	incidents incidentsvc.Service
	auditLog  audit.Recorder
	logger    *zap.Logger
	validate  *validator.Validate
}

func NewHandler(
	policy accesspolicy.Service,
	destruct selfdestructsvc.Service,
	incidents incidentsvc.Service,
	auditLog audit.Recorder,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		policy:    policy,
		destruct:  destruct,
		incidents: incidents,
		auditLog:  auditLog,
		logger:    logger,
		validate:  validator.New(),
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("PUT /api/v1/messages/{id}/security", h.ConfigureSecurity)
	mux.HandleFunc("GET /api/v1/messages/{id}/security", h.GetSecurityConfig)
	mux.HandleFunc("POST /api/v1/messages/{id}/access", h.EvaluateAccess)

	mux.HandleFunc("PUT /api/v1/messages/{id}/destruct", h.ConfigureDestruct)
	mux.HandleFunc("GET /api/v1/messages/{id}/destruct", h.GetDestructState)
	mux.HandleFunc("POST /api/v1/messages/{id}/views", h.RecordView)
	mux.HandleFunc("POST /api/v1/messages/{id}/destroy", h.Destroy)

	mux.HandleFunc("POST /api/v1/incidents", h.CreateIncident)
	mux.HandleFunc("GET /api/v1/incidents", h.SearchIncidents)
	mux.HandleFunc("GET /api/v1/incidents/{id}", h.GetIncident)
	mux.HandleFunc("PATCH /api/v1/incidents/{id}", h.UpdateIncident)

	mux.HandleFunc("GET /api/v1/access-logs", h.QueryAccessLogs)
}

func (h *Handler) decodeAndValidate(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return err
	}
	return h.validate.Struct(dest)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, errors.NewValidationError("INVALID_ID", "path parameter "+name+" must be a UUID")
	}
	return id, nil
}

// ConfigureSecurity installs or replaces a message's security config.
func (h *Handler) ConfigureSecurity(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req ConfigureSecurityRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	cfg, err := req.ToDomain(messageID)
	if err != nil {
		writeError(w, r, h.logger, errors.NewValidationError("INVALID_CONFIG", err.Error()))
		return
	}

	stored, err := h.policy.Configure(r.Context(), cfg)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewSecurityConfigResponse(stored))
}

// GetSecurityConfig returns a message's active config.
func (h *Handler) GetSecurityConfig(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	cfg, err := h.policy.GetConfig(r.Context(), messageID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewSecurityConfigResponse(cfg))
}

// EvaluateAccess judges one access attempt. A denial is a 200 with
// granted=false; only evaluation failures are errors.
func (h *Handler) EvaluateAccess(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req EvaluateAccessRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	attempt, err := req.ToDomain(messageID)
	if err != nil {
		writeError(w, r, h.logger, errors.NewValidationError("INVALID_ATTEMPT", err.Error()))
		return
	}

	result, err := h.policy.Evaluate(r.Context(), attempt)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewEvaluateAccessResponse(result))
}

// ConfigureDestruct installs a message's self-destruct settings.
func (h *Handler) ConfigureDestruct(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req ConfigureDestructRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	svcReq, err := req.ToService()
	if err != nil {
		writeError(w, r, h.logger, errors.NewValidationError("INVALID_DESTRUCT_CONFIG", err.Error()))
		return
	}

	state, err := h.destruct.Configure(r.Context(), messageID, svcReq)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewDestructStateResponse(state))
}

// GetDestructState returns the current self-destruct state, lazily applying
// any passed deadline.
func (h *Handler) GetDestructState(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	state, err := h.destruct.Get(r.Context(), messageID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewDestructStateResponse(state))
}

// RecordView applies one granted view. When the view destroys the message the
// response still carries the final state; the conflict on an
// already-destroyed message is an error.
func (h *Handler) RecordView(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req RecordViewRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	state, err := h.destruct.RecordView(r.Context(), messageID, req.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewDestructStateResponse(state))
}

// Destroy forces destruction. Idempotent. The body is optional; a supplied
// reason is logged alongside the destruction.
func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) {
	messageID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req DestroyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	state, err := h.destruct.Destroy(r.Context(), messageID, selfdestruct.MethodManual)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("message destroyed on request",
		zap.String("message_id", messageID.String()),
		zap.String("reason", req.Reason))

	writeJSON(w, http.StatusOK, NewDestructStateResponse(state))
}

// CreateIncident opens a manually-reported incident.
func (h *Handler) CreateIncident(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	svcReq, err := req.ToService()
	if err != nil {
		writeError(w, r, h.logger, errors.NewValidationError("INVALID_INCIDENT", err.Error()))
		return
	}

	inc, err := h.incidents.Create(r.Context(), svcReq)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, NewIncidentResponse(inc))
}

// GetIncident returns one incident.
func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	inc, err := h.incidents.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewIncidentResponse(inc))
}

// UpdateIncident applies a partial update, validating any status change
// against the forward-only lifecycle.
func (h *Handler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req UpdateIncidentRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	svcReq, err := req.ToService()
	if err != nil {
		writeError(w, r, h.logger, errors.NewValidationError("INVALID_INCIDENT", err.Error()))
		return
	}

	inc, err := h.incidents.Update(r.Context(), id, svcReq)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, NewIncidentResponse(inc))
}

// SearchIncidents lists incidents matching the query parameters.
func (h *Handler) SearchIncidents(w http.ResponseWriter, r *http.Request) {
	filters, err := incidentFiltersFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.incidents.Search(r.Context(), filters)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := IncidentPageResponse{
		Incidents: make([]*IncidentResponse, 0, len(page.Incidents)),
		Total:     page.Total,
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	for _, inc := range page.Incidents {
		resp.Incidents = append(resp.Incidents, NewIncidentResponse(inc))
	}

	writeJSON(w, http.StatusOK, resp)
}

// QueryAccessLogs pages through the audit trail.
func (h *Handler) QueryAccessLogs(w http.ResponseWriter, r *http.Request) {
	filters, err := auditFiltersFromQuery(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	page, err := h.auditLog.Query(r.Context(), filters)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := AccessLogPageResponse{
		Records: make([]*AccessLogResponse, 0, len(page.Records)),
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	for _, rec := range page.Records {
		resp.Records = append(resp.Records, NewAccessLogResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

func incidentFiltersFromQuery(r *http.Request) (incidentsvc.SearchFilters, error) {
	q := r.URL.Query()
	var filters incidentsvc.SearchFilters

	if v := q.Get("message_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filters, errors.NewValidationError("INVALID_FILTER", "message_id must be a UUID")
		}
		filters.MessageID = &id
	}
	if v := q.Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filters, errors.NewValidationError("INVALID_FILTER", "user_id must be a UUID")
		}
		filters.UserID = &id
	}
	if v := q.Get("status"); v != "" {
		status, err := incident.ParseStatus(v)
		if err != nil {
			return filters, errors.NewValidationError("INVALID_FILTER", err.Error())
		}
		filters.Status = &status
	}
	if v := q.Get("severity"); v != "" {
		severity, err := incident.ParseSeverity(v)
		if err != nil {
			return filters, errors.NewValidationError("INVALID_FILTER", err.Error())
		}
		filters.Severity = &severity
	}
	if v := q.Get("type"); v != "" {
		incidentType, err := incident.ParseType(v)
		if err != nil {
			return filters, errors.NewValidationError("INVALID_FILTER", err.Error())
		}
		filters.Type = &incidentType
	}

	from, to, err := timeRangeFromQuery(q.Get("from"), q.Get("to"))
	if err != nil {
		return filters, err
	}
	filters.From, filters.To = from, to

	filters.SortBy = incidentsvc.SortField(q.Get("sort_by"))
	filters.SortDesc = q.Get("order") != "asc"
	filters.Limit, filters.Offset, err = paginationFromQuery(q.Get("limit"), q.Get("offset"))
	if err != nil {
		return filters, err
	}

	return filters, nil
}

func auditFiltersFromQuery(r *http.Request) (audit.QueryFilters, error) {
	q := r.URL.Query()
	var filters audit.QueryFilters

	if v := q.Get("message_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filters, errors.NewValidationError("INVALID_FILTER", "message_id must be a UUID")
		}
		filters.MessageID = &id
	}
	if v := q.Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return filters, errors.NewValidationError("INVALID_FILTER", "user_id must be a UUID")
		}
		filters.UserID = &id
	}
	if v := q.Get("granted"); v != "" {
		granted, err := strconv.ParseBool(v)
		if err != nil {
			return filters, errors.NewValidationError("INVALID_FILTER", "granted must be a boolean")
		}
		filters.Granted = &granted
	}

	from, to, err := timeRangeFromQuery(q.Get("from"), q.Get("to"))
	if err != nil {
		return filters, err
	}
	filters.From, filters.To = from, to

	filters.Limit, filters.Offset, err = paginationFromQuery(q.Get("limit"), q.Get("offset"))
	if err != nil {
		return filters, err
	}

	return filters, nil
}

func timeRangeFromQuery(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return nil, nil, errors.NewValidationError("INVALID_FILTER", "from must be RFC 3339")
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return nil, nil, errors.NewValidationError("INVALID_FILTER", "to must be RFC 3339")
		}
		to = &t
	}
	return from, to, nil
}

func paginationFromQuery(limitStr, offsetStr string) (limit, offset int, err error) {
	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return 0, 0, errors.NewValidationError("INVALID_FILTER", "limit must be a non-negative integer")
		}
	}
	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, errors.NewValidationError("INVALID_FILTER", "offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}
