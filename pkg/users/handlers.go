package users

import (
	"errors"
	"net/http"

	"github.com/cleancare/ccadmin/pkg/httputil"
	"github.com/cleancare/ccadmin/pkg/scope"
	"github.com/sirupsen/logrus"
)

// Handlers serves the user listing endpoints
type Handlers struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandlers(service *Service, log logrus.FieldLogger) *Handlers {
	if log == nil {
		log = service.log
	}
	return &Handlers{service: service, log: log}
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{
		Role:                q.Get("role"),
		CityCorporationCode: q.Get(scope.ParamCityCorporation),
		Status:              q.Get("status"),
	}
	var err error
	if f.ZoneID, err = httputil.ParseQueryInt64Ptr(r, scope.ParamZone); err != nil {
		return Filter{}, err
	}
	if f.WardID, err = httputil.ParseQueryInt64Ptr(r, scope.ParamWard); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// ListUsers handles GET /api/admin/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	res, ok := scope.ForRequest(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	page, err := httputil.ParseQueryInt(r, "page", 1)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}
	limit, err := httputil.ParseQueryInt(r, "limit", DefaultLimit)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	result, err := h.service.List(r.Context(), res, ListQuery{Filter: f, Page: page, Limit: limit})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, result)
}

// GetStats handles GET /api/admin/users/stats
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	res, ok := scope.ForRequest(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	stats, err := h.service.Stats(r.Context(), res, f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, stats)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PATCH /api/admin/users/{userId}/status
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	res, ok := scope.ForRequest(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	var req statusRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := h.service.UpdateStatus(r.Context(), res, userID, req.Status); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccessMessage(w, "User status updated successfully", map[string]interface{}{
		"userId": userID,
		"status": req.Status,
	})
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidStatus):
		httputil.WriteValidationError(w, err.Error())
	case errors.Is(err, ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	default:
		httputil.LoggerFromRequest(r, h.log).WithError(err).Error("user request failed")
		httputil.WriteInternalError(w)
	}
}
