package permissions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/httputil"
	"github.com/sirupsen/logrus"
)

// Handlers serves the permission document endpoints
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

type updateRequest struct {
	Permissions json.RawMessage `json:"permissions"`
}

// GetPermissions handles GET /api/admin/users/{userId}/permissions. Callers
// may only read documents of users they could manage.
func (h *Handlers) GetPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	if err := h.service.CheckManage(r.Context(), actor, userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	doc, err := h.service.GetPermissions(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"userId":      userID,
		"permissions": doc,
	})
}

// UpdatePermissions handles PUT /api/admin/users/{userId}/permissions
func (h *Handlers) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req updateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if len(req.Permissions) == 0 {
		httputil.WriteValidationError(w, "Permissions object required")
		return
	}
	patch, err := ValidatePatch(req.Permissions)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.service.CheckManage(r.Context(), actor, userID); err != nil {
		h.writeError(w, r, err)
		return
	}

	doc, err := h.service.UpdatePermissions(r.Context(), userID, patch, actor.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccessMessage(w, "Permissions updated successfully", map[string]interface{}{
		"userId":      userID,
		"permissions": doc,
	})
}

// InitializePermissions handles POST /api/admin/users/{userId}/permissions/initialize
func (h *Handlers) InitializePermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	doc, err := h.service.InitializePermissions(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccessMessage(w, "Permissions initialized successfully", map[string]interface{}{
		"userId":      userID,
		"permissions": doc,
	})
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		httputil.WriteAPIError(w, httputil.NewAPIError(http.StatusBadRequest, httputil.CodePermissionConflict,
			"Permission conflicts detected").WithDetails(map[string]interface{}{"conflicts": conflict.Conflicts}))
	case errors.Is(err, ErrInvalidDocument):
		httputil.WriteAPIError(w, httputil.Validation("Invalid permission structure").
			WithDetails(map[string]interface{}{"error": err.Error()}))
	case errors.Is(err, ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, ErrTargetNotManageable):
		httputil.WriteForbidden(w, httputil.CodeInsufficientPermissions, err.Error())
	case errors.Is(err, ErrTargetOutsideZones):
		httputil.WriteForbidden(w, httputil.CodeZoneMismatch, err.Error())
	default:
		httputil.LoggerFromRequest(r, h.log).WithError(err).Error("permission request failed")
		httputil.WriteInternalError(w)
	}
}
