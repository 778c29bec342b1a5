package zones

import (
	"errors"
	"net/http"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/httputil"
	"github.com/sirupsen/logrus"
)

// Handlers serves the zone assignment endpoints. Route registration and the
// authorization chain in front of each handler live in the api package.
type Handlers struct {
	registry *Registry
	log      logrus.FieldLogger
}

func NewHandlers(registry *Registry, log logrus.FieldLogger) *Handlers {
	if log == nil {
		log = registry.log
	}
	return &Handlers{registry: registry, log: log}
}

func actorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return 0, false
	}
	return actor.UserID, true
}

type assignRequest struct {
	ZoneIDs []int64 `json:"zoneIds"`
}

// GetAssignedZones handles GET /api/admin/super-admins/{userId}/zones
func (h *Handlers) GetAssignedZones(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}

	zones, err := h.registry.AssignedZones(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ids := make([]int64, 0, len(zones))
	for _, z := range zones {
		ids = append(ids, z.ID)
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"userId":  userID,
		"zoneIds": ids,
		"zones":   zones,
	})
}

// AssignZones handles POST /api/admin/super-admins/{userId}/zones
func (h *Handlers) AssignZones(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, false)
}

// UpdateZones handles PUT /api/admin/super-admins/{userId}/zones
func (h *Handlers) UpdateZones(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, true)
}

func (h *Handlers) write(w http.ResponseWriter, r *http.Request, update bool) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	var req assignRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var err error
	message := "Zones assigned successfully"
	if update {
		err = h.registry.Update(r.Context(), userID, req.ZoneIDs, actor)
		message = "Zone assignments updated successfully"
	} else {
		err = h.registry.Assign(r.Context(), userID, req.ZoneIDs, actor)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteSuccessMessage(w, message, map[string]interface{}{
		"userId":  userID,
		"zoneIds": req.ZoneIDs,
	})
}

// RemoveZone handles DELETE /api/admin/super-admins/{userId}/zones/{zoneId}
func (h *Handlers) RemoveZone(w http.ResponseWriter, r *http.Request) {
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userId")
	if !ok {
		return
	}
	zoneID, ok := httputil.ParsePathInt64OrError(w, r, "zoneId")
	if !ok {
		return
	}
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	if err := h.registry.Remove(r.Context(), userID, zoneID, actor); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccessMessage(w, "Zone removed successfully", nil)
}

// GetSuperAdmins handles GET /api/admin/zones/{zoneId}/super-admins
func (h *Handlers) GetSuperAdmins(w http.ResponseWriter, r *http.Request) {
	zoneID, ok := httputil.ParsePathInt64OrError(w, r, "zoneId")
	if !ok {
		return
	}

	admins, err := h.registry.SuperAdminsByZone(r.Context(), zoneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"zoneId":      zoneID,
		"superAdmins": admins,
	})
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.WriteAPIError(w, httputil.Validation(verr.Message).WithDetails(map[string]interface{}{
			"reason": verr.Reason,
		}))
	case errors.Is(err, ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	default:
		httputil.LoggerFromRequest(r, h.log).WithError(err).WithField("path", r.URL.Path).
			Error("zone assignment request failed")
		httputil.WriteInternalError(w)
	}
}
