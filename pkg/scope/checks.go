package scope

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cleancare/ccadmin/pkg/auth"
	"github.com/cleancare/ccadmin/pkg/geo"
	"github.com/cleancare/ccadmin/pkg/httputil"
	"github.com/cleancare/ccadmin/pkg/permissions"
)

// RequireRole admits callers holding one of roles
func (rv *Resolver) RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return rv.middleware(rv.roleStep(roles))
}

// RequireMasterAdmin admits Master Admins only
func (rv *Resolver) RequireMasterAdmin() func(http.Handler) http.Handler {
	return rv.RequireRole(auth.RoleMasterAdmin)
}

// RequireMasterOrSuperAdmin admits Master and Super Admins
func (rv *Resolver) RequireMasterOrSuperAdmin() func(http.Handler) http.Handler {
	return rv.RequireRole(auth.RoleMasterAdmin, auth.RoleSuperAdmin)
}

// RequireAnyAdmin admits every admin tier
func (rv *Resolver) RequireAnyAdmin() func(http.Handler) http.Handler {
	return rv.RequireRole(auth.AdminRoles...)
}

func (rv *Resolver) roleStep(roles []auth.Role) step {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return step{
		name:  "require_role",
		state: StateRoleChecked,
		fault: "Error checking role",
		run: func(_ context.Context, _ *http.Request, res *Resolved) (*httputil.APIError, error) {
			if res.Identity.HasRole(roles...) {
				return nil, nil
			}
			return httputil.Forbidden(httputil.CodeRoleNotAuthorized,
				"Access denied. Required roles: "+strings.Join(names, ", ")).
				WithDetails(map[string]interface{}{
					"userRole":      res.Identity.Role,
					"requiredRoles": names,
				}), nil
		},
	}
}

// FilterByAssignedZones records the zones the caller may see. Master Admins
// are left unrestricted, Admins get their profile zone and Super Admins their
// assigned zones. A Super Admin naming a zone outside that set is denied.
func (rv *Resolver) FilterByAssignedZones() func(http.Handler) http.Handler {
	return rv.middleware(rv.assignedZonesStep())
}

func (rv *Resolver) assignedZonesStep() step {
	return step{
		name:  "filter_by_assigned_zones",
		state: StateZonePopulated,
		fault: "Error processing zone authorization",
		run: func(ctx context.Context, r *http.Request, res *Resolved) (*httputil.APIError, error) {
			id := res.Identity
			switch id.Role {
			case auth.RoleAdmin:
				if id.ZoneID != nil {
					res.AssignedZoneIDs = []int64{*id.ZoneID}
					res.zonesLoaded = true
				}
			case auth.RoleSuperAdmin:
				allowed, err := rv.superAdminZones(ctx, res)
				if err != nil {
					return nil, err
				}
				zoneID, present, err := requestedID(r, res, ParamZone)
				if present && err == nil && !contains(allowed, zoneID) {
					return zoneMismatch(allowed, zoneID), nil
				}
			}
			return nil, nil
		},
	}
}

// ValidateCityCorporationAccess denies callers naming another City Corporation
func (rv *Resolver) ValidateCityCorporationAccess() func(http.Handler) http.Handler {
	return rv.middleware(rv.cityCorporationStep())
}

func (rv *Resolver) cityCorporationStep() step {
	return step{
		name:  "validate_city_corporation",
		state: StateAuthorized,
		fault: "Error validating city corporation access",
		run: func(_ context.Context, r *http.Request, res *Resolved) (*httputil.APIError, error) {
			id := res.Identity
			if id.Role == auth.RoleMasterAdmin {
				return nil, nil
			}
			code, present := requested(r, res, ParamCityCorporation)
			if !present || code == id.CityCorporationCode {
				return nil, nil
			}
			return httputil.Forbidden(httputil.CodeCityCorporationMismatch,
				"You do not have access to this City Corporation").
				WithDetails(map[string]interface{}{
					"userCityCorporation":      id.CityCorporationCode,
					"requestedCityCorporation": code,
				}), nil
		},
	}
}

// ValidateZoneAccess checks an explicitly requested zone. Admins are denied
// zone-level requests outright.
func (rv *Resolver) ValidateZoneAccess() func(http.Handler) http.Handler {
	return rv.middleware(rv.zoneStep())
}

func (rv *Resolver) zoneStep() step {
	return step{
		name:  "validate_zone",
		state: StateAuthorized,
		fault: "Error validating zone access",
		run: func(ctx context.Context, r *http.Request, res *Resolved) (*httputil.APIError, error) {
			id := res.Identity
			if id.Role == auth.RoleMasterAdmin {
				return nil, nil
			}
			zoneID, present, err := requestedID(r, res, ParamZone)
			if !present {
				return nil, nil
			}
			if err != nil {
				return httputil.Validation("Invalid zone ID format"), nil
			}

			switch id.Role {
			case auth.RoleAdmin:
				return httputil.Forbidden(httputil.CodeInsufficientPermissions,
					"Admins cannot access zone-level data"), nil
			case auth.RoleSuperAdmin:
				allowed, err := rv.superAdminZones(ctx, res)
				if err != nil {
					return nil, err
				}
				if !contains(allowed, zoneID) {
					return zoneMismatch(allowed, zoneID), nil
				}
			}
			return nil, nil
		},
	}
}

// ValidateWardAccess checks an explicitly requested ward. Admins may only name
// their own ward; Super Admins may name wards whose zone is in their scope.
func (rv *Resolver) ValidateWardAccess() func(http.Handler) http.Handler {
	return rv.middleware(rv.wardStep())
}

func (rv *Resolver) wardStep() step {
	return step{
		name:  "validate_ward",
		state: StateAuthorized,
		fault: "Error validating ward access",
		run: func(ctx context.Context, r *http.Request, res *Resolved) (*httputil.APIError, error) {
			id := res.Identity
			if id.Role == auth.RoleMasterAdmin {
				return nil, nil
			}
			wardID, present, err := requestedID(r, res, ParamWard)
			if !present {
				return nil, nil
			}
			if err != nil {
				return httputil.Validation("Invalid ward ID format"), nil
			}

			switch id.Role {
			case auth.RoleAdmin:
				if id.WardID == nil || *id.WardID != wardID {
					return wardMismatch(map[string]interface{}{
						"userWard":      id.WardID,
						"requestedWard": wardID,
					}), nil
				}
			case auth.RoleSuperAdmin:
				allowed, err := rv.superAdminZones(ctx, res)
				if err != nil {
					return nil, err
				}
				zoneID, err := rv.wards.WardZoneID(ctx, wardID)
				if errors.Is(err, geo.ErrNotFound) {
					return wardMismatch(map[string]interface{}{
						"assignedZones": allowed,
						"requestedWard": wardID,
					}), nil
				}
				if err != nil {
					return nil, err
				}
				if !contains(allowed, zoneID) {
					return wardMismatch(map[string]interface{}{
						"assignedZones": allowed,
						"requestedWard": wardID,
						"wardZone":      zoneID,
					}), nil
				}
			}
			return nil, nil
		},
	}
}

// RequirePermission admits callers whose document grants feature
func (rv *Resolver) RequirePermission(feature permissions.Feature) func(http.Handler) http.Handler {
	return rv.middleware(rv.permissionStep(feature))
}

func (rv *Resolver) permissionStep(feature permissions.Feature) step {
	return step{
		name:  "require_permission",
		state: StateAuthorized,
		fault: "Error checking permissions",
		run: func(ctx context.Context, _ *http.Request, res *Resolved) (*httputil.APIError, error) {
			if res.Identity.Role == auth.RoleMasterAdmin {
				return nil, nil
			}
			doc, err := rv.document(ctx, res)
			if err != nil {
				return nil, err
			}
			if doc.Features.Get(feature) {
				return nil, nil
			}
			return httputil.Forbidden(httputil.CodeInsufficientPermissions,
				fmt.Sprintf("You do not have permission to %s", feature)).
				WithDetails(map[string]interface{}{"requiredPermission": feature}), nil
		},
	}
}

// BlockIfViewOnly denies writes from callers in view-only mode. Master Admins
// are exempt.
func (rv *Resolver) BlockIfViewOnly() func(http.Handler) http.Handler {
	return rv.middleware(step{
		name:  "block_if_view_only",
		state: StateAuthorized,
		fault: "Error checking view-only mode",
		run: func(ctx context.Context, _ *http.Request, res *Resolved) (*httputil.APIError, error) {
			if res.Identity.Role == auth.RoleMasterAdmin {
				return nil, nil
			}
			doc, err := rv.document(ctx, res)
			if err != nil {
				return nil, err
			}
			if doc.Features.ViewOnlyMode {
				return httputil.Forbidden(httputil.CodeViewOnlyMode, "This action is not allowed in view-only mode"), nil
			}
			return nil, nil
		},
	})
}

// RequireAdminManagementAccess admits Master Admins and Super Admins holding
// canViewAdmins.
func (rv *Resolver) RequireAdminManagementAccess() func(http.Handler) http.Handler {
	return rv.middleware(step{
		name:  "require_admin_management",
		state: StateAuthorized,
		fault: "Error checking permissions",
		run: func(ctx context.Context, _ *http.Request, res *Resolved) (*httputil.APIError, error) {
			switch res.Identity.Role {
			case auth.RoleMasterAdmin:
				return nil, nil
			case auth.RoleAdmin:
				return httputil.Forbidden(httputil.CodeInsufficientPermissions, "Admins cannot manage other admins"), nil
			case auth.RoleSuperAdmin:
				doc, err := rv.document(ctx, res)
				if err != nil {
					return nil, err
				}
				if !doc.Features.CanViewAdmins {
					return httputil.Forbidden(httputil.CodeInsufficientPermissions,
						"You do not have permission to manage admins"), nil
				}
				return nil, nil
			}
			return httputil.Forbidden(httputil.CodeRoleNotAuthorized,
				"Access denied. Required roles: MASTER_ADMIN, SUPER_ADMIN"), nil
		},
	})
}

// RequireSuperAdminManagementAccess admits Master Admins only
func (rv *Resolver) RequireSuperAdminManagementAccess() func(http.Handler) http.Handler {
	return rv.middleware(step{
		name:  "require_super_admin_management",
		state: StateAuthorized,
		fault: "Error checking permissions",
		run: func(_ context.Context, _ *http.Request, res *Resolved) (*httputil.APIError, error) {
			if res.Identity.Role == auth.RoleMasterAdmin {
				return nil, nil
			}
			return httputil.Forbidden(httputil.CodeInsufficientPermissions,
				"Only Master Admins can manage Super Admins"), nil
		},
	})
}

// RequireCategoryAccess admits callers whose document covers the category
// named by param.
func (rv *Resolver) RequireCategoryAccess(param string) func(http.Handler) http.Handler {
	return rv.middleware(step{
		name:  "require_category",
		state: StateAuthorized,
		fault: "Error checking permissions",
		run: func(ctx context.Context, r *http.Request, res *Resolved) (*httputil.APIError, error) {
			category, present := requested(r, res, param)
			if !present {
				return httputil.Validation("Category required"), nil
			}
			if res.Identity.Role == auth.RoleMasterAdmin {
				return nil, nil
			}
			ok, err := rv.perms.HasCategoryAccess(ctx, res.Identity.UserID, category)
			if err != nil {
				return nil, err
			}
			if !ok {
				return httputil.Forbidden(httputil.CodeInsufficientPermissions,
					"You do not have access to this category"), nil
			}
			return nil, nil
		},
	})
}

// ValidatePermissionUpdate requires the body to carry a structurally valid,
// conflict-free document under "permissions".
func (rv *Resolver) ValidatePermissionUpdate() func(http.Handler) http.Handler {
	return rv.middleware(step{
		name:  "validate_permission_update",
		state: StateAuthorized,
		fault: "Error validating permissions",
		run: func(_ context.Context, r *http.Request, res *Resolved) (*httputil.APIError, error) {
			raw, ok := jsonBody(r, res)["permissions"]
			if !ok || string(raw) == "null" {
				return httputil.Validation("Permissions object required"), nil
			}
			doc, err := permissions.Validate(raw)
			if err != nil {
				return httputil.Validation("Invalid permission structure").
					WithDetails(map[string]interface{}{"error": err.Error()}), nil
			}
			if conflicts := permissions.DetectConflicts(doc); len(conflicts) > 0 {
				return httputil.NewAPIError(http.StatusBadRequest, httputil.CodePermissionConflict,
					"Permission conflicts detected").
					WithDetails(map[string]interface{}{"conflicts": conflicts}), nil
			}
			return nil, nil
		},
	})
}

// Options selects the checks run by Authorize
type Options struct {
	Roles           []auth.Role
	CityCorporation bool
	Zone            bool
	Ward            bool
	Permission      permissions.Feature
}

// Authorize runs the selected checks in order: role, City Corporation, zone,
// ward, permission.
func (rv *Resolver) Authorize(opts Options) func(http.Handler) http.Handler {
	var steps []step
	if len(opts.Roles) > 0 {
		steps = append(steps, rv.roleStep(opts.Roles))
	}
	if opts.CityCorporation {
		steps = append(steps, rv.cityCorporationStep())
	}
	if opts.Zone {
		steps = append(steps, rv.zoneStep())
	}
	if opts.Ward {
		steps = append(steps, rv.wardStep())
	}
	if opts.Permission != "" {
		steps = append(steps, rv.permissionStep(opts.Permission))
	}
	return rv.steps("Error during authorization", steps...)
}

func zoneMismatch(assigned []int64, requested int64) *httputil.APIError {
	return httputil.Forbidden(httputil.CodeZoneMismatch, "You do not have access to this zone").
		WithDetails(map[string]interface{}{
			"assignedZones": assigned,
			"requestedZone": requested,
		})
}

func wardMismatch(details map[string]interface{}) *httputil.APIError {
	return httputil.Forbidden(httputil.CodeWardMismatch, "You do not have access to this ward").
		WithDetails(details)
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
