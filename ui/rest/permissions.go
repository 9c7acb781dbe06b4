package rest

import (
	"github.com/gofiber/fiber/v2"

	domainPermission "github.com/avelara/instagate/domains/permission"
	"github.com/avelara/instagate/infrastructure/auditlog"
	"github.com/avelara/instagate/pkg/utils"
)

type Permissions struct {
	Service domainPermission.IPermissionUsecase
	Audit   auditlog.IAuditRepository
}

func InitRestPermissions(app fiber.Router, service domainPermission.IPermissionUsecase, audit auditlog.IAuditRepository) Permissions {
	handler := Permissions{Service: service, Audit: audit}
	app.Get("/permissions", handler.GetPermissions)
	return handler
}

// GetPermissions is the operator view: the current allow-list plus the
// most recent grants from the audit log.
func (handler *Permissions) GetPermissions(c *fiber.Ctx) error {
	snapshot, err := handler.Service.Snapshot(c.UserContext())
	utils.PanicIfNeeded(err)

	results := map[string]any{
		"configured":  snapshot.Configured(),
		"admin_id":    snapshot.AdminID,
		"allowed_ids": snapshot.AllowedIDs,
	}

	if handler.Audit != nil {
		grants, err := handler.Audit.RecentGrants(c.UserContext(), 20)
		if err == nil {
			results["recent_grants"] = grants
		}
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Permissions retrieved",
		Results: results,
	})
}
