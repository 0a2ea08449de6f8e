package controllers

import (
	"net/http"
	"strings"

	"github.com/servicelane/servicelane-backend/api/responses"
	"github.com/servicelane/servicelane-backend/api/validators"
	"github.com/servicelane/servicelane-backend/internal/audit"
	"github.com/servicelane/servicelane-backend/pkg/db/models"
	"github.com/servicelane/servicelane-backend/pkg/enums"
	pkgerrors "github.com/servicelane/servicelane-backend/pkg/errors"
	"github.com/servicelane/servicelane-backend/pkg/logger"
	"github.com/servicelane/servicelane-backend/pkg/pagination"
)

// AuditLogList pages the audit trail. Route access is head-manager gated.
func AuditLogList(repo audit.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit repository unavailable"))
			return
		}

		filter := audit.ListFilter{}
		if raw := strings.TrimSpace(r.URL.Query().Get("entity_type")); raw != "" {
			entityType, err := enums.ParseAuditEntityType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown entity type"))
				return
			}
			filter.EntityType = &entityType
		}

		entityID, err := validators.ParseQueryUUID(r, "entity_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.EntityID = entityID

		actorID, err := validators.ParseQueryUUID(r, "actor_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.ActorID = actorID

		branchID, err := validators.ParseQueryUUID(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.BranchID = branchID

		since, err := validators.ParseQueryTime(r, "since")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Since = since

		params, err := parsePageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := repo.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit logs"))
			return
		}
		entries, more := pagination.TrimPage(rows, params.Limit)

		page := auditLogPage{Entries: make([]auditLogDTO, 0, len(entries))}
		for i := range entries {
			page.Entries = append(page.Entries, toAuditLogDTO(&entries[i]))
		}
		page.NextCursor = nextCursor(entries, more, func(entry models.AuditLog) pagination.Cursor {
			return pagination.Cursor{CreatedAt: entry.CreatedAt, ID: entry.ID}
		})
		responses.WriteSuccess(w, page)
	}
}
