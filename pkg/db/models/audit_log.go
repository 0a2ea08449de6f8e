package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/servicelane/servicelane-backend/pkg/enums"
)

// AuditLog records a mutation attempt, successful or not. Rows are append-only.
type AuditLog struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Action     enums.AuditAction     `gorm:"column:action;type:text;not null"`
	EntityType enums.AuditEntityType `gorm:"column:entity_type;type:text;not null"`
	EntityID   *uuid.UUID            `gorm:"column:entity_id;type:uuid"`
	ActorID    uuid.UUID             `gorm:"column:actor_id;type:uuid;not null"`
	BranchID   *uuid.UUID            `gorm:"column:branch_id;type:uuid"`
	Outcome    enums.AuditOutcome    `gorm:"column:outcome;type:text;not null"`
	Details    json.RawMessage       `gorm:"column:details;type:jsonb"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}
