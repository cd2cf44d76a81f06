package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditDecision is the outcome recorded in an audit event.
type AuditDecision string

const (
	DecisionAllowed  AuditDecision = "ALLOWED"
	DecisionDenied   AuditDecision = "DENIED"
	DecisionOverride AuditDecision = "OVERRIDE"
)

// AuditEvent is the structured record emitted for overrides, authorization
// denials and privileged changes.
type AuditEvent struct {
	ID          uuid.UUID              `json:"id" db:"id"`
	TenantID    *uuid.UUID             `json:"tenant_id" db:"tenant_id"`
	PrincipalID *uuid.UUID             `json:"principal_id" db:"principal_id"`
	Operation   string                 `json:"operation" db:"operation"`
	Decision    AuditDecision          `json:"decision" db:"decision"`
	Reason      string                 `json:"reason" db:"reason"`
	Details     map[string]interface{} `json:"details,omitempty" db:"details"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
}
