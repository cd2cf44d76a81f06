package common

import (
	"context"
	"fmt"
	"strings"

	"tablekeep/internal/models"

	"github.com/google/uuid"
)

type contextKey string

const (
	PrincipalIDKey   contextKey = "principal_id"
	TenantContextKey contextKey = "tenant_context"
	RequestIDKey     contextKey = "request_id"
)

// WithPrincipalID stores the authenticated principal id.
func WithPrincipalID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, PrincipalIDKey, id)
}

// GetPrincipalIDFromContext extracts the authenticated principal id.
func GetPrincipalIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(PrincipalIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// WithTenantContext stores the resolved tenant for the rest of the request.
func WithTenantContext(ctx context.Context, tc *models.TenantContext) context.Context {
	return context.WithValue(ctx, TenantContextKey, tc)
}

// GetTenantContext extracts the resolved tenant.
func GetTenantContext(ctx context.Context) (*models.TenantContext, bool) {
	tc, ok := ctx.Value(TenantContextKey).(*models.TenantContext)
	return tc, ok && tc != nil && tc.TenantID != uuid.Nil
}

// RequireTenantContext is GetTenantContext for code paths where a missing
// tenant is a wiring bug.
func RequireTenantContext(ctx context.Context) (*models.TenantContext, error) {
	tc, ok := GetTenantContext(ctx)
	if !ok {
		return nil, NewError(KindInternal, "tenant context missing")
	}
	return tc, nil
}

// GetTenantIDFromContext extracts the resolved tenant id.
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	tc, ok := GetTenantContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return tc.TenantID, true
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func GetRequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// ValidateUUID parses an id supplied by a caller.
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, Errorf(KindInvalid, "%s is required", fieldName)
	}
	if len(idStr) != 36 {
		return uuid.Nil, Errorf(KindInvalid, "%s must be exactly 36 characters (including hyphens)", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, Errorf(KindInvalid, "%s is not a valid UUID", fieldName)
	}
	return id, nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return Errorf(KindInvalid, "%s is required", fieldName)
	}
	return nil
}

// ValidatePositiveInteger validates positive integer values with upper bounds
func ValidatePositiveInteger(value int, fieldName string, maxValue int) error {
	if value <= 0 {
		return Errorf(KindInvalid, "%s must be positive", fieldName)
	}
	if value > maxValue {
		return Errorf(KindInvalid, "%s cannot exceed %d", fieldName, maxValue)
	}
	return nil
}

// ValidatePaginationParams clamps limit and offset.
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, fmt.Errorf("offset cannot exceed 1,000,000")
	}
	return limit, offset, nil
}
