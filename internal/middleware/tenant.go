package middleware

import (
	"net"
	"net/http"
	"strings"

	"tablekeep/internal/common"
	"tablekeep/internal/logger"
	"tablekeep/internal/models"
	"tablekeep/internal/services"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantMiddleware resolves the tenant a request acts on.
type TenantMiddleware struct {
	resolver   services.TenantResolver
	header     string
	baseDomain string
}

func NewTenantMiddleware(resolver services.TenantResolver, header, baseDomain string) *TenantMiddleware {
	return &TenantMiddleware{
		resolver:   resolver,
		header:     header,
		baseDomain: strings.Trim(strings.ToLower(baseDomain), "."),
	}
}

// Selector returns the tenant named by the request: the tenant header, or
// else the subdomain label in front of the base domain. Empty means none.
func (m *TenantMiddleware) Selector(req *http.Request) string {
	if v := strings.TrimSpace(req.Header.Get(m.header)); v != "" {
		return v
	}
	if m.baseDomain == "" {
		return ""
	}
	host := strings.ToLower(req.Host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	label, ok := strings.CutSuffix(host, "."+m.baseDomain)
	if !ok || label == "" || strings.Contains(label, ".") {
		return ""
	}
	return label
}

// Resolve requires an authenticated principal and resolves the tenant from
// its staff assignments.
func (m *TenantMiddleware) Resolve() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			principalID, ok := common.GetPrincipalIDFromContext(ctx)
			if !ok {
				return common.SendError(c, common.NewError(common.KindUnauthenticated, "authentication required"))
			}
			tc, err := m.resolver.Resolve(ctx, principalID, m.Selector(c.Request()))
			if err != nil {
				logger.FromContext(ctx).Info("tenant resolution failed", zap.String("kind", string(common.KindOf(err))))
				return common.SendError(c, err)
			}
			m.attach(c, tc)
			return next(c)
		}
	}
}

// Public resolves the tenant from a slug path parameter without requiring
// membership. The principal, when present, is carried along.
func (m *TenantMiddleware) Public(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			principalID, _ := common.GetPrincipalIDFromContext(ctx)
			tc, err := m.resolver.ResolvePublic(ctx, c.Param(param), principalID)
			if err != nil {
				return common.SendError(c, err)
			}
			m.attach(c, tc)
			return next(c)
		}
	}
}

func (m *TenantMiddleware) attach(c echo.Context, tc *models.TenantContext) {
	ctx := common.WithTenantContext(c.Request().Context(), tc)
	ctx = logger.With(ctx, zap.String("tenant_id", tc.TenantID.String()))
	c.SetRequest(c.Request().WithContext(ctx))
}
