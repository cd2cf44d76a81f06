package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tablekeep/internal/common"
	"tablekeep/internal/logger"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenVerifier turns a bearer token into a principal id.
type TokenVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
	close   func()
}

// NewHMACVerifier verifies HS256 tokens signed with secret.
func NewHMACVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		keyfunc: func(*jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		methods: []string{jwt.SigningMethodHS256.Alg()},
		close:   func() {},
	}
}

// NewJWKSVerifier verifies RS256/ES256 tokens against a JWKS endpoint that is
// refreshed in the background until Close is called.
func NewJWKSVerifier(ctx context.Context, url string) (*TokenVerifier, error) {
	jwks, err := keyfunc.Get(url, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			zap.L().Error("failed to refresh JWKS", zap.String("url", url), zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", url, err)
	}
	return &TokenVerifier{
		keyfunc: jwks.Keyfunc,
		methods: []string{"RS256", "ES256"},
		close:   jwks.EndBackground,
	}, nil
}

// Close stops background key refresh.
func (v *TokenVerifier) Close() {
	v.close()
}

// Verify validates tokenString and returns the principal named by its subject.
func (v *TokenVerifier) Verify(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyfunc,
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("token not valid")
	}
	principalID, err := uuid.Parse(claims.Subject)
	if err != nil || principalID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("subject is not a principal id")
	}
	return principalID, nil
}

// principalKey is the echo context key echojwt stores the verified principal
// id under.
const principalKey = "principal_id"

// Authenticate verifies the bearer token with echojwt and stores the principal
// id in the request context. With required unset, requests without a bearer
// token pass through anonymously; a present but invalid token is always
// rejected.
func Authenticate(verifier *TokenVerifier, required bool) echo.MiddlewareFunc {
	jwtMiddleware := echojwt.WithConfig(echojwt.Config{
		ContextKey:  principalKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return verifier.Verify(auth)
		},
		ContinueOnIgnoredError: !required,
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, echojwt.ErrJWTMissing) {
				if !required {
					return nil
				}
				return common.NewError(common.KindUnauthenticated, "Missing token")
			}
			logger.FromContext(c.Request().Context()).Warn("rejected bearer token", zap.Error(err))
			return common.NewError(common.KindUnauthenticated, "Invalid token")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(func(c echo.Context) error {
			if principalID, ok := c.Get(principalKey).(uuid.UUID); ok {
				ctx := common.WithPrincipalID(c.Request().Context(), principalID)
				ctx = logger.With(ctx, zap.String("principal_id", principalID.String()))
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		})
	}
}
