package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/awr/backend/internal/domain/issuance"
	"github.com/awr/backend/internal/infrastructure/auth"
	"github.com/awr/backend/internal/infrastructure/logger"
	"github.com/awr/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys under which the authenticated actor is stored on the gin context
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUsernameKey = "jwt_username"
	JWTRoleKey     = "jwt_role"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

var (
	errMissingHeader = errors.New("missing authorization header")
	errBadScheme     = errors.New("authorization header is not a bearer token")
)

// JWTMiddlewareConfig configures JWTAuthMiddlewareWithConfig
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// SkipPaths are served without a token, e.g. probes on the same group
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuthMiddleware authenticates every request with a bearer token
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{JWTService: jwtService})
}

// JWTAuthMiddlewareWithConfig validates the bearer token and puts the actor it
// names on both the gin context and the request context's logger.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		token, err := bearerToken(c.GetHeader(AuthHeaderKey))
		if err != nil {
			rejectToken(c, log, err)
			return
		}
		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			rejectToken(c, log, err)
			return
		}

		actor := claims.Actor()
		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUsernameKey, actor.Username)
		c.Set(JWTRoleKey, string(actor.Role))

		ctx, _ := logger.WithActor(c.Request.Context(), logger.FromContext(c.Request.Context()), actor.Username, string(actor.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}
	token, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok {
		return "", errBadScheme
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

// rejectToken aborts with 401 and a code naming the token problem
func rejectToken(c *gin.Context, log *zap.Logger, err error) {
	log.Warn("Authentication failed", zap.Error(err), zap.String("path", c.Request.URL.Path))

	code, message := dto.ErrCodeInvalidToken, "Invalid token"
	switch {
	case errors.Is(err, errMissingHeader):
		message = "Authentication required"
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code, message = dto.ErrCodeTokenNotValid, "Token is not yet valid"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, c.GetString(RequestIDKey)))
}

// GetJWTClaims returns the validated claims, or nil on an unauthenticated request
func GetJWTClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

// GetActor returns the authenticated actor. The username is empty when the
// request was not authenticated.
func GetActor(c *gin.Context) issuance.Actor {
	return issuance.NewActor(c.GetString(JWTUsernameKey), c.GetString(JWTRoleKey))
}
