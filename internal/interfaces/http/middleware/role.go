package middleware

import (
	"net/http"

	"github.com/awr/backend/internal/domain/shared"
	"github.com/awr/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequireApprover allows only QA and Admin users through
func RequireApprover(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor.Username == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				shared.CodeUnauthorized, "Authentication required", c.GetString(RequestIDKey)))
			return
		}
		if !actor.Role.CanApprove() {
			log.Warn("Role check denied",
				zap.String("username", actor.Username),
				zap.String("role", string(actor.Role)),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				shared.CodeForbidden, "QA or Admin role required", c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}
