package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/money-coach/internal/infrastructure/auth"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

const principalContextKey = "principal"

// AuthMiddleware requires a valid Bearer JWT from the identity provider and
// stores its claims on the gin context.
func AuthMiddleware(validator *auth.JWTValidator, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			logger.Warn().
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Msg("unauthenticated request")
			platformerrors.WriteUnauthorized(c, "authentication required")
			return
		}

		claims, err := validator.Validate(c.Request.Context(), token)
		if err != nil {
			logger.Warn().Err(err).Msg("jwt validation failed")
			platformerrors.WriteUnauthorized(c, "invalid token")
			return
		}

		c.Set(principalContextKey, claims)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (*auth.PrincipalClaims, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := val.(*auth.PrincipalClaims)
	return claims, ok && claims != nil
}
