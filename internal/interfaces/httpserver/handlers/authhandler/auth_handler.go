package authhandler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/money-coach/internal/domain/user"
	"github.com/janhq/money-coach/internal/infrastructure/metrics"
	middleware "github.com/janhq/money-coach/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/money-coach/internal/interfaces/httpserver/responses"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

const appUserContextKey = "app_user"

// AuthHandler resolves the authenticated principal to a local user.
type AuthHandler struct {
	userService *user.Service
	logger      zerolog.Logger
}

func NewAuthHandler(userService *user.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger.With().Str("component", "auth_handler").Logger(),
	}
}

// WithAppUserAuthChain ensures the authenticated app user exists before executing handlers.
func (h *AuthHandler) WithAppUserAuthChain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{h.ensureAppUser()}
	return append(chain, handlers...)
}

// GetUserFromContext returns the ensured application user from the request context.
func GetUserFromContext(c *gin.Context) (*user.User, bool) {
	val, ok := c.Get(appUserContextKey)
	if !ok || val == nil {
		return nil, false
	}
	usr, ok := val.(*user.User)
	return usr, ok && usr != nil
}

// ensureAppUser provisions a local user on first sight of a valid token.
func (h *AuthHandler) ensureAppUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserFromContext(c); ok {
			c.Next()
			return
		}

		principal, ok := middleware.PrincipalFromContext(c)
		if !ok || principal.Subject == "" {
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "dee1dae1-ca03-4dff-8aae-a40cdd2e15da")
			return
		}

		usr, outcome, err := h.userService.EnsureUser(c.Request.Context(), principal.Subject)
		if err != nil {
			h.logger.Error().Err(err).Str("subject", principal.Subject).Msg("failed to ensure user from principal")
			responses.HandleError(c, err, "unable to resolve user identity")
			return
		}
		if outcome != user.ProvisionExisting {
			metrics.RecordProvisioning(string(outcome))
			h.logger.Info().Str("subject", principal.Subject).Str("outcome", string(outcome)).Msg("provisioned user on first request")
		}

		c.Set(appUserContextKey, usr)
		c.Next()
	}
}
