package responses

import (
	"github.com/gin-gonic/gin"

	"github.com/janhq/money-coach/internal/infrastructure/logger"
	"github.com/janhq/money-coach/internal/utils/platformerrors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse = platformerrors.HTTPErrorResponse

// HandleError writes err as the response. message is logged alongside the
// cause; the caller only sees the classified public message.
func HandleError(c *gin.Context, err error, message string) {
	log := logger.GetLogger()
	if platformErr := platformerrors.GetPlatformError(err); platformErr != nil {
		platformerrors.WriteHTTPError(c, platformerrors.AsError(c.Request.Context(), platformerrors.LayerRoute, platformErr, message), log)
		return
	}
	platformerrors.WriteError(c, err, log)
}

// HandleNewError writes a freshly classified error raised at the route layer.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	platformerrors.WriteHTTPError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerRoute, errorType, message, nil, uuid), logger.GetLogger())
}
