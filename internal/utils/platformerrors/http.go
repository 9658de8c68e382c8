package platformerrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HTTPErrorResponse is the body of every failed request.
type HTTPErrorResponse struct {
	Error *HTTPErrorDetail `json:"error"`
}

type HTTPErrorDetail struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type errorClass struct {
	status int
	public string

	// fixedMessage replaces the layered message chain for server-side failures.
	fixedMessage string
	callerFault  bool
}

var classes = map[ErrorType]errorClass{
	ErrorTypeValidation:    {status: http.StatusBadRequest, public: "validation_error", callerFault: true},
	ErrorTypeUnauthorized:  {status: http.StatusUnauthorized, public: "unauthorized_error", callerFault: true},
	ErrorTypeNotFound:      {status: http.StatusNotFound, public: "not_found_error", callerFault: true},
	ErrorTypeConflict:      {status: http.StatusConflict, public: "conflict_error"},
	ErrorTypeExternal:      {status: http.StatusBadGateway, public: "upstream_unavailable", fixedMessage: "upstream unavailable"},
	ErrorTypeDatabaseError: {status: http.StatusServiceUnavailable, public: "service_unavailable", fixedMessage: "service unavailable"},
	ErrorTypeInternal:      {status: http.StatusInternalServerError, public: "internal_error", fixedMessage: "internal error"},
}

func classOf(t ErrorType) errorClass {
	if class, ok := classes[t]; ok {
		return class
	}
	return classes[ErrorTypeInternal]
}

// ErrorTypeToHTTPStatus maps an error type to its response status.
func ErrorTypeToHTTPStatus(errorType ErrorType) int {
	return classOf(errorType).status
}

// WriteHTTPError logs err and writes it as the response. The cause never
// reaches the caller.
func WriteHTTPError(c *gin.Context, err *PlatformError, log zerolog.Logger) {
	if err == nil {
		WriteInternalError(c, "unknown error")
		return
	}
	LogError(log, err)

	class := classOf(err.Type)
	message := err.Message
	if class.fixedMessage != "" {
		message = class.fixedMessage
	}
	c.AbortWithStatusJSON(class.status, HTTPErrorResponse{
		Error: &HTTPErrorDetail{
			Message:   message,
			Type:      class.public,
			Code:      err.UUID,
			RequestID: err.RequestID,
		},
	})
}

// WriteError writes any error; unclassified ones become a bare 500.
func WriteError(c *gin.Context, err error, log zerolog.Logger) {
	if platformErr := GetPlatformError(err); platformErr != nil {
		WriteHTTPError(c, platformErr, log)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("unclassified error")
	}
	WriteInternalError(c, "internal error")
}

// WriteUnauthorized writes a 401 without going through the error log.
func WriteUnauthorized(c *gin.Context, message string) {
	writeBare(c, ErrorTypeUnauthorized, message)
}

func WriteInternalError(c *gin.Context, message string) {
	writeBare(c, ErrorTypeInternal, message)
}

func writeBare(c *gin.Context, errorType ErrorType, message string) {
	var requestID string
	if c.Request != nil {
		requestID = requestIDFrom(c.Request.Context())
	}
	class := classOf(errorType)
	c.AbortWithStatusJSON(class.status, HTTPErrorResponse{
		Error: &HTTPErrorDetail{
			Message:   message,
			Type:      class.public,
			RequestID: requestID,
		},
	})
}
