package responses

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"rentacar-server/chat-api/internal/utils/platformerrors"
)

// HandleError writes err as an HTTP error. Platform errors keep their type;
// anything else becomes a 500 with message as context in the log.
func HandleError(c *gin.Context, err error, message string) {
	logger := log.With().
		Str("path", c.Request.URL.Path).
		Str("request_id", platformerrors.RequestIDFromContext(c.Request.Context())).
		Logger()

	if platformErr := platformerrors.GetPlatformError(err); platformErr != nil {
		platformerrors.WriteHTTPError(c, platformerrors.AsError(c.Request.Context(), platformerrors.LayerRoute, err, message), logger)
		return
	}

	logger.Error().Err(err).Msg(message)
	platformerrors.WriteInternalError(c, message)
}

// HandleNewError writes a typed route-level error such as a bad path parameter.
func HandleNewError(c *gin.Context, errorType platformerrors.ErrorType, message string) {
	platformerrors.WriteHTTPError(c, platformerrors.NewError(c.Request.Context(), platformerrors.LayerRoute, errorType, message, nil, ""), log.Logger)
}
