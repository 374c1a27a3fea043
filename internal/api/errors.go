package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"study-planner/internal/logger"
	"study-planner/internal/model"
	"study-planner/internal/planner"
	"study-planner/internal/service"
)

var (
	errMissingToken = echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed jwt")
	errInvalidToken = echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired jwt")
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errNotFound     = echo.NewHTTPError(http.StatusNotFound, "not found")
	errForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errConflict     = echo.NewHTTPError(http.StatusConflict, "plan was modified concurrently, retry")
)

// newHTTPErrorHandler returns an echo.HTTPErrorHandler that knows how to
// report service and planner errors.
func newHTTPErrorHandler(log logger.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
			code = origErr.Code
			message = origErr.Message
		case *service.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			switch {
			case errors.Is(err, service.ErrNotFound), errors.Is(err, planner.ErrSessionNotFound):
				code, message = errNotFound.Code, errNotFound.Message
			case errors.Is(err, service.ErrForbidden):
				code, message = errForbidden.Code, errForbidden.Message
			case errors.Is(err, service.ErrConflict):
				code, message = errConflict.Code, errConflict.Message
			case errors.Is(err, planner.ErrInvalidRequest):
				code, message = http.StatusBadRequest, planner.ErrInvalidRequest.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var usr model.User
				if claims, cErr := contextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Email = claims.Email
				}
				log.Error(msg, errors.Wrap(err, msg), usr)
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
