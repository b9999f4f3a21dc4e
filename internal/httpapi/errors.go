package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/manfra-io/marketauth"
	"github.com/manfra-io/marketauth/internal/observability"
)

// errorBody is the uniform error payload. Code is set only where clients
// need to distinguish failures that share a status, such as an expired
// versus a tampered access token.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// respondError translates an engine error into the wire contract. Unknown
// errors are treated as server faults and reported, never echoed to the
// client.
func (s *Server) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, marketauth.ErrMissingFields),
		errors.Is(err, marketauth.ErrWeakPassword):
		return c.JSON(http.StatusUnprocessableEntity, errorBody{Message: err.Error()})

	case errors.Is(err, marketauth.ErrEmailExists):
		return c.JSON(http.StatusConflict, errorBody{Message: "email already exists"})

	case errors.Is(err, marketauth.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, errorBody{Message: "email or password is invalid"})

	case errors.Is(err, marketauth.ErrAccessTokenMissing):
		return c.JSON(http.StatusUnauthorized, errorBody{
			Message: "access token not found",
			Code:    "AccessTokenMissing",
		})
	case errors.Is(err, marketauth.ErrAccessTokenExpired):
		return c.JSON(http.StatusUnauthorized, errorBody{
			Message: "access token expired",
			Code:    "AccessTokenExpired",
		})
	case errors.Is(err, marketauth.ErrAccessTokenRevoked):
		return c.JSON(http.StatusUnauthorized, errorBody{
			Message: "access token has been revoked",
			Code:    "AccessTokenRevoked",
		})
	case errors.Is(err, marketauth.ErrAccessTokenInvalid):
		return c.JSON(http.StatusUnauthorized, errorBody{
			Message: "access token invalid",
			Code:    "AccessTokenInvalid",
		})

	case errors.Is(err, marketauth.ErrRefreshInvalid):
		return c.JSON(http.StatusUnauthorized, errorBody{Message: "refresh token invalid or expired"})

	case errors.Is(err, marketauth.ErrTempTokenInvalid):
		return c.JSON(http.StatusUnauthorized, errorBody{Message: "temporary token invalid or expired"})
	case errors.Is(err, marketauth.ErrTOTPInvalid):
		return c.JSON(http.StatusUnauthorized, errorBody{Message: "totp is invalid or expired"})
	case errors.Is(err, marketauth.ErrTOTPNotProvisioned):
		return c.JSON(http.StatusBadRequest, errorBody{Message: "totp not provisioned"})

	case errors.Is(err, marketauth.ErrAccessDenied):
		return c.JSON(http.StatusForbidden, errorBody{Message: "access denied"})

	case errors.Is(err, marketauth.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, errorBody{Message: "user not found"})

	default:
		s.logger.Error("request failed", map[string]any{
			"path":  c.Path(),
			"error": err.Error(),
		})
		observability.CaptureError(err, map[string]string{"path": c.Path()})
		return c.JSON(http.StatusInternalServerError, errorBody{Message: "internal server error"})
	}
}
