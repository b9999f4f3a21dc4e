package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/manfra-io/marketauth"
	"github.com/manfra-io/marketauth/totp"
)

const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	IsWorker bool   `json:"isWorker"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginTOTPRequest struct {
	TempToken string `json:"tempToken"`
	TOTP      string `json:"totp"`
}

type validateTOTPRequest struct {
	TOTP string `json:"totp"`
}

type registerResponse struct {
	Message string `json:"message"`
	UID     string `json:"uid"`
}

// sessionResponse is the body of a successful login. The tokens themselves
// travel only in the httpOnly cookies, never in JSON, so page scripts can
// identify the user without ever touching the credentials.
type sessionResponse struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type challengeResponse struct {
	TempToken string `json:"tempToken"`
	ExpiresIn int    `json:"expiresInSeconds"`
}

func toSessionResponse(u marketauth.UserRecord) sessionResponse {
	return sessionResponse{UID: u.UserID, Name: u.Name, Email: u.Email}
}

// Health reports liveness plus the state of any registered backend probes.
// Degraded backends turn the response into a 503 so load balancers rotate
// the instance out.
func (s *Server) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := echo.Map{"status": "ok"}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body[name] = err.Error()
		}
	}

	return c.JSON(status, body)
}

// Register creates an account. 201 with the new user's id on success.
func (s *Server) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, marketauth.ErrMissingFields)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.engine.Register(ctx, marketauth.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		IsWorker: req.IsWorker,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusCreated, registerResponse{
		Message: "User registered successfully",
		UID:     user.UserID,
	})
}

// Login is step one. Accounts without two-factor get a token pair in the
// cookies and their identity in the body; two-factor accounts get a temp
// token and no session.
func (s *Server) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, marketauth.ErrMissingFields)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := s.engine.Login(ctx, req.Email, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	if result.TwoFARequired {
		return c.JSON(http.StatusOK, challengeResponse{
			TempToken: result.TempToken,
			ExpiresIn: int(result.ExpiresIn.Seconds()),
		})
	}

	s.setTokenCookies(c, result.AccessToken, result.RefreshToken)
	return c.JSON(http.StatusOK, toSessionResponse(result.User))
}

// LoginTOTP is step two: temp token plus code in, session out.
func (s *Server) LoginTOTP(c echo.Context) error {
	var req loginTOTPRequest
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, marketauth.ErrMissingFields)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := s.engine.LoginTOTP(ctx, req.TempToken, req.TOTP)
	if err != nil {
		return s.respondError(c, err)
	}

	s.setTokenCookies(c, result.AccessToken, result.RefreshToken)
	return c.JSON(http.StatusOK, toSessionResponse(result.User))
}

// Refresh rotates the refresh token from the cookie and reissues both
// cookies. The new tokens are never echoed in the body.
func (s *Server) Refresh(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := s.engine.Refresh(ctx, cookieValue(c, refreshCookieName))
	if err != nil {
		return s.respondError(c, err)
	}

	s.setTokenCookies(c, result.AccessToken, result.RefreshToken)
	return c.JSON(http.StatusOK, echo.Map{"message": "Access token refreshed successfully"})
}

// Logout revokes the session's tokens and clears both cookies, answering
// 204. The route runs behind RequireAuth, so a second call with the now
// revoked access token is turned away at the guard.
func (s *Server) Logout(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	err := s.engine.Logout(ctx, cookieValue(c, accessCookieName), cookieValue(c, refreshCookieName))
	if err != nil {
		return s.respondError(c, err)
	}

	s.clearTokenCookies(c)
	return c.NoContent(http.StatusNoContent)
}

// GenerateTOTP provisions a two-factor secret for the authenticated user
// and responds with the enrollment QR as a PNG.
func (s *Server) GenerateTOTP(c echo.Context) error {
	identity := currentIdentity(c)

	ctx, cancel := requestContext(c)
	defer cancel()

	provision, err := s.engine.ProvisionTOTP(ctx, identity.UserID)
	if err != nil {
		return s.respondError(c, err)
	}

	img, err := totp.QRPNG(provision.URI, 256)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.Blob(http.StatusOK, "image/png", img)
}

// ValidateTOTP confirms enrollment with a first code and switches
// two-factor login on.
func (s *Server) ValidateTOTP(c echo.Context) error {
	identity := currentIdentity(c)

	var req validateTOTPRequest
	if err := c.Bind(&req); err != nil {
		return s.respondError(c, marketauth.ErrMissingFields)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.engine.ActivateTOTP(ctx, identity.UserID, req.TOTP); err != nil {
		// During enrollment a wrong code is a client mistake, not a failed
		// authentication: the caller already holds a valid session.
		if errors.Is(err, marketauth.ErrTOTPInvalid) {
			return c.JSON(http.StatusBadRequest, errorBody{Message: "TOTP is not correct or expired"})
		}
		return s.respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "TOTP validated successfully"})
}
