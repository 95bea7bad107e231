package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/twinmarket/twin-api/internal/api/metrics"
	"github.com/twinmarket/twin-api/internal/api/middleware"
	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

type AuthHandler struct {
	sessions ports.SessionService
	auth     ports.Authenticator
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthHandler(sessions ports.SessionService, auth ports.Authenticator, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, auth: auth, log: log, now: time.Now}
}

type farcasterSignInRequest struct {
	Token       string `json:"token" validate:"required"`
	FID         int64  `json:"fid" validate:"required,gt=0"`
	ReferrerFID *int64 `json:"referrerFid,omitempty" validate:"omitempty,gt=0"`
}

type walletSignInRequest struct {
	Address   string `json:"address" validate:"required,eth_addr"`
	Message   string `json:"message" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type signInResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type statusResponse struct {
	Status string       `json:"status"`
	User   *domain.User `json:"user,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// SignInFarcaster exchanges a Farcaster Quick Auth token for a session cookie.
//
// @Summary      Sign in with Farcaster
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      farcasterSignInRequest  true  "Quick Auth token and claimed FID"
// @Success      200   {object}  signInResponse
// @Failure      400   {object}  signInResponse
// @Failure      401   {object}  signInResponse
// @Failure      403   {object}  signInResponse
// @Failure      500   {object}  signInResponse
// @Router       /api/auth/sign-in/farcaster [post]
func (h *AuthHandler) SignInFarcaster(c echo.Context) error {
	start := h.now()
	defer func() {
		metrics.SignInDuration.WithLabelValues("farcaster").Observe(time.Since(start).Seconds())
	}()

	var req farcasterSignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.signInFailed(c, "farcaster", err)
	}

	user, session, err := h.sessions.SignInFarcaster(c.Request().Context(), ports.FarcasterSignIn{
		Token:       req.Token,
		FID:         req.FID,
		ReferrerFID: req.ReferrerFID,
	})
	if err != nil {
		return h.signInFailed(c, "farcaster", err)
	}
	return h.signedIn(c, "farcaster", user, session)
}

// SignInWallet exchanges a signed wallet message for a session cookie.
//
// @Summary      Sign in with a wallet signature
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      walletSignInRequest  true  "Address, signed message and signature"
// @Success      200   {object}  signInResponse
// @Failure      400   {object}  signInResponse
// @Failure      401   {object}  signInResponse
// @Failure      500   {object}  signInResponse
// @Router       /api/auth/sign-in/wallet [post]
func (h *AuthHandler) SignInWallet(c echo.Context) error {
	start := h.now()
	defer func() {
		metrics.SignInDuration.WithLabelValues("wallet").Observe(time.Since(start).Seconds())
	}()

	var req walletSignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.signInFailed(c, "wallet", err)
	}

	user, session, err := h.sessions.SignInWallet(c.Request().Context(), ports.WalletSignIn{
		Address:   req.Address,
		Message:   req.Message,
		Signature: req.Signature,
	})
	if err != nil {
		return h.signInFailed(c, "wallet", err)
	}
	return h.signedIn(c, "wallet", user, session)
}

// Logout clears the session cookie. It always succeeds.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  signInResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(sessionCookie("", -1, time.Time{}))
	return c.JSON(http.StatusOK, signInResponse{Success: true})
}

// Check reports whether the caller holds a usable session. It never fails.
//
// @Summary      Session check
// @Tags         auth
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /api/auth/check [get]
func (h *AuthHandler) Check(c echo.Context) error {
	user, err := h.auth.Authenticate(c.Request().Context(), ctxIdentity(c))
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) && !errors.Is(err, domain.ErrUserNotFound) {
			h.log.Warn().Err(err).Msg("session check failed")
		}
		return c.JSON(http.StatusOK, statusResponse{Status: "nok"})
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "ok", User: user})
}

func (h *AuthHandler) signedIn(c echo.Context, method string, user *domain.User, session *domain.Session) error {
	maxAge := int(session.ExpiresAt.Sub(h.now()).Seconds())
	c.SetCookie(sessionCookie(session.Token, maxAge, session.ExpiresAt))
	metrics.SignInsTotal.WithLabelValues(method, "ok").Inc()
	return c.JSON(http.StatusOK, signInResponse{Success: true, User: user})
}

func (h *AuthHandler) signInFailed(c echo.Context, method string, err error) error {
	code, class, msg := signInError(err)
	metrics.SignInsTotal.WithLabelValues(method, class).Inc()
	if code == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("method", method).Msg("sign-in failed")
	}
	return c.JSON(code, signInResponse{Success: false, Error: msg})
}

func signInError(err error) (code int, class, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument", "Invalid arguments"
	case errors.Is(err, domain.ErrInvalidSignature):
		return http.StatusUnauthorized, "unauthorized", "Invalid signature"
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "Invalid token"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden", "Forbidden"
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "not_found", "Farcaster profile not found"
	case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrWalletExists):
		return http.StatusConflict, "conflict", "User already exists"
	}
	return http.StatusInternalServerError, "error", "Internal server error"
}

func sessionCookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.ErrInvalidArgument
	}
	return c.Validate(req)
}
