package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

type UserHandler struct {
	auth ports.Authenticator
}

func NewUserHandler(auth ports.Authenticator) *UserHandler {
	return &UserHandler{auth: auth}
}

type walletsResponse struct {
	Status  string          `json:"status"`
	Wallets []domain.Wallet `json:"wallets"`
}

// Me returns the signed-in user.
//
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  statusResponse
// @Failure      401  {object}  errorEnvelope
// @Failure      403  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /api/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.auth.Authenticate(c.Request().Context(), ctxIdentity(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "ok", User: user})
}

// Wallets lists the signed-in user's wallets, primary first.
//
// @Summary      Current user's wallets
// @Tags         users
// @Produce      json
// @Success      200  {object}  walletsResponse
// @Failure      401  {object}  errorEnvelope
// @Failure      404  {object}  errorEnvelope
// @Router       /api/users/me/wallets [get]
func (h *UserHandler) Wallets(c echo.Context) error {
	user, err := h.auth.Authenticate(c.Request().Context(), ctxIdentity(c))
	if err != nil {
		return err
	}
	wallets := user.Wallets
	if wallets == nil {
		wallets = []domain.Wallet{}
	}
	return c.JSON(http.StatusOK, walletsResponse{Status: "ok", Wallets: wallets})
}

// errorEnvelope documents the body rendered by the API error handler.
type errorEnvelope struct {
	Status string `json:"status" example:"nok"`
	Error  string `json:"error"`
}
