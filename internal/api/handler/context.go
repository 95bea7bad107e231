package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/twinmarket/twin-api/internal/core/domain"
)

// ctxIdentity returns the identity the session gate placed on the request
// context. A zero Identity means the request carries no session; the
// authenticator turns that into 401.
func ctxIdentity(c echo.Context) domain.Identity {
	id, _ := domain.IdentityFromContext(c.Request().Context())
	return id
}
