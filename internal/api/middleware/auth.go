package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/twinmarket/twin-api/internal/api/metrics"
	"github.com/twinmarket/twin-api/internal/core/domain"
	"github.com/twinmarket/twin-api/internal/core/ports"
)

const (
	// CookieName carries the signed session token.
	CookieName = "auth_token"

	// Legacy identity headers. They are never trusted from clients and are
	// stripped from every request; identity travels in the request context.
	HeaderUserFID    = "x-user-fid"
	HeaderUserWallet = "x-user-wallet-address"
)

// PublicPaths lists the API routes reachable without a session. An entry
// ending in "/" covers its whole subtree; any other entry matches itself and
// the paths below it.
var PublicPaths = []string{
	"/api/auth/sign-in/",
	"/api/auth/logout",
	"/api/auth/check",
	"/api/webhook/",
	"/api/og",
}

// PublicSkipper skips the gate for PublicPaths.
func PublicSkipper(c echo.Context) bool {
	path := c.Request().URL.Path
	for _, p := range PublicPaths {
		if isUnder(path, p) {
			return true
		}
	}
	return false
}

func isUnder(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest == "" || strings.HasSuffix(prefix, "/") || rest[0] == '/'
}

// GateConfig configures Gate.
type GateConfig struct {
	Codec   ports.TokenCodec
	Policy  ports.AccessPolicy
	Skipper echomiddleware.Skipper
	// Optional lets requests without a valid session through, unauthenticated.
	Optional bool
}

// Gate validates the session cookie and injects the caller's identity into
// the request context. Missing or invalid cookies are rejected with 401 and
// identities refused by the access policy with 403.
func Gate(cfg GateConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			req.Header.Del(HeaderUserFID)
			req.Header.Del(HeaderUserWallet)

			if cfg.Skipper(c) {
				return next(c)
			}

			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return cfg.reject(c, next, "missing", domain.ErrUnauthorized)
			}

			claims, err := cfg.Codec.Verify(cookie.Value)
			if err != nil {
				return cfg.reject(c, next, "invalid", domain.ErrUnauthorized)
			}

			id := claims.Identity()
			if id.Empty() {
				return cfg.reject(c, next, "invalid", domain.ErrUnauthorized)
			}
			if err := cfg.Policy.Authorize(id); err != nil {
				return cfg.reject(c, next, "forbidden", err)
			}

			metrics.GateDecisionsTotal.WithLabelValues("allowed").Inc()
			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}

func (cfg GateConfig) reject(c echo.Context, next echo.HandlerFunc, reason string, err error) error {
	metrics.GateDecisionsTotal.WithLabelValues(reason).Inc()
	if cfg.Optional {
		return next(c)
	}
	return err
}
