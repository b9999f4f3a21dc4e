package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/manfra-io/marketauth"
)

const identityContextKey = "marketauth.identity"

// RequireAuth authenticates the access-token cookie and stashes the
// resulting identity in the request context for downstream handlers.
func (s *Server) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		identity, err := s.engine.Authenticate(ctx, cookieValue(c, accessCookieName))
		if err != nil {
			return s.respondError(c, err)
		}

		c.Set(identityContextKey, identity)
		return next(c)
	}
}

// RequireRole builds on RequireAuth and additionally checks the user's
// current role against the allow list.
func (s *Server) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return s.RequireAuth(func(c echo.Context) error {
			ctx, cancel := requestContext(c)
			defer cancel()

			identity := currentIdentity(c)
			if _, err := s.engine.Authorize(ctx, identity.UserID, roles...); err != nil {
				return s.respondError(c, err)
			}
			return next(c)
		})
	}
}

func currentIdentity(c echo.Context) marketauth.Identity {
	identity, _ := c.Get(identityContextKey).(marketauth.Identity)
	return identity
}

// ipThrottle is a per-IP token bucket guarding the credential endpoints
// against online guessing. Buckets are pruned after an idle period so the
// map does not grow with every address ever seen.
type ipThrottle struct {
	mu      sync.Mutex
	buckets map[string]*throttleEntry
	limit   rate.Limit
	burst   int
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const throttleIdleEviction = 10 * time.Minute

func newIPThrottle(perMinute, burst int) *ipThrottle {
	return &ipThrottle{
		buckets: make(map[string]*throttleEntry),
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
	}
}

func (t *ipThrottle) allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	entry, ok := t.buckets[ip]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[ip] = entry
	}
	entry.lastSeen = now

	if len(t.buckets) > 1000 {
		for key, e := range t.buckets {
			if now.Sub(e.lastSeen) > throttleIdleEviction {
				delete(t.buckets, key)
			}
		}
	}

	return entry.limiter.Allow()
}

// loginThrottle limits login attempts per client IP.
func (s *Server) loginThrottle() echo.MiddlewareFunc {
	throttle := newIPThrottle(30, 10)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !throttle.allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, errorBody{Message: "too many attempts, slow down"})
			}
			return next(c)
		}
	}
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			s.logger.Info("http_request", map[string]any{
				"method":      c.Request().Method,
				"path":        c.Request().URL.Path,
				"status":      c.Response().Status,
				"duration_ms": time.Since(start).Milliseconds(),
				"ip":          c.RealIP(),
			})
			return err
		}
	}
}
