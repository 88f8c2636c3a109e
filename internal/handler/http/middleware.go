package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
	"golang.org/x/time/rate"
)

// IdentityResolver is satisfied by *identity.Resolver.
type IdentityResolver interface {
	Mode() identity.Mode
	Resolve(w http.ResponseWriter, r *http.Request) (context.Context, error)
	StartSession(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error
	EndSession(w http.ResponseWriter, r *http.Request) error
}

// ResolveIdentity attaches the request identity, if any, to the request context.
func ResolveIdentity(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := resolver.Resolve(w, r)
			if err != nil {
				hlog.FromRequest(r).Error().Err(err).Msg("Failed to resolve identity")
				respondWithError(w, http.StatusInternalServerError, "Failed to resolve identity")
				return
			}
			if id, ok := identity.FromContext(ctx); ok {
				hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
					return c.Stringer("identity_id", id.ID)
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireIdentity answers 401 when the request has no identity.
func requireIdentity(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, err := identity.Require(r.Context())
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), errorMessage(err, "Please log in"))
		return identity.Identity{}, false
	}
	return id, true
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer than
// expiresIn are dropped.
type RateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	expiresIn time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(perSecond float64, burst int, expiresIn time.Duration) *RateLimiter {
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.expiresIn {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.expiresIn {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			hlog.FromRequest(r).Warn().Str("remote_addr", r.RemoteAddr).Msg("Rate limit exceeded")
			respondWithError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP drops the source port, so new connections from one host share a bucket.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}
