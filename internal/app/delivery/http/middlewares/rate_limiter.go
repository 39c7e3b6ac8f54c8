package middlewares

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"aegis-service/internal/pkg/constvars"
	"aegis-service/internal/pkg/exceptions"
	"aegis-service/internal/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BruteForceLimiter guards the redemption and check endpoints against
// code guessing. It is stricter than the partner quota: an IP that
// drains its burst is blocked outright for blockTime, because sustained
// probing of the code space from one address is never legitimate
// dispenser traffic.
type BruteForceLimiter struct {
	log       *zap.Logger
	limiters  map[string]*rate.Limiter
	blocked   map[string]time.Time
	mu        sync.Mutex
	requests  int
	per       time.Duration
	blockTime time.Duration
}

func NewBruteForceLimiter(logger *zap.Logger, requests int, per, blockTime time.Duration) *BruteForceLimiter {
	return &BruteForceLimiter{
		log:       logger,
		limiters:  make(map[string]*rate.Limiter),
		blocked:   make(map[string]time.Time),
		requests:  requests,
		per:       per,
		blockTime: blockTime,
	}
}

func (l *BruteForceLimiter) allow(ip string, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if blockedUntil, found := l.blocked[ip]; found {
		if now.Before(blockedUntil) {
			return false, blockedUntil.Sub(now)
		}
		delete(l.blocked, ip)
		delete(l.limiters, ip)
	}

	limiter, exists := l.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(l.per/time.Duration(l.requests)), l.requests)
		l.limiters[ip] = limiter
	}

	if !limiter.AllowN(now, 1) {
		l.blocked[ip] = now.Add(l.blockTime)
		return false, l.blockTime
	}

	return true, 0
}

func (l *BruteForceLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		allowed, retryAfter := l.allow(ip, time.Now())
		if !allowed {
			utils.LogSecurityEvent(l.log, "redemption_rate_blocked", utils.GetRequestID(r.Context()), utils.SecuritySeverityHigh,
				zap.String(constvars.LoggingRemoteAddrKey, ip),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			)
			w.Header().Set(constvars.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Seconds())+1))
			utils.BuildErrorResponse(l.log, w, exceptions.ErrTooManyRequests(nil))
			return
		}

		next.ServeHTTP(w, r)
	})
}
