package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const (
	limiterCacheSize = 10_000
	limiterIdleTTL   = 10 * time.Minute
)

var rateLimitedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "siscert_http_rate_limited_total",
		Help: "Requisições recusadas por excesso de chamadas",
	},
	[]string{"scope"},
)

// RateLimiter guarda um token bucket por chave. Chaves ociosas saem do cache
// depois de limiterIdleTTL.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
}

func NewRateLimiter(reqPerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(reqPerSec),
		burst:   burst,
		buckets: expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterIdleTTL),
	}
}

func (r *RateLimiter) allow(key string) bool {
	r.mu.Lock()
	lim, ok := r.buckets.Get(key)
	if !ok {
		lim = rate.NewLimiter(r.limit, r.burst)
	}
	// Add renova a expiração da chave.
	r.buckets.Add(key, lim)
	r.mu.Unlock()
	return lim.Allow()
}

func (r *RateLimiter) middleware(scope string, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			key := keyFunc(req)
			if key != "" && !r.allow(scope+":"+key) {
				rateLimitedTotal.WithLabelValues(scope).Inc()
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "RATE_LIMIT", "Limite de requisições excedido")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// IPRateLimit limita rotas públicas por IP. Espera chimiddleware.RealIP antes
// na cadeia para que RemoteAddr já reflita o cliente.
func IPRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.middleware("ip", func(r *http.Request) string {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return r.RemoteAddr
		}
		return host
	})
}

// UserRateLimit limita rotas autenticadas pelo id do usuário.
func UserRateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return limiter.middleware("usuario", func(r *http.Request) string {
		id, ok := GetUserID(r.Context())
		if !ok {
			return ""
		}
		return strconv.FormatInt(id, 10)
	})
}
