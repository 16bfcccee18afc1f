package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a tenant's bucket is kept after its last request.
// It is longer than the one minute a bucket needs to refill completely, so a
// dropped bucket would have allowed the same requests as a kept one.
const limiterIdleTTL = 10 * time.Minute

type tenantBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// tenantLimiter keeps one token bucket per tenant and drops buckets idle for limiterIdleTTL
type tenantLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*tenantBucket
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// newTenantLimiter allows perMinute requests per tenant with a burst of the same size.
// perMinute <= 0 disables limiting.
func newTenantLimiter(perMinute int) *tenantLimiter {
	if perMinute <= 0 {
		return &tenantLimiter{limit: rate.Inf}
	}
	return &tenantLimiter{
		buckets: make(map[string]*tenantBucket),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		idleTTL: limiterIdleTTL,
		now:     time.Now,
	}
}

// Allow reports whether tenantID may make a request now
func (l *tenantLimiter) Allow(tenantID string) bool {
	if l.limit == rate.Inf {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	bucket, ok := l.buckets[tenantID]
	if !ok {
		bucket = &tenantBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[tenantID] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter.AllowN(now, 1)
}

// sweep removes buckets not used within idleTTL. Caller holds mu.
func (l *tenantLimiter) sweep(now time.Time) {
	for tenantID, bucket := range l.buckets {
		if now.Sub(bucket.lastSeen) >= l.idleTTL {
			delete(l.buckets, tenantID)
		}
	}
	l.lastSweep = now
}
