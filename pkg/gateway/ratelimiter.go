package gateway

import (
	"sync"
	"time"
)

// LimitReason identifies which limit rejected a request.
type LimitReason int

const (
	LimitNone LimitReason = iota
	LimitRequestsPerMinute
	LimitConcurrency
)

// String returns the human-readable rejection message.
func (r LimitReason) String() string {
	switch r {
	case LimitRequestsPerMinute:
		return "rate limit exceeded"
	case LimitConcurrency:
		return "too many concurrent requests"
	default:
		return ""
	}
}

// RPCCode returns the wire error code for the rejection.
func (r LimitReason) RPCCode() int {
	if r == LimitConcurrency {
		return TooManyConcurrent
	}
	return RateLimitExceeded
}

// ClientRateLimiter implements sliding window rate limiting per client
type ClientRateLimiter struct {
	mu                 sync.Mutex
	requestsPerMinute  int
	maxConcurrent      int
	requests           []time.Time
	concurrentRequests int
}

// NewClientRateLimiter creates a rate limiter with the given limits
func NewClientRateLimiter(requestsPerMinute, maxConcurrent int) *ClientRateLimiter {
	return &ClientRateLimiter{
		requestsPerMinute: requestsPerMinute,
		maxConcurrent:     maxConcurrent,
		requests:          make([]time.Time, 0),
	}
}

// CheckRequestAllowed checks if a request is allowed under rate limits
func (r *ClientRateLimiter) CheckRequestAllowed() (bool, LimitReason) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check concurrent requests limit
	if r.concurrentRequests >= r.maxConcurrent {
		return false, LimitConcurrency
	}

	r.pruneLocked(time.Now())

	// Check requests per minute limit
	if len(r.requests) >= r.requestsPerMinute {
		return false, LimitRequestsPerMinute
	}

	return true, LimitNone
}

// RecordRequestStart records the start of a request
func (r *ClientRateLimiter) RecordRequestStart() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, time.Now())
	r.concurrentRequests++
}

// RecordRequestEnd records the end of a request
func (r *ClientRateLimiter) RecordRequestEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.concurrentRequests > 0 {
		r.concurrentRequests--
	}
}

// Stats returns current request and concurrency counts
func (r *ClientRateLimiter) Stats() (requestCount, concurrentCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked(time.Now())
	return len(r.requests), r.concurrentRequests
}

// pruneLocked drops requests older than the window. Caller holds the lock.
func (r *ClientRateLimiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-time.Minute)
	valid := r.requests[:0]
	for _, reqTime := range r.requests {
		if reqTime.After(cutoff) {
			valid = append(valid, reqTime)
		}
	}
	r.requests = valid
}
