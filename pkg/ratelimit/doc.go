// Package ratelimit keeps Graph API requests under a per-minute budget.
//
// Token Bucket refills to full capacity once per period and suits bursty
// exports. Sliding Window caps requests in any trailing window and is the
// default.
//
// Usage:
//
//	limiter, err := ratelimit.New(cfg.RateLimit)
//	if err != nil {
//	    return err
//	}
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // ctx cancelled
//	}
package ratelimit
