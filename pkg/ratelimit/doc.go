// Package ratelimit provides a token bucket limiter used to pace requests
// against the third-party avatar host.
package ratelimit
