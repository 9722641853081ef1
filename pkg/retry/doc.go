// Package retry provides retry logic with configurable backoff strategies
// for transient failures when talking to the IGFollow service or the avatar
// host. Retryability is decided from the typed errors in pkg/errors.
package retry
