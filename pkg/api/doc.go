// Package api implements the HTTP client for the IGFollow web service.
//
// All requests identify themselves as programmatic (X-Requested-With and a
// JSON Accept header) and carry the session cookie plus the anti-forgery
// token so the export endpoint answers with its JSON envelope rather than
// an HTML page.
package api
