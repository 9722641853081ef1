// Package logger provides structured logging for igfollow built on zerolog.
//
// The package exposes a Logger interface so components can accept any
// implementation, a package-level default configured once at startup via
// Initialize, and a TestLogger that captures messages for assertions.
package logger
