// Package logger provides structured logging functionality for the
// application, plus helpers for carrying a request-scoped logger through
// a context.
package logger
