// Package logger builds the process-wide slog.Logger from environment
// configuration and provides shared attribute constructors.
package logger
