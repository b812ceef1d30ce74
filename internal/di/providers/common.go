// Package providers contains dependency injection providers for the media pipelines.
package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// sentryFlushTimeout bounds how long buffered telemetry may delay exit.
	sentryFlushTimeout = 2 * time.Second
)
