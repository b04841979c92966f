// Package timeout defines centralized timeout constants for request handling
// and database access.
package timeout

import "time"

const (
	// RequestTimeout bounds a single HTTP request, including its queries.
	RequestTimeout = 15 * time.Second

	// ShutdownTimeout is how long in-flight requests get to finish on shutdown.
	ShutdownTimeout = 10 * time.Second

	// DBPingTimeout bounds the connectivity check made when a driver opens.
	DBPingTimeout = 5 * time.Second

	// ConnMaxLifetime and ConnMaxIdleTime recycle pooled connections.
	ConnMaxLifetime = time.Hour
	ConnMaxIdleTime = 15 * time.Minute
)
