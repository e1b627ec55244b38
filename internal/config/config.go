package config

import "time"

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag or environment.
	DefaultDatabaseURL = ""

	// DefaultStorageDir is where the image-storage collaborator keeps objects.
	DefaultStorageDir = "storage"

	// TokenTTL is the lifetime of an issued access token.
	TokenTTL = 12 * time.Hour
)
