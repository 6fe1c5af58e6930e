// Package constants defines application-wide constants to avoid magic numbers
package constants

import "time"

// Network and Port Constants
const (
	// DefaultServerPort is the default port for the Harbormaster API server
	DefaultServerPort = 8080

	// MinPortNumber is the minimum valid TCP port number
	MinPortNumber = 1

	// MaxPortNumber is the maximum valid TCP port number
	MaxPortNumber = 65535
)

// File System Permissions
const (
	// DirPermissions is the standard directory permissions for harbormaster directories
	DirPermissions = 0755

	// FilePermissions is the standard file permissions for harbormaster config files
	FilePermissions = 0644
)

// HTTP Configuration
const (
	// DefaultServerReadTimeout is the default server read timeout
	DefaultServerReadTimeout = 10 * time.Second

	// DefaultServerWriteTimeout is the default server write timeout
	DefaultServerWriteTimeout = 10 * time.Second

	// DefaultServerShutdownTimeout is the default server graceful shutdown timeout
	DefaultServerShutdownTimeout = 30 * time.Second
)

// Orchestration Tooling
const (
	// DefaultPrimaryComposeBinary drives compose verbs through the docker CLI plugin
	DefaultPrimaryComposeBinary = "docker"

	// DefaultLegacyComposeBinary is the standalone compose binary used as fallback
	DefaultLegacyComposeBinary = "docker-compose"

	// DefaultDockerBinary is the container runtime CLI used for queries
	DefaultDockerBinary = "docker"
)

// Logging and Output Limits
const (
	// DefaultLogTailLines is the default number of log lines to fetch per container
	DefaultLogTailLines = 100

	// MaxLogTailLines caps log requests to prevent unbounded responses
	MaxLogTailLines = 5000
)

// Deployment Conventions
const (
	// SeedScriptPath is the conventional post-deploy seed hook inside a checkout
	SeedScriptPath = "scripts/seed.sh"
)
