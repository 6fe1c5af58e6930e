package validation

import (
	"regexp"
	"strings"

	"harbormaster/internal/constants"
	"harbormaster/internal/errors"
)

var (
	// projectNameRegex validates project names; the name doubles as a
	// directory name and a compose project name so it must stay shell-safe
	projectNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

	// containerIDRegex validates container IDs and names
	containerIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

	// envVarKeyRegex validates environment variable keys
	envVarKeyRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// ProjectName validates a project name
func ProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.ValidationFailed("name", name, "cannot be empty")
	}

	if len(name) > 64 {
		return errors.ValidationFailed("name", name, "too long (max 64 characters)")
	}

	if !projectNameRegex.MatchString(name) {
		return errors.ValidationFailed("name", name,
			"must start with a lowercase letter or digit and contain only lowercase letters, digits, hyphens, and underscores")
	}

	return nil
}

// ContainerID validates a container ID or name to prevent injection
func ContainerID(id string) error {
	if id == "" {
		return errors.ValidationFailed("container_id", id, "cannot be empty")
	}

	if len(id) > 255 {
		return errors.ValidationFailed("container_id", id, "too long (max 255 characters)")
	}

	if !containerIDRegex.MatchString(id) {
		return errors.ValidationFailed("container_id", id, "contains invalid characters")
	}

	return nil
}

// EnvVarKey validates an environment variable name
func EnvVarKey(key string) error {
	if !envVarKeyRegex.MatchString(key) {
		return errors.ValidationFailed("environment_variable_key", key,
			"must contain only letters, numbers, and underscores")
	}
	return nil
}

// PortNumber validates a single port number
func PortNumber(port int) error {
	if port < constants.MinPortNumber || port > constants.MaxPortNumber {
		return errors.InvalidPort(port, "must be between 1 and 65535")
	}
	return nil
}

// NonEmptyString validates that a string is not empty or only whitespace
func NonEmptyString(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.ValidationFailed(field, s, "cannot be empty or only whitespace")
	}
	return nil
}
