package errors

import (
	"fmt"
	"strings"
)

// Project Errors

func ProjectNotFound(name string) *HarbormasterError {
	return NewWithDetails(ErrProjectNotFound, "Project not found", fmt.Sprintf("Name: %s", name))
}

func ProjectExists(name string) *HarbormasterError {
	return NewWithDetails(ErrProjectExists, "Project already exists", fmt.Sprintf("Name: %s", name))
}

// Validation Errors

func ValidationFailed(field string, value interface{}, reason string) *HarbormasterError {
	return NewWithDetails(ErrValidationFailed, "Validation failed",
		fmt.Sprintf("Field: %s, Value: %v, Reason: %s", field, value, reason))
}

func InvalidPort(value interface{}, reason string) *HarbormasterError {
	return NewWithDetails(ErrInvalidPort, "Invalid port", fmt.Sprintf("Port: %v, Reason: %s", value, reason))
}

func MissingEnvVars(names []string) *HarbormasterError {
	return NewWithDetails(ErrMissingEnvVars, "Required environment variables are not set",
		fmt.Sprintf("Variables: %s", strings.Join(names, ", ")))
}

// Conflict Errors

func PortConflict(hostPort int, holder string) *HarbormasterError {
	return NewWithDetails(ErrPortConflict, "Host port conflict",
		fmt.Sprintf("Port %d is already bound by %s", hostPort, holder))
}

func DuplicatePortBinding(hostPort int, bindings []string) *HarbormasterError {
	return NewWithDetails(ErrPortConflict, "Duplicate host port binding",
		fmt.Sprintf("Port %d is requested by %s", hostPort, strings.Join(bindings, " and ")))
}

// Compose Errors

func ComposeFileNotFound(dir string) *HarbormasterError {
	return NewWithDetails(ErrComposeFileNotFound, "Compose file not found", fmt.Sprintf("Directory: %s", dir))
}

func ComposeParseError(path string, cause error) *HarbormasterError {
	return WrapWithDetails(ErrComposeParse, "Failed to parse compose file", fmt.Sprintf("Path: %s", path), cause)
}

// External Tool Errors

func ToolFailed(tool, verb, output string, cause error) *HarbormasterError {
	return WrapWithDetails(ErrToolFailed, fmt.Sprintf("%s %s failed", tool, verb),
		strings.TrimSpace(output), cause)
}

// Git Errors

func GitCloneFailed(url string, cause error) *HarbormasterError {
	return WrapWithDetails(ErrGitCloneFailed, "Failed to clone repository", fmt.Sprintf("URL: %s", url), cause)
}

func GitPullFailed(path string, cause error) *HarbormasterError {
	return WrapWithDetails(ErrGitPullFailed, "Failed to pull repository", fmt.Sprintf("Path: %s", path), cause)
}

// Container Errors

func ContainerQueryFailed(operation string, cause error) *HarbormasterError {
	return WrapWithDetails(ErrContainerQuery, "Container runtime query failed",
		fmt.Sprintf("Operation: %s", operation), cause)
}
