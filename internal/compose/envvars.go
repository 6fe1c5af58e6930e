package compose

import (
	"os"
	"regexp"
	"strings"

	"harbormaster/internal/errors"
)

// placeholderRegex matches shell-style substitutions ${NAME} with an
// optional modifier: ${NAME:-def}, ${NAME-def}, ${NAME:?err}, ${NAME?err},
// ${NAME:+alt}, ${NAME+alt}.
var placeholderRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:?[-+?][^}]*)?\}`)

// RequiredEnvVars scans a compose document for environment variable
// placeholders that must be supplied before deployment: those with no
// default-value or optional-substitution modifier, or with an explicit
// must-be-set modifier. This is a textual pass, not a shell-expansion
// evaluator; exotic nested forms are classified by their outer name.
func RequiredEnvVars(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrFileRead, "failed to read compose file", err)
	}

	// $$ escapes a literal dollar in compose files; those are not
	// substitutions.
	text := strings.ReplaceAll(string(data), "$$", "")

	var required []string
	seen := make(map[string]bool)

	for _, match := range placeholderRegex.FindAllStringSubmatch(text, -1) {
		name, modifier := match[1], match[2]
		if !placeholderRequired(modifier) {
			continue
		}
		if !seen[name] {
			seen[name] = true
			required = append(required, name)
		}
	}

	return required, nil
}

// placeholderRequired reports whether a substitution modifier leaves the
// variable mandatory.
func placeholderRequired(modifier string) bool {
	if modifier == "" {
		return true
	}
	op := strings.TrimPrefix(modifier, ":")
	switch op[0] {
	case '?':
		return true
	default:
		// '-' supplies a default, '+' substitutes only when set; both are
		// satisfiable without the operator providing a value.
		return false
	}
}

// MissingEnvVars returns the required names that are absent from both the
// project's environment map and the ambient process environment.
func MissingEnvVars(required []string, projectEnv map[string]string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := projectEnv[name]; ok {
			continue
		}
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		missing = append(missing, name)
	}
	return missing
}
