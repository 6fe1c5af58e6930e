package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectName(t *testing.T) {
	assert.NoError(t, ProjectName("demo"))
	assert.NoError(t, ProjectName("my-app-2"))
	assert.NoError(t, ProjectName("a"))

	assert.Error(t, ProjectName(""))
	assert.Error(t, ProjectName("Has Spaces"))
	assert.Error(t, ProjectName("UPPER"))
	assert.Error(t, ProjectName("slash/name"))
	assert.Error(t, ProjectName("../escape"))
	assert.Error(t, ProjectName(strings.Repeat("a", 65)))
}

func TestEnvVarKey(t *testing.T) {
	assert.NoError(t, EnvVarKey("DATABASE_URL"))
	assert.NoError(t, EnvVarKey("_PRIVATE"))
	assert.NoError(t, EnvVarKey("V2"))

	assert.Error(t, EnvVarKey(""))
	assert.Error(t, EnvVarKey("2STARTS_WITH_DIGIT"))
	assert.Error(t, EnvVarKey("WITH-DASH"))
	assert.Error(t, EnvVarKey("WITH SPACE"))
}

func TestContainerID(t *testing.T) {
	assert.NoError(t, ContainerID("abc123"))
	assert.NoError(t, ContainerID("demo-web-1"))
	assert.NoError(t, ContainerID("demo.web_1"))

	assert.Error(t, ContainerID(""))
	assert.Error(t, ContainerID("bad id"))
	assert.Error(t, ContainerID("-leading-dash"))
	assert.Error(t, ContainerID("$(rm -rf)"))
	assert.Error(t, ContainerID(strings.Repeat("a", 256)))
}

func TestPortNumber(t *testing.T) {
	assert.NoError(t, PortNumber(1))
	assert.NoError(t, PortNumber(8080))
	assert.NoError(t, PortNumber(65535))

	assert.Error(t, PortNumber(0))
	assert.Error(t, PortNumber(-1))
	assert.Error(t, PortNumber(65536))
}

func TestNonEmptyString(t *testing.T) {
	assert.NoError(t, NonEmptyString("repo_url", "https://example.com"))
	assert.Error(t, NonEmptyString("repo_url", ""))
	assert.Error(t, NonEmptyString("repo_url", "   "))
}
