package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_FollowsSemverOrDev(t *testing.T) {
	require.NotEmpty(t, Version)
	if Version == "dev" {
		return
	}
	semverRegex := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
	assert.True(t, semverRegex.MatchString(Version), "Version should follow semver format, got: %s", Version)
}

func TestString_IncludesBuildInfo(t *testing.T) {
	s := String()

	assert.Contains(t, s, "indexwrap "+Version)
	assert.Contains(t, s, "commit: "+Commit)
	assert.Contains(t, s, "go: "+GoVersion)
	assert.Equal(t, Version, Short())
}

func TestGetInfo_MarshalsToJSON(t *testing.T) {
	// Given: build info
	info := GetInfo()

	// When: marshalling for --json output
	data, err := json.Marshal(info)
	require.NoError(t, err)

	// Then: platform fields are present
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, runtime.GOOS, decoded["os"])
	assert.Equal(t, runtime.GOARCH, decoded["arch"])
	assert.Equal(t, Version, decoded["version"])
}
