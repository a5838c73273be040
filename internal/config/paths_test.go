package config

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths_XDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	if runtime.GOOS == platformLinux {
		assert.Equal(t, "/tmp/xdg/appservices-go/config.toml", DefaultConfigPath())
	}
}
