package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/sitewatch/internal/orchestrator"
	"github.com/stretchr/testify/assert"
)

func TestRun_Help(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"-h"}, nil, &bytes.Buffer{}, &stderr)

	assert.Equal(t, orchestrator.ExitOK, code)
	assert.Contains(t, stderr.String(), "-interval")
}

func TestRun_InvalidArguments(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"example.com"}, nil, &bytes.Buffer{}, &stderr)

	assert.Equal(t, orchestrator.ExitInvalidArguments, code)
	assert.Contains(t, stderr.String(), "not an absolute http(s) URL")
}

func TestRun_MissingConfigFile(t *testing.T) {
	var stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "absent.yaml")
	code := run([]string{"-config", missing}, nil, &bytes.Buffer{}, &stderr)

	assert.Equal(t, orchestrator.ExitInvalidArguments, code)
	assert.Contains(t, stderr.String(), "Could not load config")
}

func TestRun_InvalidConfigValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitewatch.yaml")
	content := "log_config:\n  log_file: \"" + filepath.Join(dir, "sitewatch.log") + "\"\nmonitor_config:\n  url: \"https://example.com/\"\n  startup_attempts: 50\n"
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	var stderr bytes.Buffer
	code := run([]string{"-config", path}, nil, &bytes.Buffer{}, &stderr)

	assert.Equal(t, orchestrator.ExitInvalidArguments, code)
	assert.Contains(t, stderr.String(), "Configuration is invalid")
}
