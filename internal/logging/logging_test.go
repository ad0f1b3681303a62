package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SplitsByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, err := New(Options{Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("reading raster")
	logger.Warn("degraded sample")
	logger.Error("view failed")
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "reading raster", entry["msg"])
	assert.Contains(t, entry, "caller")
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T`, entry["ts"])

	assert.Contains(t, stderr.String(), "view failed")
	assert.NotContains(t, stderr.String(), "degraded sample")
}

func TestNew_Options(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger, err := New(Options{Level: "ERROR", Format: "console", Stdout: &stdout, Stderr: &stderr})
	require.NoError(t, err)

	logger.Warn("quiet")
	logger.Error("loud")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "ERROR")
	assert.Contains(t, stderr.String(), "loud")

	_, err = New(Options{Level: "chatty"})
	assert.Error(t, err)
	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}
