package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrntsm/grasshopper-mcp/internal/config"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, params)

	params, err = parseParams([]string{`{"componentId":"c1"}`})
	require.NoError(t, err)
	assert.Equal(t, "c1", params["componentId"])

	params, err = parseParams([]string{"null"})
	require.NoError(t, err)
	assert.NotNil(t, params)

	_, err = parseParams([]string{"[1,2]"})
	assert.Error(t, err)
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config.LogConfig{Level: "info"}).Info("hello", "k", "v")

	// A buffer is not a terminal, so the default is JSON.
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])

	buf.Reset()
	newLogger(&buf, config.LogConfig{Level: "info", Format: "text"}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	logger := newLogger(&buf, config.LogConfig{Level: "warn"})
	logger.Info("dropped")
	assert.Empty(t, buf.String())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestResolveAddress(t *testing.T) {
	dataDirFlag = t.TempDir()
	t.Cleanup(func() { dataDirFlag, addressFlag, canvasFlag = "", "", "" })

	cfg := &config.Config{Canvas: config.CanvasConfig{Address: config.DefaultAddress}}

	got, err := resolveAddress(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAddress, got)

	cc, err := config.LoadCanvasesConfig(dataDirFlag)
	require.NoError(t, err)
	cc.Canvases["studio"] = config.CanvasEntry{Address: "ws://studio:9000/ws"}
	require.NoError(t, cc.Save(dataDirFlag))

	canvasFlag = "studio"
	got, err = resolveAddress(cfg)
	require.NoError(t, err)
	assert.Equal(t, "ws://studio:9000/ws", got)

	addressFlag = "10.0.0.1:8080"
	got, err = resolveAddress(cfg)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:8080", got)

	addressFlag, canvasFlag = "", "missing"
	_, err = resolveAddress(cfg)
	assert.Error(t, err)
}

func TestRootRegistersCommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"serve", "mcp-server", "send", "status", "catalog", "simulate", "canvases"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.NotEqual(t, root, cmd, name)
	}
}
