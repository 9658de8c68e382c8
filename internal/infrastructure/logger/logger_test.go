package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := build(&buf, "WARN", "json", "money-coach")
	require.NoError(t, err)

	log.Info().Msg("dropped")
	log.Warn().Str("chat_type", "INCOME").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "money-coach", line["service"])
	assert.Equal(t, "INCOME", line["chat_type"])
	assert.Equal(t, "warn", line["level"])
}

func TestBuild_InstallsFallback(t *testing.T) {
	var buf bytes.Buffer
	_, err := build(&buf, "debug", "json", "fallback-test")
	require.NoError(t, err)

	l := GetLogger()
	l.Debug().Msg("via fallback")
	assert.Contains(t, buf.String(), "fallback-test")
	assert.Equal(t, zerolog.DebugLevel, GetLogger().GetLevel())
}

func TestBuild_Rejects(t *testing.T) {
	_, err := build(&bytes.Buffer{}, "loud", "json", "svc")
	assert.Error(t, err)

	_, err = build(&bytes.Buffer{}, "info", "xml", "svc")
	assert.Error(t, err)
}

func TestBuild_EmptyLevelMeansInfo(t *testing.T) {
	log, err := build(&bytes.Buffer{}, "", "console", "svc")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
