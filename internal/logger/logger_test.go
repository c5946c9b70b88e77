package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/choromap/internal/logger"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	logger.Logger{Level: "debug", Format: "json"}.SetupWriter(&buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Trace().Msg("hidden")
	log.Debug().Str("layer", "districts").Msg("Layer classified")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "districts", entry["layer"])
	assert.Equal(t, "Layer classified", entry["message"])
}

func TestSetupUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger.Logger{Level: "loud", Format: "console", NoColor: true}.SetupWriter(&buf)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	log.Info().Msg("ready")
	assert.Contains(t, buf.String(), "ready")
}
