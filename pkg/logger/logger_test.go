package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

func TestNew_JSONConNivelYServicio(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "WARN", Service: "flowork", Output: &buf})

	log.Info().Msg("descartado")
	assert.Empty(t, buf.String(), "info queda por debajo de warn")

	log.Warn().Str("store_id", "s1").Msg("aviso")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "flowork", line["service"])
	assert.Equal(t, "s1", line["store_id"])
	assert.Contains(t, line, "time")
}

func TestJob_AgregaCamposDelTrabajo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "debug", Output: &buf})

	log.Job("job-1", "brand-1", "store").Debug().Msg("lote confirmado")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "job-1", line["job_id"])
	assert.Equal(t, "brand-1", line["brand_id"])
	assert.Equal(t, "store", line["mode"])
}

func TestNew_DevelopmentEsLegible(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "development", Output: &buf})
	log.Info().Msg("hola")
	out := buf.String()
	assert.Contains(t, out, "hola")
	assert.False(t, strings.HasPrefix(out, "{"), "la consola no emite JSON")
}
