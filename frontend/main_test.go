package main

import (
	"os"
	"path/filepath"
	"testing"

	fadc "github.com/next-exp/fadc500_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "run.conf")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func TestLoadSettings(t *testing.T) {
	settings, err := loadSettings(writeSettings(t, "sid = 2\npolarity = 1\nsampling_rate = 4\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, settings.SID)
	assert.Equal(t, 8.0, settings.TimePerSample())
}

func TestLoadSettingsRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"polarity":      "polarity = 7\n",
		"sampling_rate": "sampling_rate = 0\n",
	}
	for field, content := range tests {
		t.Run(field, func(t *testing.T) {
			_, err := loadSettings(writeSettings(t, content))
			var configErr *fadc.ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, field, configErr.Field)
		})
	}
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := loadSettings(filepath.Join(t.TempDir(), "missing.conf"))
	var openErr *fadc.ErrOpenFile
	assert.ErrorAs(t, err, &openErr)
}

func TestOpenSourceReplay(t *testing.T) {
	config := fadc.DefaultConfiguration()
	config.ReplayFile = filepath.Join(t.TempDir(), "dump.bin")
	require.NoError(t, os.WriteFile(config.ReplayFile, nil, 0o644))

	source, closer, err := openSource(config)
	require.NoError(t, err)
	defer closer.Close()

	units, err := source.Available()
	require.NoError(t, err)
	assert.Zero(t, units)

	config.ReplayFile = filepath.Join(t.TempDir(), "missing.bin")
	_, _, err = openSource(config)
	var openErr *fadc.ErrOpenFile
	assert.ErrorAs(t, err, &openErr)
}
