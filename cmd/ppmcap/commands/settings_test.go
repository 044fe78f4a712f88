package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitlang/ppmcap/cmd/ppmcap/directory"
	"github.com/toitlang/ppmcap/cmd/ppmcap/frame"
)

func Test_DefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "", s.Port)
	assert.Equal(t, 115200, s.Baud)
	assert.Equal(t, 2*time.Second, s.ReadTimeout)
	assert.Equal(t, time.Second, s.Settle)
	assert.Equal(t, time.Second, s.TriggerDelay)
	assert.Equal(t, 5*time.Second, s.TriggerTimeout)
	assert.Equal(t, "screenshot.png", s.Output)
	assert.Equal(t, frame.DefaultMaxPixels, s.MaxPixels)
	assert.Equal(t, "info", s.LogLevel)
}

func Test_GetSettings_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(directory.UserConfigPathEnv, path)
	yaml := "port: /dev/ttyUSB1\nbaud: 921600\nread-timeout: 500ms\noutput: clock.ppm\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	s, err := GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB1", s.Port)
	assert.Equal(t, 921600, s.Baud)
	assert.Equal(t, 500*time.Millisecond, s.ReadTimeout)
	assert.Equal(t, "clock.ppm", s.Output)
	assert.Equal(t, 5*time.Second, s.TriggerTimeout)
}

func Test_LoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value interface{}
	}{
		{key: BaudCfgKey, value: 0},
		{key: BaudCfgKey, value: "fast"},
		{key: ReadTimeoutCfgKey, value: "0s"},
		{key: ReadTimeoutCfgKey, value: "soon"},
		{key: OutputCfgKey, value: ""},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			cfg := viper.New()
			cfg.Set(test.key, test.value)
			_, err := LoadSettings(cfg)
			assert.Error(t, err)
		})
	}
}

func Test_SettingKeys(t *testing.T) {
	keys := SettingKeys()
	assert.Contains(t, keys, PortCfgKey)
	assert.Contains(t, keys, ReadTimeoutCfgKey)
	assert.True(t, isSettingKey(MaxPixelsCfgKey))
	assert.False(t, isSettingKey("wifi"))
}
