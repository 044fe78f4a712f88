// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/toitlang/ppmcap/cmd/ppmcap/directory"
	"github.com/toitlang/ppmcap/cmd/ppmcap/frame"
	"github.com/toitlang/ppmcap/cmd/ppmcap/log"
)

const (
	PortCfgKey           = "port"
	BaudCfgKey           = "baud"
	ReadTimeoutCfgKey    = "read-timeout"
	SettleCfgKey         = "settle"
	TriggerDelayCfgKey   = "trigger-delay"
	TriggerTimeoutCfgKey = "trigger-timeout"
	OutputCfgKey         = "output"
	MaxPixelsCfgKey      = "max-pixels"
	LogLevelCfgKey       = "log-level"
)

var settingDefaults = map[string]interface{}{
	PortCfgKey:           "",
	BaudCfgKey:           115200,
	ReadTimeoutCfgKey:    "2s",
	SettleCfgKey:         "1s",
	TriggerDelayCfgKey:   "1s",
	TriggerTimeoutCfgKey: defaultTriggerTimeout.String(),
	OutputCfgKey:         "screenshot.png",
	MaxPixelsCfgKey:      frame.DefaultMaxPixels,
	LogLevelCfgKey:       "info",
}

// Settings are the capture parameters stored in the user config. Command
// line flags default to these values.
type Settings struct {
	Port           string        `mapstructure:"port" yaml:"port" json:"port"`
	Baud           int           `mapstructure:"baud" yaml:"baud" json:"baud"`
	ReadTimeout    time.Duration `mapstructure:"read-timeout" yaml:"read-timeout" json:"read-timeout"`
	Settle         time.Duration `mapstructure:"settle" yaml:"settle" json:"settle"`
	TriggerDelay   time.Duration `mapstructure:"trigger-delay" yaml:"trigger-delay" json:"trigger-delay"`
	TriggerTimeout time.Duration `mapstructure:"trigger-timeout" yaml:"trigger-timeout" json:"trigger-timeout"`
	Output         string        `mapstructure:"output" yaml:"output" json:"output"`
	MaxPixels      int           `mapstructure:"max-pixels" yaml:"max-pixels" json:"max-pixels"`
	LogLevel       string        `mapstructure:"log-level" yaml:"log-level" json:"log-level"`
}

// SettingKeys lists the keys accepted by 'ppmcap config set'.
func SettingKeys() []string {
	var keys []string
	for k := range settingDefaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isSettingKey(key string) bool {
	_, ok := settingDefaults[key]
	return ok
}

func LoadSettings(cfg *viper.Viper) (Settings, error) {
	for k, v := range settingDefaults {
		cfg.SetDefault(k, v)
	}

	var res Settings
	hook := viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())
	if err := cfg.Unmarshal(&res, hook); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in '%s': %w", cfg.ConfigFileUsed(), err)
	}
	if err := res.validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in '%s': %w", cfg.ConfigFileUsed(), err)
	}
	return res, nil
}

func (s Settings) validate() error {
	if s.Baud <= 0 {
		return fmt.Errorf("%s must be positive, got %d", BaudCfgKey, s.Baud)
	}
	if s.ReadTimeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", ReadTimeoutCfgKey, s.ReadTimeout)
	}
	if s.Output == "" {
		return fmt.Errorf("%s must not be empty", OutputCfgKey)
	}
	return nil
}

func DefaultSettings() Settings {
	res, err := LoadSettings(viper.New())
	if err != nil {
		panic(err)
	}
	return res
}

func GetSettings() (Settings, error) {
	cfg, err := directory.GetUserConfig()
	if err != nil {
		return Settings{}, err
	}
	return LoadSettings(cfg)
}

// ConfiguredSettings is used for flag defaults; a broken config falls back to
// the built-in defaults so that the command line still works.
func ConfiguredSettings() Settings {
	res, err := GetSettings()
	if err != nil {
		log.Warn("ignoring user config", "err", err)
		return DefaultSettings()
	}
	return res
}
