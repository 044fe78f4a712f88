// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toitlang/ppmcap/cmd/ppmcap/directory"
	"gopkg.in/yaml.v2"
)

func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configure ppmcap",
		Long: "Show or change the defaults ppmcap uses for captures. The settings are\n" +
			"stored in a YAML file, by default ~/.config/ppmcap/config.yaml; set\n" +
			directory.UserConfigPathEnv + " to use another file.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:          "show",
			Short:        "Print the effective settings",
			Args:         cobra.NoArgs,
			SilenceUsage: true,
			RunE: func(_ *cobra.Command, _ []string) error {
				cfg, err := directory.GetUserConfig()
				if err != nil {
					return err
				}
				if _, err := LoadSettings(cfg); err != nil {
					return err
				}
				fmt.Printf("# %s\n", cfg.ConfigFileUsed())
				return yaml.NewEncoder(os.Stdout).Encode(cfg.AllSettings())
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a setting",
			Long: "Change a setting. Known keys: " + strings.Join(SettingKeys(), ", ") + ".\n" +
				"Durations are written like '2s' or '500ms'.",
			Args:         cobra.ExactArgs(2),
			SilenceUsage: true,
			RunE: func(_ *cobra.Command, args []string) error {
				key, value := args[0], args[1]
				if !isSettingKey(key) {
					return fmt.Errorf("unknown setting '%s'. Known keys: %s", key, strings.Join(SettingKeys(), ", "))
				}

				cfg, err := directory.GetUserConfig()
				if err != nil {
					return err
				}
				cfg.Set(key, value)
				if _, err := LoadSettings(cfg); err != nil {
					return err
				}
				return directory.WriteConfig(cfg)
			},
		},
	)
	return cmd
}
