// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/toitlang/ppmcap/cmd/ppmcap/log"
)

type ctxKey string

const (
	ctxKeyInfo ctxKey = "info"
)

type Info struct {
	Version string `mapstructure:"version" yaml:"version" json:"version"`
	Date    string `mapstructure:"date" yaml:"date" json:"date"`
}

func SetInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, ctxKeyInfo, info)
}

func GetInfo(ctx context.Context) Info {
	info, _ := ctx.Value(ctxKeyInfo).(Info)
	return info
}

func PpmcapCmd(isReleaseBuild bool) *cobra.Command {
	settings := ConfiguredSettings()

	cmd := &cobra.Command{
		Use:   "ppmcap [port] [host]",
		Short: "Capture a screenshot that an ESP32 display sends over serial",
		Long: "ppmcap listens on a serial port for a screenshot in PPM format, sent by the\n" +
			"CYD World Clock firmware, and saves it as an image file.\n\n" +
			"Without a port argument the configured port is used, or the first port that\n" +
			"looks like an ESP32 USB-serial bridge. With a host argument ppmcap asks the\n" +
			"device to send the screenshot through its web interface before listening.",
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := settings.LogLevel
			if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
				level = "debug"
			}
			log.Init(os.Stderr, level)
		},
		RunE: runCaptureCmd(settings),
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "log debug details to stderr")
	addCaptureFlags(cmd.Flags(), settings)

	cmd.AddCommand(
		DecodeCmd(settings),
		TriggerCmd(settings),
		PortsCmd(),
		SetPortCmd(),
		ConfigCmd(),
		VersionCmd(isReleaseBuild),
	)
	return cmd
}
