// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/toitlang/ppmcap/cmd/ppmcap/frame"
)

func DecodeCmd(settings Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Convert a recorded serial dump into an image",
		Long: "Decode a screenshot from a file holding raw serial output, for example one\n" +
			"recorded with 'cat /dev/ttyUSB0 > screenshot.ppm'. Text before the header\n" +
			"is skipped, just like during a live capture.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString("output")
			if err != nil {
				return err
			}
			maxPixels, err := cmd.Flags().GetInt("max-pixels")
			if err != nil {
				return err
			}

			input := args[0]
			file, err := os.Open(input)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no such file: '%s'", input)
				}
				return err
			}
			defer file.Close()

			r := frame.NewReader(file, os.Stdout)
			r.MaxPixels = maxPixels
			return decodeAndWrite(cmd.Context(), r, os.Stdout, output, nil)
		},
	}

	cmd.Flags().StringP("output", "o", settings.Output, "image file to write (.png, .jpg or .ppm)")
	cmd.Flags().Int("max-pixels", settings.MaxPixels, "reject frames announcing more pixels than this")
	return cmd
}
