// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func TriggerCmd(settings Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger <host>",
		Short: "Ask a device to send a screenshot over its serial port",
		Long: "Sends the screenshot request to the web interface of the device without\n" +
			"listening on the serial port. Use this when the serial output is\n" +
			"captured by another program.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, err := cmd.Flags().GetDuration("trigger-timeout")
			if err != nil {
				return err
			}

			if !triggerScreenshot(cmd.Context(), os.Stdout, NewDevice(args[0]), timeout) {
				cmd.SilenceErrors = true
				return fmt.Errorf("couldn't trigger the screenshot")
			}
			return nil
		},
	}

	cmd.Flags().Duration("trigger-timeout", settings.TriggerTimeout, "how long to wait for the device to answer")
	return cmd
}
