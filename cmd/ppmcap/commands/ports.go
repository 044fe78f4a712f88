// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

type portInfo struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	USB          bool   `json:"usb" yaml:"usb"`
	VID          string `json:"vid,omitempty" yaml:"vid,omitempty"`
	PID          string `json:"pid,omitempty" yaml:"pid,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty" yaml:"serialNumber,omitempty"`
	Detected     bool   `json:"detected" yaml:"detected"`
}

func (p portInfo) Short() string {
	return p.Name
}

type portList []portInfo

func (l portList) Elements() []Short {
	var res []Short
	for _, p := range l {
		res = append(res, p)
	}
	return res
}

func newPortList(ports []*enumerator.PortDetails) portList {
	detected, _ := matchBridgePort(ports)
	res := portList{}
	for _, p := range ports {
		res = append(res, portInfo{
			Name:         p.Name,
			Description:  portDescription(p),
			USB:          p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
			Detected:     p.Name == detected,
		})
	}
	return res
}

func (l portList) print(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()
	for _, p := range l {
		mark := " "
		if p.Detected {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", mark, p.Name, p.Description)
	}
}

func PortsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ports",
		Short:        "List serial ports and show which one would be auto-detected",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := parseFormatFlag(cmd.Flags(), os.Stdout)
			if err != nil {
				return err
			}

			details, err := enumerator.GetDetailedPortsList()
			if err != nil {
				return err
			}
			ports := newPortList(details)

			if enc != nil {
				return enc.Encode(ports)
			}
			if len(ports) == 0 {
				fmt.Println("No serial ports found.")
				return nil
			}
			ports.print(os.Stdout)
			return nil
		},
	}

	cmd.Flags().BoolP("list", "l", false, "if set, will output the ports in a machine readable format")
	cmd.Flags().String("format", "short", "set output format to json, yaml or short (works only with '--list')")
	return cmd
}
