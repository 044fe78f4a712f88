// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/toitlang/ppmcap/cmd/ppmcap/directory"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

var ErrPortNotFound = errors.New("no serial port found")

// Substrings of port descriptions that identify the USB-serial bridges
// found on ESP32 boards.
var bridgeChipNames = []string{"CP210", "CH340", "USB"}

func SetPortCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "set-port",
		Short:        "Select the serial port you want to capture from",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}

			cfg, err := directory.GetUserConfig()
			if err != nil {
				return err
			}

			port, err := pickPort(all)
			if err != nil {
				return err
			}

			cfg.Set(PortCfgKey, port)
			if err := directory.WriteConfig(cfg); err != nil {
				return err
			}
			fmt.Printf("Using port '%s' for future captures.\n", port)
			return nil
		},
	}

	cmd.Flags().Bool("all", false, "if set, will show all available ports")
	return cmd
}

// portDescription is the text auto-detection matches against: the USB
// product string when the driver reports one, the device name otherwise.
func portDescription(p *enumerator.PortDetails) string {
	if p.Product != "" {
		return p.Product
	}
	return filepath.Base(p.Name)
}

func isBridgePort(p *enumerator.PortDetails) bool {
	desc := portDescription(p)
	for _, chip := range bridgeChipNames {
		if strings.Contains(desc, chip) {
			return true
		}
	}
	return false
}

// matchBridgePort returns the first port that looks like a USB-serial bridge.
func matchBridgePort(ports []*enumerator.PortDetails) (string, bool) {
	for _, p := range ports {
		if isBridgePort(p) {
			return p.Name, true
		}
	}
	return "", false
}

func DetectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", err
	}
	port, ok := matchBridgePort(ports)
	if !ok {
		return "", ErrPortNotFound
	}
	return port, nil
}

// resolvePort picks the port given on the command line, then the configured
// one, then the first detected bridge.
func resolvePort(arg string, configured string) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if configured != "" {
		return configured, nil
	}
	port, err := DetectPort()
	if err != nil {
		return "", err
	}
	fmt.Printf("Found potential ESP32 at: %s\n", port)
	return port, nil
}

func pickPort(all bool) (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return "", err
	}
	if !all {
		ports = filterPorts(ports)
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("no serial ports detected. Have you installed the driver to the ESP32 you have connected?")
	}

	prompt := promptui.Select{
		Label:     "Choose what serial port you want to use",
		Items:     ports,
		Templates: &promptui.SelectTemplates{},
	}

	i, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("you didn't select anything")
	}

	return ports[i], nil
}

func filterPorts(ports []string) []string {
	switch runtime.GOOS {
	case "darwin":
		return darwinFilterPaths(ports)
	case "linux":
		return linuxFilterPaths(ports)
	default:
		return ports
	}
}

func darwinFilterPaths(paths []string) []string {
	existing := map[string]struct{}{}
	for _, p := range paths {
		existing[p] = struct{}{}
	}
	var res []string
	for _, path := range paths {
		if strings.HasPrefix(path, "/dev/cu") && !strings.Contains(path, "Bluetooth") {
			res = append(res, path)
		} else if strings.HasPrefix(path, "/dev/tty") && !strings.Contains(path, "Bluetooth") {
			candidate := "/dev/cu" + strings.TrimPrefix(path, "/dev/tty")
			if _, exists := existing[candidate]; !exists {
				res = append(res, path)
			}
		}
	}
	return res
}

func linuxFilterPaths(paths []string) []string {
	res := []string(nil)
	for _, path := range paths {
		if strings.Contains(path, "tty") {
			if strings.Contains(path, "USB") || strings.Contains(path, "ACM") {
				res = append(res, path)
			}
		}
	}
	return res
}
