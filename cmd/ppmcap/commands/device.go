// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/toitlang/ppmcap/cmd/ppmcap/log"
)

const (
	screenshotPath        = "/api/screenshot"
	defaultTriggerTimeout = 5 * time.Second
)

// Device is the web interface of the display that sends the screenshot.
type Device struct {
	Address string `mapstructure:"address" yaml:"address" json:"address"`
}

// NewDevice accepts a bare host ("192.168.1.100"), a host with port, or a
// full http(s) URL.
func NewDevice(host string) Device {
	address := strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}
	return Device{Address: address}
}

func (d Device) String() string {
	return fmt.Sprintf("device (address: %s)", d.Address)
}

func (d Device) ScreenshotURL() string {
	return d.Address + screenshotPath
}

// TriggerScreenshot asks the device to start sending a frame on its serial
// port and returns the response body. There are no retries.
func (d Device) TriggerScreenshot(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.ScreenshotURL(), nil)
	if err != nil {
		return "", err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return string(body), fmt.Errorf("got non-OK from device: %s", res.Status)
	}
	return string(body), nil
}

// triggerScreenshot prints the outcome of the trigger request and reports
// whether it succeeded. Failures are never fatal to the caller.
func triggerScreenshot(ctx context.Context, w io.Writer, d Device, timeout time.Duration) bool {
	fmt.Fprintf(w, "Triggering screenshot at %s...\n", d.ScreenshotURL())
	body, err := d.TriggerScreenshot(ctx, timeout)
	if err != nil {
		fmt.Fprintf(w, "Error triggering screenshot: %v\n", err)
		log.Debug("trigger failed", "address", d.Address, "err", err)
		return false
	}
	fmt.Fprintf(w, "Response: %s\n", body)
	return true
}
