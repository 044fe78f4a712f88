// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/toitlang/ppmcap/cmd/ppmcap/frame"
	"go.bug.st/serial"
)

// streamOpener opens the byte stream a capture reads from.
type streamOpener func(port string, baud int, readTimeout time.Duration) (io.ReadCloser, error)

func openSerial(port string, baud int, readTimeout time.Duration) (io.ReadCloser, error) {
	return serialOpen(port, &serial.Mode{
		BaudRate: baud,
	}, readTimeout)
}

func serialOpen(port string, mode *serial.Mode, readTimeout time.Duration) (*serialPort, error) {
	dev, err := serial.Open(port, mode)
	var portErr *serial.PortError
	if os.IsNotExist(err) || (errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound) {
		return nil, fmt.Errorf("the port '%s' was not found", port)
	}
	if err != nil {
		return nil, err
	}

	if err := dev.SetReadTimeout(readTimeout); err != nil {
		dev.Close()
		return nil, err
	}
	return &serialPort{dev}, nil
}

type serialPort struct {
	serial.Port
}

// Read reports a read that timed out without data as frame.ErrReadTimeout
// instead of the (0, nil) the serial driver returns.
func (s serialPort) Read(buf []byte) (n int, err error) {
	n, err = s.Port.Read(buf)
	if err == nil && n == 0 {
		return 0, frame.ErrReadTimeout
	}
	return n, err
}
