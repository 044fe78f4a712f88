// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/toitlang/ppmcap/cmd/ppmcap/frame"
	"github.com/toitlang/ppmcap/cmd/ppmcap/log"
)

const captureUsage = `Usage: ppmcap [serial_port] [device_host]
Example (Mac): ppmcap /dev/cu.usbserial-0001
Example (Linux): ppmcap /dev/ttyUSB0
Example (Windows): ppmcap COM3`

type captureOptions struct {
	Port           string
	Host           string
	Output         string
	Baud           int
	ReadTimeout    time.Duration
	Settle         time.Duration
	TriggerDelay   time.Duration
	TriggerTimeout time.Duration
	HeaderWait     time.Duration
	MaxPixels      int

	open     streamOpener
	out      io.Writer
	progress progress
}

func addCaptureFlags(flags *pflag.FlagSet, settings Settings) {
	flags.StringP("output", "o", settings.Output, "image file to write (.png, .jpg or .ppm)")
	flags.Uint("baud", uint(settings.Baud), "the baud rate of the serial port")
	flags.Duration("timeout", settings.ReadTimeout, "how long a single serial read may stay silent")
	flags.Duration("settle", settings.Settle, "pause after opening the serial port")
	flags.Duration("trigger-delay", settings.TriggerDelay, "pause between triggering the device and reading")
	flags.Duration("trigger-timeout", settings.TriggerTimeout, "how long to wait for the device to answer the trigger")
	flags.Duration("wait", 0, "give up if no header arrives within this time (0 waits forever)")
	flags.Int("max-pixels", settings.MaxPixels, "reject frames announcing more pixels than this")
}

func parseCaptureFlags(flags *pflag.FlagSet) (captureOptions, error) {
	var opts captureOptions
	var err error
	if opts.Output, err = flags.GetString("output"); err != nil {
		return opts, err
	}
	baud, err := flags.GetUint("baud")
	if err != nil {
		return opts, err
	}
	opts.Baud = int(baud)
	if opts.ReadTimeout, err = flags.GetDuration("timeout"); err != nil {
		return opts, err
	}
	if opts.Settle, err = flags.GetDuration("settle"); err != nil {
		return opts, err
	}
	if opts.TriggerDelay, err = flags.GetDuration("trigger-delay"); err != nil {
		return opts, err
	}
	if opts.TriggerTimeout, err = flags.GetDuration("trigger-timeout"); err != nil {
		return opts, err
	}
	if opts.HeaderWait, err = flags.GetDuration("wait"); err != nil {
		return opts, err
	}
	if opts.MaxPixels, err = flags.GetInt("max-pixels"); err != nil {
		return opts, err
	}
	if opts.ReadTimeout <= 0 {
		return opts, fmt.Errorf("--timeout must be positive")
	}
	return opts, nil
}

func runCaptureCmd(settings Settings) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		fmt.Println("CYD World Clock Screenshot Capture")
		fmt.Println("==================================================")

		opts, err := parseCaptureFlags(cmd.Flags())
		if err != nil {
			return err
		}

		var portArg string
		if len(args) > 0 {
			portArg = args[0]
		}
		if opts.Port, err = resolvePort(portArg, settings.Port); err != nil {
			if errors.Is(err, ErrPortNotFound) {
				fmt.Println()
				fmt.Println("Couldn't auto-detect ESP32 port.")
				fmt.Println(captureUsage)
				cmd.SilenceErrors = true
			}
			return err
		}
		if len(args) > 1 {
			opts.Host = args[1]
		}

		opts.open = openSerial
		opts.out = os.Stdout
		opts.progress = newProgress(os.Stdout)
		if err := runCapture(cmd.Context(), opts); err != nil {
			log.Error("capture failed", "port", opts.Port, "err", err)
			fmt.Println()
			fmt.Println("✗ Screenshot capture failed")
			cmd.SilenceErrors = true
			return err
		}

		fmt.Println()
		fmt.Println("✓ Screenshot captured successfully!")
		fmt.Printf("  Open %s to view\n", opts.Output)
		return nil
	}
}

// runCapture owns the serial stream for one capture: it opens it, optionally
// triggers the device, reads a frame and writes the image. The stream is
// closed on every path.
func runCapture(ctx context.Context, opts captureOptions) error {
	out := opts.out
	if out == nil {
		out = io.Discard
	}

	fmt.Fprintf(out, "Connecting to %s at %d baud...\n", opts.Port, opts.Baud)
	stream, err := opts.open(opts.Port, opts.Baud, opts.ReadTimeout)
	if err != nil {
		return fmt.Errorf("failed to open serial port '%s': %w", opts.Port, err)
	}
	defer stream.Close()

	if err := sleepContext(ctx, opts.Settle); err != nil {
		return err
	}

	if opts.Host != "" {
		triggerScreenshot(ctx, out, NewDevice(opts.Host), opts.TriggerTimeout)
		if err := sleepContext(ctx, opts.TriggerDelay); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To trigger screenshot via web API, add device IP as second argument:")
		fmt.Fprintf(out, "  ppmcap %s 192.168.1.100\n", opts.Port)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Or manually visit: http://<device-ip>"+screenshotPath)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Waiting for screenshot data on serial port...")
	}

	fmt.Fprintln(out, "Connected. Waiting for PPM header...")
	r := frame.NewReader(stream, out)
	r.HeaderWait = opts.HeaderWait
	r.MaxPixels = opts.MaxPixels
	return decodeAndWrite(ctx, r, out, opts.Output, opts.progress)
}

// decodeAndWrite reads one frame from r and writes it to path. A panic while
// decoding is logged with its stack and returned as an error.
func decodeAndWrite(ctx context.Context, r *frame.Reader, out io.Writer, path string, p progress) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic while decoding frame", "panic", rec, "stack", string(debug.Stack()))
			err = fmt.Errorf("failed to decode frame: %v", rec)
		}
	}()

	if p != nil {
		r.Progress = p.Update
	}
	f, err := r.ReadFrame(ctx)
	if p != nil {
		p.Finish()
	}
	if err != nil {
		return err
	}
	log.Debug("frame received", "format", f.Format, "width", f.Width, "height", f.Height, "shortfall", f.Shortfall())

	if err := frame.WriteFile(path, f.Image()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Screenshot saved to: %s\n", path)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
