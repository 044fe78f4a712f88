// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

/*
Package frame reads screenshots that a device streams over a serial link.

A frame starts with a plain-text header and is followed by a fixed number of
raw pixel bytes. Two headers are understood. The binary portable pixmap
header:

	P6
	<width> <height>
	<max value>

is followed by width*height*3 bytes of interleaved RGB, row-major, without
padding. The raw dump header:

	SCREENSHOT_START
	WIDTH:<width>
	HEIGHT:<height>
	DATA:

is followed by width*height*2 bytes of big-endian RGB565.

Any text before a header is debug noise from the device and is echoed but
otherwise ignored.
*/
package frame

import (
	"fmt"
	"image"
	"image/color"
)

// Format identifies the pixel encoding of a frame payload.
type Format int

const (
	// FormatP6 is 8-bit interleaved RGB.
	FormatP6 Format = iota
	// FormatRGB565 is 16-bit big-endian RGB565.
	FormatRGB565
)

func (f Format) String() string {
	switch f {
	case FormatP6:
		return "P6"
	case FormatRGB565:
		return "RGB565"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// BytesPerPixel is the number of payload bytes one pixel occupies.
func (f Format) BytesPerPixel() int {
	if f == FormatRGB565 {
		return 2
	}
	return 3
}

// Header is the geometry announced before the payload.
type Header struct {
	Format Format
	Width  int
	Height int
	// MaxValue is only reported. It is zero when absent or unparsable.
	MaxValue int
}

// Size is the number of payload bytes the header announces.
func (h Header) Size() int {
	return h.Width * h.Height * h.Format.BytesPerPixel()
}

// Frame is one captured screenshot. Pixels always has the full announced
// size; bytes after Received never arrived and are zero.
type Frame struct {
	Header
	Pixels   []byte
	Received int
}

// Shortfall is the number of payload bytes that never arrived.
func (f *Frame) Shortfall() int {
	return len(f.Pixels) - f.Received
}

func (f *Frame) Complete() bool {
	return f.Shortfall() == 0
}

// Image converts the payload into an RGBA image of the announced size.
// Missing trailing pixels are black.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	bpp := f.Format.BytesPerPixel()
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			i := (y*f.Width + x) * bpp
			img.SetRGBA(x, y, f.pixelAt(i))
		}
	}
	return img
}

func (f *Frame) pixelAt(i int) color.RGBA {
	p := f.Pixels[i : i+f.Format.BytesPerPixel()]
	if f.Format == FormatRGB565 {
		return rgb565(uint16(p[0])<<8 | uint16(p[1]))
	}
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
}

// rgb565 expands a 5-6-5 pixel the same way the device firmware does when it
// produces P6 output, so both formats yield identical images.
func rgb565(c uint16) color.RGBA {
	return color.RGBA{
		R: uint8((c>>11)&0x1f) << 3,
		G: uint8((c>>5)&0x3f) << 2,
		B: uint8(c&0x1f) << 3,
		A: 0xff,
	}
}
