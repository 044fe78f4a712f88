// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package frame

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultChunkSize is the largest single read of pixel data.
	DefaultChunkSize = 4096
	// DefaultMaxPixels bounds width*height before the payload is allocated.
	DefaultMaxPixels = 4096 * 4096

	magicP6     = "P6"
	magicRaw    = "SCREENSHOT_START"
	maxLineSize = 4096
)

var (
	ErrMalformedHeader = errors.New("malformed header")
	ErrNoHeader        = errors.New("no frame header received")
	// ErrReadTimeout is returned by streams whose read timed out without
	// delivering any bytes.
	ErrReadTimeout = errors.New("read timeout")
)

// IsTimeout reports whether err means a read delivered nothing because the
// sender was silent for too long.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrReadTimeout) || errors.Is(err, io.ErrNoProgress) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Reader extracts frames from a byte stream. Status text (noise lines,
// geometry, warnings) is written to the out writer given to NewReader.
type Reader struct {
	rd  *bufio.Reader
	out io.Writer

	// ChunkSize caps the size of each payload read.
	ChunkSize int
	// MaxPixels rejects headers announcing more than this many pixels.
	MaxPixels int
	// HeaderWait bounds how long to scan for a header. Zero waits forever.
	HeaderWait time.Duration
	// Progress, if set, is called after every payload chunk.
	Progress func(received, required int)

	now func() time.Time
}

func NewReader(r io.Reader, out io.Writer) *Reader {
	if out == nil {
		out = io.Discard
	}
	return &Reader{
		rd:        bufio.NewReaderSize(r, maxLineSize),
		out:       out,
		ChunkSize: DefaultChunkSize,
		MaxPixels: DefaultMaxPixels,
		now:       time.Now,
	}
}

// ReadFrame scans for a header and reads the payload that follows it. A
// payload cut short by a silent or closed stream is not an error; the
// returned frame then reports a non-zero Shortfall.
func (r *Reader) ReadFrame(ctx context.Context) (*Frame, error) {
	h, err := r.ReadHeader(ctx)
	if err != nil {
		return nil, err
	}
	return r.ReadPayload(ctx, h)
}

// ReadHeader skips lines until a known header starts and parses it.
func (r *Reader) ReadHeader(ctx context.Context) (Header, error) {
	deadline := r.headerDeadline()
	for {
		line, err := r.readLine(ctx, deadline)
		if errors.Is(err, io.EOF) {
			return Header{}, fmt.Errorf("%w: stream ended", ErrNoHeader)
		}
		if err != nil {
			return Header{}, err
		}

		switch line {
		case magicP6:
			fmt.Fprintln(r.out, "Found PPM header!")
			return r.readP6Header(ctx)
		case magicRaw:
			fmt.Fprintln(r.out, "Found raw RGB565 header!")
			return r.readRawHeader(ctx)
		case "":
		default:
			fmt.Fprintf(r.out, "Debug: %s\n", line)
		}
		if !deadline.IsZero() && !r.now().Before(deadline) {
			return Header{}, fmt.Errorf("%w within %s", ErrNoHeader, r.HeaderWait)
		}
	}
}

func (r *Reader) readP6Header(ctx context.Context) (Header, error) {
	dims, err := r.headerLine(ctx)
	if err != nil {
		return Header{}, err
	}
	fields := strings.Fields(dims)
	if len(fields) < 2 {
		return Header{}, fmt.Errorf("%w: expected '<width> <height>', got %q", ErrMalformedHeader, dims)
	}
	width, err := parseDimension("width", fields[0])
	if err != nil {
		return Header{}, err
	}
	height, err := parseDimension("height", fields[1])
	if err != nil {
		return Header{}, err
	}
	fmt.Fprintf(r.out, "Dimensions: %dx%d\n", width, height)

	maxLine, err := r.headerLine(ctx)
	if err != nil {
		return Header{}, err
	}
	maxValue, _ := strconv.Atoi(maxLine)
	fmt.Fprintf(r.out, "Max color value: %s\n", maxLine)

	h := Header{
		Format:   FormatP6,
		Width:    width,
		Height:   height,
		MaxValue: maxValue,
	}
	return h, r.checkSize(h)
}

func (r *Reader) readRawHeader(ctx context.Context) (Header, error) {
	width, err := r.keyedDimension(ctx, "WIDTH")
	if err != nil {
		return Header{}, err
	}
	height, err := r.keyedDimension(ctx, "HEIGHT")
	if err != nil {
		return Header{}, err
	}
	fmt.Fprintf(r.out, "Dimensions: %dx%d\n", width, height)

	data, err := r.headerLine(ctx)
	if err != nil {
		return Header{}, err
	}
	if data != "DATA:" {
		return Header{}, fmt.Errorf("%w: expected 'DATA:', got %q", ErrMalformedHeader, data)
	}

	h := Header{
		Format: FormatRGB565,
		Width:  width,
		Height: height,
	}
	return h, r.checkSize(h)
}

func (r *Reader) keyedDimension(ctx context.Context, key string) (int, error) {
	line, err := r.headerLine(ctx)
	if err != nil {
		return 0, err
	}
	k, v, ok := strings.Cut(line, ":")
	if !ok || k != key {
		return 0, fmt.Errorf("%w: expected '%s:<n>', got %q", ErrMalformedHeader, key, line)
	}
	return parseDimension(strings.ToLower(key), strings.TrimSpace(v))
}

func parseDimension(name string, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrMalformedHeader, name, s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", ErrMalformedHeader, name, n)
	}
	return n, nil
}

func (r *Reader) checkSize(h Header) error {
	if r.MaxPixels > 0 && h.Width > r.MaxPixels/h.Height {
		return fmt.Errorf("%w: %dx%d exceeds the limit of %d pixels", ErrMalformedHeader, h.Width, h.Height, r.MaxPixels)
	}
	return nil
}

// ReadPayload reads the pixel bytes announced by h.
func (r *Reader) ReadPayload(ctx context.Context, h Header) (*Frame, error) {
	size := h.Size()
	f := &Frame{
		Header: h,
		Pixels: make([]byte, size),
	}

	fmt.Fprintln(r.out, "Reading pixel data...")
	chunk := r.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	for f.Received < size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(chunk, size-f.Received)
		k, err := r.rd.Read(f.Pixels[f.Received : f.Received+n])
		f.Received += k
		if k > 0 && r.Progress != nil {
			r.Progress(f.Received, size)
		}
		if err != nil && !IsTimeout(err) && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read pixel data: %w", err)
		}
		if k == 0 || err != nil {
			break
		}
	}

	fmt.Fprintf(r.out, "Received %d bytes\n", f.Received)
	if !f.Complete() {
		fmt.Fprintf(r.out, "WARNING: Expected %d bytes, got %d\n", size, f.Received)
	}
	return f, nil
}

func (r *Reader) headerDeadline() time.Time {
	if r.HeaderWait <= 0 {
		return time.Time{}
	}
	return r.now().Add(r.HeaderWait)
}

// headerLine reads a line that belongs to a header that has already started.
func (r *Reader) headerLine(ctx context.Context) (string, error) {
	line, err := r.readLine(ctx, r.headerDeadline())
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: stream ended inside the header", ErrMalformedHeader)
	}
	return line, err
}

// readLine returns the next line with non-ASCII bytes removed and surrounding
// space trimmed. Read timeouts are retried until the deadline, if any.
func (r *Reader) readLine(ctx context.Context, deadline time.Time) (string, error) {
	var line []byte
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		chunk, err := r.rd.ReadSlice('\n')
		if len(line) < maxLineSize {
			line = append(line, chunk...)
		}
		switch {
		case err == nil:
			return asciiLine(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
		case IsTimeout(err):
			if !deadline.IsZero() && !r.now().Before(deadline) {
				return "", fmt.Errorf("%w within %s", ErrNoHeader, r.HeaderWait)
			}
		case errors.Is(err, io.EOF):
			if len(line) > 0 {
				return asciiLine(line), nil
			}
			return "", io.EOF
		default:
			return "", err
		}
	}
}

func asciiLine(b []byte) string {
	res := make([]byte, 0, len(b))
	for _, c := range b {
		if c < 0x80 {
			res = append(res, c)
		}
	}
	return strings.TrimSpace(string(res))
}
