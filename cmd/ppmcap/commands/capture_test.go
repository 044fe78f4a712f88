package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitlang/ppmcap/cmd/ppmcap/frame"
)

// fakeStream stands in for a serial port.
type fakeStream struct {
	io.Reader
	closed bool
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func ppmBytes(w, h, n int) []byte {
	b := []byte(fmt.Sprintf("boot ok\nP6\n%d %d\n255\n", w, h))
	for i := 0; i < n; i++ {
		b = append(b, byte(i))
	}
	return b
}

func testOptions(t *testing.T, stream *fakeStream) (captureOptions, *bytes.Buffer) {
	var out bytes.Buffer
	return captureOptions{
		Port:         "/dev/ttyUSB0",
		Output:       filepath.Join(t.TempDir(), "screenshot.png"),
		Baud:         115200,
		ReadTimeout:  time.Second,
		TriggerDelay: 0,
		MaxPixels:    frame.DefaultMaxPixels,
		open: func(port string, baud int, readTimeout time.Duration) (io.ReadCloser, error) {
			assert.Equal(t, "/dev/ttyUSB0", port)
			assert.Equal(t, 115200, baud)
			return stream, nil
		},
		out: &out,
	}, &out
}

func decodePNG(t *testing.T, path string) (int, int) {
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func Test_runCapture(t *testing.T) {
	stream := &fakeStream{Reader: bytes.NewReader(ppmBytes(4, 2, 24))}
	opts, out := testOptions(t, stream)

	require.NoError(t, runCapture(context.Background(), opts))
	assert.True(t, stream.closed)
	w, h := decodePNG(t, opts.Output)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	assert.Contains(t, out.String(), "Debug: boot ok")
	assert.Contains(t, out.String(), "Screenshot saved to: "+opts.Output)
}

func Test_runCapture_ShortRead(t *testing.T) {
	stream := &fakeStream{Reader: bytes.NewReader(ppmBytes(4, 2, 7))}
	opts, out := testOptions(t, stream)

	require.NoError(t, runCapture(context.Background(), opts))
	assert.True(t, stream.closed)
	w, h := decodePNG(t, opts.Output)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	assert.Contains(t, out.String(), "WARNING: Expected 24 bytes, got 7")
}

func Test_runCapture_Malformed(t *testing.T) {
	stream := &fakeStream{Reader: bytes.NewReader([]byte("P6\nfour two\n255\n"))}
	opts, _ := testOptions(t, stream)

	err := runCapture(context.Background(), opts)
	assert.ErrorIs(t, err, frame.ErrMalformedHeader)
	assert.True(t, stream.closed)
	_, statErr := os.Stat(opts.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func Test_runCapture_OpenFails(t *testing.T) {
	opts, _ := testOptions(t, nil)
	opts.open = func(string, int, time.Duration) (io.ReadCloser, error) {
		return nil, errors.New("permission denied")
	}

	err := runCapture(context.Background(), opts)
	assert.ErrorContains(t, err, "failed to open serial port '/dev/ttyUSB0'")
}

func Test_runCapture_TriggerFirst(t *testing.T) {
	triggered := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		triggered = true
		w.Write([]byte("Screenshot will be sent via serial."))
	}))
	defer server.Close()

	stream := &fakeStream{Reader: bytes.NewReader(ppmBytes(2, 2, 12))}
	opts, out := testOptions(t, stream)
	opts.Host = server.URL
	opts.TriggerTimeout = time.Second

	require.NoError(t, runCapture(context.Background(), opts))
	assert.True(t, triggered)
	assert.Contains(t, out.String(), "Response: Screenshot will be sent via serial.")
}

func Test_runCapture_TriggerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	address := server.URL
	server.Close()

	stream := &fakeStream{Reader: bytes.NewReader(ppmBytes(2, 2, 12))}
	opts, out := testOptions(t, stream)
	opts.Host = address
	opts.TriggerTimeout = time.Second

	require.NoError(t, runCapture(context.Background(), opts))
	assert.Contains(t, out.String(), "Error triggering screenshot:")
	w, h := decodePNG(t, opts.Output)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)
}

func Test_runCapture_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stream := &fakeStream{Reader: bytes.NewReader(ppmBytes(2, 2, 12))}
	opts, _ := testOptions(t, stream)
	opts.Settle = time.Hour

	err := runCapture(ctx, opts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, stream.closed)
}

// panicProgress simulates a bug in a collaborator during decoding.
type panicProgress struct{}

func (panicProgress) Update(int, int) { panic("boom") }
func (panicProgress) Finish()         {}

func Test_decodeAndWrite_RecoversPanic(t *testing.T) {
	r := frame.NewReader(bytes.NewReader(ppmBytes(2, 2, 12)), io.Discard)
	path := filepath.Join(t.TempDir(), "screenshot.png")

	err := decodeAndWrite(context.Background(), r, io.Discard, path, panicProgress{})
	assert.ErrorContains(t, err, "boom")
}

func Test_percentProgress(t *testing.T) {
	var out bytes.Buffer
	p := newProgress(&out)
	p.Update(1, 1000)
	p.Update(2, 1000)
	p.Update(500, 1000)
	p.Update(1000, 1000)
	p.Finish()
	assert.Equal(t, "Progress: 0.1%\nProgress: 50.0%\nProgress: 100.0%\n", out.String())
}
