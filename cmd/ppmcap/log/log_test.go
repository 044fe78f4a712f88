package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Init(t *testing.T) {
	t.Setenv("GO_ENV", "")
	defer Init(os.Stderr, "info")

	tests := []struct {
		level   string
		debug   bool
		info    bool
		warning bool
	}{
		{level: "debug", debug: true, info: true, warning: true},
		{level: "info", info: true, warning: true},
		{level: "bogus", info: true, warning: true},
		{level: "warn", warning: true},
		{level: "error"},
	}

	for _, test := range tests {
		t.Run(test.level, func(t *testing.T) {
			var buf bytes.Buffer
			Init(&buf, test.level)
			Debug("d-message")
			Info("i-message")
			Warn("w-message", "port", "/dev/ttyUSB0")
			assert.Equal(t, test.debug, bytes.Contains(buf.Bytes(), []byte("d-message")))
			assert.Equal(t, test.info, bytes.Contains(buf.Bytes(), []byte("i-message")))
			assert.Equal(t, test.warning, bytes.Contains(buf.Bytes(), []byte("port=/dev/ttyUSB0")))
		})
	}
}

func Test_InitProduction(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	defer Init(os.Stderr, "info")

	var buf bytes.Buffer
	Init(&buf, "info")
	Error("capture failed", "err", "boom")
	assert.Contains(t, buf.String(), `"msg":"capture failed"`)
	assert.Contains(t, buf.String(), `"err":"boom"`)
}
