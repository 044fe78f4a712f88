package commands

import (
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toitlang/ppmcap/cmd/ppmcap/directory"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func Test_ConfigSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv(directory.UserConfigPathEnv, path)

	require.NoError(t, execute(t, ConfigCmd(), "set", BaudCfgKey, "921600"))
	require.NoError(t, execute(t, ConfigCmd(), "set", OutputCfgKey, "clock.jpg"))

	s, err := GetSettings()
	require.NoError(t, err)
	assert.Equal(t, 921600, s.Baud)
	assert.Equal(t, "clock.jpg", s.Output)
	assert.Equal(t, DefaultSettings().ReadTimeout, s.ReadTimeout)
}

func Test_ConfigSet_Rejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown key", args: []string{"set", "colour", "red"}},
		{name: "bad duration", args: []string{"set", ReadTimeoutCfgKey, "soon"}},
		{name: "bad baud", args: []string{"set", BaudCfgKey, "0"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			t.Setenv(directory.UserConfigPathEnv, path)

			assert.Error(t, execute(t, ConfigCmd(), test.args...))
			assert.NoFileExists(t, path)
		})
	}
}

func Test_DecodeCmd(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "dump.ppm")
	output := filepath.Join(dir, "out.png")
	dump := "boot noise\nP6\n2 1\n255\n" + string([]byte{255, 0, 0, 0, 0, 255})
	require.NoError(t, os.WriteFile(input, []byte(dump), 0644))

	require.NoError(t, execute(t, DecodeCmd(DefaultSettings()), input, "-o", output))

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 1, img.Bounds().Dy())
	r, g, b, _ := img.At(1, 0).RGBA()
	assert.Equal(t, []uint32{0, 0, 0xffff}, []uint32{r, g, b})
}

func Test_DecodeCmd_MissingFile(t *testing.T) {
	err := execute(t, DecodeCmd(DefaultSettings()), filepath.Join(t.TempDir(), "nope.ppm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
}
