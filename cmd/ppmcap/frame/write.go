// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package frame

import (
	"bufio"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Encoder writes an image in one file format.
type Encoder func(w io.Writer, img image.Image) error

// EncoderFor picks an encoder from the file extension of path.
func EncoderFor(path string) (Encoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return png.Encode, nil
	case ".jpg", ".jpeg":
		return func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
		}, nil
	case ".ppm":
		return EncodePPM, nil
	default:
		return nil, fmt.Errorf("unsupported image file extension '%s', use .png, .jpg or .ppm", ext)
	}
}

// EncodePPM writes img as a binary portable pixmap with a max value of 255.
func EncodePPM(w io.Writer, img image.Image) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		return err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if _, err := bw.Write([]byte{byte(r >> 8), byte(g >> 8), byte(bl >> 8)}); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile encodes img into path, choosing the format from the extension.
// The file is written next to its destination and renamed into place so a
// failed capture never leaves a truncated image behind.
func WriteFile(path string, img image.Image) error {
	encode, err := EncoderFor(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ppmcap-*"+filepath.Ext(path))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode '%s': %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
