// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

type encoder interface {
	Encode(interface{}) error
}

// parseFormatFlag returns nil when --list is not set, meaning the caller
// prints its human readable form.
func parseFormatFlag(flags *pflag.FlagSet, w io.Writer) (encoder, error) {
	list, err := flags.GetBool("list")
	if err != nil {
		return nil, err
	}
	if !list {
		return nil, nil
	}
	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "json":
		return json.NewEncoder(w), nil
	case "yaml":
		return yaml.NewEncoder(w), nil
	case "short":
		return newShortEncoder(w), nil
	default:
		return nil, fmt.Errorf("--format flag '%s' was not recognized. Must be either json, yaml or short", format)
	}
}

type shortEncoder struct {
	w io.Writer
}

func newShortEncoder(w io.Writer) *shortEncoder {
	return &shortEncoder{
		w: w,
	}
}

type Elements interface {
	Elements() []Short
}

type Short interface {
	Short() string
}

func (s *shortEncoder) Encode(v interface{}) error {
	es, ok := v.(Elements)
	if !ok {
		return fmt.Errorf("value type %T was not compatible with the Elements interface", v)
	}
	for _, e := range es.Elements() {
		fmt.Fprintln(s.w, e.Short())
	}
	return nil
}
