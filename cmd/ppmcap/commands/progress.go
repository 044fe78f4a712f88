// Copyright (C) 2026 Toitware ApS. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"
)

type progress interface {
	Update(received, required int)
	Finish()
}

// newProgress draws a progress bar when w is a terminal and falls back to
// one line per whole percent otherwise.
func newProgress(w io.Writer) progress {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return &barProgress{w: w}
	}
	return &percentProgress{w: w, last: -1}
}

type barProgress struct {
	w   io.Writer
	bar *pb.ProgressBar
}

func (p *barProgress) Update(received, required int) {
	if p.bar == nil {
		p.bar = pb.New(required)
		p.bar.Set(pb.Bytes, true)
		p.bar.SetWriter(p.w)
		p.bar.Start()
	}
	p.bar.SetCurrent(int64(received))
}

func (p *barProgress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}

type percentProgress struct {
	w    io.Writer
	last int
}

func (p *percentProgress) Update(received, required int) {
	if required <= 0 {
		return
	}
	percent := received * 100 / required
	if percent == p.last {
		return
	}
	p.last = percent
	fmt.Fprintf(p.w, "Progress: %.1f%%\n", float64(received)*100/float64(required))
}

func (p *percentProgress) Finish() {}
