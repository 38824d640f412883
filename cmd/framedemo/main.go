// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command framedemo streams generated frames through a framepipe pipeline
// on the software driver and saves the last composited frame.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/framepipe"
	"github.com/gogpu/framepipe/driver"
	"github.com/gogpu/framepipe/driver/soft"
)

var newDriver = func() *soft.Driver { return soft.New() }

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

// run streams the frames and saves the result. The pipeline is released on
// every return path.
func run(args []string) error {
	fs := flag.NewFlagSet("framedemo", flag.ContinueOnError)
	var (
		width    = fs.Int("width", 640, "window width")
		height   = fs.Int("height", 360, "window height")
		frameW   = fs.Int("frame-width", 320, "producer frame width")
		frameH   = fs.Int("frame-height", 180, "producer frame height")
		frames   = fs.Int("frames", 60, "number of frames to post")
		interval = fs.Duration("interval", 4*time.Millisecond, "delay between frames")
		flip     = fs.Bool("flip", false, "post frames bottom-up with a vertical flip transform")
		verbose  = fs.Bool("v", false, "log pipeline events")
		output   = fs.String("output", "frame.png", "output file")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := []framepipe.Option{
		framepipe.WithDriver(newDriver()),
		framepipe.WithClearColor(gputypes.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}),
	}
	if *verbose {
		opts = append(opts, framepipe.WithLogger(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelDebug}))))
	}

	win := soft.NewWindow(*width, *height)
	p, err := framepipe.New(win, opts...)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer p.Release()

	input := p.InputDrawable()
	transform := driver.Identity4()
	if *flip {
		transform = driver.FlipVertical()
	}

	done := make(chan error, 1)
	go func() {
		for i := range *frames {
			img := drawFrame(*frameW, *frameH, i, *frames, *flip)
			if err := input.Post(img, transform); err != nil {
				done <- err
				return
			}
			time.Sleep(*interval)
		}
		done <- nil
	}()
	if err := <-done; err != nil {
		return fmt.Errorf("producer: %w", err)
	}

	// Composite the last frame in case its notification was coalesced
	// into a render that latched an earlier one.
	if err := p.Render(); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	st := p.Stats()
	log.Printf("Posted %d frames: %d notified, %d coalesced, %d rendered, %d failed\n",
		*frames, st.Notified, st.Coalesced, st.Rendered, st.Failed)

	if err := savePNG(*output, win.Snapshot()); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	log.Printf("Frame saved to %s (%dx%d, %d swaps)\n", *output, *width, *height, win.Swaps())
	return nil
}

// drawFrame renders frame i of n: a vertical gradient with a square moving
// left to right. A bottom-up frame stores its top row last.
func drawFrame(w, h, i, n int, bottomUp bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		t := float64(y) / float64(max(h-1, 1))
		c := color.RGBA{
			R: uint8(40 + t*60),  //nolint:gosec // t is in [0, 1]
			G: uint8(60 + t*100), //nolint:gosec // t is in [0, 1]
			B: uint8(120 + t*80), //nolint:gosec // t is in [0, 1]
			A: 255,
		}
		row := y
		if bottomUp {
			row = h - 1 - y
		}
		xdraw.Draw(img, image.Rect(0, row, w, row+1), image.NewUniform(c), image.Point{}, xdraw.Src)
	}

	side := h / 4
	x := (w - side) * i / max(n-1, 1)
	top := h/2 - side/2
	if bottomUp {
		top = h - top - side
	}
	square := image.Rect(x, top, x+side, top+side)
	xdraw.Draw(img, square, image.NewUniform(color.RGBA{R: 255, G: 200, A: 255}), image.Point{}, xdraw.Src)
	return img
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // path is a command-line argument
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
