package audio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
)

// Default waveform rendering settings.
const (
	DefaultWaveformWidth  = 800
	DefaultWaveformHeight = 400
)

var (
	DefaultBackground = color.RGBA{R: 26, G: 26, B: 46, A: 255}
	DefaultWaveColor  = color.RGBA{R: 99, G: 102, B: 241, A: 255}
)

// WaveformOptions controls waveform rendering. Zero values fall back to the
// package defaults.
type WaveformOptions struct {
	Width      int
	Height     int
	Background color.RGBA
	WaveColor  color.RGBA
}

func (o WaveformOptions) withDefaults() WaveformOptions {
	if o.Width <= 0 {
		o.Width = DefaultWaveformWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultWaveformHeight
	}
	var zero color.RGBA
	if o.Background == zero {
		o.Background = DefaultBackground
	}
	if o.WaveColor == zero {
		o.WaveColor = DefaultWaveColor
	}
	return o
}

// ComputeEnvelope reduces samples to one peak amplitude per pixel column,
// normalized so the loudest column is 1.0. The result always has exactly
// width entries; columns past the end of short inputs stay zero, and a
// silent input stays all zero instead of dividing by zero.
func ComputeEnvelope(samples []float64, width int) []float64 {
	if width <= 0 {
		return nil
	}
	env := make([]float64, width)
	if len(samples) == 0 {
		return env
	}

	perPixel := len(samples) / width
	if perPixel == 0 {
		perPixel = 1
	}

	maxVal := 0.0
	for x := 0; x < width; x++ {
		start := x * perPixel
		if start >= len(samples) {
			break
		}
		end := start + perPixel
		if end > len(samples) {
			end = len(samples)
		}
		var peak float64
		for _, s := range samples[start:end] {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
		env[x] = peak
		if peak > maxVal {
			maxVal = peak
		}
	}

	if maxVal > 0 {
		for i := range env {
			env[i] /= maxVal
		}
	}
	return env
}

// RenderWaveform rasterizes decoded samples as a vertically symmetric bar
// chart, one bar per pixel column.
func RenderWaveform(d *Decoded, opts WaveformOptions) *image.RGBA {
	opts = opts.withDefaults()
	return renderEnvelope(ComputeEnvelope(d.Samples, opts.Width), opts)
}

func renderEnvelope(env []float64, opts WaveformOptions) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	for y := 0; y < opts.Height; y++ {
		for x := 0; x < opts.Width; x++ {
			img.SetRGBA(x, y, opts.Background)
		}
	}

	centerY := opts.Height / 2
	for x, amp := range env {
		// Bars reach at most 90% of half the image height
		barHeight := int(math.Round(amp * float64(opts.Height) / 2 * 0.9))
		for y := centerY - barHeight; y <= centerY+barHeight; y++ {
			if y >= 0 && y < opts.Height {
				img.SetRGBA(x, y, opts.WaveColor)
			}
		}
	}
	return img
}

// WriteWaveformPNG renders the waveform and writes it as a PNG, creating
// the destination directory if absent and overwriting any previous file.
func WriteWaveformPNG(d *Decoded, path string, opts WaveformOptions) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %v", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create waveform file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, RenderWaveform(d, opts)); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to encode waveform PNG: %v", err)
	}
	return nil
}
