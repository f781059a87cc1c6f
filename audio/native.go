package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// decodeNative decodes WAV, MP3 or OGG without ffmpeg, mixes to mono and
// resamples to the requested rate.
func decodeNative(path string, rate int, maxDuration float64) (*Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ProcessingError{Op: "open " + path, Err: err}
	}
	defer f.Close()

	var (
		samples  []float64
		srcRate  int
		channels int
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		samples, srcRate, channels, err = decodeWAV(f)
	case ".mp3":
		samples, srcRate, channels, err = decodeMP3(f)
	case ".ogg", ".oga":
		samples, srcRate, channels, err = decodeOGG(f)
	default:
		return nil, &ToolUnavailableError{
			Tool: "ffmpeg",
			Hint: "install ffmpeg to decode " + filepath.Ext(path) + " files (e.g. brew install ffmpeg or apt install ffmpeg)",
		}
	}
	if err != nil {
		return nil, &ProcessingError{Op: "decode " + path, Err: err}
	}

	mono := mixMono(samples, channels)
	out := resampleLinear(mono, srcRate, rate)
	if maxDuration > 0 {
		if limit := int(maxDuration * float64(rate)); len(out) > limit {
			out = out[:limit]
		}
	}

	return &Decoded{Samples: out, SampleRate: rate}, nil
}

func decodeWAV(f *os.File) ([]float64, int, int, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, err
	}
	if buf.NumFrames() == 0 {
		return nil, 0, 0, fmt.Errorf("no audio frames")
	}

	return bufferToFloat(buf, dec.BitDepth), buf.Format.SampleRate, buf.Format.NumChannels, nil
}

// bufferToFloat scales an integer PCM buffer to [-1, 1] by its bit depth.
func bufferToFloat(buf *goaudio.IntBuffer, bitDepth uint16) []float64 {
	scale := float64(int64(1) << (bitDepth - 1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}
	return samples
}

func decodeMP3(f *os.File) ([]float64, int, int, error) {
	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, 0, 0, err
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, 0, err
	}

	// go-mp3 always outputs 16-bit stereo
	return pcm16ToFloat(raw), dec.SampleRate(), 2, nil
}

func decodeOGG(f *os.File) ([]float64, int, int, error) {
	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, 0, 0, err
	}

	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}

	return samples, format.SampleRate, format.Channels, nil
}

// mixMono averages interleaved channels down to one.
func mixMono(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		return interleaved
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// resampleLinear converts samples from one rate to another using linear
// interpolation. Good enough for energy analysis and waveform rendering;
// previews are transcoded from the original file, never from this buffer.
func resampleLinear(src []float64, from, to int) []float64 {
	if from == to || from <= 0 || to <= 0 || len(src) == 0 {
		return src
	}

	n := int(float64(len(src)) * float64(to) / float64(from))
	if n == 0 {
		n = 1
	}

	out := make([]float64, n)
	ratio := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = src[idx]*(1-frac) + src[idx+1]*frac
	}
	return out
}
