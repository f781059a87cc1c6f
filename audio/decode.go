package audio

import (
	"bytes"
	"encoding/binary"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// AnalysisRate is the sample rate used for preview window selection and
// waveform rendering.
const AnalysisRate = 22050

// Decoded is a mono PCM buffer with samples normalized to [-1, 1].
type Decoded struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the decoded length in seconds.
func (d *Decoded) Duration() float64 {
	if d.SampleRate <= 0 {
		return 0
	}
	return float64(len(d.Samples)) / float64(d.SampleRate)
}

// Decode reads an audio file as mono PCM at the given sample rate.
// maxDuration caps the decoded length in seconds; 0 decodes the whole file.
// ffmpeg does the decoding when present; WAV, MP3 and OGG fall back to the
// pure-Go decoders otherwise.
func Decode(path string, rate int, maxDuration float64) (*Decoded, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &NotFoundError{Path: path}
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return decodeNative(path, rate, maxDuration)
	}
	return decodeFFmpeg(path, rate, maxDuration)
}

func decodeFFmpeg(path string, rate int, maxDuration float64) (*Decoded, error) {
	args := []string{"-i", path}
	if maxDuration > 0 {
		args = append(args, "-t", formatSeconds(maxDuration))
	}
	args = append(args,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", "1",
		"-loglevel", "error",
		"pipe:1")

	cmd := exec.Command("ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &ProcessingError{Op: "decode " + path, Output: stderr.String(), Err: err}
	}

	return &Decoded{Samples: pcm16ToFloat(out), SampleRate: rate}, nil
}

// pcm16ToFloat converts little-endian 16-bit PCM bytes to samples in [-1, 1].
func pcm16ToFloat(raw []byte) []float64 {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	samples := make([]float64, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
		samples[i] = float64(v) / 32768.0
	}
	return samples
}

// Duration returns the total length of an audio file in seconds using
// ffprobe, decoding the file as a fallback when ffprobe is missing.
func Duration(path string) (float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, &NotFoundError{Path: path}
	}

	if _, err := exec.LookPath("ffprobe"); err != nil {
		d, err := decodeNative(path, AnalysisRate, 0)
		if err != nil {
			return 0, err
		}
		return d.Duration(), nil
	}

	cmd := exec.Command("ffprobe",
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path)

	output, err := cmd.Output()
	if err != nil {
		return 0, &ProcessingError{Op: "probe " + path, Err: err}
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, &ProcessingError{Op: "probe " + path, Err: err}
	}

	return duration, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
