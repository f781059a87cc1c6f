package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
)

func TestBufferToFloat(t *testing.T) {
	buf := &goaudio.IntBuffer{Data: []int{0, 16384, -32768}}
	got := bufferToFloat(buf, 16)

	if len(got) != 3 {
		t.Fatalf("got %d samples, want 3", len(got))
	}
	if got[0] != 0 || got[1] != 0.5 || got[2] != -1.0 {
		t.Errorf("scaled samples = %v, want [0 0.5 -1]", got)
	}

	// 24-bit depth scales by 1<<23
	got = bufferToFloat(&goaudio.IntBuffer{Data: []int{-8388608}}, 24)
	if got[0] != -1.0 {
		t.Errorf("24-bit full scale = %v, want -1", got[0])
	}
}

func TestPCM16ToFloat(t *testing.T) {
	raw := []byte{
		0x00, 0x00, // 0
		0xFF, 0x7F, // 32767
		0x00, 0x80, // -32768
	}
	samples := pcm16ToFloat(raw)
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("samples[0] = %v, want 0", samples[0])
	}
	if math.Abs(samples[1]-32767.0/32768.0) > 1e-12 {
		t.Errorf("samples[1] = %v", samples[1])
	}
	if samples[2] != -1.0 {
		t.Errorf("samples[2] = %v, want -1", samples[2])
	}
}

func TestPCM16ToFloatOddLength(t *testing.T) {
	// Trailing odd byte is dropped, not a panic
	samples := pcm16ToFloat([]byte{0x00, 0x00, 0xFF})
	if len(samples) != 1 {
		t.Errorf("got %d samples, want 1", len(samples))
	}
}

func TestMixMono(t *testing.T) {
	stereo := []float64{1, 0, 0.5, -0.5, -1, -1}
	mono := mixMono(stereo, 2)
	want := []float64{0.5, 0, -1}
	if len(mono) != len(want) {
		t.Fatalf("got %d frames, want %d", len(mono), len(want))
	}
	for i := range want {
		if mono[i] != want[i] {
			t.Errorf("frame %d = %v, want %v", i, mono[i], want[i])
		}
	}

	// Mono input passes through untouched
	in := []float64{0.1, 0.2}
	if out := mixMono(in, 1); &out[0] != &in[0] {
		t.Error("mono input should pass through")
	}
}

func TestResampleLinear(t *testing.T) {
	src := []float64{0, 1, 0, -1}

	if out := resampleLinear(src, 100, 100); &out[0] != &src[0] {
		t.Error("equal rates should pass through")
	}

	half := resampleLinear(src, 100, 50)
	if len(half) != 2 {
		t.Fatalf("downsample length = %d, want 2", len(half))
	}
	if half[0] != 0 || half[1] != 0 {
		t.Errorf("downsampled = %v, want [0 0]", half)
	}

	double := resampleLinear([]float64{0, 1}, 50, 100)
	if len(double) != 4 {
		t.Fatalf("upsample length = %d, want 4", len(double))
	}
	if double[0] != 0 || double[1] != 0.5 || double[2] != 1 {
		t.Errorf("upsampled = %v", double)
	}
}

func TestDecodedDuration(t *testing.T) {
	d := &Decoded{Samples: make([]float64, 44100), SampleRate: 22050}
	if got := d.Duration(); got != 2 {
		t.Errorf("Duration = %v, want 2", got)
	}
	empty := &Decoded{}
	if got := empty.Duration(); got != 0 {
		t.Errorf("empty Duration = %v, want 0", got)
	}
}

// writeTestWAV writes a canonical 16-bit PCM WAV file.
func writeTestWAV(t *testing.T, path string, samples []int16, rate, channels int) {
	t.Helper()

	var buf bytes.Buffer
	dataLen := len(samples) * 2
	byteRate := rate * channels * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(rate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(channels*2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, s)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeNativeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	// One second of a square-ish stereo signal at 8kHz
	samples := make([]int16, 8000*2)
	for i := 0; i < len(samples); i += 2 {
		samples[i] = 16384
		samples[i+1] = -16384
	}
	writeTestWAV(t, path, samples, 8000, 2)

	d, err := decodeNative(path, 8000, 0)
	if err != nil {
		t.Fatalf("decodeNative: %v", err)
	}
	if d.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", d.SampleRate)
	}
	if len(d.Samples) != 8000 {
		t.Errorf("got %d mono frames, want 8000", len(d.Samples))
	}
	// Opposite-phase stereo averages to silence
	for i, s := range d.Samples[:10] {
		if math.Abs(s) > 1e-9 {
			t.Fatalf("frame %d = %v, want 0 after mono mix", i, s)
		}
	}
}

func TestDecodeNativeMaxDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "long.wav")

	samples := make([]int16, 8000*4) // 4 seconds mono
	for i := range samples {
		samples[i] = 1000
	}
	writeTestWAV(t, path, samples, 8000, 1)

	d, err := decodeNative(path, 8000, 1.5)
	if err != nil {
		t.Fatalf("decodeNative: %v", err)
	}
	if want := 12000; len(d.Samples) != want {
		t.Errorf("capped decode has %d samples, want %d", len(d.Samples), want)
	}
}

func TestDecodeNativeUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.flac")
	if err := os.WriteFile(path, []byte("fLaC"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := decodeNative(path, AnalysisRate, 0)
	var tu *ToolUnavailableError
	if !errors.As(err, &tu) {
		t.Fatalf("got %v, want ToolUnavailableError", err)
	}
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := Decode("/no/such/file.wav", AnalysisRate, 0)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}
