package audio

import (
	"math"
	"testing"
)

// makeTrack builds a decoded buffer of the given length in seconds where
// every two-second chunk has the base amplitude except the ones listed in
// loud, which get the loud amplitude.
func makeTrack(rate int, seconds float64, base, loudAmp float64, loud ...int) *Decoded {
	samples := make([]float64, int(seconds*float64(rate)))
	for i := range samples {
		samples[i] = base
	}
	chunkLen := rate * energyChunkSeconds
	for _, idx := range loud {
		start := idx * chunkLen
		end := start + chunkLen
		if end > len(samples) {
			end = len(samples)
		}
		for i := start; i < end; i++ {
			samples[i] = loudAmp
		}
	}
	return &Decoded{Samples: samples, SampleRate: rate}
}

func TestBestPreviewStartShortTrack(t *testing.T) {
	// 10-second track with a 30-second preview window starts at zero
	d := makeTrack(100, 10, 0.1, 0.9, 2)
	if got := BestPreviewStart(d, 30); got != 0 {
		t.Errorf("BestPreviewStart = %v, want 0 for short track", got)
	}
}

func TestBestPreviewStartPicksLoudestChunk(t *testing.T) {
	// 120-second track, loudest chunk spans [40s,42s)
	d := makeTrack(100, 120, 0.1, 0.9, 20)
	if got := BestPreviewStart(d, 30); got != 40 {
		t.Errorf("BestPreviewStart = %v, want 40", got)
	}
}

func TestBestPreviewStartClampsToEnd(t *testing.T) {
	// 50-second track with its peak in [48s,50s): naive offset 48 would
	// overrun, so it clamps to 50-30=20
	d := makeTrack(100, 50, 0.1, 0.9, 24)
	if got := BestPreviewStart(d, 30); got != 20 {
		t.Errorf("BestPreviewStart = %v, want 20", got)
	}
}

func TestBestPreviewStartTieBreaksLow(t *testing.T) {
	// Chunks 3 and 7 have identical RMS; the earlier one wins
	d := makeTrack(100, 40, 0.1, 0.5, 3, 7)
	if got := BestPreviewStart(d, 4); got != 6 {
		t.Errorf("BestPreviewStart = %v, want 6 (chunk 3)", got)
	}
}

func TestBestPreviewStartDeterministic(t *testing.T) {
	d := makeTrack(100, 90, 0.2, 0.8, 11)
	first := BestPreviewStart(d, 30)
	for i := 0; i < 5; i++ {
		if got := BestPreviewStart(d, 30); got != first {
			t.Fatalf("BestPreviewStart changed between calls: %v then %v", first, got)
		}
	}
}

func TestBestPreviewStartBounds(t *testing.T) {
	const eps = 1e-9
	cases := []struct {
		seconds float64
		preview float64
		loud    int
	}{
		{5, 30, 1},
		{31, 30, 15},
		{60, 30, 29},
		{200, 30, 0},
		{200, 30, 99},
	}
	for _, tc := range cases {
		d := makeTrack(100, tc.seconds, 0.1, 0.9, tc.loud)
		start := BestPreviewStart(d, tc.preview)
		if start < 0 {
			t.Errorf("seconds=%v: negative start %v", tc.seconds, start)
		}
		window := math.Min(tc.preview, tc.seconds)
		if start+window > tc.seconds+eps {
			t.Errorf("seconds=%v: window [%v,%v) overruns track", tc.seconds, start, start+window)
		}
	}
}

func TestBestPreviewStartSilentTrack(t *testing.T) {
	// All-zero samples: every chunk ties at zero RMS, chunk 0 wins
	d := &Decoded{Samples: make([]float64, 100*60), SampleRate: 100}
	if got := BestPreviewStart(d, 30); got != 0 {
		t.Errorf("BestPreviewStart = %v, want 0 for silence", got)
	}
}

func TestChunkRMS(t *testing.T) {
	if got := chunkRMS(nil); got != 0 {
		t.Errorf("chunkRMS(nil) = %v, want 0", got)
	}
	got := chunkRMS([]float64{0.5, -0.5, 0.5, -0.5})
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("chunkRMS = %v, want 0.5", got)
	}
	// RMS of mixed amplitudes: sqrt((1+0+0.25+0.25)/4)
	got = chunkRMS([]float64{1, 0, 0.5, -0.5})
	want := math.Sqrt(1.5 / 4)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("chunkRMS = %v, want %v", got, want)
	}
}
