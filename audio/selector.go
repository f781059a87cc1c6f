package audio

import "math"

// DefaultPreviewSeconds is the length of generated preview clips.
const DefaultPreviewSeconds = 30.0

// energyChunkSeconds is the analysis granularity for window selection.
const energyChunkSeconds = 2

// BestPreviewStart returns the offset in seconds of the most representative
// window of the given length. The track is split into two-second chunks,
// chunks are ranked by RMS amplitude, and the earliest loudest chunk wins.
// The offset is clamped so the window stays inside the track; tracks no
// longer than the window start at zero.
func BestPreviewStart(d *Decoded, previewDuration float64) float64 {
	duration := d.Duration()
	if duration <= previewDuration {
		return 0
	}

	chunkLen := d.SampleRate * energyChunkSeconds
	if chunkLen <= 0 || len(d.Samples) == 0 {
		return 0
	}

	bestIdx := 0
	bestRMS := -1.0
	for i := 0; i*chunkLen < len(d.Samples); i++ {
		start := i * chunkLen
		end := start + chunkLen
		if end > len(d.Samples) {
			end = len(d.Samples)
		}
		if rms := chunkRMS(d.Samples[start:end]); rms > bestRMS {
			bestRMS = rms
			bestIdx = i
		}
	}

	start := float64(bestIdx*chunkLen) / float64(d.SampleRate)
	if start+previewDuration > duration {
		start = duration - previewDuration
		if start < 0 {
			start = 0
		}
	}
	return start
}

// chunkRMS computes root-mean-square amplitude over a chunk.
func chunkRMS(chunk []float64) float64 {
	if len(chunk) == 0 {
		return 0
	}
	var sum float64
	for _, s := range chunk {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(chunk)))
}
