package audio

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// PreviewBitrate is the MP3 bitrate used for generated previews.
const PreviewBitrate = "192k"

// Transcoder cuts a segment out of a source audio file and re-encodes it
// at dst.
type Transcoder interface {
	Transcode(src, dst string, start, duration float64) error
}

// FFmpegTranscoder shells out to ffmpeg to produce MP3 previews.
type FFmpegTranscoder struct {
	Bitrate string
}

func (t FFmpegTranscoder) Transcode(src, dst string, start, duration float64) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return &ToolUnavailableError{
			Tool: "ffmpeg",
			Hint: "install ffmpeg (e.g. brew install ffmpeg or apt install ffmpeg)",
		}
	}

	bitrate := t.Bitrate
	if bitrate == "" {
		bitrate = PreviewBitrate
	}

	cmd := exec.Command("ffmpeg",
		"-i", src,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-acodec", "libmp3lame",
		"-ab", bitrate,
		"-y",
		dst)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ProcessingError{Op: "transcode " + src, Output: stderr.String(), Err: err}
	}
	return nil
}

// ExtractPreview writes a trimmed MP3 preview of src at dst, overwriting
// any previous file there. The destination directory is created if absent.
func ExtractPreview(src, dst string, start, duration float64) error {
	return ExtractPreviewWith(FFmpegTranscoder{}, src, dst, start, duration)
}

// ExtractPreviewWith is ExtractPreview with a caller-supplied transcoder.
func ExtractPreviewWith(t Transcoder, src, dst string, start, duration float64) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return &NotFoundError{Path: src}
	}

	if dir := filepath.Dir(dst); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %v", err)
		}
	}

	return t.Transcode(src, dst, start, duration)
}
