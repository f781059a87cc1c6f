package util

import "fmt"

// MinFreeBytes is the free-space floor below which asset generation is
// refused rather than risking a half-written preview.
const MinFreeBytes = 256 * 1024 * 1024

// EnoughSpace reports whether the filesystem holding path has at least
// MinFreeBytes available. Probe failures count as enough; the write itself
// will surface the real error.
func EnoughSpace(path string) bool {
	_, _, free, err := Usage(path)
	if err != nil {
		return true
	}
	return free >= MinFreeBytes
}

// Pretty formats bytes as a human-friendly string.
func Pretty(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPEZY"[exp])
}
